package services

import (
	"context"
	"testing"

	"github.com/oficina/chat/internal/app/models"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/pkg/apperrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkspaceFixture(t *testing.T, pres PresenceReader) (*memStore, WorkspaceService, map[string]*models.User) {
	t.Helper()
	store := newMemStore()
	svc := NewWorkspaceService(memWorkspaces{store}, memMembers{store}, memUsers{store}, memGroups{store},
		pres, "general", zerolog.Nop())

	users := map[string]*models.User{}
	for _, name := range []string{"Ada", "Bob", "Cy"} {
		u := &models.User{Email: name + "@example.com", Name: name}
		require.NoError(t, memUsers{store}.Create(context.Background(), u))
		users[name] = u
	}
	return store, svc, users
}

func TestCreateWorkspaceSeedsDefaultChannel(t *testing.T) {
	store, svc, users := newWorkspaceFixture(t, staticPresence{})
	ctx := context.Background()

	ws, err := svc.CreateWorkspace(ctx, users["Ada"].ID, &dto.CreateWorkspaceRequest{Name: " Office "})
	require.NoError(t, err)
	assert.Equal(t, "Office", ws.Name)
	assert.Equal(t, users["Ada"].ID, ws.OwnerID)

	groups, err := memGroups{store}.ListByWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "general", groups[0].Name)
}

func TestInviteAcceptAndRoster(t *testing.T) {
	_, svc, users := newWorkspaceFixture(t, staticPresence{online: map[string]bool{}})
	ctx := context.Background()
	ada, bob, cy := users["Ada"], users["Bob"], users["Cy"]

	ws, err := svc.CreateWorkspace(ctx, ada.ID, &dto.CreateWorkspaceRequest{Name: "Office"})
	require.NoError(t, err)

	inv, err := svc.InviteMember(ctx, ada.ID, ws.ID, &dto.InviteMemberRequest{Email: "BOB@example.com"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, inv.UserID)
	assert.False(t, inv.Accepted)

	_, err = svc.InviteMember(ctx, ada.ID, ws.ID, &dto.InviteMemberRequest{Email: "bob@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = svc.InviteMember(ctx, ada.ID, ws.ID, &dto.InviteMemberRequest{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)

	// Pending invitees are not members yet
	_, err = svc.InviteMember(ctx, bob.ID, ws.ID, &dto.InviteMemberRequest{Email: "cy@example.com"})
	assert.ErrorIs(t, err, apperrors.ErrNotMember)

	roster, err := svc.ListMembers(ctx, ada.ID, ws.ID)
	require.NoError(t, err)
	assert.Empty(t, roster)

	accepted, err := svc.AcceptInvitation(ctx, bob.ID, ws.ID)
	require.NoError(t, err)
	assert.True(t, accepted.Accepted)

	_, err = svc.AcceptInvitation(ctx, cy.ID, ws.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvitationNotFound)

	roster, err = svc.ListMembers(ctx, ada.ID, ws.ID)
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "Bob", roster[0].Name)
}

func TestListMembersExcludesCallerAndMarksPresence(t *testing.T) {
	store, _, users := newWorkspaceFixture(t, nil)
	ctx := context.Background()
	ada, bob, cy := users["Ada"], users["Bob"], users["Cy"]

	ws := &models.Workspace{Name: "Office", OwnerID: ada.ID}
	require.NoError(t, memWorkspaces{store}.CreateWithOwner(ctx, ws))
	for _, u := range []*models.User{bob, cy} {
		store.members[memberKey(ws.ID, u.ID)] = &models.WorkspaceMember{WorkspaceID: ws.ID, UserID: u.ID, Accepted: true}
	}

	svc := NewWorkspaceService(memWorkspaces{store}, memMembers{store}, memUsers{store}, memGroups{store},
		staticPresence{online: map[string]bool{bob.ID: true}}, "", zerolog.Nop())

	roster, err := svc.ListMembers(ctx, ada.ID, ws.ID)
	require.NoError(t, err)
	require.Len(t, roster, 2)

	byName := map[string]dto.MemberSummaryResponse{}
	for _, m := range roster {
		byName[m.Name] = m
		assert.NotEqual(t, ada.ID, m.ID)
	}
	assert.True(t, byName["Bob"].Online)
	assert.False(t, byName["Cy"].Online)

	svc = NewWorkspaceService(memWorkspaces{store}, memMembers{store}, memUsers{store}, memGroups{store},
		staticPresence{err: assert.AnError}, "", zerolog.Nop())
	roster, err = svc.ListMembers(ctx, ada.ID, ws.ID)
	require.NoError(t, err)
	for _, m := range roster {
		assert.False(t, m.Online)
	}
}
