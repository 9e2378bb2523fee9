package seed

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/pkg/apperrors"
)

type fakeAuth struct {
	users map[string]string
}

func (f *fakeAuth) Register(_ context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if _, ok := f.users[req.Email]; ok {
		return nil, apperrors.ErrEmailAlreadyExists
	}
	id := fmt.Sprintf("u%d", len(f.users)+1)
	f.users[req.Email] = id
	return &dto.AuthResponse{User: dto.UserResponse{ID: id, Email: req.Email, Name: req.Name}}, nil
}

func (f *fakeAuth) Login(_ context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	id, ok := f.users[req.Email]
	if !ok || req.Password != DemoPassword {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &dto.AuthResponse{User: dto.UserResponse{ID: id, Email: req.Email}}, nil
}

func (f *fakeAuth) GetUser(context.Context, string) (*dto.UserResponse, error) {
	return nil, apperrors.ErrUserNotFound
}

type fakeWorkspaces struct {
	created  int
	invited  []string
	accepted []string
}

func (f *fakeWorkspaces) CreateWorkspace(_ context.Context, userID string, req *dto.CreateWorkspaceRequest) (*dto.WorkspaceResponse, error) {
	f.created++
	return &dto.WorkspaceResponse{ID: "ws1", Name: req.Name, OwnerID: userID}, nil
}

func (f *fakeWorkspaces) ListMembers(context.Context, string, string) ([]dto.MemberSummaryResponse, error) {
	return nil, nil
}

func (f *fakeWorkspaces) InviteMember(_ context.Context, _, workspaceID string, req *dto.InviteMemberRequest) (*dto.InvitationResponse, error) {
	f.invited = append(f.invited, req.Email)
	return &dto.InvitationResponse{WorkspaceID: workspaceID}, nil
}

func (f *fakeWorkspaces) AcceptInvitation(_ context.Context, userID, workspaceID string) (*dto.InvitationResponse, error) {
	f.accepted = append(f.accepted, userID)
	return &dto.InvitationResponse{WorkspaceID: workspaceID, UserID: userID, Accepted: true}, nil
}

type fakeChat struct {
	groups   []dto.ChatGroupResponse
	messages []dto.CreateChatMessageRequest
}

func (f *fakeChat) ListGroups(context.Context, string, string) ([]dto.ChatGroupResponse, error) {
	return f.groups, nil
}

func (f *fakeChat) CreateGroup(_ context.Context, _, workspaceID string, req *dto.CreateChatGroupRequest) (*dto.ChatGroupResponse, error) {
	g := dto.ChatGroupResponse{ID: "g-" + req.Name, WorkspaceID: workspaceID, Name: req.Name}
	f.groups = append(f.groups, g)
	return &g, nil
}

func (f *fakeChat) ListMessages(context.Context, string, string) ([]dto.ChatMessageResponse, error) {
	return nil, nil
}

func (f *fakeChat) SendMessage(_ context.Context, _, groupID string, req *dto.CreateChatMessageRequest) (*dto.ChatMessageResponse, error) {
	f.messages = append(f.messages, *req)
	return &dto.ChatMessageResponse{GroupID: groupID, Content: req.Content}, nil
}

func (f *fakeChat) AuthorizeGroup(context.Context, string, string) (*dto.ChatGroupResponse, error) {
	return nil, nil
}

func TestCreateDemoDataIsIdempotent(t *testing.T) {
	auth := &fakeAuth{users: map[string]string{}}
	ws := &fakeWorkspaces{}
	// The workspace service seeds the default channel.
	chat := &fakeChat{groups: []dto.ChatGroupResponse{{ID: "g-general", Name: "general"}}}
	svc := Services{Auth: auth, Workspace: ws, Chat: chat}

	require.NoError(t, CreateDemoData(context.Background(), svc, zerolog.Nop()))
	assert.Len(t, auth.users, 3)
	assert.Equal(t, 1, ws.created)
	assert.Equal(t, []string{"grace@oficina.local", "linus@oficina.local"}, ws.invited)
	assert.Equal(t, []string{"u2", "u3"}, ws.accepted)
	assert.Len(t, chat.groups, 2)
	require.Len(t, chat.messages, 1)
	assert.Equal(t, "system", chat.messages[0].Kind)

	require.NoError(t, CreateDemoData(context.Background(), svc, zerolog.Nop()))
	assert.Equal(t, 1, ws.created)
	assert.Len(t, chat.messages, 1)
}
