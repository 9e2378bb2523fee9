package services

import (
	"context"
	"testing"

	"github.com/oficina/chat/internal/app/models"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/pkg/apperrors"
	"github.com/oficina/chat/internal/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatFixture struct {
	store     *memStore
	svc       ChatService
	publisher *recordingPublisher
	exporter  *recordingExporter
	metrics   *metrics.Metrics
	ada       *models.User
	bob       *models.User
	ws        *models.Workspace
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	ctx := context.Background()
	store := newMemStore()
	f := &chatFixture{
		store:     store,
		publisher: &recordingPublisher{},
		exporter:  &recordingExporter{},
		metrics:   metrics.NewNop(),
	}
	f.svc = NewChatService(memGroups{store}, memMessages{store}, memMembers{store}, memUsers{store},
		f.publisher, f.exporter, f.metrics, zerolog.Nop())

	f.ada = &models.User{Email: "ada@example.com", Name: "Ada"}
	f.bob = &models.User{Email: "bob@example.com", Name: "Bob"}
	require.NoError(t, memUsers{store}.Create(ctx, f.ada))
	require.NoError(t, memUsers{store}.Create(ctx, f.bob))

	f.ws = &models.Workspace{Name: "Office", OwnerID: f.ada.ID}
	require.NoError(t, memWorkspaces{store}.CreateWithOwner(ctx, f.ws))
	return f
}

func TestCreateGroupDefaults(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	group, err := f.svc.CreateGroup(ctx, f.ada.ID, f.ws.ID, &dto.CreateChatGroupRequest{Name: "  design  "})
	require.NoError(t, err)
	assert.Equal(t, "design", group.Name)
	assert.Equal(t, "public", group.Visibility)
	assert.Equal(t, models.DefaultGroupIcon, group.Icon)
	assert.Equal(t, f.ada.ID, group.CreatedBy)

	_, err = f.svc.CreateGroup(ctx, f.ada.ID, f.ws.ID, &dto.CreateChatGroupRequest{Name: "design"})
	assert.ErrorIs(t, err, apperrors.ErrGroupAlreadyExists)

	_, err = f.svc.CreateGroup(ctx, f.ada.ID, f.ws.ID, &dto.CreateChatGroupRequest{Name: "   "})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = f.svc.CreateGroup(ctx, f.bob.ID, f.ws.ID, &dto.CreateChatGroupRequest{Name: "random"})
	assert.ErrorIs(t, err, apperrors.ErrNotMember)
}

func TestListGroupsInCreationOrder(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	for _, name := range []string{"general", "design", "announcements"} {
		_, err := f.svc.CreateGroup(ctx, f.ada.ID, f.ws.ID, &dto.CreateChatGroupRequest{Name: name})
		require.NoError(t, err)
	}

	groups, err := f.svc.ListGroups(ctx, f.ada.ID, f.ws.ID)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Equal(t, []string{"general", "design", "announcements"},
		[]string{groups[0].Name, groups[1].Name, groups[2].Name})

	_, err = f.svc.ListGroups(ctx, f.bob.ID, f.ws.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotMember)
}

func TestSendMessagePublishesAndExports(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	group, err := f.svc.CreateGroup(ctx, f.ada.ID, f.ws.ID, &dto.CreateChatGroupRequest{Name: "general"})
	require.NoError(t, err)

	msg, err := f.svc.SendMessage(ctx, f.ada.ID, group.ID, &dto.CreateChatMessageRequest{Content: "  hello  "})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "text", msg.Kind)
	require.NotNil(t, msg.Author)
	assert.Equal(t, "Ada", msg.Author.Name)

	require.Len(t, f.publisher.events, 1)
	ev := f.publisher.events[0]
	assert.Equal(t, dto.RealtimeEventInsert, ev.Event)
	assert.Equal(t, group.ID, ev.GroupID)
	assert.Equal(t, msg.ID, ev.New.ID)

	assert.Equal(t, []string{f.ws.ID}, f.exporter.workspaces)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MessagesSent.WithLabelValues("text")))

	history, err := f.svc.ListMessages(ctx, f.ada.ID, group.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
}

func TestSendMessageRejections(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()

	group, err := f.svc.CreateGroup(ctx, f.ada.ID, f.ws.ID, &dto.CreateChatGroupRequest{Name: "general"})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.ada.ID, group.ID, &dto.CreateChatMessageRequest{Content: " \n\t "})
	assert.ErrorIs(t, err, apperrors.ErrEmptyMessage)

	_, err = f.svc.SendMessage(ctx, f.bob.ID, group.ID, &dto.CreateChatMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrNotMember)

	_, err = f.svc.SendMessage(ctx, f.ada.ID, "missing", &dto.CreateChatMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, apperrors.ErrGroupNotFound)

	assert.Empty(t, f.publisher.events)
	assert.Empty(t, f.store.messages)
}

func TestSendMessageSurvivesExportFailure(t *testing.T) {
	f := newChatFixture(t)
	ctx := context.Background()
	f.exporter.err = errExportDown

	group, err := f.svc.CreateGroup(ctx, f.ada.ID, f.ws.ID, &dto.CreateChatGroupRequest{Name: "general"})
	require.NoError(t, err)

	_, err = f.svc.SendMessage(ctx, f.ada.ID, group.ID, &dto.CreateChatMessageRequest{Content: "hi", Kind: "image"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ExportFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MessagesSent.WithLabelValues("image")))
	assert.Len(t, f.publisher.events, 1)
}
