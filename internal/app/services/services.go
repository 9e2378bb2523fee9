package services

import (
	"context"

	"github.com/oficina/chat/internal/app/models"
	"github.com/oficina/chat/internal/app/models/dto"
)

// UserStore is the user persistence used by the services
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
}

// WorkspaceStore persists workspaces
type WorkspaceStore interface {
	CreateWithOwner(ctx context.Context, ws *models.Workspace) error
	GetByID(ctx context.Context, id string) (*models.Workspace, error)
}

// MemberStore persists memberships and invitations
type MemberStore interface {
	AcceptedUserIDs(ctx context.Context, workspaceID string) ([]string, error)
	IsAcceptedMember(ctx context.Context, workspaceID, userID string) (bool, error)
	Invite(ctx context.Context, member *models.WorkspaceMember) error
	Accept(ctx context.Context, workspaceID, userID string) error
}

// GroupStore persists chat groups
type GroupStore interface {
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.ChatGroup, error)
	GetByID(ctx context.Context, id string) (*models.ChatGroup, error)
	Create(ctx context.Context, group *models.ChatGroup) error
}

// MessageStore persists chat messages
type MessageStore interface {
	ListByGroup(ctx context.Context, groupID string) ([]*models.ChatMessage, error)
	Create(ctx context.Context, message *models.ChatMessage) error
}

// EventPublisher pushes realtime events to subscribers
type EventPublisher interface {
	Publish(ctx context.Context, event *dto.RealtimeEvent) error
}

// PresenceReader answers which users are online in a workspace
type PresenceReader interface {
	Online(ctx context.Context, workspaceID string) (map[string]bool, error)
}
