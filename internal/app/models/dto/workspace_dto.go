package dto

import (
	"time"

	"github.com/oficina/chat/internal/app/models"
)

// CreateWorkspaceRequest represents data for creating a workspace
type CreateWorkspaceRequest struct {
	Name string `json:"name" binding:"required,max=120"`
}

// InviteMemberRequest invites an existing user by email
type InviteMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// WorkspaceResponse represents a workspace
type WorkspaceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemberSummaryResponse is a roster entry
type MemberSummaryResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Online bool   `json:"online"`
}

// InvitationResponse describes a pending membership
type InvitationResponse struct {
	WorkspaceID string `json:"workspaceId"`
	UserID      string `json:"userId"`
	Accepted    bool   `json:"accepted"`
}

// ToWorkspaceResponse converts a workspace model
func ToWorkspaceResponse(ws *models.Workspace) WorkspaceResponse {
	return WorkspaceResponse{
		ID:        ws.ID,
		Name:      ws.Name,
		OwnerID:   ws.OwnerID,
		CreatedAt: ws.CreatedAt,
	}
}
