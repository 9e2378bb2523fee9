package models

import "time"

// MemberRole is the role a user holds inside a workspace
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
)

// Workspace is a virtual office; chat groups and members hang off it.
type Workspace struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	OwnerID   string    `json:"ownerId" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// WorkspaceMember links a user to a workspace. Invitations are rows with
// Accepted false; only accepted members appear in rosters.
type WorkspaceMember struct {
	WorkspaceID string     `json:"workspaceId" db:"workspace_id"`
	UserID      string     `json:"userId" db:"user_id"`
	Role        MemberRole `json:"role" db:"role"`
	Accepted    bool       `json:"accepted" db:"accepted"`
	InvitedBy   *string    `json:"invitedBy,omitempty" db:"invited_by"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	AcceptedAt  *time.Time `json:"acceptedAt,omitempty" db:"accepted_at"`
}
