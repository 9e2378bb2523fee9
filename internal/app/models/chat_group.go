package models

import "time"

// GroupVisibility controls who may discover a chat group
type GroupVisibility string

const (
	GroupVisibilityPublic  GroupVisibility = "public"
	GroupVisibilityPrivate GroupVisibility = "private"
)

// DefaultGroupIcon is assigned to every group created from the panel
const DefaultGroupIcon = "#"

// ChatGroup is a channel inside a workspace. Groups are never edited or
// deleted by the chat code.
type ChatGroup struct {
	ID          string          `json:"id" db:"id"`
	WorkspaceID string          `json:"workspaceId" db:"workspace_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Visibility  GroupVisibility `json:"visibility" db:"visibility"`
	Icon        string          `json:"icon" db:"icon"`
	Color       string          `json:"color" db:"color"`
	CreatedBy   string          `json:"createdBy" db:"created_by"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}
