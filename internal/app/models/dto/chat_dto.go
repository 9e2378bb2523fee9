package dto

import (
	"time"

	"github.com/oficina/chat/internal/app/models"
)

// --- Request DTOs ---

// CreateChatGroupRequest represents data for creating a new chat group
type CreateChatGroupRequest struct {
	Name        string `json:"name" binding:"required,max=80"`
	Visibility  string `json:"visibility" binding:"omitempty,oneof=public private"`
	Description string `json:"description" binding:"max=500"`
	Color       string `json:"color" binding:"max=32"`
}

// CreateChatMessageRequest represents data for creating a new chat message.
// Clients may not post system messages; those are written server-side.
type CreateChatMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
	Kind    string `json:"kind" binding:"omitempty,oneof=text image file"`
}

// --- Response DTOs ---

// ChatGroupResponse represents a chat group
type ChatGroupResponse struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Visibility  string    `json:"visibility"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AuthorSummary is the denormalized author attached to each message
type AuthorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChatMessageResponse represents a chat message with its author summary
type ChatMessageResponse struct {
	ID        string         `json:"id"`
	GroupID   string         `json:"groupId"`
	AuthorID  string         `json:"authorId"`
	Content   string         `json:"content"`
	Kind      string         `json:"kind"`
	CreatedAt time.Time      `json:"createdAt"`
	Author    *AuthorSummary `json:"author,omitempty"`
}

// Realtime event names and tables
const (
	RealtimeEventInsert      = "INSERT"
	RealtimeTableChatMessage = "chat_messages"
)

// RealtimeEvent is pushed to websocket subscribers of a group
type RealtimeEvent struct {
	Event   string               `json:"event"`
	Table   string               `json:"table"`
	GroupID string               `json:"groupId"`
	New     *ChatMessageResponse `json:"new"`
}

// NewInsertEvent builds the insert event for a persisted message
func NewInsertEvent(message ChatMessageResponse) *RealtimeEvent {
	return &RealtimeEvent{
		Event:   RealtimeEventInsert,
		Table:   RealtimeTableChatMessage,
		GroupID: message.GroupID,
		New:     &message,
	}
}

// ToChatGroupResponse converts a chat group model
func ToChatGroupResponse(group *models.ChatGroup) ChatGroupResponse {
	return ChatGroupResponse{
		ID:          group.ID,
		WorkspaceID: group.WorkspaceID,
		Name:        group.Name,
		Description: group.Description,
		Visibility:  string(group.Visibility),
		Icon:        group.Icon,
		Color:       group.Color,
		CreatedBy:   group.CreatedBy,
		CreatedAt:   group.CreatedAt,
	}
}

// ToChatMessageResponse converts a chat message model, attaching the author
// summary when the author was loaded.
func ToChatMessageResponse(message *models.ChatMessage) ChatMessageResponse {
	response := ChatMessageResponse{
		ID:        message.ID,
		GroupID:   message.GroupID,
		AuthorID:  message.AuthorID,
		Content:   message.Content,
		Kind:      string(message.Kind),
		CreatedAt: message.CreatedAt,
	}

	if message.Author != nil {
		response.Author = &AuthorSummary{
			ID:   message.Author.ID,
			Name: message.Author.Name,
		}
	}

	return response
}
