package models

import "time"

// ChatMessageKind represents the type of chat message
type ChatMessageKind string

const (
	ChatMessageKindText   ChatMessageKind = "text"
	ChatMessageKindImage  ChatMessageKind = "image"
	ChatMessageKindFile   ChatMessageKind = "file"
	ChatMessageKindSystem ChatMessageKind = "system"
)

// ChatMessage is an append-only message in a chat group
type ChatMessage struct {
	ID        string          `json:"id" db:"id"`
	GroupID   string          `json:"groupId" db:"group_id"`
	AuthorID  string          `json:"authorId" db:"author_id"`
	Content   string          `json:"content" db:"content"`
	Kind      ChatMessageKind `json:"kind" db:"kind"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`

	// Related entities
	Author *User `json:"author,omitempty"`
}
