package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oficina/chat/internal/app/models"
	"github.com/oficina/chat/internal/pkg/apperrors"
	"github.com/oficina/chat/internal/pkg/dberrors"
)

// ChatMessageRepository handles database operations for chat messages
type ChatMessageRepository struct {
	db *pgxpool.Pool
}

// NewChatMessageRepository creates a new ChatMessageRepository
func NewChatMessageRepository(db *pgxpool.Pool) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

// Create inserts a new chat message and fills in its ID and creation time
func (r *ChatMessageRepository) Create(ctx context.Context, message *models.ChatMessage) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.Kind == "" {
		message.Kind = models.ChatMessageKindText
	}

	sql, args, err := psql.Insert("chat_messages").
		Columns("id", "group_id", "author_id", "content", "kind").
		Values(message.ID, message.GroupID, message.AuthorID, message.Content, message.Kind).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&message.CreatedAt); err != nil {
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrGroupNotFound
		}
		return fmt.Errorf("error creating chat message: %w", err)
	}
	return nil
}

// GetByID retrieves a message with its author
func (r *ChatMessageRepository) GetByID(ctx context.Context, id string) (*models.ChatMessage, error) {
	sql, args, err := messagesWithAuthorQuery().Where("cm.id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	messages, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, apperrors.NewResourceNotFoundError(fmt.Sprintf("chat message not found with ID %s", id))
	}
	return messages[0], nil
}

// ListByGroup returns the full history of a group in creation order
func (r *ChatMessageRepository) ListByGroup(ctx context.Context, groupID string) ([]*models.ChatMessage, error) {
	sql, args, err := messagesByGroupQuery(groupID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	return scanMessages(rows)
}

func messagesWithAuthorQuery() squirrel.SelectBuilder {
	return psql.Select(
		"cm.id", "cm.group_id", "cm.author_id", "cm.content", "cm.kind", "cm.created_at",
		"u.id", "u.name",
	).
		From("chat_messages cm").
		LeftJoin("users u ON cm.author_id = u.id")
}

func messagesByGroupQuery(groupID string) squirrel.SelectBuilder {
	return messagesWithAuthorQuery().
		Where(squirrel.Eq{"cm.group_id": groupID}).
		OrderBy("cm.created_at ASC", "cm.id ASC")
}

func scanMessages(rows pgx.Rows) ([]*models.ChatMessage, error) {
	defer rows.Close()

	messages := []*models.ChatMessage{}
	for rows.Next() {
		var m models.ChatMessage
		var authorID, authorName *string
		if err := rows.Scan(
			&m.ID, &m.GroupID, &m.AuthorID, &m.Content, &m.Kind, &m.CreatedAt,
			&authorID, &authorName,
		); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		if authorID != nil {
			m.Author = &models.User{ID: *authorID}
			if authorName != nil {
				m.Author.Name = *authorName
			}
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return messages, nil
}
