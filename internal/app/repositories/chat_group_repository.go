package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oficina/chat/internal/app/models"
	"github.com/oficina/chat/internal/pkg/apperrors"
	"github.com/oficina/chat/internal/pkg/dberrors"
)

var groupColumns = []string{
	"id", "workspace_id", "name", "description", "visibility", "icon", "color", "created_by", "created_at",
}

// ChatGroupRepository handles database operations for chat groups
type ChatGroupRepository struct {
	db *pgxpool.Pool
}

// NewChatGroupRepository creates a new ChatGroupRepository
func NewChatGroupRepository(db *pgxpool.Pool) *ChatGroupRepository {
	return &ChatGroupRepository{db: db}
}

// ListByWorkspace returns every group of the workspace in creation order
func (r *ChatGroupRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*models.ChatGroup, error) {
	sql, args, err := groupsByWorkspaceQuery(workspaceID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	groups := []*models.ChatGroup{}
	for rows.Next() {
		var g models.ChatGroup
		if err := rows.Scan(
			&g.ID, &g.WorkspaceID, &g.Name, &g.Description, &g.Visibility,
			&g.Icon, &g.Color, &g.CreatedBy, &g.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		groups = append(groups, &g)
	}
	return groups, rows.Err()
}

func groupsByWorkspaceQuery(workspaceID string) squirrel.SelectBuilder {
	return psql.Select(groupColumns...).
		From("chat_groups").
		Where(squirrel.Eq{"workspace_id": workspaceID}).
		OrderBy("created_at ASC", "id ASC")
}

// GetByID retrieves a group by ID
func (r *ChatGroupRepository) GetByID(ctx context.Context, id string) (*models.ChatGroup, error) {
	sql, args, err := psql.Select(groupColumns...).From("chat_groups").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var g models.ChatGroup
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&g.ID, &g.WorkspaceID, &g.Name, &g.Description, &g.Visibility,
		&g.Icon, &g.Color, &g.CreatedBy, &g.CreatedAt,
	)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, fmt.Errorf("error retrieving chat group: %w", err)
	}
	return &g, nil
}

// Create inserts a group and fills in its ID and creation time
func (r *ChatGroupRepository) Create(ctx context.Context, group *models.ChatGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}

	sql, args, err := psql.Insert("chat_groups").
		Columns("id", "workspace_id", "name", "description", "visibility", "icon", "color", "created_by").
		Values(group.ID, group.WorkspaceID, group.Name, group.Description, group.Visibility,
			group.Icon, group.Color, group.CreatedBy).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&group.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "chat_groups_workspace_name_key") {
			return apperrors.ErrGroupAlreadyExists
		}
		return fmt.Errorf("error creating chat group: %w", err)
	}
	return nil
}
