package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oficina/chat/internal/app/models"
	"github.com/oficina/chat/internal/db"
	"github.com/oficina/chat/internal/pkg/apperrors"
	"github.com/oficina/chat/internal/pkg/dberrors"
)

// WorkspaceRepository handles database operations for workspaces
type WorkspaceRepository struct {
	db *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{db: db}
}

// CreateWithOwner inserts the workspace and the owner's accepted membership
// in one transaction.
func (r *WorkspaceRepository) CreateWithOwner(ctx context.Context, ws *models.Workspace) error {
	if ws.ID == "" {
		ws.ID = uuid.NewString()
	}

	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		sql, args, err := psql.Insert("workspaces").
			Columns("id", "name", "owner_id").
			Values(ws.ID, ws.Name, ws.OwnerID).
			Suffix("RETURNING created_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("error building SQL: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&ws.CreatedAt); err != nil {
			if dberrors.IsForeignKeyError(err) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("error creating workspace: %w", err)
		}

		owner := &models.WorkspaceMember{
			WorkspaceID: ws.ID,
			UserID:      ws.OwnerID,
			Role:        models.MemberRoleOwner,
			Accepted:    true,
		}
		return insertMember(ctx, tx, owner)
	})
}

// GetByID retrieves a workspace by ID
func (r *WorkspaceRepository) GetByID(ctx context.Context, id string) (*models.Workspace, error) {
	sql, args, err := psql.Select("id", "name", "owner_id", "created_at").
		From("workspaces").
		Where("id = ?", id).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var ws models.Workspace
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.CreatedAt); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrWorkspaceNotFound
		}
		return nil, fmt.Errorf("error retrieving workspace: %w", err)
	}
	return &ws, nil
}

func insertMember(ctx context.Context, q db.Querier, m *models.WorkspaceMember) error {
	sql, args, err := insertMemberQuery(m)
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&m.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "workspace_members_pkey") {
			return apperrors.NewConflictError("user is already a member or has a pending invitation")
		}
		if dberrors.IsForeignKeyError(err) {
			return apperrors.ErrResourceNotFound
		}
		return fmt.Errorf("error inserting workspace member: %w", err)
	}
	return nil
}

func insertMemberQuery(m *models.WorkspaceMember) (string, []interface{}, error) {
	var acceptedAt interface{}
	if m.Accepted {
		acceptedAt = squirrelNow
	}
	return psql.Insert("workspace_members").
		Columns("workspace_id", "user_id", "role", "accepted", "invited_by", "accepted_at").
		Values(m.WorkspaceID, m.UserID, m.Role, m.Accepted, m.InvitedBy, acceptedAt).
		Suffix("RETURNING created_at").
		ToSql()
}
