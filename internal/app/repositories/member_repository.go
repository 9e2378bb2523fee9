package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oficina/chat/internal/app/models"
	"github.com/oficina/chat/internal/pkg/apperrors"
)

var squirrelNow = squirrel.Expr("now()")

// MemberRepository handles workspace memberships and invitations
type MemberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository creates a new MemberRepository
func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: db}
}

// AcceptedUserIDs lists the user IDs with an accepted membership
func (r *MemberRepository) AcceptedUserIDs(ctx context.Context, workspaceID string) ([]string, error) {
	sql, args, err := acceptedMembersQuery(workspaceID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func acceptedMembersQuery(workspaceID string) squirrel.SelectBuilder {
	return psql.Select("user_id").
		From("workspace_members").
		Where(squirrel.Eq{"workspace_id": workspaceID, "accepted": true}).
		OrderBy("created_at ASC")
}

// IsAcceptedMember reports whether the user belongs to the workspace
func (r *MemberRepository) IsAcceptedMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	sql, args, err := psql.Select("1").
		Prefix("SELECT EXISTS(").
		From("workspace_members").
		Where(squirrel.Eq{"workspace_id": workspaceID, "user_id": userID, "accepted": true}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	var exists bool
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("error executing query: %w", err)
	}
	return exists, nil
}

// Invite records a pending membership
func (r *MemberRepository) Invite(ctx context.Context, member *models.WorkspaceMember) error {
	member.Accepted = false
	if member.Role == "" {
		member.Role = models.MemberRoleMember
	}
	return insertMember(ctx, r.db, member)
}

// Accept turns a pending invitation into an accepted membership
func (r *MemberRepository) Accept(ctx context.Context, workspaceID, userID string) error {
	sql, args, err := psql.Update("workspace_members").
		Set("accepted", true).
		Set("accepted_at", squirrelNow).
		Where(squirrel.Eq{"workspace_id": workspaceID, "user_id": userID, "accepted": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building SQL: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error accepting invitation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrInvitationNotFound
	}
	return nil
}
