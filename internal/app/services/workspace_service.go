package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oficina/chat/internal/app/models"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/pkg/apperrors"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// WorkspaceService handles workspaces, rosters and invitations
type WorkspaceService interface {
	CreateWorkspace(ctx context.Context, userID string, req *dto.CreateWorkspaceRequest) (*dto.WorkspaceResponse, error)
	ListMembers(ctx context.Context, userID, workspaceID string) ([]dto.MemberSummaryResponse, error)
	InviteMember(ctx context.Context, userID, workspaceID string, req *dto.InviteMemberRequest) (*dto.InvitationResponse, error)
	AcceptInvitation(ctx context.Context, userID, workspaceID string) (*dto.InvitationResponse, error)
}

type workspaceServiceImpl struct {
	workspaceRepo  WorkspaceStore
	memberRepo     MemberStore
	userRepo       UserStore
	groupRepo      GroupStore
	presence       PresenceReader
	defaultChannel string
	logger         zerolog.Logger
}

// NewWorkspaceService creates a new WorkspaceService. defaultChannel names
// the group every new workspace starts with; empty disables it.
func NewWorkspaceService(
	workspaceRepo WorkspaceStore,
	memberRepo MemberStore,
	userRepo UserStore,
	groupRepo GroupStore,
	presence PresenceReader,
	defaultChannel string,
	logger zerolog.Logger,
) WorkspaceService {
	return &workspaceServiceImpl{
		workspaceRepo:  workspaceRepo,
		memberRepo:     memberRepo,
		userRepo:       userRepo,
		groupRepo:      groupRepo,
		presence:       presence,
		defaultChannel: defaultChannel,
		logger:         logger,
	}
}

// CreateWorkspace creates a workspace owned by the caller and seeds its
// default channel.
func (s *workspaceServiceImpl) CreateWorkspace(ctx context.Context, userID string, req *dto.CreateWorkspaceRequest) (*dto.WorkspaceResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "Workspace name cannot be empty")
	}

	ws := &models.Workspace{Name: name, OwnerID: userID}
	if err := s.workspaceRepo.CreateWithOwner(ctx, ws); err != nil {
		s.logger.Error().Err(err).Str("userId", userID).Msg("Failed to create workspace")
		return nil, fmt.Errorf("error creating workspace: %w", err)
	}

	if s.defaultChannel != "" {
		group := &models.ChatGroup{
			WorkspaceID: ws.ID,
			Name:        s.defaultChannel,
			Visibility:  models.GroupVisibilityPublic,
			Icon:        models.DefaultGroupIcon,
			CreatedBy:   userID,
		}
		if err := s.groupRepo.Create(ctx, group); err != nil {
			s.logger.Warn().Err(err).Str("workspaceId", ws.ID).Msg("Failed to create default channel")
		}
	}

	s.logger.Info().Str("workspaceId", ws.ID).Str("ownerId", userID).Msg("Workspace created")
	resp := dto.ToWorkspaceResponse(ws)
	return &resp, nil
}

// ListMembers returns the accepted members other than the caller, annotated
// with presence. A presence failure leaves everyone offline.
func (s *workspaceServiceImpl) ListMembers(ctx context.Context, userID, workspaceID string) ([]dto.MemberSummaryResponse, error) {
	if err := requireMember(ctx, s.memberRepo, workspaceID, userID); err != nil {
		return nil, err
	}

	ids, err := s.memberRepo.AcceptedUserIDs(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("error listing members: %w", err)
	}
	ids = lo.Filter(ids, func(id string, _ int) bool { return id != userID })

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("error resolving members: %w", err)
	}

	online, err := s.presence.Online(ctx, workspaceID)
	if err != nil {
		s.logger.Warn().Err(err).Str("workspaceId", workspaceID).Msg("Presence unavailable")
		online = map[string]bool{}
	}

	return lo.Map(users, func(u *models.User, _ int) dto.MemberSummaryResponse {
		return dto.MemberSummaryResponse{
			ID:     u.ID,
			Name:   u.Name,
			Email:  u.Email,
			Online: online[u.ID],
		}
	}), nil
}

// InviteMember records a pending membership for the user with req.Email
func (s *workspaceServiceImpl) InviteMember(ctx context.Context, userID, workspaceID string, req *dto.InviteMemberRequest) (*dto.InvitationResponse, error) {
	if err := requireMember(ctx, s.memberRepo, workspaceID, userID); err != nil {
		return nil, err
	}

	invitee, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error retrieving invitee: %w", err)
	}

	member := &models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      invitee.ID,
		Role:        models.MemberRoleMember,
		InvitedBy:   lo.ToPtr(userID),
	}
	if err := s.memberRepo.Invite(ctx, member); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("workspaceId", workspaceID).
		Str("inviteeId", invitee.ID).
		Str("invitedBy", userID).
		Msg("Member invited")

	return &dto.InvitationResponse{WorkspaceID: workspaceID, UserID: invitee.ID, Accepted: false}, nil
}

// AcceptInvitation accepts the caller's pending invitation
func (s *workspaceServiceImpl) AcceptInvitation(ctx context.Context, userID, workspaceID string) (*dto.InvitationResponse, error) {
	if err := s.memberRepo.Accept(ctx, workspaceID, userID); err != nil {
		return nil, err
	}
	s.logger.Info().Str("workspaceId", workspaceID).Str("userId", userID).Msg("Invitation accepted")
	return &dto.InvitationResponse{WorkspaceID: workspaceID, UserID: userID, Accepted: true}, nil
}
