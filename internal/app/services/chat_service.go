package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oficina/chat/internal/app/models"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/pkg/apperrors"
	"github.com/oficina/chat/internal/pkg/events"
	"github.com/oficina/chat/internal/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// ChatService defines the interface for chat operations
type ChatService interface {
	ListGroups(ctx context.Context, userID, workspaceID string) ([]dto.ChatGroupResponse, error)
	CreateGroup(ctx context.Context, userID, workspaceID string, req *dto.CreateChatGroupRequest) (*dto.ChatGroupResponse, error)
	ListMessages(ctx context.Context, userID, groupID string) ([]dto.ChatMessageResponse, error)
	SendMessage(ctx context.Context, userID, groupID string, req *dto.CreateChatMessageRequest) (*dto.ChatMessageResponse, error)
	AuthorizeGroup(ctx context.Context, userID, groupID string) (*dto.ChatGroupResponse, error)
}

// chatServiceImpl implements ChatService
type chatServiceImpl struct {
	groupRepo   GroupStore
	messageRepo MessageStore
	memberRepo  MemberStore
	userRepo    UserStore
	publisher   EventPublisher
	exporter    events.Exporter
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewChatService creates a new ChatService
func NewChatService(
	groupRepo GroupStore,
	messageRepo MessageStore,
	memberRepo MemberStore,
	userRepo UserStore,
	publisher EventPublisher,
	exporter events.Exporter,
	m *metrics.Metrics,
	logger zerolog.Logger,
) ChatService {
	return &chatServiceImpl{
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		memberRepo:  memberRepo,
		userRepo:    userRepo,
		publisher:   publisher,
		exporter:    exporter,
		metrics:     m,
		logger:      logger,
	}
}

func requireMember(ctx context.Context, members MemberStore, workspaceID, userID string) error {
	ok, err := members.IsAcceptedMember(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("error checking membership: %w", err)
	}
	if !ok {
		return apperrors.ErrNotMember
	}
	return nil
}

// ListGroups returns the workspace's groups in creation order
func (s *chatServiceImpl) ListGroups(ctx context.Context, userID, workspaceID string) ([]dto.ChatGroupResponse, error) {
	if err := requireMember(ctx, s.memberRepo, workspaceID, userID); err != nil {
		return nil, err
	}

	groups, err := s.groupRepo.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		s.logger.Error().Err(err).Str("workspaceId", workspaceID).Msg("Failed to list chat groups")
		return nil, fmt.Errorf("error listing chat groups: %w", err)
	}

	return lo.Map(groups, func(g *models.ChatGroup, _ int) dto.ChatGroupResponse {
		return dto.ToChatGroupResponse(g)
	}), nil
}

// CreateGroup creates a channel owned by the caller
func (s *chatServiceImpl) CreateGroup(
	ctx context.Context,
	userID, workspaceID string,
	req *dto.CreateChatGroupRequest,
) (*dto.ChatGroupResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrValidationFailed, "Group name cannot be empty")
	}

	visibility := models.GroupVisibility(req.Visibility)
	if visibility == "" {
		visibility = models.GroupVisibilityPublic
	}
	if visibility != models.GroupVisibilityPublic && visibility != models.GroupVisibilityPrivate {
		return nil, apperrors.NewBadRequestError("Visibility must be public or private")
	}

	if err := requireMember(ctx, s.memberRepo, workspaceID, userID); err != nil {
		return nil, err
	}

	group := &models.ChatGroup{
		WorkspaceID: workspaceID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Visibility:  visibility,
		Icon:        models.DefaultGroupIcon,
		Color:       strings.TrimSpace(req.Color),
		CreatedBy:   userID,
	}
	if err := s.groupRepo.Create(ctx, group); err != nil {
		if errors.Is(err, apperrors.ErrGroupAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("workspaceId", workspaceID).Msg("Failed to create chat group")
		return nil, fmt.Errorf("error creating chat group: %w", err)
	}

	s.logger.Info().
		Str("groupId", group.ID).
		Str("workspaceId", workspaceID).
		Str("name", group.Name).
		Msg("Chat group created")

	resp := dto.ToChatGroupResponse(group)
	return &resp, nil
}

// AuthorizeGroup loads a group and checks the caller belongs to its workspace
func (s *chatServiceImpl) AuthorizeGroup(ctx context.Context, userID, groupID string) (*dto.ChatGroupResponse, error) {
	group, err := s.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := requireMember(ctx, s.memberRepo, group.WorkspaceID, userID); err != nil {
		return nil, err
	}
	resp := dto.ToChatGroupResponse(group)
	return &resp, nil
}

// ListMessages returns the full history of a group, oldest first
func (s *chatServiceImpl) ListMessages(ctx context.Context, userID, groupID string) ([]dto.ChatMessageResponse, error) {
	if _, err := s.AuthorizeGroup(ctx, userID, groupID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.ListByGroup(ctx, groupID)
	if err != nil {
		s.logger.Error().Err(err).Str("groupId", groupID).Msg("Failed to retrieve chat messages")
		return nil, fmt.Errorf("error retrieving chat messages: %w", err)
	}

	return lo.Map(messages, func(m *models.ChatMessage, _ int) dto.ChatMessageResponse {
		return dto.ToChatMessageResponse(m)
	}), nil
}

// SendMessage persists a message, then pushes it to realtime subscribers and
// the event export. Push and export failures are logged; the message stays.
func (s *chatServiceImpl) SendMessage(
	ctx context.Context,
	userID, groupID string,
	req *dto.CreateChatMessageRequest,
) (*dto.ChatMessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, apperrors.ErrEmptyMessage
	}

	kind := models.ChatMessageKind(req.Kind)
	if kind == "" {
		kind = models.ChatMessageKindText
	}

	group, err := s.AuthorizeGroup(ctx, userID, groupID)
	if err != nil {
		return nil, err
	}

	message := &models.ChatMessage{
		GroupID:  groupID,
		AuthorID: userID,
		Content:  content,
		Kind:     kind,
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		s.logger.Error().Err(err).Str("groupId", groupID).Msg("Failed to create chat message")
		return nil, fmt.Errorf("error creating chat message: %w", err)
	}
	s.metrics.MessagesSent.WithLabelValues(string(kind)).Inc()

	if author, err := s.userRepo.GetByID(ctx, userID); err == nil {
		message.Author = author
	} else {
		s.logger.Warn().Err(err).Str("userId", userID).Msg("Author lookup failed")
	}

	resp := dto.ToChatMessageResponse(message)

	if err := s.publisher.Publish(ctx, dto.NewInsertEvent(resp)); err != nil {
		s.logger.Error().Err(err).
			Str("groupId", groupID).
			Str("messageId", message.ID).
			Msg("Failed to publish realtime event")
	}

	if err := s.exporter.MessageCreated(ctx, group.WorkspaceID, resp); err != nil {
		s.metrics.ExportFailures.Inc()
		s.logger.Error().Err(err).
			Str("groupId", groupID).
			Str("messageId", message.ID).
			Msg("Failed to export message")
	}

	s.logger.Debug().
		Str("groupId", groupID).
		Str("messageId", message.ID).
		Msg("Chat message sent")

	return &resp, nil
}
