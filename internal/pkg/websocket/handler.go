package websocket

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/middleware"
	"github.com/oficina/chat/internal/pkg/apperrors"
	"github.com/oficina/chat/internal/pkg/presence"
	"github.com/rs/zerolog"
)

// GroupAuthorizer resolves a group the user may read
type GroupAuthorizer interface {
	AuthorizeGroup(ctx context.Context, userID, groupID string) (*dto.ChatGroupResponse, error)
}

// Handler for WebSocket connections
type Handler struct {
	hub        *Hub
	authorizer GroupAuthorizer
	presence   presence.Store
	logger     zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authorizer GroupAuthorizer, presence presence.Store, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		authorizer: authorizer,
		presence:   presence,
		logger:     logger.With().Str("component", "realtime").Logger(),
	}
}

// HandleConnection godoc
// @Summary Subscribe to inserts on a chat group
// @Description Upgrades to a websocket that receives one INSERT event per new message of the group
// @Tags chat, websocket
// @Security BearerAuth
// @Param id path string true "Chat group ID"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 401 {object} dto.ErrorResponse
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /groups/{id}/realtime [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	groupID := c.Param("id")

	userID, ok := middleware.GetUserID(c)
	if !ok {
		middleware.HandleAPIError(c, apperrors.ErrTokenNotFound)
		return
	}

	group, err := h.authorizer.AuthorizeGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		middleware.HandleAPIError(c, err)
		return
	}

	// Joined before the handshake completes: every insert published after the
	// subscriber sees 101 reaches it. Frames queue in send until the pumps start.
	client := newClient(h.hub, nil, userID, groupID, group.WorkspaceID, h.logger)
	client.addr = c.Request.RemoteAddr
	if !h.hub.Register(client) {
		middleware.HandleAPIError(c, apperrors.ErrServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.Unregister(client)
		h.logger.Error().
			Err(err).
			Str("groupId", groupID).
			Str("userId", userID).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}
	client.conn = conn

	if err := h.presence.Connect(c.Request.Context(), group.WorkspaceID, userID); err != nil {
		h.logger.Warn().Err(err).Str("userId", userID).Msg("Failed to mark user online")
	}

	go client.writePump()
	go func() {
		client.readPump()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.presence.Disconnect(ctx, client.workspaceID, userID); err != nil {
			h.logger.Warn().Err(err).Str("userId", userID).Msg("Failed to mark user offline")
		}
	}()

	h.logger.Info().
		Str("groupId", groupID).
		Str("userId", userID).
		Str("remoteAddr", client.addr).
		Msg("WebSocket connection established")
}
