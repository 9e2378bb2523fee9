package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/app/services"
	"github.com/oficina/chat/internal/middleware"
)

// ChatController handles chat groups and messages
type ChatController struct {
	chatService services.ChatService
}

// NewChatController creates a new ChatController
func NewChatController(chatService services.ChatService) *ChatController {
	return &ChatController{
		chatService: chatService,
	}
}

// ListGroups godoc
// @Summary List chat groups
// @Description Groups of a workspace in creation order
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.ChatGroupResponse}
// @Failure 403 {object} dto.ErrorResponse "Not a member"
// @Router /workspaces/{id}/groups [get]
func (c *ChatController) ListGroups(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	groups, err := c.chatService.ListGroups(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if groups == nil {
		groups = []dto.ChatGroupResponse{}
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(groups))
}

// CreateGroup godoc
// @Summary Create a chat group
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param request body dto.CreateChatGroupRequest true "Group"
// @Success 201 {object} dto.APIResponse{data=dto.ChatGroupResponse}
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 409 {object} dto.ErrorResponse "Duplicate name"
// @Router /workspaces/{id}/groups [post]
func (c *ChatController) CreateGroup(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req dto.CreateChatGroupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	group, err := c.chatService.CreateGroup(ctx.Request.Context(), userID, ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(group))
}

// ListMessages godoc
// @Summary Get group messages
// @Description Full history of a group, oldest first
// @Tags chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.ChatMessageResponse}
// @Failure 403 {object} dto.ErrorResponse "Not a member"
// @Failure 404 {object} dto.ErrorResponse "Group not found"
// @Router /groups/{id}/messages [get]
func (c *ChatController) ListMessages(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	messages, err := c.chatService.ListMessages(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if messages == nil {
		messages = []dto.ChatMessageResponse{}
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(messages))
}

// SendMessage godoc
// @Summary Send a message
// @Tags chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param request body dto.CreateChatMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=dto.ChatMessageResponse}
// @Failure 400 {object} dto.ErrorResponse "Empty message"
// @Failure 429 {object} dto.ErrorResponse "Rate limited"
// @Router /groups/{id}/messages [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req dto.CreateChatMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	msg, err := c.chatService.SendMessage(ctx.Request.Context(), userID, ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(msg))
}
