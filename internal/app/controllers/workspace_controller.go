package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/app/services"
	"github.com/oficina/chat/internal/middleware"
)

// WorkspaceController handles workspaces, rosters and invitations
type WorkspaceController struct {
	workspaceService services.WorkspaceService
}

// NewWorkspaceController creates a new WorkspaceController
func NewWorkspaceController(workspaceService services.WorkspaceService) *WorkspaceController {
	return &WorkspaceController{workspaceService: workspaceService}
}

// CreateWorkspace godoc
// @Summary Create a workspace
// @Description Creates a workspace owned by the caller, with a default channel
// @Tags workspaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateWorkspaceRequest true "Workspace"
// @Success 201 {object} dto.APIResponse{data=dto.WorkspaceResponse}
// @Router /workspaces [post]
func (c *WorkspaceController) CreateWorkspace(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req dto.CreateWorkspaceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	ws, err := c.workspaceService.CreateWorkspace(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(ws))
}

// ListMembers godoc
// @Summary List workspace members
// @Description Accepted members other than the caller, with online status
// @Tags workspaces
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 200 {object} dto.APIResponse{data=[]dto.MemberSummaryResponse}
// @Failure 403 {object} dto.ErrorResponse "Not a member"
// @Router /workspaces/{id}/members [get]
func (c *WorkspaceController) ListMembers(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	members, err := c.workspaceService.ListMembers(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if members == nil {
		members = []dto.MemberSummaryResponse{}
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(members))
}

// InviteMember godoc
// @Summary Invite a user by email
// @Tags workspaces
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Param request body dto.InviteMemberRequest true "Invitee"
// @Success 201 {object} dto.APIResponse{data=dto.InvitationResponse}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 409 {object} dto.ErrorResponse "Already a member or invited"
// @Router /workspaces/{id}/invitations [post]
func (c *WorkspaceController) InviteMember(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	var req dto.InviteMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}

	inv, err := c.workspaceService.InviteMember(ctx.Request.Context(), userID, ctx.Param("id"), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(inv))
}

// AcceptInvitation godoc
// @Summary Accept a pending invitation
// @Tags workspaces
// @Produce json
// @Security BearerAuth
// @Param id path string true "Workspace ID"
// @Success 200 {object} dto.APIResponse{data=dto.InvitationResponse}
// @Failure 404 {object} dto.ErrorResponse "Invitation not found"
// @Router /workspaces/{id}/accept [post]
func (c *WorkspaceController) AcceptInvitation(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}

	inv, err := c.workspaceService.AcceptInvitation(ctx.Request.Context(), userID, ctx.Param("id"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(inv))
}
