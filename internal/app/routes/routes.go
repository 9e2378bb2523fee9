package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oficina/chat/internal/app/controllers"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/middleware"
	"github.com/oficina/chat/internal/pkg/metrics"
	"github.com/oficina/chat/internal/pkg/websocket"
)

// Handlers groups everything the router dispatches to
type Handlers struct {
	Auth        *controllers.AuthController
	User        *controllers.UserController
	Workspace   *controllers.WorkspaceController
	Chat        *controllers.ChatController
	Realtime    *websocket.Handler
	AuthMW      *middleware.AuthMiddleware
	SendLimiter *middleware.UserRateLimiter
	Metrics     *metrics.Metrics
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, h Handlers) {
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(h.AuthMW.JWTAuth())

	users := authenticated.Group("/users")
	{
		users.GET("/me", h.User.GetMe)
		users.GET("/:id", h.User.GetUserByID)
	}

	workspaces := authenticated.Group("/workspaces")
	{
		workspaces.POST("", h.Workspace.CreateWorkspace)
		workspaces.GET("/:id/groups", h.Chat.ListGroups)
		workspaces.POST("/:id/groups", h.Chat.CreateGroup)
		workspaces.GET("/:id/members", h.Workspace.ListMembers)
		workspaces.POST("/:id/invitations", h.Workspace.InviteMember)
		workspaces.POST("/:id/accept", h.Workspace.AcceptInvitation)
	}

	groups := authenticated.Group("/groups")
	{
		groups.GET("/:id/messages", h.Chat.ListMessages)
		groups.POST("/:id/messages", h.SendLimiter.Middleware(), h.Chat.SendMessage)
		groups.GET("/:id/realtime", h.Realtime.HandleConnection)
	}

	router.GET("/metrics", h.Metrics.Handler())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"message": "pong"}))
	})
}
