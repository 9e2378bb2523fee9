// Package client is a typed Go client for the chat HTTP API and its
// realtime websocket feed.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/rs/zerolog"
)

// APIError is a non-2xx answer carrying the server's error envelope
type APIError struct {
	Status  int
	Code    dto.ErrorCode
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// IsStatus reports whether err is an APIError with the given HTTP status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to one API server. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	dialer  *websocket.Dialer
	logger  zerolog.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the bearer token used for every call
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithLogger sets the client logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the server at baseURL (e.g. http://localhost:8080)
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	c := &Client{
		baseURL: u,
		http:    http.DefaultClient,
		dialer:  websocket.DefaultDialer,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetToken replaces the bearer token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Register creates an account and keeps its token
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token.AccessToken)
	return &resp, nil
}

// Login signs in and keeps the token
func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var resp dto.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token.AccessToken)
	return &resp, nil
}

// Me returns the signed-in user
func (c *Client) Me(ctx context.Context) (*dto.UserResponse, error) {
	var user dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser looks up a user by id
func (c *Client) GetUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	var user dto.UserResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/users/"+url.PathEscape(userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateWorkspace creates a workspace owned by the caller
func (c *Client) CreateWorkspace(ctx context.Context, name string) (*dto.WorkspaceResponse, error) {
	var ws dto.WorkspaceResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/workspaces", dto.CreateWorkspaceRequest{Name: name}, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// ListGroups returns the workspace's groups in creation order
func (c *Client) ListGroups(ctx context.Context, workspaceID string) ([]dto.ChatGroupResponse, error) {
	var groups []dto.ChatGroupResponse
	if err := c.do(ctx, http.MethodGet, workspacePath(workspaceID, "groups"), nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

// CreateGroup creates a channel in the workspace
func (c *Client) CreateGroup(ctx context.Context, workspaceID string, req dto.CreateChatGroupRequest) (*dto.ChatGroupResponse, error) {
	var group dto.ChatGroupResponse
	if err := c.do(ctx, http.MethodPost, workspacePath(workspaceID, "groups"), req, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

// ListMembers returns the roster without the caller
func (c *Client) ListMembers(ctx context.Context, workspaceID string) ([]dto.MemberSummaryResponse, error) {
	var members []dto.MemberSummaryResponse
	if err := c.do(ctx, http.MethodGet, workspacePath(workspaceID, "members"), nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// InviteMember invites a registered user by email
func (c *Client) InviteMember(ctx context.Context, workspaceID, email string) (*dto.InvitationResponse, error) {
	var inv dto.InvitationResponse
	if err := c.do(ctx, http.MethodPost, workspacePath(workspaceID, "invitations"), dto.InviteMemberRequest{Email: email}, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// AcceptInvitation accepts the caller's pending invitation
func (c *Client) AcceptInvitation(ctx context.Context, workspaceID string) (*dto.InvitationResponse, error) {
	var inv dto.InvitationResponse
	if err := c.do(ctx, http.MethodPost, workspacePath(workspaceID, "accept"), nil, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListMessages returns a group's full history, oldest first
func (c *Client) ListMessages(ctx context.Context, groupID string) ([]dto.ChatMessageResponse, error) {
	var messages []dto.ChatMessageResponse
	if err := c.do(ctx, http.MethodGet, groupPath(groupID, "messages"), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage posts a message to a group
func (c *Client) SendMessage(ctx context.Context, groupID string, req dto.CreateChatMessageRequest) (*dto.ChatMessageResponse, error) {
	var msg dto.ChatMessageResponse
	if err := c.do(ctx, http.MethodPost, groupPath(groupID, "messages"), req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func workspacePath(workspaceID, tail string) string {
	return "/api/v1/workspaces/" + url.PathEscape(workspaceID) + "/" + tail
}

func groupPath(groupID, tail string) string {
	return "/api/v1/groups/" + url.PathEscape(groupID) + "/" + tail
}

// envelope mirrors dto.APIResponse with a deferred data payload
type envelope struct {
	Success bool             `json:"success"`
	Data    json.RawMessage  `json:"data"`
	Error   *dto.ErrorDetail `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode >= 300 {
			return &APIError{Status: resp.StatusCode, Message: resp.Status}
		}
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		c.logger.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("API call failed")
		return apiErr
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}
