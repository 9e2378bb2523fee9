package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oficina/chat/internal/app/models"
	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/pkg/apperrors"
)

type memStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*models.User
	ws       map[string]*models.Workspace
	members  map[string]*models.WorkspaceMember
	groups   []*models.ChatGroup
	messages []*models.ChatMessage
	now      time.Time
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]*models.User{},
		ws:      map[string]*models.Workspace{},
		members: map[string]*models.WorkspaceMember{},
		now:     time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

func (s *memStore) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func memberKey(ws, user string) string { return ws + "/" + user }

// Users

type memUsers struct{ *memStore }

func (s memUsers) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	u.ID = s.nextID("user")
	u.CreatedAt = s.tick()
	s.users[u.ID] = u
	return nil
}

func (s memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (s memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (s memUsers) GetByIDs(_ context.Context, ids []string) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// Workspaces and members

type memWorkspaces struct{ *memStore }

func (s memWorkspaces) CreateWithOwner(_ context.Context, w *models.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.ID = s.nextID("ws")
	w.CreatedAt = s.tick()
	s.ws[w.ID] = w
	s.members[memberKey(w.ID, w.OwnerID)] = &models.WorkspaceMember{
		WorkspaceID: w.ID, UserID: w.OwnerID, Role: models.MemberRoleOwner, Accepted: true,
	}
	return nil
}

func (s memWorkspaces) GetByID(_ context.Context, id string) (*models.Workspace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.ws[id]; ok {
		return w, nil
	}
	return nil, apperrors.ErrWorkspaceNotFound
}

type memMembers struct{ *memStore }

func (s memMembers) AcceptedUserIDs(_ context.Context, workspaceID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for _, m := range s.members {
		if m.WorkspaceID == workspaceID && m.Accepted {
			ids = append(ids, m.UserID)
		}
	}
	return ids, nil
}

func (s memMembers) IsAcceptedMember(_ context.Context, workspaceID, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberKey(workspaceID, userID)]
	return ok && m.Accepted, nil
}

func (s memMembers) Invite(_ context.Context, m *models.WorkspaceMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey(m.WorkspaceID, m.UserID)
	if _, ok := s.members[key]; ok {
		return apperrors.NewConflictError("User is already a member or invited")
	}
	s.members[key] = m
	return nil
}

func (s memMembers) Accept(_ context.Context, workspaceID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberKey(workspaceID, userID)]
	if !ok || m.Accepted {
		return apperrors.ErrInvitationNotFound
	}
	m.Accepted = true
	return nil
}

// Groups and messages

type memGroups struct{ *memStore }

func (s memGroups) ListByWorkspace(_ context.Context, workspaceID string) ([]*models.ChatGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ChatGroup
	for _, g := range s.groups {
		if g.WorkspaceID == workspaceID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s memGroups) GetByID(_ context.Context, id string) (*models.ChatGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, apperrors.ErrGroupNotFound
}

func (s memGroups) Create(_ context.Context, g *models.ChatGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.groups {
		if existing.WorkspaceID == g.WorkspaceID && existing.Name == g.Name {
			return apperrors.ErrGroupAlreadyExists
		}
	}
	g.ID = s.nextID("group")
	g.CreatedAt = s.tick()
	s.groups = append(s.groups, g)
	return nil
}

type memMessages struct{ *memStore }

func (s memMessages) ListByGroup(_ context.Context, groupID string) ([]*models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.ChatMessage
	for _, m := range s.messages {
		if m.GroupID == groupID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s memMessages) Create(_ context.Context, m *models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.nextID("msg")
	m.CreatedAt = s.tick()
	s.messages = append(s.messages, m)
	return nil
}

// Realtime, export and presence

type recordingPublisher struct {
	events []*dto.RealtimeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *dto.RealtimeEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type recordingExporter struct {
	workspaces []string
	messages   []dto.ChatMessageResponse
	err        error
}

func (e *recordingExporter) MessageCreated(_ context.Context, workspaceID string, m dto.ChatMessageResponse) error {
	if e.err != nil {
		return e.err
	}
	e.workspaces = append(e.workspaces, workspaceID)
	e.messages = append(e.messages, m)
	return nil
}

func (e *recordingExporter) Close() error { return nil }

type staticPresence struct {
	online map[string]bool
	err    error
}

func (p staticPresence) Online(context.Context, string) (map[string]bool, error) {
	return p.online, p.err
}

var errExportDown = errors.New("broker unavailable")
