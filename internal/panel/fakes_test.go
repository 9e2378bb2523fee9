package panel

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/client"
)

var errBackendDown = errors.New("backend down")

type fakeSub struct {
	groupID string
	events  chan dto.RealtimeEvent
	once    sync.Once
	closed  chan struct{}
}

func newFakeSub(groupID string) *fakeSub {
	return &fakeSub{groupID: groupID, events: make(chan dto.RealtimeEvent, 16), closed: make(chan struct{})}
}

func (s *fakeSub) Events() <-chan dto.RealtimeEvent { return s.events }

func (s *fakeSub) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSub) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

type fakeBackend struct {
	mu       sync.Mutex
	calls    []string
	groups   []dto.ChatGroupResponse
	members  []dto.MemberSummaryResponse
	history  map[string][]dto.ChatMessageResponse
	users    map[string]string
	subs     map[string][]*fakeSub
	sendErr  error
	subErr   error
	listErr  error
	seq      int
	clock    time.Time
	sendGate chan struct{}

	// onListMessages runs inside ListMessages before it returns
	onListMessages func(groupID string)
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		history: map[string][]dto.ChatMessageResponse{},
		users:   map[string]string{},
		subs:    map[string][]*fakeSub{},
		clock:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func (b *fakeBackend) record(call string) {
	b.mu.Lock()
	b.calls = append(b.calls, call)
	b.mu.Unlock()
}

func (b *fakeBackend) callLog() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

func (b *fakeBackend) ListGroups(_ context.Context, workspaceID string) ([]dto.ChatGroupResponse, error) {
	b.record("groups:" + workspaceID)
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.groups, nil
}

func (b *fakeBackend) CreateGroup(_ context.Context, workspaceID string, req dto.CreateChatGroupRequest) (*dto.ChatGroupResponse, error) {
	b.record("create:" + req.Name)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	g := dto.ChatGroupResponse{ID: "new-" + req.Name, WorkspaceID: workspaceID, Name: req.Name, Visibility: req.Visibility, Icon: "#"}
	b.groups = append(b.groups, g)
	return &g, nil
}

func (b *fakeBackend) ListMembers(_ context.Context, workspaceID string) ([]dto.MemberSummaryResponse, error) {
	b.record("members:" + workspaceID)
	if b.listErr != nil {
		return nil, b.listErr
	}
	return b.members, nil
}

func (b *fakeBackend) ListMessages(_ context.Context, groupID string) ([]dto.ChatMessageResponse, error) {
	b.record("messages:" + groupID)
	if b.onListMessages != nil {
		b.onListMessages(groupID)
	}
	if b.listErr != nil {
		return nil, b.listErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]dto.ChatMessageResponse(nil), b.history[groupID]...), nil
}

func (b *fakeBackend) SendMessage(_ context.Context, groupID string, req dto.CreateChatMessageRequest) (*dto.ChatMessageResponse, error) {
	b.record("send:" + req.Content)
	if b.sendGate != nil {
		<-b.sendGate
	}
	if b.sendErr != nil {
		return nil, b.sendErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.clock = b.clock.Add(time.Second)
	m := dto.ChatMessageResponse{ID: "sent-" + req.Content, GroupID: groupID, AuthorID: "me", Content: req.Content, Kind: req.Kind, CreatedAt: b.clock}
	return &m, nil
}

func (b *fakeBackend) GetUser(_ context.Context, userID string) (*dto.UserResponse, error) {
	b.record("user:" + userID)
	name, ok := b.users[userID]
	if !ok {
		return nil, errBackendDown
	}
	return &dto.UserResponse{ID: userID, Name: name}, nil
}

func (b *fakeBackend) Subscribe(_ context.Context, groupID string) (client.Subscription, error) {
	b.record("subscribe:" + groupID)
	if b.subErr != nil {
		return nil, b.subErr
	}
	sub := newFakeSub(groupID)
	b.mu.Lock()
	b.subs[groupID] = append(b.subs[groupID], sub)
	b.mu.Unlock()
	return sub, nil
}

func (b *fakeBackend) lastSub(groupID string) *fakeSub {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[groupID]
	if len(subs) == 0 {
		return nil
	}
	return subs[len(subs)-1]
}

func msgAt(id, groupID, author string, at time.Time) dto.ChatMessageResponse {
	return dto.ChatMessageResponse{ID: id, GroupID: groupID, AuthorID: author, Content: id, Kind: "text", CreatedAt: at}
}

func groupAt(id, name string, at time.Time) dto.ChatGroupResponse {
	return dto.ChatGroupResponse{ID: id, WorkspaceID: "ws1", Name: name, CreatedAt: at}
}
