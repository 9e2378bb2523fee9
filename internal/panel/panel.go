// Package panel drives the chat sidebar and conversation views without
// rendering them: it owns the channel list, the roster, the active group's
// messages and its realtime subscription.
package panel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/client"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// UnknownAuthor names authors that could not be resolved
const UnknownAuthor = "Unknown"

// DefaultChannel is selected when a workspace is opened with no selection
const DefaultChannel = "general"

// ErrNoWorkspace is returned by operations that need an active workspace
var ErrNoWorkspace = errors.New("no active workspace")

// Backend is the server surface the panel needs; *client.Client satisfies it.
type Backend interface {
	ListGroups(ctx context.Context, workspaceID string) ([]dto.ChatGroupResponse, error)
	CreateGroup(ctx context.Context, workspaceID string, req dto.CreateChatGroupRequest) (*dto.ChatGroupResponse, error)
	ListMembers(ctx context.Context, workspaceID string) ([]dto.MemberSummaryResponse, error)
	ListMessages(ctx context.Context, groupID string) ([]dto.ChatMessageResponse, error)
	SendMessage(ctx context.Context, groupID string, req dto.CreateChatMessageRequest) (*dto.ChatMessageResponse, error)
	GetUser(ctx context.Context, userID string) (*dto.UserResponse, error)
	Subscribe(ctx context.Context, groupID string) (client.Subscription, error)
}

// Session is the signed-in user the panel acts for
type Session struct {
	UserID   string
	UserName string
}

// Options tune a Panel
type Options struct {
	GroupingWindow  time.Duration
	OnChannelSelect func(groupID string)
	Logger          zerolog.Logger
}

// Panel is safe for concurrent use. Realtime events are applied one at a
// time under its lock, and never before the history of their group.
type Panel struct {
	backend Backend
	store   *Store
	session Session
	opts    Options

	// switchMu serializes workspace and group switches and Close
	switchMu sync.Mutex

	mu          sync.Mutex
	workspaceID string
	groups      []dto.ChatGroupResponse
	members     []dto.MemberSummaryResponse
	activeGroup string
	messages    []dto.ChatMessageResponse
	seen        map[string]bool
	draft       string
	lastErr     error
	generation  uint64
	closed      bool

	sub        client.Subscription
	cancelPump context.CancelFunc
	pumpDone   chan struct{}
}

// New creates a panel for session backed by backend and store
func New(backend Backend, store *Store, session Session, opts Options) *Panel {
	if opts.GroupingWindow <= 0 {
		opts.GroupingWindow = DefaultGroupingWindow
	}
	return &Panel{
		backend: backend,
		store:   store,
		session: session,
		opts:    opts,
		seen:    make(map[string]bool),
	}
}

// SetWorkspace opens a workspace: it drops the previous channel, loads the
// groups and the roster, and selects the default group. Load and subscribe
// failures do not fail the call; they are reported through LastError. It
// returns ErrNoWorkspace for an empty id.
func (p *Panel) SetWorkspace(ctx context.Context, workspaceID string) error {
	if workspaceID == "" {
		return ErrNoWorkspace
	}

	p.switchMu.Lock()
	defer p.switchMu.Unlock()

	p.teardown()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.workspaceID = workspaceID
	p.groups = nil
	p.members = nil
	p.activeGroup = ""
	p.resetMessagesLocked()
	p.mu.Unlock()

	log := p.opts.Logger.With().Str("workspaceId", workspaceID).Logger()

	groups, err := p.backend.ListGroups(ctx, workspaceID)
	if err != nil {
		p.recordError(fmt.Errorf("load groups: %w", err))
		log.Error().Err(err).Msg("Failed to load chat groups")
	}
	groups = sortGroups(groups)

	members, err := p.backend.ListMembers(ctx, workspaceID)
	if err != nil {
		p.recordError(fmt.Errorf("load members: %w", err))
		log.Error().Err(err).Msg("Failed to load workspace members")
	}
	members = lo.Filter(members, func(m dto.MemberSummaryResponse, _ int) bool {
		return m.ID != p.session.UserID
	})

	p.mu.Lock()
	p.groups = groups
	p.members = members
	p.mu.Unlock()

	p.store.SetPresence(lo.SliceToMap(members, func(m dto.MemberSummaryResponse) (string, bool) {
		return m.ID, m.Online
	}))

	if def := DefaultGroup(groups); def != "" {
		// activate records its own failures
		_ = p.activate(ctx, def)
	}
	return nil
}

// DefaultGroup picks the group named "general" (case-insensitive), else the
// first group. It returns "" for an empty list.
func DefaultGroup(groups []dto.ChatGroupResponse) string {
	if len(groups) == 0 {
		return ""
	}
	for _, g := range groups {
		if strings.EqualFold(g.Name, DefaultChannel) {
			return g.ID
		}
	}
	return groups[0].ID
}

func sortGroups(groups []dto.ChatGroupResponse) []dto.ChatGroupResponse {
	out := append([]dto.ChatGroupResponse(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// SelectGroup is the user picking a channel: it activates the group, moves
// the store to the chat sub-tab and fires OnChannelSelect.
func (p *Panel) SelectGroup(ctx context.Context, groupID string) error {
	p.switchMu.Lock()
	err := p.activate(ctx, groupID)
	p.switchMu.Unlock()

	p.store.SetActiveSubTab(SubTabChat)
	if p.opts.OnChannelSelect != nil {
		p.opts.OnChannelSelect(groupID)
	}
	return err
}

// activate switches the conversation to groupID. The subscription opens
// first so no insert is missed; its events wait in the subscription buffer
// until the history is applied, and duplicates are dropped. Caller holds
// switchMu.
func (p *Panel) activate(ctx context.Context, groupID string) error {
	p.teardown()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.generation++
	gen := p.generation
	p.activeGroup = groupID
	p.resetMessagesLocked()
	p.mu.Unlock()

	p.store.resetUnread(groupID)
	log := p.opts.Logger.With().Str("groupId", groupID).Logger()

	sub, subErr := p.backend.Subscribe(ctx, groupID)
	if subErr != nil {
		subErr = fmt.Errorf("subscribe: %w", subErr)
		p.recordError(subErr)
		log.Error().Err(subErr).Msg("Realtime subscription failed")
	}

	history, err := p.backend.ListMessages(ctx, groupID)
	if err != nil {
		err = fmt.Errorf("load messages: %w", err)
		p.recordError(err)
		log.Error().Err(err).Msg("Failed to load chat messages")
	}

	p.mu.Lock()
	for _, m := range history {
		p.insertLocked(m)
	}
	if sub != nil {
		pumpCtx, cancel := context.WithCancel(context.Background())
		p.sub = sub
		p.cancelPump = cancel
		p.pumpDone = make(chan struct{})
		go p.pump(pumpCtx, gen, sub, p.pumpDone)
	}
	p.mu.Unlock()

	if subErr != nil {
		return subErr
	}
	return err
}

// teardown closes the active subscription and waits for its pump. Caller
// holds switchMu but not mu.
func (p *Panel) teardown() {
	p.mu.Lock()
	sub, cancel, done := p.sub, p.cancelPump, p.pumpDone
	p.sub, p.cancelPump, p.pumpDone = nil, nil, nil
	p.mu.Unlock()

	if sub == nil {
		return
	}
	cancel()
	if err := sub.Close(); err != nil {
		p.opts.Logger.Debug().Err(err).Msg("Closing realtime subscription")
	}
	<-done
}

func (p *Panel) pump(ctx context.Context, gen uint64, sub client.Subscription, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				p.opts.Logger.Debug().Msg("Realtime feed closed")
				return
			}
			p.applyEvent(ctx, gen, ev)
		}
	}
}

func (p *Panel) applyEvent(ctx context.Context, gen uint64, ev dto.RealtimeEvent) {
	if ev.Event != dto.RealtimeEventInsert || ev.New == nil {
		return
	}
	msg := *ev.New

	p.mu.Lock()
	stale := gen != p.generation || msg.GroupID != p.activeGroup || p.seen[msg.ID]
	p.mu.Unlock()
	if stale {
		return
	}

	if msg.Author == nil || msg.Author.Name == "" {
		msg.Author = &dto.AuthorSummary{ID: msg.AuthorID, Name: p.resolveAuthor(ctx, msg.AuthorID)}
	}

	p.mu.Lock()
	inserted := gen == p.generation && p.insertLocked(msg)
	p.mu.Unlock()

	if inserted && msg.AuthorID != p.session.UserID && p.store.ActiveSubTab() != SubTabChat {
		p.store.incrementUnread(msg.GroupID)
	}
}

// resolveAuthor names an author from the session, the roster, then a
// single user lookup.
func (p *Panel) resolveAuthor(ctx context.Context, userID string) string {
	if userID == p.session.UserID && p.session.UserName != "" {
		return p.session.UserName
	}

	p.mu.Lock()
	member, found := lo.Find(p.members, func(m dto.MemberSummaryResponse) bool { return m.ID == userID })
	p.mu.Unlock()
	if found && member.Name != "" {
		return member.Name
	}

	user, err := p.backend.GetUser(ctx, userID)
	if err != nil || user.Name == "" {
		p.opts.Logger.Debug().Err(err).Str("userId", userID).Msg("Author lookup failed")
		return UnknownAuthor
	}
	return user.Name
}

// insertLocked places m by creation time, after messages with the same
// timestamp. It reports false for a message already present.
func (p *Panel) insertLocked(m dto.ChatMessageResponse) bool {
	if p.seen[m.ID] {
		return false
	}
	p.seen[m.ID] = true

	i := sort.Search(len(p.messages), func(i int) bool {
		return p.messages[i].CreatedAt.After(m.CreatedAt)
	})
	p.messages = append(p.messages, dto.ChatMessageResponse{})
	copy(p.messages[i+1:], p.messages[i:])
	p.messages[i] = m
	return true
}

func (p *Panel) resetMessagesLocked() {
	p.messages = nil
	p.seen = make(map[string]bool)
}

// SetDraft replaces the text in the message input
func (p *Panel) SetDraft(text string) {
	p.mu.Lock()
	p.draft = text
	p.mu.Unlock()
}

// Draft returns the text in the message input
func (p *Panel) Draft() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.draft
}

// Send posts the draft to the active group. The draft is cleared before the
// request and restored if it fails. Empty drafts, no active group and no
// session user are no-ops.
func (p *Panel) Send(ctx context.Context) error {
	p.mu.Lock()
	content := strings.TrimSpace(p.draft)
	groupID := p.activeGroup
	gen := p.generation
	if content == "" || groupID == "" || p.session.UserID == "" {
		p.mu.Unlock()
		return nil
	}
	p.draft = ""
	p.mu.Unlock()

	msg, err := p.backend.SendMessage(ctx, groupID, dto.CreateChatMessageRequest{
		Content: content,
		Kind:    "text",
	})
	if err != nil {
		err = fmt.Errorf("send message: %w", err)
		p.mu.Lock()
		p.draft = content
		p.lastErr = err
		p.mu.Unlock()
		p.opts.Logger.Warn().Err(err).Str("groupId", groupID).Msg("Send failed, draft restored")
		return err
	}

	if msg.Author == nil {
		msg.Author = &dto.AuthorSummary{ID: p.session.UserID, Name: p.session.UserName}
	}
	p.mu.Lock()
	if gen == p.generation {
		p.insertLocked(*msg)
	}
	p.mu.Unlock()
	return nil
}

// CreateGroup creates a channel, appends it to the list and selects it
func (p *Panel) CreateGroup(ctx context.Context, name, visibility string) (*dto.ChatGroupResponse, error) {
	p.mu.Lock()
	workspaceID := p.workspaceID
	p.mu.Unlock()
	if workspaceID == "" {
		return nil, ErrNoWorkspace
	}

	group, err := p.backend.CreateGroup(ctx, workspaceID, dto.CreateChatGroupRequest{
		Name:       name,
		Visibility: visibility,
	})
	if err != nil {
		err = fmt.Errorf("create group: %w", err)
		p.recordError(err)
		return nil, err
	}

	p.mu.Lock()
	if p.workspaceID == workspaceID {
		p.groups = append(p.groups, *group)
	}
	p.mu.Unlock()

	return group, p.SelectGroup(ctx, group.ID)
}

// OpenInvite moves the store to the members sub-tab
func (p *Panel) OpenInvite() {
	p.store.SetActiveSubTab(SubTabMembers)
}

// Groups returns the channel list in creation order
func (p *Panel) Groups() []dto.ChatGroupResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dto.ChatGroupResponse(nil), p.groups...)
}

// Roster returns the other accepted members with their presence from the store
func (p *Panel) Roster() []dto.MemberSummaryResponse {
	p.mu.Lock()
	members := append([]dto.MemberSummaryResponse(nil), p.members...)
	p.mu.Unlock()

	for i := range members {
		members[i].Online = p.store.IsOnline(members[i].ID)
	}
	return members
}

// ActiveGroup returns the selected group id, or ""
func (p *Panel) ActiveGroup() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.activeGroup
}

// Messages returns the active group's messages in creation order
func (p *Panel) Messages() []dto.ChatMessageResponse {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]dto.ChatMessageResponse(nil), p.messages...)
}

// Rows returns the dense-layout projection of Messages
func (p *Panel) Rows() []Row {
	return GroupRows(p.Messages(), p.session.UserID, p.opts.GroupingWindow)
}

// LastError returns the most recent load, subscribe or send failure
func (p *Panel) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Panel) recordError(err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
}

// Close tears down the subscription; later switches are no-ops.
func (p *Panel) Close() {
	p.switchMu.Lock()
	defer p.switchMu.Unlock()

	p.teardown()
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}
