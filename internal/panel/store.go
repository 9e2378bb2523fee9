package panel

import "sync"

// SubTab is the view the shared store reports as active
type SubTab string

const (
	SubTabChat    SubTab = "chat"
	SubTabMembers SubTab = "members"
)

// Store is the state the panel shares with the rest of the client: the
// active sub-tab, unread counters per group and the presence set.
type Store struct {
	mu     sync.RWMutex
	subTab SubTab
	unread map[string]int
	online map[string]bool
}

// NewStore creates a store whose active sub-tab is tab
func NewStore(tab SubTab) *Store {
	return &Store{
		subTab: tab,
		unread: make(map[string]int),
		online: make(map[string]bool),
	}
}

func (s *Store) ActiveSubTab() SubTab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subTab
}

func (s *Store) SetActiveSubTab(tab SubTab) {
	s.mu.Lock()
	s.subTab = tab
	s.mu.Unlock()
}

// Unread returns the unread counter of a group
func (s *Store) Unread(groupID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread[groupID]
}

func (s *Store) incrementUnread(groupID string) {
	s.mu.Lock()
	s.unread[groupID]++
	s.mu.Unlock()
}

func (s *Store) resetUnread(groupID string) {
	s.mu.Lock()
	delete(s.unread, groupID)
	s.mu.Unlock()
}

// IsOnline reports whether the presence set contains userID
func (s *Store) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online[userID]
}

// SetPresence replaces the presence set
func (s *Store) SetPresence(online map[string]bool) {
	next := make(map[string]bool, len(online))
	for id, on := range online {
		if on {
			next[id] = true
		}
	}
	s.mu.Lock()
	s.online = next
	s.mu.Unlock()
}
