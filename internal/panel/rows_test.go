package panel

import (
	"testing"
	"time"

	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/stretchr/testify/assert"
)

func headers(rows []Row) []bool {
	out := make([]bool, len(rows))
	for i, r := range rows {
		out[i] = r.ShowHeader
	}
	return out
}

func TestGroupRows(t *testing.T) {
	tests := []struct {
		name     string
		messages []dto.ChatMessageResponse
		want     []bool
	}{
		{
			name:     "empty",
			messages: nil,
			want:     []bool{},
		},
		{
			name: "same author within window",
			messages: []dto.ChatMessageResponse{
				msgAt("1", "g", "ada", t0),
				msgAt("2", "g", "ada", t0.Add(4*time.Minute)),
				msgAt("3", "g", "ada", t0.Add(9*time.Minute)),
			},
			want: []bool{true, false, false},
		},
		{
			name: "exactly five minutes still groups",
			messages: []dto.ChatMessageResponse{
				msgAt("1", "g", "ada", t0),
				msgAt("2", "g", "ada", t0.Add(5*time.Minute)),
			},
			want: []bool{true, false},
		},
		{
			name: "gap over five minutes",
			messages: []dto.ChatMessageResponse{
				msgAt("1", "g", "ada", t0),
				msgAt("2", "g", "ada", t0.Add(5*time.Minute+time.Second)),
			},
			want: []bool{true, true},
		},
		{
			name: "author change",
			messages: []dto.ChatMessageResponse{
				msgAt("1", "g", "ada", t0),
				msgAt("2", "g", "bob", t0.Add(time.Second)),
				msgAt("3", "g", "ada", t0.Add(2*time.Second)),
			},
			want: []bool{true, true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, headers(GroupRows(tt.messages, "ada", DefaultGroupingWindow)))
		})
	}
}

func TestDefaultGroup(t *testing.T) {
	assert.Equal(t, "", DefaultGroup(nil))
	assert.Equal(t, "b", DefaultGroup([]dto.ChatGroupResponse{{ID: "a", Name: "random"}, {ID: "b", Name: "GENERAL"}}))
	assert.Equal(t, "a", DefaultGroup([]dto.ChatGroupResponse{{ID: "a", Name: "random"}, {ID: "b", Name: "design"}}))
}

func TestStorePresenceKeepsOnlyOnline(t *testing.T) {
	s := NewStore(SubTabChat)
	s.SetPresence(map[string]bool{"a": true, "b": false})
	assert.True(t, s.IsOnline("a"))
	assert.False(t, s.IsOnline("b"))
	assert.False(t, s.IsOnline("c"))
}
