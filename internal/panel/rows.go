package panel

import (
	"time"

	"github.com/oficina/chat/internal/app/models/dto"
	"github.com/oficina/chat/internal/pkg/helpers"
)

// DefaultGroupingWindow is how close two messages by one author must be to
// share a header
const DefaultGroupingWindow = 5 * time.Minute

// Row is one message of the dense layout
type Row struct {
	Message    dto.ChatMessageResponse
	AuthorName string
	// ShowHeader is false when the row continues the previous author's run
	ShowHeader bool
	Own        bool
}

// GroupRows projects messages into rows. A header starts the list, follows
// an author change, and follows a gap longer than window.
func GroupRows(messages []dto.ChatMessageResponse, selfID string, window time.Duration) []Row {
	rows := make([]Row, 0, len(messages))
	for i, m := range messages {
		header := true
		if i > 0 {
			prev := messages[i-1]
			header = prev.AuthorID != m.AuthorID || !helpers.WithinWindow(prev.CreatedAt, m.CreatedAt, window)
		}
		rows = append(rows, Row{
			Message:    m,
			AuthorName: authorName(m),
			ShowHeader: header,
			Own:        m.AuthorID == selfID,
		})
	}
	return rows
}

func authorName(m dto.ChatMessageResponse) string {
	if m.Author != nil && m.Author.Name != "" {
		return m.Author.Name
	}
	return UnknownAuthor
}
