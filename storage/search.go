package storage

import (
	"strings"
	"time"

	"kichat/model"
)

// MessageMatch is one hit from a conversation search.
type MessageMatch struct {
	ConversationID    string
	ConversationTitle string
	MessageIndex      int
	Role              model.Role
	Content           string
	Preview           string
	Timestamp         time.Time
}

// Search scans every stored conversation for messages containing query,
// case-insensitively. System messages are excluded. An empty query
// matches nothing.
func (s *ConversationStore) Search(query string) ([]MessageMatch, error) {
	if query == "" {
		return []MessageMatch{}, nil
	}

	list, err := s.List()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var matches []MessageMatch

	for _, meta := range list {
		conv, err := s.Load(meta.ID)
		if err != nil {
			continue
		}

		for i, msg := range conv.Messages {
			if msg.Role == model.RoleSystem {
				continue
			}
			if !strings.Contains(strings.ToLower(msg.Content), queryLower) {
				continue
			}

			preview := msg.Content
			if len(preview) > 100 {
				preview = preview[:100] + "..."
			}

			matches = append(matches, MessageMatch{
				ConversationID:    conv.ID,
				ConversationTitle: conv.Title,
				MessageIndex:      i,
				Role:              msg.Role,
				Content:           msg.Content,
				Preview:           preview,
				Timestamp:         msg.Timestamp,
			})
		}
	}

	return matches, nil
}
