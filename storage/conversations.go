// Package storage persists conversation history as JSON files in the
// data directory.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"kichat/model"
)

// Conversation is one chat thread, including the provider/model pair it
// was held with.
type Conversation struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Messages  []model.Message `json:"messages"`
}

// ConversationMetadata is the lightweight listing form.
type ConversationMetadata struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// ConversationStore handles conversation persistence.
type ConversationStore struct {
	dir string
}

// NewConversationStore creates the store under dataDir/conversations.
func NewConversationStore(dataDir string) (*ConversationStore, error) {
	dir := filepath.Join(dataDir, "conversations")

	// 0700: conversation history is user-private
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create conversations directory: %w", err)
	}

	return &ConversationStore{dir: dir}, nil
}

// Save writes a conversation to disk, assigning an id and timestamps when
// missing. The title defaults to the first user message.
func (s *ConversationStore) Save(conv *Conversation) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}

	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}
	if conv.Title == "" {
		conv.Title = defaultTitle(conv.Messages)
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	path := filepath.Join(s.dir, conv.ID+".json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write conversation file: %w", err)
	}

	return nil
}

// Load reads a conversation by id.
func (s *ConversationStore) Load(id string) (*Conversation, error) {
	path := filepath.Join(s.dir, id+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation file: %w", err)
	}

	var conv Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return &conv, nil
}

// List returns metadata for all conversations, newest first.
func (s *ConversationStore) List() ([]ConversationMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversations directory: %w", err)
	}

	var out []ConversationMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		conv, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue // skip unreadable files, don't fail the listing
		}

		out = append(out, ConversationMetadata{
			ID:           conv.ID,
			Title:        conv.Title,
			Provider:     conv.Provider,
			Model:        conv.Model,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})

	return out, nil
}

// Delete removes a conversation by id.
func (s *ConversationStore) Delete(id string) error {
	path := filepath.Join(s.dir, id+".json")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func defaultTitle(messages []model.Message) string {
	for _, msg := range messages {
		if msg.Role != model.RoleUser {
			continue
		}
		title := strings.TrimSpace(msg.Content)
		if len(title) > 48 {
			title = title[:48] + "..."
		}
		if title != "" {
			return title
		}
	}
	return "New Chat"
}
