package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"kichat/model"
)

func newStore(t *testing.T) *ConversationStore {
	t.Helper()
	s, err := NewConversationStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSaveAssignsIDAndTitle(t *testing.T) {
	s := newStore(t)

	conv := &Conversation{
		Provider: "mock",
		Model:    "mock-small",
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: "be terse"},
			{Role: model.RoleUser, Content: "what is the capital of France?"},
			{Role: model.RoleAssistant, Content: "Paris."},
		},
	}
	require.NoError(t, s.Save(conv))

	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "what is the capital of France?", conv.Title)
	assert.False(t, conv.CreatedAt.IsZero())

	loaded, err := s.Load(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, conv.Provider, loaded.Provider)
	assert.Len(t, loaded.Messages, 3)
	assert.Equal(t, model.RoleUser, loaded.Messages[1].Role)
}

func TestSaveTruncatesLongTitle(t *testing.T) {
	s := newStore(t)

	long := "this is a very long first user message that should get truncated for the title"
	conv := &Conversation{Messages: []model.Message{{Role: model.RoleUser, Content: long}}}
	require.NoError(t, s.Save(conv))

	assert.Equal(t, long[:48]+"...", conv.Title)
}

func TestListNewestFirst(t *testing.T) {
	s := newStore(t)

	old := &Conversation{Title: "old"}
	require.NoError(t, s.Save(old))
	old.UpdatedAt = time.Now().Add(-time.Hour)
	writeRaw(t, s, old)

	recent := &Conversation{Title: "recent"}
	require.NoError(t, s.Save(recent))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "recent", list[0].Title)
	assert.Equal(t, "old", list[1].Title)
}

// writeRaw rewrites a conversation file without touching timestamps.
func writeRaw(t *testing.T, s *ConversationStore, conv *Conversation) {
	t.Helper()
	loaded, err := s.Load(conv.ID)
	require.NoError(t, err)
	loaded.UpdatedAt = conv.UpdatedAt

	data, err := json.Marshal(loaded)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, conv.ID+".json"), data, 0o600))
}

func TestDelete(t *testing.T) {
	s := newStore(t)

	conv := &Conversation{Title: "gone soon"}
	require.NoError(t, s.Save(conv))
	require.NoError(t, s.Delete(conv.ID))

	_, err := s.Load(conv.ID)
	assert.Error(t, err)

	assert.Error(t, s.Delete(conv.ID), "deleting twice reports the missing file")
}

func TestListSkipsUnreadableFiles(t *testing.T) {
	s := newStore(t)

	good := &Conversation{Title: "good"}
	require.NoError(t, s.Save(good))
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, "junk.json"), []byte("{not json"), 0o600))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "good", list[0].Title)
}

func TestSearch(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.Save(&Conversation{
		Title: "cooking",
		Messages: []model.Message{
			{Role: model.RoleSystem, Content: "the secret word is paella"},
			{Role: model.RoleUser, Content: "how do I make Paella?"},
			{Role: model.RoleAssistant, Content: "Start with a wide pan."},
		},
	}))
	require.NoError(t, s.Save(&Conversation{
		Title: "travel",
		Messages: []model.Message{
			{Role: model.RoleUser, Content: "where should I go in Spain?"},
		},
	}))

	matches, err := s.Search("paella")
	require.NoError(t, err)
	require.Len(t, matches, 1, "system messages are excluded from search")
	assert.Equal(t, "cooking", matches[0].ConversationTitle)
	assert.Equal(t, model.RoleUser, matches[0].Role)
	assert.Equal(t, 1, matches[0].MessageIndex)

	matches, err = s.Search("")
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = s.Search("nothing matches this")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFilePermissions(t *testing.T) {
	s := newStore(t)

	conv := &Conversation{Title: "private"}
	require.NoError(t, s.Save(conv))

	info, err := os.Stat(filepath.Join(s.dir, conv.ID+".json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
