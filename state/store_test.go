package state

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := openStore(t)

	v, err := s.Get("nope")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestSetGetDelete(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.Set("k", "v1"))
	v, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	require.NoError(t, s.Set("k", "v2"))
	v, err = s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	require.NoError(t, s.Delete("k"))
	v, err = s.Get("k")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.Delete("k"), "deleting an absent key is fine")
}

func TestSelectionRoundTrip(t *testing.T) {
	s := openStore(t)

	p, m, err := s.LoadSelection()
	require.NoError(t, err)
	assert.Empty(t, p)
	assert.Empty(t, m)

	require.NoError(t, s.SaveSelection("openai", "gpt-a"))
	p, m, err = s.LoadSelection()
	require.NoError(t, err)
	assert.Equal(t, "openai", p)
	assert.Equal(t, "gpt-a", m)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveSelection("anthropic", "claude-x"))
	require.NoError(t, s.Close())

	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	p, m, err := s2.LoadSelection()
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p)
	assert.Equal(t, "claude-x", m)

	assert.FileExists(t, filepath.Join(dir, "state.db"))
}
