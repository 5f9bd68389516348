package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBeginAndGet(t *testing.T) {
	s := openTestStore(t)

	id, err := s.Begin("qwen2.5-coder", "/work/project")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, s.Append(id, 0, "user", "fix the bug"))
	require.NoError(t, s.Append(id, 1, "assistant", "done"))

	turns, err := s.Get(id)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "fix the bug", turns[0].Content)
	assert.Equal(t, "assistant", turns[1].Role)
	assert.Equal(t, 1, turns[1].TurnNumber)
}

func TestAppendIdempotent(t *testing.T) {
	s := openTestStore(t)

	id, err := s.Begin("qwen2.5-coder", "/tmp")
	require.NoError(t, err)

	require.NoError(t, s.Append(id, 0, "user", "hello"))
	require.NoError(t, s.Append(id, 0, "user", "hello again"))

	turns, err := s.Get(id)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "hello", turns[0].Content, "duplicate turn should be ignored")
}

func TestListOrdersNewestFirst(t *testing.T) {
	s := openTestStore(t)

	first, err := s.Begin("m1", "/a")
	require.NoError(t, err)
	second, err := s.Begin("m2", "/b")
	require.NoError(t, err)
	require.NoError(t, s.Append(second, 0, "user", "hi"))

	sessions, err := s.List(10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	ids := []string{sessions[0].ID, sessions[1].ID}
	assert.Contains(t, ids, first)
	assert.Contains(t, ids, second)
	for _, sess := range sessions {
		if sess.ID == second {
			assert.Equal(t, 1, sess.Turns)
		}
		if sess.ID == first {
			assert.Equal(t, 0, sess.Turns)
		}
	}
}

func TestListLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 5; i++ {
		_, err := s.Begin("m", "/x")
		require.NoError(t, err)
	}
	sessions, err := s.List(3)
	require.NoError(t, err)
	assert.Len(t, sessions, 3)
}

func TestGetUnknownSession(t *testing.T) {
	s := openTestStore(t)
	turns, err := s.Get("no-such-id")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
