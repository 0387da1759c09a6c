package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/czapol/multi-agent-playground/ai/routing"
)

func TestNewSession(t *testing.T) {
	s := NewSession("")
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, StateAwaitingQuery, s.State())
	assert.NotEqual(t, s.ID, NewSession("").ID)
	assert.Equal(t, "fixed", NewSession("fixed").ID)
}

func TestSession_Reset(t *testing.T) {
	s := NewSession("")
	oldCtx, oldLog := s.Context(), s.Log()
	oldCtx.AppendUser("hello")
	oldLog.Record(routing.Decision{Target: "PRIMARY_FAMILY"})

	require.NoError(t, s.Reset())

	assert.NotSame(t, oldCtx, s.Context())
	assert.NotSame(t, oldLog, s.Log())
	assert.Zero(t, s.Context().Len())
	assert.Zero(t, s.Log().Len())
	assert.Equal(t, 1, oldCtx.Len(), "old context is left untouched")
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()
	a := store.Create()
	b := store.GetOrCreate("named")
	assert.Same(t, b, store.GetOrCreate("named"))
	assert.Equal(t, 2, store.Len())

	got, ok := store.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)

	list := store.List()
	require.Len(t, list, 2)
	assert.Same(t, a, list[0])

	assert.True(t, store.Delete(a.ID))
	assert.False(t, store.Delete(a.ID))
	_, ok = store.Get(a.ID)
	assert.False(t, ok)
}

func TestSessionStore_CleanupIdle(t *testing.T) {
	store := NewSessionStore()
	idle := store.GetOrCreate("idle")
	busy := store.GetOrCreate("busy")
	idle.lastActive = time.Now().Add(-2 * time.Hour)
	busy.lastActive = time.Now().Add(-2 * time.Hour)
	store.GetOrCreate("fresh")

	require.True(t, busy.acquire())
	defer busy.release()

	assert.Equal(t, 1, store.CleanupIdle(time.Hour))
	_, ok := store.Get("idle")
	assert.False(t, ok)
	_, ok = store.Get("busy")
	assert.True(t, ok)
	_, ok = store.Get("fresh")
	assert.True(t, ok)
}

func TestSessionStore_LookupKeepsSessionAlive(t *testing.T) {
	store := NewSessionStore()
	asked := store.GetOrCreate("asked")
	viewed := store.GetOrCreate("viewed")
	asked.lastActive = time.Now().Add(-2 * time.Hour)
	viewed.lastActive = time.Now().Add(-2 * time.Hour)

	assert.Same(t, asked, store.GetOrCreate("asked"))
	_, ok := store.Get("viewed")
	require.True(t, ok)

	assert.Zero(t, store.CleanupIdle(time.Hour))
	assert.Equal(t, 2, store.Len())
}
