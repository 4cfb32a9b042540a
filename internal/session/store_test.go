package session

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGetOrCreate_Idempotent(t *testing.T) {
	st := testStore(t)

	s1, created1 := st.GetOrCreate("app", "alice", "sess-1")
	require.NotNil(t, s1)
	assert.True(t, created1)

	s2, created2 := st.GetOrCreate("app", "alice", "sess-1")
	assert.False(t, created2)
	assert.Same(t, s1, s2)
	assert.Equal(t, 1, st.Len())
}

func TestGetOrCreate_DistinctKeys(t *testing.T) {
	st := testStore(t)

	a, _ := st.GetOrCreate("app", "alice", "sess-1")
	b, _ := st.GetOrCreate("app", "alice", "sess-2")
	c, _ := st.GetOrCreate("app", "bob", "sess-1")

	assert.NotSame(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 3, st.Len())
}

func TestSession_HistoryIsolation(t *testing.T) {
	st := testStore(t)

	a, _ := st.GetOrCreate("app", "alice", "sess-1")
	b, _ := st.GetOrCreate("app", "bob", "sess-1")

	a.Append(RoleUser, "flooding on Main St")
	a.Append(RoleModel, `{"event_type":"Weather-Related Damage"}`)

	assert.Len(t, a.History(0), 2)
	assert.Empty(t, b.History(0), "turns must not leak across sessions")
}

func TestSession_HistoryLimitAndCopy(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC))
	st := NewStore(clock, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s, _ := st.GetOrCreate("app", "alice", "sess-1")

	for _, text := range []string{"one", "two", "three", "four"} {
		s.Append(RoleUser, text)
		clock.Advance(time.Minute)
	}

	recent := s.History(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Text)
	assert.Equal(t, "four", recent[1].Text)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 2, 0, 0, time.UTC), recent[0].At)

	// Mutating the returned slice must not affect the session.
	recent[0].Text = "mutated"
	assert.Equal(t, "three", s.History(2)[0].Text)
}

func TestStore_ConcurrentGetOrCreate(t *testing.T) {
	st := testStore(t)

	const goroutines = 32
	sessions := make([]*Session, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], _ = st.GetOrCreate("app", "alice", "sess-1")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, st.Len())
	for i := 1; i < goroutines; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
}
