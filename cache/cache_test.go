package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/soundbridge/cache"
	"github.com/xeptore/soundbridge/soundcloud/types"
)

func TestMetadataCacheRoundTrip(t *testing.T) {
	t.Parallel()

	c := cache.New()

	_, ok := c.Metadata.Get("42")
	require.False(t, ok)

	//nolint:exhaustruct
	m := types.PlaybackMetadata{TrackID: "42", Title: "Midnight Dub", Artist: "alice", DurationSeconds: 180}
	c.Metadata.Set("42", m, time.Hour)

	got, ok := c.Metadata.Get("42")
	require.True(t, ok)
	assert.Exactly(t, m, got)
}

func TestMetadataCacheExpiry(t *testing.T) {
	t.Parallel()

	c := cache.New()

	//nolint:exhaustruct
	c.Metadata.Set("42", types.PlaybackMetadata{TrackID: "42"}, 20*time.Millisecond)

	_, ok := c.Metadata.Get("42")
	require.True(t, ok)

	time.Sleep(50 * time.Millisecond)

	_, ok = c.Metadata.Get("42")
	assert.False(t, ok)
}

func TestMetadataCacheLastWriterWins(t *testing.T) {
	t.Parallel()

	c := cache.New()

	//nolint:exhaustruct
	c.Metadata.Set("42", types.PlaybackMetadata{TrackID: "42", Title: "Old"}, time.Hour)
	//nolint:exhaustruct
	c.Metadata.Set("42", types.PlaybackMetadata{TrackID: "42", Title: "New"}, time.Hour)

	got, ok := c.Metadata.Get("42")
	require.True(t, ok)
	assert.Exactly(t, "New", got.Title)
}

func TestFetchGuardSingleOwner(t *testing.T) {
	t.Parallel()

	c := cache.New()

	const attempts = 32

	var (
		wg   sync.WaitGroup
		mux  sync.Mutex
		wins int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Guard.TryBeginFetch("client-1", "42") {
				mux.Lock()
				wins++
				mux.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Exactly(t, 1, wins)
}

func TestFetchGuardScopedPerPair(t *testing.T) {
	t.Parallel()

	c := cache.New()

	require.True(t, c.Guard.TryBeginFetch("client-1", "42"))

	// Other clients and other tracks are unaffected.
	assert.True(t, c.Guard.TryBeginFetch("client-2", "42"))
	assert.True(t, c.Guard.TryBeginFetch("client-1", "43"))

	// The held pair refuses until released.
	assert.False(t, c.Guard.TryBeginFetch("client-1", "42"))
	c.Guard.EndFetch("client-1", "42")
	assert.True(t, c.Guard.TryBeginFetch("client-1", "42"))
}

func TestFetchGuardEndWithoutBegin(t *testing.T) {
	t.Parallel()

	c := cache.New()

	c.Guard.EndFetch("client-1", "42")
	assert.True(t, c.Guard.TryBeginFetch("client-1", "42"))
}
