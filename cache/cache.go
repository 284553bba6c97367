package cache

import (
	"sync"
	"time"

	"github.com/karlseguin/ccache/v3"

	"github.com/xeptore/soundbridge/soundcloud/types"
)

var DefaultMetadataTTL = 24 * time.Hour

type Cache struct {
	Metadata MetadataCache
	Guard    FetchGuard
}

func New() *Cache {
	metadataCache := ccache.New(
		ccache.Configure[types.PlaybackMetadata]().
			MaxSize(10_000).
			GetsPerPromote(3).
			PercentToPrune(1),
	)

	return &Cache{
		Metadata: MetadataCache{
			c:   metadataCache,
			mux: sync.Mutex{},
		},
		Guard: FetchGuard{
			mux:      sync.Mutex{},
			inflight: make(map[guardKey]struct{}),
		},
	}
}

type MetadataCache struct {
	c   *ccache.Cache[types.PlaybackMetadata]
	mux sync.Mutex
}

// Get returns the cached metadata for a track id. Entries past their TTL are
// treated as absent.
func (c *MetadataCache) Get(trackID string) (types.PlaybackMetadata, bool) {
	c.mux.Lock()
	defer c.mux.Unlock()

	item := c.c.Get(trackID)
	if nil == item || item.Expired() {
		return types.PlaybackMetadata{}, false //nolint:exhaustruct
	}

	return item.Value(), true
}

// Set upserts a single entry. Writes are last-writer-wins; no multi-key
// transactions exist or are needed.
func (c *MetadataCache) Set(trackID string, m types.PlaybackMetadata, ttl time.Duration) {
	c.mux.Lock()
	defer c.mux.Unlock()

	c.c.Set(trackID, m, ttl)
}

type guardKey struct {
	clientID string
	trackID  string
}

// FetchGuard holds the per-(client, track) in-flight flags that keep at most
// one concurrent background metadata fetch per pair. Flags are process-scoped
// and never persisted.
type FetchGuard struct {
	mux      sync.Mutex
	inflight map[guardKey]struct{}
}

// TryBeginFetch atomically sets the in-flight flag and reports whether the
// caller now owns the fetch. A false return means another fetch for the same
// pair is still running.
func (g *FetchGuard) TryBeginFetch(clientID, trackID string) bool {
	g.mux.Lock()
	defer g.mux.Unlock()

	k := guardKey{clientID: clientID, trackID: trackID}
	if _, ok := g.inflight[k]; ok {
		return false
	}
	g.inflight[k] = struct{}{}

	return true
}

// EndFetch clears the flag unconditionally. Call it on both the success and
// the error path of the owned fetch.
func (g *FetchGuard) EndFetch(clientID, trackID string) {
	g.mux.Lock()
	defer g.mux.Unlock()

	delete(g.inflight, guardKey{clientID: clientID, trackID: trackID})
}
