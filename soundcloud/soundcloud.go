// Package soundcloud exposes the remote audio catalog to a media-playback
// host: menu pages on the browse path, CDN stream URLs on the playback path.
package soundcloud

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/xeptore/soundbridge/cache"
	"github.com/xeptore/soundbridge/config"
	"github.com/xeptore/soundbridge/httputil"
	"github.com/xeptore/soundbridge/ratelimit"
	"github.com/xeptore/soundbridge/result"
	"github.com/xeptore/soundbridge/soundcloud/api"
	"github.com/xeptore/soundbridge/soundcloud/browse"
	"github.com/xeptore/soundbridge/soundcloud/parse"
	"github.com/xeptore/soundbridge/soundcloud/resource"
	"github.com/xeptore/soundbridge/soundcloud/stream"
	"github.com/xeptore/soundbridge/soundcloud/types"
)

var ErrUnknownResource = errors.New("resolved catalog url is neither a track nor a playlist")

// backgroundFetchConcurrency bounds how many descriptor fetches one queue
// scan may run at once.
const backgroundFetchConcurrency = 4

type Client struct {
	conf   config.Config
	logger zerolog.Logger
	cache  *cache.Cache
	api    *api.Client
	pager  *browse.Paginator
	stream *stream.Resolver
}

func NewClient(logger zerolog.Logger, conf config.Config) *Client {
	var (
		c         = cache.New()
		apiClient = api.New(conf.API)
	)

	return &Client{
		conf:   conf,
		logger: logger,
		cache:  c,
		api:    apiClient,
		pager:  browse.New(conf.API, apiClient),
		stream: stream.New(conf, apiClient, c),
	}
}

// Browse fetches one menu page. On failure the returned page is a renderable
// single-entry error leaf, so a browse session never dies; the error is also
// returned for hosts that report it separately.
func (c *Client) Browse(ctx context.Context, req types.BrowseRequest) (*types.Page, error) {
	if req.Kind == types.BrowseResolveURL {
		return c.ResolveCatalogURL(ctx, req.Search)
	}

	page, err := c.pager.FetchPage(ctx, c.logger, req)
	if nil != err {
		c.logger.Error().Err(err).Str("browse_kind", req.Kind.String()).Msg("Browse page fetch failed")
		return browse.ErrorPage(UserMessage(err)), err
	}

	return page, nil
}

// ResolvePlayback resolves a play URI into a streamable CDN URL plus derived
// playback metadata. Failures are terminal for this playback attempt.
func (c *Client) ResolvePlayback(ctx context.Context, trackURI string) (*stream.Resolved, error) {
	trackID, err := types.TrackIDFromURI(trackURI)
	if nil != err {
		return nil, fmt.Errorf("failed to parse track uri %q: %w", trackURI, err)
	}

	resolved, err := c.stream.Resolve(ctx, c.logger, trackID)
	if nil != err {
		return nil, fmt.Errorf("failed to resolve playback for track %s: %w", trackID, err)
	}

	return resolved, nil
}

// CachedMetadata returns the cached metadata for the given play URI, or a
// placeholder on a miss. A miss also scans the host's current playback queue
// and schedules guarded background descriptor fetches for every uncached
// track, so polling callers converge on real metadata.
func (c *Client) CachedMetadata(ctx context.Context, clientID, trackURI string, queue []string) types.PlaybackMetadata {
	trackID, err := types.TrackIDFromURI(trackURI)
	if nil != err {
		return placeholderMetadata("")
	}

	if m, ok := c.cache.Metadata.Get(trackID); ok {
		return m
	}

	c.prefetchQueue(ctx, clientID, queue)

	return placeholderMetadata(trackID)
}

// prefetchQueue claims the fetch guard for every uncached queued track and
// fetches descriptors in the background. A prior fetch still in flight simply
// keeps its flag; this poll skips the pair and the next one retries, which
// naturally rate-limits repeated failures.
func (c *Client) prefetchQueue(ctx context.Context, clientID string, queue []string) {
	var winners []string
	for _, uri := range queue {
		trackID, err := types.TrackIDFromURI(uri)
		if nil != err {
			continue
		}
		if _, ok := c.cache.Metadata.Get(trackID); ok {
			continue
		}
		if c.cache.Guard.TryBeginFetch(clientID, trackID) {
			winners = append(winners, trackID)
		}
	}
	if len(winners) == 0 {
		return
	}

	// Supersede, don't cancel: fetches outlive the poll that spawned them and
	// their results land in the cache with last-writer-wins semantics.
	bg := context.WithoutCancel(ctx)

	go func() {
		results := make(chan result.Of[types.PlaybackMetadata], len(winners))

		var eg errgroup.Group
		eg.SetLimit(backgroundFetchConcurrency)
		for _, trackID := range winners {
			eg.Go(func() error {
				defer c.cache.Guard.EndFetch(clientID, trackID)

				time.Sleep(ratelimit.BackgroundFetchSleep())

				m, err := c.stream.FetchMetadata(bg, c.logger, trackID)
				if nil != err {
					results <- result.Err[types.PlaybackMetadata](err)
					return nil
				}
				results <- result.Ok(m)

				return nil
			})
		}
		_ = eg.Wait()
		close(results)

		var fetched, failed int
		for res := range results {
			if nil != res.Err() {
				failed++
				c.logger.Debug().Err(res.Err()).Msg("Background metadata fetch failed")
				continue
			}
			fetched++
		}
		c.logger.
			Debug().
			Str("client_id", clientID).
			Int("fetched", fetched).
			Int("failed", failed).
			Msg("Background metadata prefetch finished")
	}()
}

var domainSeparatorSpaces = regexp.MustCompile(`\s*([./])\s*`)

// ResolveCatalogURL accepts a pasted catalog web link, scrubs the stray
// spaces copy-paste tends to introduce around domain separators, and returns
// a menu page for the playlist or track the link points at.
func (c *Client) ResolveCatalogURL(ctx context.Context, userInput string) (*types.Page, error) {
	cleaned := domainSeparatorSpaces.ReplaceAllString(strings.TrimSpace(userInput), "$1")

	req := types.BrowseRequest{Kind: types.BrowseResolveURL, Search: cleaned} //nolint:exhaustruct

	timeout := time.Duration(c.conf.API.Timeouts.Browse) * time.Second
	body, err := c.api.Get(ctx, c.logger, resource.Resolve(req), timeout)
	if nil != err {
		return browse.ErrorPage(UserMessage(err)), fmt.Errorf("failed to resolve catalog url: %w", err)
	}

	switch kind := gjson.GetBytes(body, "kind").Str; kind {
	case "playlist":
		entries := parse.PlaylistTracks(body)
		return &types.Page{Items: entries, Offset: 0, Total: uint(len(entries))}, nil //nolint:exhaustruct
	case "track":
		var desc types.TrackDescriptor
		if err := json.Unmarshal(body, &desc); nil != err {
			return browse.ErrorPage(UserMessage(err)), fmt.Errorf("failed to decode resolved track: %v", err)
		}

		e, ok := parse.TrackEntry(desc)
		if !ok {
			return &types.Page{Items: []types.MenuEntry{}, Offset: 0, Total: 0}, nil //nolint:exhaustruct
		}

		return &types.Page{Items: []types.MenuEntry{e}, Offset: 0, Total: 1}, nil //nolint:exhaustruct
	default:
		err := fmt.Errorf("%w: %q", ErrUnknownResource, kind)
		return browse.ErrorPage(UserMessage(err)), err
	}
}

// TopLevelMenu builds the root menu. Authenticated-only branches are offered
// only when a credential is configured; anonymous mode gets a single
// placeholder entry in their place.
func (c *Client) TopLevelMenu() []types.MenuEntry {
	//nolint:exhaustruct
	entries := []types.MenuEntry{
		{Name: "Search Tracks", Kind: types.EntrySearch, Cursor: "search:tracks"},
		{Name: "Search Tags", Kind: types.EntrySearch, Cursor: "search:tags"},
	}

	if !c.conf.API.Authenticated() {
		//nolint:exhaustruct
		return append(entries, types.MenuEntry{
			Name: "Set your API credential to browse playlists, favorites, friends, and activities.",
			Kind: types.EntryText,
		})
	}

	//nolint:exhaustruct
	return append(entries,
		types.MenuEntry{Name: "What's New", Kind: types.EntryLink, Cursor: "activities:"},
		types.MenuEntry{Name: "My Playlists", Kind: types.EntryLink, Cursor: "playlists:"},
		types.MenuEntry{Name: "Favorites", Kind: types.EntryLink, Cursor: "favorites:"},
		types.MenuEntry{Name: "Friends", Kind: types.EntryLink, Cursor: "friends:"},
	)
}

// RequestFromCursor turns a menu entry's continuation cursor back into a
// browse request for lazy expansion.
func RequestFromCursor(cursor string) (types.BrowseRequest, error) {
	kind, id, ok := strings.Cut(cursor, ":")
	if !ok {
		return types.BrowseRequest{}, fmt.Errorf("malformed cursor: %q", cursor) //nolint:exhaustruct
	}

	//nolint:exhaustruct
	switch kind {
	case "playlist":
		return types.BrowseRequest{Kind: types.BrowsePlaylists, PlaylistID: id}, nil
	case "playlists":
		return types.BrowseRequest{Kind: types.BrowsePlaylists, UserID: id}, nil
	case "favorites":
		return types.BrowseRequest{Kind: types.BrowseFavorites, UserID: id}, nil
	case "tracks":
		return types.BrowseRequest{Kind: types.BrowseTracks, UserID: id}, nil
	case "friend":
		return types.BrowseRequest{Kind: types.BrowseFriend, UserID: id}, nil
	case "friends":
		return types.BrowseRequest{Kind: types.BrowseFriends}, nil
	case "activities":
		return types.BrowseRequest{Kind: types.BrowseActivities}, nil
	default:
		return types.BrowseRequest{}, fmt.Errorf("unknown cursor kind: %q", kind)
	}
}

// UserMessage maps an error to the user-legible line a host can render.
func UserMessage(err error) string {
	var apiErr *httputil.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, api.ErrUnauthorized):
		return "Not authorized. Check your API credential."
	case errors.Is(err, api.ErrTooManyRequests):
		return "The catalog is rate limiting requests. Try again shortly."
	case errors.Is(err, stream.ErrRedirectMissing):
		return "Stream resolution failed."
	default:
		return "SoundCloud is unreachable right now."
	}
}

func placeholderMetadata(trackID string) types.PlaybackMetadata {
	//nolint:exhaustruct
	return types.PlaybackMetadata{
		TrackID: trackID,
		Title:   "SoundCloud",
		Bitrate: stream.BitrateLabel,
		Format:  stream.FormatLabel,
	}
}
