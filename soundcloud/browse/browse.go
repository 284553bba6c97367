// Package browse pages through the remote catalog and normalizes its
// per-resource pagination quirks into a uniform page contract.
package browse

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/xeptore/soundbridge/config"
	"github.com/xeptore/soundbridge/soundcloud/api"
	"github.com/xeptore/soundbridge/soundcloud/parse"
	"github.com/xeptore/soundbridge/soundcloud/resource"
	"github.com/xeptore/soundbridge/soundcloud/types"
)

// Policy constants preserved from the source system. Neither is documented
// remote behavior; hosts depend on both, so they are kept as-is rather than
// tightened.
const (
	// APIMaxItems feeds the default total estimate: absent a better signal a
	// page reports total = APIMaxItems + limit, a deliberately generous upper
	// bound so paging hosts keep offering "more" until a short page proves
	// the end of the collection.
	APIMaxItems = 500
	// MaxPageSize is the remote's hard cap of items per call.
	MaxPageSize = 200
)

// ErrNotPageable is reported for resolve-url requests, which dispatch on
// resource shape in the client instead of paging through a listing.
var ErrNotPageable = errors.New("resolved urls are not pageable")

type Paginator struct {
	conf config.API
	api  *api.Client
}

func New(conf config.API, apiClient *api.Client) *Paginator {
	return &Paginator{conf: conf, api: apiClient}
}

// FetchPage satisfies one logical "limit items starting at offset" request
// with a single network call (plus continuation-cursor follow-ups for the
// playlist listing). The host advances the offset itself for subsequent
// pages.
func (p *Paginator) FetchPage(
	ctx context.Context,
	logger zerolog.Logger,
	req types.BrowseRequest,
) (*types.Page, error) {
	logger = logger.With().
		Str("browse_kind", req.Kind.String()).
		Uint("offset", req.Offset).
		Uint("limit", req.Limit).
		Logger()

	switch {
	case req.Kind == types.BrowseResolveURL:
		return nil, ErrNotPageable
	case req.Kind == types.BrowseFriends && req.Limit == 1:
		return p.singleFromCollection(ctx, logger, req, parse.Friends)
	case req.Kind == types.BrowseActivities && req.Limit == 1:
		return p.singleFromCollection(ctx, logger, req, parse.Activities)
	case req.Kind == types.BrowsePlaylists && req.PlaylistID != "":
		return p.playlistTracksPage(ctx, logger, req)
	case req.Kind == types.BrowsePlaylists:
		return p.playlistListPage(ctx, logger, req)
	}

	clamped := req
	clamped.Limit = min(req.Limit, MaxPageSize)

	body, err := p.api.Get(ctx, logger, resource.Resolve(clamped), p.browseTimeout())
	if nil != err {
		return nil, fmt.Errorf("failed to fetch %s page: %w", req.Kind, err)
	}

	return p.assemblePage(req, clamped.Limit, parseFor(req.Kind)(body), parse.ItemCount(body), parse.NextCursor(body)), nil
}

// singleFromCollection works around resources whose offset and limit
// parameters the remote ignores: the full collection is fetched, scanned to
// the entry at the requested offset, and returned as a one-item page whose
// echoed offset is forced to 0 for host-side replay compatibility.
func (p *Paginator) singleFromCollection(
	ctx context.Context,
	logger zerolog.Logger,
	req types.BrowseRequest,
	parseAll func([]byte) []types.MenuEntry,
) (*types.Page, error) {
	full := req
	full.Offset = 0
	full.Limit = 0

	body, err := p.api.Get(ctx, logger, resource.Resolve(full), p.browseTimeout())
	if nil != err {
		return nil, fmt.Errorf("failed to fetch %s collection: %w", req.Kind, err)
	}

	all := parseAll(body)
	if req.Offset >= uint(len(all)) {
		logger.Warn().Int("collection_size", len(all)).Msg("Requested offset beyond collection")
		return &types.Page{Items: []types.MenuEntry{}, Offset: 0, Total: uint(len(all))}, nil //nolint:exhaustruct
	}

	//nolint:exhaustruct
	return &types.Page{
		Items:  []types.MenuEntry{all[req.Offset]},
		Offset: 0,
		Total:  uint(len(all)),
	}, nil
}

// playlistTracksPage expands a single playlist. The remote returns the whole
// playlist in one object, so the window is cut locally and the real track
// count serves as the total.
func (p *Paginator) playlistTracksPage(
	ctx context.Context,
	logger zerolog.Logger,
	req types.BrowseRequest,
) (*types.Page, error) {
	body, err := p.api.Get(ctx, logger, resource.Resolve(req), p.browseTimeout())
	if nil != err {
		return nil, fmt.Errorf("failed to fetch playlist %s: %w", req.PlaylistID, err)
	}

	all := parse.PlaylistTracks(body)
	if req.Offset >= uint(len(all)) {
		return &types.Page{Items: []types.MenuEntry{}, Offset: req.Offset, Total: uint(len(all))}, nil //nolint:exhaustruct
	}

	end := min(req.Offset+req.Limit, uint(len(all)))

	//nolint:exhaustruct
	return &types.Page{
		Items:  all[req.Offset:end],
		Offset: req.Offset,
		Total:  uint(len(all)),
	}, nil
}

// playlistListPage accumulates playlist entries across the remote's
// continuation cursors with an explicit loop: absence of a cursor, or a
// filled window, terminates it.
func (p *Paginator) playlistListPage(
	ctx context.Context,
	logger zerolog.Logger,
	req types.BrowseRequest,
) (*types.Page, error) {
	clamped := req
	clamped.Limit = min(req.Limit, MaxPageSize)

	ep := resource.Resolve(clamped)
	body, err := p.api.Get(ctx, logger, ep, p.browseTimeout())
	if nil != err {
		return nil, fmt.Errorf("failed to fetch playlists page: %w", err)
	}

	items := parse.Playlists(body)
	raw := parse.ItemCount(body)
	for next := parse.NextCursor(body); next != "" && uint(len(items)) < clamped.Limit; next = parse.NextCursor(body) {
		body, err = p.api.GetURL(ctx, logger, next, ep.RequiresAuth, p.browseTimeout())
		if nil != err {
			return nil, fmt.Errorf("failed to follow playlists continuation: %w", err)
		}
		items = append(items, parse.Playlists(body)...)
		raw += parse.ItemCount(body)
	}

	return p.assemblePage(req, clamped.Limit, items, raw, parse.NextCursor(body)), nil
}

func (p *Paginator) assemblePage(req types.BrowseRequest, limit uint, items []types.MenuEntry, raw int, next string) *types.Page {
	// Resources that ignore the limit parameter can hand back more than was
	// asked for.
	if uint(len(items)) > limit {
		items = items[:limit]
	}

	var total uint
	switch {
	case req.Kind == types.BrowseActivities:
		// The activity stream exposes no real count.
		total = req.Limit
	case uint(raw) < limit:
		// A short raw page proves end-of-data. Parsers drop unplayable items,
		// so the rendered count alone cannot tell a filtered page from an
		// exhausted collection.
		total = req.Offset + uint(len(items))
	default:
		total = APIMaxItems + req.Limit
	}

	offset := req.Offset
	if req.Kind == types.BrowseFriend {
		// Legacy host replay quirk: single-friend pages always echo offset 0.
		offset = 0
	}

	return &types.Page{Items: items, Offset: offset, Total: total, Next: next}
}

func (p *Paginator) browseTimeout() time.Duration {
	return time.Duration(p.conf.Timeouts.Browse) * time.Second
}

func parseFor(kind types.BrowseKind) func([]byte) []types.MenuEntry {
	switch kind {
	case types.BrowseTracks, types.BrowseTags, types.BrowseFavorites:
		return parse.Tracks
	case types.BrowsePlaylists:
		return parse.Playlists
	case types.BrowseFriends:
		return parse.Friends
	case types.BrowseFriend:
		return parse.Friend
	case types.BrowseActivities:
		return parse.Activities
	case types.BrowseResolveURL:
		// Rejected before any fetch happens.
		fallthrough
	default:
		panic("unexpected browse kind: " + strconv.Itoa(int(kind)))
	}
}

// ErrorPage wraps a browse failure in a single text-only entry the host can
// render as a tree leaf, keeping the browse session alive.
func ErrorPage(msg string) *types.Page {
	//nolint:exhaustruct
	return &types.Page{
		Items:  []types.MenuEntry{{Name: msg, Kind: types.EntryText}},
		Offset: 0,
		Total:  1,
	}
}
