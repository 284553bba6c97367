package browse_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/soundbridge/config"
	"github.com/xeptore/soundbridge/soundcloud/api"
	"github.com/xeptore/soundbridge/soundcloud/browse"
	"github.com/xeptore/soundbridge/soundcloud/types"
)

func newPaginator(t *testing.T, handler http.HandlerFunc) *browse.Paginator {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	//nolint:exhaustruct
	conf := config.API{
		BaseURL:   srv.URL,
		RateLimit: 1000,
		Timeouts:  config.APITimeouts{Browse: 5, GetDescriptor: 5, RedirectProbe: 5},
	}

	return browse.New(conf, api.New(conf))
}

func trackItems(n int, startID int64) string {
	items := make([]string, 0, n)
	for i := range n {
		id := startID + int64(i)
		items = append(items, fmt.Sprintf(`{"id": %d, "title": "Track %d", "streamable": true}`, id, id))
	}

	return "[" + strings.Join(items, ",") + "]"
}

func TestFetchPageDefaultTotal(t *testing.T) {
	t.Parallel()

	p := newPaginator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Exactly(t, "/tracks", r.URL.Path)
		assert.Exactly(t, "filter=streamable&limit=2", r.URL.RawQuery)
		fmt.Fprint(w, trackItems(2, 1))
	})

	//nolint:exhaustruct
	page, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{Kind: types.BrowseTracks, Limit: 2})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Exactly(t, "Track 1", page.Items[0].Name)
	assert.Exactly(t, uint(0), page.Offset)
	// A full page yields the generous default estimate so hosts keep paging.
	assert.Exactly(t, uint(browse.APIMaxItems+2), page.Total)
}

func TestFetchPageCarriesContinuation(t *testing.T) {
	t.Parallel()

	p := newPaginator(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"collection": %s, "next_href": "https://api.example/tracks?cursor=x"}`, trackItems(2, 1))
	})

	//nolint:exhaustruct
	page, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{Kind: types.BrowseTracks, Limit: 2})
	require.NoError(t, err)

	assert.Exactly(t, "https://api.example/tracks?cursor=x", page.Next)
}

func TestFetchPageResolveURLRejected(t *testing.T) {
	t.Parallel()

	p := newPaginator(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request: %s", r.URL.Path)
	})

	//nolint:exhaustruct
	_, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{
		Kind:   types.BrowseResolveURL,
		Search: "https://soundcloud.com/alice/midnight-dub",
		Limit:  1,
	})
	require.ErrorIs(t, err, browse.ErrNotPageable)
}

func TestFetchPageFilteredFullPageKeepsPaging(t *testing.T) {
	t.Parallel()

	p := newPaginator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Exactly(t, "/me/likes/tracks", r.URL.Path)
		fmt.Fprint(w, `[
			{"id": 1, "title": "Playable", "streamable": true},
			{"id": 2, "title": "Geo Blocked", "streamable": false}
		]`)
	})

	// The remote filled the page; one like merely parsed away. That must not
	// read as end-of-collection.
	//nolint:exhaustruct
	page, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{Kind: types.BrowseFavorites, Limit: 2})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Exactly(t, uint(browse.APIMaxItems+2), page.Total)
}

func TestFetchPageShortPageEndsCollection(t *testing.T) {
	t.Parallel()

	p := newPaginator(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, trackItems(2, 11))
	})

	//nolint:exhaustruct
	page, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{
		Kind:   types.BrowseTracks,
		Offset: 10,
		Limit:  5,
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Exactly(t, uint(10), page.Offset)
	assert.Exactly(t, uint(12), page.Total)
}

func TestFetchPageClampsLimit(t *testing.T) {
	t.Parallel()

	p := newPaginator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Exactly(t, "200", r.URL.Query().Get("limit"))
		fmt.Fprint(w, "[]")
	})

	//nolint:exhaustruct
	page, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{Kind: types.BrowseTracks, Limit: 300})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestFetchPageFriendsSingleItem(t *testing.T) {
	t.Parallel()

	p := newPaginator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Exactly(t, "/me/followings", r.URL.Path)
		// The whole collection is fetched; no paging params go out.
		assert.Empty(t, r.URL.RawQuery)

		items := make([]string, 0, 10)
		for i := range 10 {
			items = append(items, fmt.Sprintf(`{"id": %d, "username": "user%d"}`, i, i))
		}
		fmt.Fprint(w, "["+strings.Join(items, ",")+"]")
	})

	//nolint:exhaustruct
	page, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{
		Kind:   types.BrowseFriends,
		Offset: 3,
		Limit:  1,
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Exactly(t, "user3", page.Items[0].Name)
	// Single-item scans always echo offset 0.
	assert.Exactly(t, uint(0), page.Offset)
	assert.Exactly(t, uint(10), page.Total)
}

func TestFetchPageFriendsSingleItemBeyondCollection(t *testing.T) {
	t.Parallel()

	p := newPaginator(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 1, "username": "only"}]`)
	})

	//nolint:exhaustruct
	page, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{
		Kind:   types.BrowseFriends,
		Offset: 5,
		Limit:  1,
	})
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Exactly(t, uint(1), page.Total)
}

func TestFetchPageActivitiesTotalIsLimit(t *testing.T) {
	t.Parallel()

	p := newPaginator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Exactly(t, "/me/activities", r.URL.Path)
		fmt.Fprint(w, `{"collection": [
			{"type": "favoriting", "origin": {"user": {"username": "alice"}, "track": {"id": 1, "title": "One", "streamable": true}}},
			{"type": "favoriting", "origin": {"user": {"username": "bob"}, "track": {"id": 2, "title": "Two", "streamable": true}}}
		]}`)
	})

	//nolint:exhaustruct
	page, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{Kind: types.BrowseActivities, Limit: 20})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	// The activity stream has no real count; the requested limit stands in.
	assert.Exactly(t, uint(20), page.Total)
}

func TestFetchPagePlaylistTracksWindow(t *testing.T) {
	t.Parallel()

	p := newPaginator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Exactly(t, "/playlists/7", r.URL.Path)
		fmt.Fprint(w, `{
			"id": 7,
			"title": "Mix",
			"tracks": [
				{"id": 1, "title": "One", "streamable": true},
				{"id": 2, "title": "Two", "streamable": true},
				{"id": 3, "title": "Three", "streamable": true},
				{"id": 4, "title": "Four", "streamable": true}
			]
		}`)
	})

	//nolint:exhaustruct
	page, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{
		Kind:       types.BrowsePlaylists,
		PlaylistID: "7",
		Offset:     1,
		Limit:      2,
	})
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Exactly(t, "Two", page.Items[0].Name)
	assert.Exactly(t, "Three", page.Items[1].Name)
	assert.Exactly(t, uint(1), page.Offset)
	assert.Exactly(t, uint(4), page.Total)
}

func TestFetchPagePlaylistListFollowsCursor(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/me/playlists", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{
			"collection": [
				{"id": 1, "title": "First"},
				{"id": 2, "title": "Second"}
			],
			"next_href": %q
		}`, srv.URL+"/page2")
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": 3, "title": "Third"}, {"id": 4, "title": "Fourth"}]`)
	})

	//nolint:exhaustruct
	conf := config.API{
		BaseURL:   srv.URL,
		RateLimit: 1000,
		Timeouts:  config.APITimeouts{Browse: 5, GetDescriptor: 5, RedirectProbe: 5},
	}
	p := browse.New(conf, api.New(conf))

	//nolint:exhaustruct
	page, err := p.FetchPage(t.Context(), zerolog.Nop(), types.BrowseRequest{Kind: types.BrowsePlaylists, Limit: 3})
	require.NoError(t, err)

	require.Len(t, page.Items, 3)
	assert.Exactly(t, "playlist:1", page.Items[0].Cursor)
	assert.Exactly(t, "playlist:3", page.Items[2].Cursor)
}
