// Package parse turns raw catalog responses into menu entries, one parser per
// browse kind. Malformed bodies degrade to empty entry lists; transport-level
// failures are reported elsewhere.
package parse

import (
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/xeptore/soundbridge/iterutil"
	"github.com/xeptore/soundbridge/must"
	"github.com/xeptore/soundbridge/soundcloud/types"
	"github.com/xeptore/soundbridge/unit"
)

// Subtitles maps an activity subtype to the phrase appended after the entry
// name. Hosts with a localization catalog may replace entries before use.
var Subtitles = map[string]string{
	"favoriting":       "favorited by",
	"comment":          "commented by",
	"track":            "new track by",
	"track-sharing":    "shared by",
	"playlist":         "shared by",
	"playlist-sharing": "shared by",
}

// genericSubtitle covers activity subtypes the mapping does not recognize.
const genericSubtitle = "shared by"

// UpgradeArtwork swaps the API's default "-large" artwork variant for the
// higher resolution one when present.
func UpgradeArtwork(u string) string {
	return strings.Replace(u, "-large", "-t500x500", 1)
}

// items extracts the entry sequence from a response body, accepting both the
// bare-array and the collection-wrapped shapes the API serves.
func items(b []byte) []gjson.Result {
	if !gjson.ValidBytes(b) {
		return nil
	}

	root := gjson.ParseBytes(b)
	if c := root.Get("collection"); c.IsArray() {
		return c.Array()
	}
	if root.IsArray() {
		return root.Array()
	}

	return nil
}

// ItemCount reports how many items a response carries before any filtering.
// End-of-data detection must count these, not the parsed entries, since
// parsers drop unplayable items.
func ItemCount(b []byte) int {
	return len(items(b))
}

// NextCursor returns the continuation cursor of a collection-wrapped
// response, or empty when the collection is exhausted.
func NextCursor(b []byte) string {
	if !gjson.ValidBytes(b) {
		return ""
	}

	return gjson.GetBytes(b, "next_href").Str
}

// Tracks parses a track listing. Non-streamable tracks are dropped since the
// server-side streamable filter is advisory only.
func Tracks(b []byte) []types.MenuEntry {
	entries := make([]types.MenuEntry, 0)
	for _, item := range items(b) {
		if e, ok := trackEntry([]byte(item.Raw)); ok {
			entries = append(entries, e)
		}
	}

	return entries
}

func trackEntry(b []byte) (types.MenuEntry, bool) {
	var t types.TrackDescriptor
	if err := json.Unmarshal(b, &t); nil != err {
		return types.MenuEntry{}, false //nolint:exhaustruct
	}

	return TrackEntry(t)
}

// TrackEntry builds a playable menu entry from a decoded track descriptor.
func TrackEntry(t types.TrackDescriptor) (types.MenuEntry, bool) {
	if t.Title == "" || !t.Streamable {
		return types.MenuEntry{}, false //nolint:exhaustruct
	}

	icon := t.ArtworkURL
	if icon == "" {
		icon = t.User.AvatarURL
	}

	//nolint:exhaustruct
	return types.MenuEntry{
		Name:    t.Title,
		Kind:    types.EntryTrack,
		Icon:    UpgradeArtwork(icon),
		PlayURI: types.TrackURI(t.ID),
	}, true
}

type playlistObject struct {
	ID         int64                   `json:"id"`
	Title      string                  `json:"title"`
	TrackCount int                     `json:"track_count"`
	Duration   int64                   `json:"duration"` // milliseconds
	ArtworkURL string                  `json:"artwork_url"`
	Tracks     []types.TrackDescriptor `json:"tracks"`
	User       struct {
		Username  string `json:"username"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user"`
}

// Playlists parses a playlist listing into one entry per playlist.
func Playlists(b []byte) []types.MenuEntry {
	entries := make([]types.MenuEntry, 0)
	for _, item := range items(b) {
		if e, ok := playlistEntry([]byte(item.Raw)); ok {
			entries = append(entries, e)
		}
	}

	return entries
}

func playlistEntry(b []byte) (types.MenuEntry, bool) {
	var p playlistObject
	if err := json.Unmarshal(b, &p); nil != err {
		return types.MenuEntry{}, false //nolint:exhaustruct
	}
	if p.Title == "" {
		return types.MenuEntry{}, false //nolint:exhaustruct
	}

	name := p.Title
	if p.TrackCount > 0 && p.Duration > 0 {
		d := time.Duration(p.Duration) * time.Millisecond
		name += " (" + strconv.Itoa(p.TrackCount) + " tracks, " + unit.FormatMinSec(d) + ")"
	}

	// Artwork resolution order: playlist artwork, first track's artwork,
	// owner's avatar.
	icon := p.ArtworkURL
	if icon == "" && len(p.Tracks) > 0 {
		icon = p.Tracks[0].ArtworkURL
	}
	if icon == "" {
		icon = p.User.AvatarURL
	}

	//nolint:exhaustruct
	return types.MenuEntry{
		Name:   name,
		Kind:   types.EntryPlaylist,
		Icon:   UpgradeArtwork(icon),
		Cursor: "playlist:" + strconv.FormatInt(p.ID, 10),
	}, true
}

// PlaylistTracks parses a single playlist object into the entries of its
// tracks, used when a playlist is expanded.
func PlaylistTracks(b []byte) []types.MenuEntry {
	if !gjson.ValidBytes(b) {
		return []types.MenuEntry{}
	}

	var p playlistObject
	if err := json.Unmarshal(b, &p); nil != err {
		return []types.MenuEntry{}
	}

	streamable := iterutil.Filter(p.Tracks, func(t types.TrackDescriptor) bool {
		return t.Streamable && t.Title != ""
	})

	return iterutil.Map(streamable, func(_ int, t types.TrackDescriptor) types.MenuEntry {
		e, ok := TrackEntry(t)
		must.Be(ok, "filtered playlist track must yield an entry")
		return e
	})
}

type userObject struct {
	ID                   int64  `json:"id"`
	Username             string `json:"username"`
	AvatarURL            string `json:"avatar_url"`
	TrackCount           int    `json:"track_count"`
	PlaylistCount        int    `json:"playlist_count"`
	PublicFavoritesCount int    `json:"public_favorites_count"`
}

// Friends parses a followings listing into one expandable entry per user.
func Friends(b []byte) []types.MenuEntry {
	entries := make([]types.MenuEntry, 0)
	for _, item := range items(b) {
		if e, ok := friendEntry([]byte(item.Raw)); ok {
			entries = append(entries, e)
		}
	}

	return entries
}

// Friend parses a single user detail response.
func Friend(b []byte) []types.MenuEntry {
	if !gjson.ValidBytes(b) {
		return []types.MenuEntry{}
	}

	e, ok := friendEntry(b)
	if !ok {
		return []types.MenuEntry{}
	}

	return []types.MenuEntry{e}
}

func friendEntry(b []byte) (types.MenuEntry, bool) {
	var u userObject
	if err := json.Unmarshal(b, &u); nil != err {
		return types.MenuEntry{}, false //nolint:exhaustruct
	}
	if u.Username == "" {
		return types.MenuEntry{}, false //nolint:exhaustruct
	}

	uid := strconv.FormatInt(u.ID, 10)

	// Expansion children exist only for non-zero counts.
	var children []types.MenuEntry
	if u.PublicFavoritesCount > 0 {
		//nolint:exhaustruct
		children = append(children, types.MenuEntry{
			Name:   "Favorites (" + strconv.Itoa(u.PublicFavoritesCount) + ")",
			Kind:   types.EntryLink,
			Cursor: "favorites:" + uid,
		})
	}
	if u.TrackCount > 0 {
		//nolint:exhaustruct
		children = append(children, types.MenuEntry{
			Name:   "Tracks (" + strconv.Itoa(u.TrackCount) + ")",
			Kind:   types.EntryLink,
			Cursor: "tracks:" + uid,
		})
	}
	if u.PlaylistCount > 0 {
		//nolint:exhaustruct
		children = append(children, types.MenuEntry{
			Name:   "Playlists",
			Kind:   types.EntryLink,
			Cursor: "playlists:" + uid,
		})
	}

	//nolint:exhaustruct
	return types.MenuEntry{
		Name:     u.Username,
		Kind:     types.EntryLink,
		Icon:     UpgradeArtwork(u.AvatarURL),
		Children: children,
		Cursor:   "friend:" + uid,
	}, true
}

// Activities parses an activity stream. Playlist events delegate to the
// playlist parser; track events map their subtype to a subtitle appended to
// the entry name. Nested origin objects are dereferenced.
func Activities(b []byte) []types.MenuEntry {
	entries := make([]types.MenuEntry, 0)
	for _, item := range items(b) {
		if e, ok := activityEntry(item); ok {
			entries = append(entries, e)
		}
	}

	return entries
}

func activityEntry(item gjson.Result) (types.MenuEntry, bool) {
	var (
		kind   = item.Get("type").Str
		origin = item.Get("origin")
	)
	if !origin.Exists() {
		return types.MenuEntry{}, false //nolint:exhaustruct
	}

	actor := origin.Get("user.username").Str

	if strings.HasPrefix(kind, "playlist") {
		pl := origin.Get("playlist")
		if !pl.Exists() {
			pl = origin
		}

		e, ok := playlistEntry([]byte(pl.Raw))
		if !ok {
			return types.MenuEntry{}, false //nolint:exhaustruct
		}
		e.Name += " - " + subtitleFor(kind) + " " + actor

		return e, true
	}

	tr := origin.Get("track")
	if !tr.Exists() {
		tr = origin
	}

	e, ok := trackEntry([]byte(tr.Raw))
	if !ok {
		return types.MenuEntry{}, false //nolint:exhaustruct
	}
	if actor == "" {
		actor = tr.Get("user.username").Str
	}
	e.Name += " - " + subtitleFor(kind) + " " + actor

	return e, true
}

func subtitleFor(kind string) string {
	if s, ok := Subtitles[kind]; ok {
		return s
	}

	return genericSubtitle
}
