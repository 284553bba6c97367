package types

import (
	"strconv"
)

type BrowseKind int

const (
	BrowseTracks BrowseKind = iota
	BrowsePlaylists
	BrowseFavorites
	BrowseTags
	BrowseFriends
	BrowseFriend
	BrowseActivities
	BrowseResolveURL
)

func (k BrowseKind) String() string {
	switch k {
	case BrowseTracks:
		return "tracks"
	case BrowsePlaylists:
		return "playlists"
	case BrowseFavorites:
		return "favorites"
	case BrowseTags:
		return "tags"
	case BrowseFriends:
		return "friends"
	case BrowseFriend:
		return "friend"
	case BrowseActivities:
		return "activities"
	case BrowseResolveURL:
		return "resolve_url"
	default:
		panic("unexpected browse kind: " + strconv.Itoa(int(k)))
	}
}

// BrowseKindFromString is the inverse of BrowseKind.String, used by hosts that
// address browse types by name.
func BrowseKindFromString(s string) (BrowseKind, bool) {
	switch s {
	case "tracks", "":
		return BrowseTracks, true
	case "playlists":
		return BrowsePlaylists, true
	case "favorites":
		return BrowseFavorites, true
	case "tags":
		return BrowseTags, true
	case "friends":
		return BrowseFriends, true
	case "friend":
		return BrowseFriend, true
	case "activities":
		return BrowseActivities, true
	case "resolve_url":
		return BrowseResolveURL, true
	default:
		return 0, false
	}
}

// BrowseRequest is immutable for the duration of one paging cycle. Offset
// advances monotonically across cycles within one logical request.
type BrowseRequest struct {
	Kind       BrowseKind
	Offset     uint
	Limit      uint
	Search     string
	UserID     string
	PlaylistID string
	Order      string
}

type EntryKind int

const (
	EntryTrack EntryKind = iota
	EntryPlaylist
	EntryLink
	EntrySearch
	EntryText
)

func (k EntryKind) String() string {
	switch k {
	case EntryTrack:
		return "track"
	case EntryPlaylist:
		return "playlist"
	case EntryLink:
		return "link"
	case EntrySearch:
		return "search"
	case EntryText:
		return "text"
	default:
		panic("unexpected entry kind: " + strconv.Itoa(int(k)))
	}
}

// MenuEntry is produced fresh per response and never mutated afterwards; the
// caller owns it once returned.
type MenuEntry struct {
	Name     string
	Kind     EntryKind
	Icon     string
	PlayURI  string
	Children []MenuEntry
	// Cursor is an opaque continuation for lazy expansion of this entry.
	Cursor string
}

// Page is one window of menu entries. Total is an estimate, not a guaranteed
// exact count.
type Page struct {
	Items  []MenuEntry
	Offset uint
	Total  uint
	// Next is the remote's continuation URL when one was supplied; empty for
	// resources paged by offset alone.
	Next string
}

// TrackDescriptor is the decoded track object from the remote catalog.
type TrackDescriptor struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Duration     int64  `json:"duration"` // milliseconds
	Streamable   bool   `json:"streamable"`
	StreamURL    string `json:"stream_url"`
	DownloadURL  string `json:"download_url"`
	Downloadable bool   `json:"downloadable"`
	ArtworkURL   string `json:"artwork_url"`
	User         struct {
		Username  string `json:"username"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user"`
}

// PlaybackMetadata is the derived, cacheable description of a playable track.
type PlaybackMetadata struct {
	TrackID         string
	DurationSeconds int64
	Title           string
	Artist          string
	ArtworkURL      string
	Bitrate         string
	Format          string
}
