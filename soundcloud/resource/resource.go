// Package resource maps browse requests to concrete API endpoints. The
// mapping is pure: no network access, no state.
package resource

import (
	"strconv"

	"github.com/xeptore/soundbridge/soundcloud/types"
)

type Param struct {
	Key   string
	Value string
}

// Endpoint is a resolved API target. Params preserve append order since the
// remote treats some parameter sequences as significant.
type Endpoint struct {
	Path         string
	Params       []Param
	RequiresAuth bool
}

// Resolve maps a browse request to its endpoint. Paging parameters follow the
// per-resource quirks of the remote: followings honor only offset, activities
// honor only limit (and only for multi-item fetches), single-resource paths
// take no paging parameters at all.
func Resolve(req types.BrowseRequest) Endpoint {
	switch req.Kind {
	case types.BrowseTracks:
		if req.UserID != "" {
			return Endpoint{
				Path:         "users/" + req.UserID + "/tracks",
				Params:       withPaging(nil, req),
				RequiresAuth: true,
			}
		}

		params := []Param{{Key: "filter", Value: "streamable"}}
		if req.Search != "" {
			params = append(params, Param{Key: "q", Value: req.Search})
		}
		if req.Order != "" {
			params = append(params, Param{Key: "order", Value: req.Order})
		}

		return Endpoint{
			Path:         "tracks",
			Params:       withPaging(params, req),
			RequiresAuth: false,
		}
	case types.BrowseTags:
		params := []Param{
			{Key: "filter", Value: "streamable"},
			{Key: "tags", Value: req.Search},
		}

		return Endpoint{
			Path:         "tracks",
			Params:       withPaging(params, req),
			RequiresAuth: false,
		}
	case types.BrowsePlaylists:
		switch {
		case req.PlaylistID != "":
			return Endpoint{
				Path:         "playlists/" + req.PlaylistID,
				Params:       nil,
				RequiresAuth: true,
			}
		case req.UserID != "":
			return Endpoint{
				Path:         "users/" + req.UserID + "/playlists",
				Params:       withPaging(nil, req),
				RequiresAuth: true,
			}
		case req.Search != "":
			params := []Param{{Key: "q", Value: req.Search}}

			return Endpoint{
				Path:         "playlists",
				Params:       withPaging(params, req),
				RequiresAuth: true,
			}
		default:
			return Endpoint{
				Path:         "me/playlists",
				Params:       withPaging(nil, req),
				RequiresAuth: true,
			}
		}
	case types.BrowseFavorites:
		if req.UserID != "" {
			return Endpoint{
				Path:         "users/" + req.UserID + "/likes/tracks",
				Params:       withPaging(nil, req),
				RequiresAuth: true,
			}
		}

		return Endpoint{
			Path:         "me/likes/tracks",
			Params:       withPaging(nil, req),
			RequiresAuth: true,
		}
	case types.BrowseFriends:
		// Followings ignore limit; only offset is honored.
		var params []Param
		if req.Offset > 0 {
			params = append(params, Param{Key: "offset", Value: strconv.FormatUint(uint64(req.Offset), 10)})
		}

		return Endpoint{
			Path:         "me/followings",
			Params:       params,
			RequiresAuth: true,
		}
	case types.BrowseFriend:
		return Endpoint{
			Path:         "users/" + req.UserID,
			Params:       nil,
			RequiresAuth: true,
		}
	case types.BrowseActivities:
		// Activities ignore offset; limit is honored only for multi-item
		// fetches. A limit of 1 marks a re-fetch-and-filter cycle that needs
		// the unfiltered collection.
		var params []Param
		if req.Limit > 1 {
			params = append(params, Param{Key: "limit", Value: strconv.FormatUint(uint64(req.Limit), 10)})
		}

		return Endpoint{
			Path:         "me/activities",
			Params:       params,
			RequiresAuth: true,
		}
	case types.BrowseResolveURL:
		params := []Param{{Key: "url", Value: req.Search}}

		return Endpoint{
			Path:         "resolve",
			Params:       params,
			RequiresAuth: false,
		}
	default:
		panic("unexpected browse kind: " + strconv.Itoa(int(req.Kind)))
	}
}

func withPaging(params []Param, req types.BrowseRequest) []Param {
	if req.Limit > 0 {
		params = append(params, Param{Key: "limit", Value: strconv.FormatUint(uint64(req.Limit), 10)})
	}
	if req.Offset > 0 {
		params = append(params, Param{Key: "offset", Value: strconv.FormatUint(uint64(req.Offset), 10)})
	}

	return params
}
