package types

import (
	"errors"
	"strconv"
	"strings"
)

const trackURIPrefix = "soundcloud://track/"

var ErrInvalidTrackURI = errors.New("invalid track uri")

// TrackURI builds the synthetic play URI embedded in track menu entries.
func TrackURI(id int64) string {
	return trackURIPrefix + strconv.FormatInt(id, 10)
}

// TrackIDFromURI extracts the track id from a play URI. Both the canonical
// soundcloud://track/<id> form and the short track://<id> form some hosts
// emit are accepted.
func TrackIDFromURI(uri string) (string, error) {
	var id string
	switch {
	case strings.HasPrefix(uri, trackURIPrefix):
		id = strings.TrimPrefix(uri, trackURIPrefix)
	case strings.HasPrefix(uri, "track://"):
		id = strings.TrimPrefix(uri, "track://")
	default:
		return "", ErrInvalidTrackURI
	}

	if id == "" {
		return "", ErrInvalidTrackURI
	}

	if _, err := strconv.ParseInt(id, 10, 64); nil != err {
		return "", ErrInvalidTrackURI
	}

	return id, nil
}
