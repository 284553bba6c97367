package types_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/soundbridge/soundcloud/types"
)

func TestTrackURI(t *testing.T) {
	t.Parallel()

	assert.Exactly(t, "soundcloud://track/42", types.TrackURI(42))
}

func TestTrackIDFromURI(t *testing.T) {
	t.Parallel()

	id, err := types.TrackIDFromURI("soundcloud://track/42")
	require.NoError(t, err)
	assert.Exactly(t, "42", id)

	id, err = types.TrackIDFromURI("track://42")
	require.NoError(t, err)
	assert.Exactly(t, "42", id)

	for _, uri := range []string{
		"",
		"soundcloud://track/",
		"track://",
		"soundcloud://track/not-a-number",
		"https://soundcloud.com/alice/midnight-dub",
		"playlist://7",
	} {
		_, err := types.TrackIDFromURI(uri)
		assert.ErrorIs(t, err, types.ErrInvalidTrackURI, uri)
	}
}

func TestBrowseKindFromString(t *testing.T) {
	t.Parallel()

	for _, k := range []types.BrowseKind{
		types.BrowseTracks,
		types.BrowsePlaylists,
		types.BrowseFavorites,
		types.BrowseTags,
		types.BrowseFriends,
		types.BrowseFriend,
		types.BrowseActivities,
		types.BrowseResolveURL,
	} {
		got, ok := types.BrowseKindFromString(k.String())
		require.True(t, ok)
		assert.Exactly(t, k, got)
	}

	// Empty names the default browse type.
	got, ok := types.BrowseKindFromString("")
	require.True(t, ok)
	assert.Exactly(t, types.BrowseTracks, got)

	_, ok = types.BrowseKindFromString("albums")
	assert.False(t, ok)
}
