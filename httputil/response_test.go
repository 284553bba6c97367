package httputil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/soundbridge/httputil"
)

func TestAPIErrorMessage(t *testing.T) {
	t.Parallel()

	msg, ok := httputil.APIErrorMessage([]byte(`{"errors": [{"error_message": "404 - Not Found"}]}`))
	require.True(t, ok)
	assert.Exactly(t, "404 - Not Found", msg)

	msg, ok = httputil.APIErrorMessage([]byte(`{"error": "invalid client"}`))
	require.True(t, ok)
	assert.Exactly(t, "invalid client", msg)

	for _, body := range []string{
		`{"errors": []}`,
		`{"errors": [{"error_message": ""}]}`,
		`{"error": 500}`,
		`{"id": 42, "title": "Song"}`,
		`not json`,
	} {
		_, ok := httputil.APIErrorMessage([]byte(body))
		assert.False(t, ok, body)
	}
}

func TestAPIErrorError(t *testing.T) {
	t.Parallel()

	err := &httputil.APIError{Message: "gone"}
	assert.Exactly(t, "remote api error: gone", err.Error())
}
