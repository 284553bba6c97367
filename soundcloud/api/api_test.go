package api_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/soundbridge/config"
	"github.com/xeptore/soundbridge/httputil"
	"github.com/xeptore/soundbridge/soundcloud/api"
	"github.com/xeptore/soundbridge/soundcloud/resource"
)

func newClient(t *testing.T, handler http.HandlerFunc, mutate func(*config.API)) *api.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	//nolint:exhaustruct
	conf := config.API{
		BaseURL:   srv.URL,
		RateLimit: 1000,
		Timeouts:  config.APITimeouts{Browse: 5, GetDescriptor: 5, RedirectProbe: 5},
	}
	if nil != mutate {
		mutate(&conf)
	}

	return api.New(conf)
}

func TestGetAuthenticatedUsesHeader(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Exactly(t, "OAuth tok", r.Header.Get("Authorization"))
		assert.Exactly(t, "application/json", r.Header.Get("Accept"))
		assert.Empty(t, r.URL.RawQuery)
		fmt.Fprint(w, "{}")
	}, func(conf *config.API) {
		conf.Key = "tok"
		conf.ClientID = "cid"
	})

	ep := resource.Endpoint{Path: "me/followings", Params: nil, RequiresAuth: true}
	body, err := c.Get(t.Context(), zerolog.Nop(), ep, 0)
	require.NoError(t, err)
	assert.JSONEq(t, "{}", string(body))
}

func TestGetAnonymousUsesClientIDParam(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		// Parameter order is preserved; the client id goes last.
		assert.Exactly(t, "filter=streamable&limit=10&client_id=cid", r.URL.RawQuery)
		fmt.Fprint(w, "[]")
	}, func(conf *config.API) {
		conf.ClientID = "cid"
	})

	ep := resource.Endpoint{
		Path: "tracks",
		Params: []resource.Param{
			{Key: "filter", Value: "streamable"},
			{Key: "limit", Value: "10"},
		},
		RequiresAuth: false,
	}
	_, err := c.Get(t.Context(), zerolog.Nop(), ep, 0)
	require.NoError(t, err)
}

func TestGetStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   "",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, api.ErrUnauthorized)
			},
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   "",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, api.ErrUnauthorized)
			},
		},
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   "",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, api.ErrTooManyRequests)
			},
		},
		{
			name:   "structured error body",
			status: http.StatusNotFound,
			body:   `{"errors": [{"error_message": "404 - Not Found"}]}`,
			check: func(t *testing.T, err error) {
				var apiErr *httputil.APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Exactly(t, "404 - Not Found", apiErr.Message)
			},
		},
		{
			name:   "opaque server error",
			status: http.StatusInternalServerError,
			body:   "boom",
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "unexpected response code 500")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}, nil)

			ep := resource.Endpoint{Path: "tracks", Params: nil, RequiresAuth: false}
			_, err := c.Get(t.Context(), zerolog.Nop(), ep, 0)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
