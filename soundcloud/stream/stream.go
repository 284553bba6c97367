// Package stream turns an opaque playable track id into an actual CDN stream
// URL at playback time. The two-hop fetch (descriptor, then redirect probe)
// exists because the catalog hands out signed, time-limited redirects rather
// than direct file URLs.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/xeptore/soundbridge/cache"
	"github.com/xeptore/soundbridge/config"
	"github.com/xeptore/soundbridge/httputil"
	"github.com/xeptore/soundbridge/redact"
	"github.com/xeptore/soundbridge/soundcloud/api"
	"github.com/xeptore/soundbridge/soundcloud/parse"
	"github.com/xeptore/soundbridge/soundcloud/resource"
	"github.com/xeptore/soundbridge/soundcloud/types"
	"github.com/xeptore/soundbridge/unit"
)

// ErrRedirectMissing is reported when the redirect probe got a response but
// no relocation target, which is terminal for the playback attempt even on a
// successful HTTP status.
var ErrRedirectMissing = errors.New("stream resolution failed: response carried no relocation target")

// The catalog serves a single transcode profile.
const (
	BitrateLabel = "128k"
	FormatLabel  = "MP3 (SoundCloud)"
)

type Resolver struct {
	conf  config.Config
	api   *api.Client
	cache *cache.Cache
}

func New(conf config.Config, apiClient *api.Client, c *cache.Cache) *Resolver {
	return &Resolver{conf: conf, api: apiClient, cache: c}
}

type Resolved struct {
	StreamURL string
	Meta      types.PlaybackMetadata
}

// Resolve runs the full playback resolution: descriptor fetch, source URL
// selection, redirect probe. On success the derived metadata is cached under
// the track id and the resolved CDN URL returned for immediate playback. The
// resolved URL is never re-resolved for seeking; the signed target does not
// support arbitrary-range replay.
func (r *Resolver) Resolve(ctx context.Context, logger zerolog.Logger, trackID string) (*Resolved, error) {
	desc, err := r.Descriptor(ctx, logger, trackID)
	if nil != err {
		return nil, err
	}

	src := SourceURL(*desc, r.conf.API.PlaybackMethod)

	streamURL, err := r.probeRedirect(ctx, logger, src)
	if nil != err {
		return nil, err
	}
	logger.Debug().Str("stream_url", redact.URL(streamURL)).Msg("Resolved stream URL")

	meta := MetadataFromDescriptor(*desc)
	r.cache.Metadata.Set(trackID, meta, r.conf.Cache.MetadataTTL.Duration)

	return &Resolved{StreamURL: streamURL, Meta: meta}, nil
}

// FetchMetadata fetches only the descriptor and caches the derived metadata.
// Background prefetch goes through here: no redirect probe is needed to
// populate title, artist, and artwork ahead of playback.
func (r *Resolver) FetchMetadata(ctx context.Context, logger zerolog.Logger, trackID string) (*types.PlaybackMetadata, error) {
	desc, err := r.Descriptor(ctx, logger, trackID)
	if nil != err {
		return nil, err
	}

	meta := MetadataFromDescriptor(*desc)
	r.cache.Metadata.Set(trackID, meta, r.conf.Cache.MetadataTTL.Duration)

	return &meta, nil
}

// Descriptor fetches and decodes the track descriptor by id. A structured
// error field in the body surfaces as *httputil.APIError carrying the
// server-supplied message.
func (r *Resolver) Descriptor(ctx context.Context, logger zerolog.Logger, trackID string) (*types.TrackDescriptor, error) {
	ep := resource.Endpoint{
		Path:         "tracks/" + trackID,
		Params:       nil,
		RequiresAuth: false,
	}

	timeout := time.Duration(r.conf.API.Timeouts.GetDescriptor) * time.Second
	body, err := r.api.Get(ctx, logger, ep, timeout)
	if nil != err {
		return nil, fmt.Errorf("failed to fetch track descriptor: %w", err)
	}

	if msg, ok := httputil.APIErrorMessage(body); ok {
		return nil, &httputil.APIError{Message: msg}
	}

	var desc types.TrackDescriptor
	if err := json.Unmarshal(body, &desc); nil != err {
		logger.Error().Err(err).Msg("Failed to decode track descriptor")
		return nil, fmt.Errorf("failed to decode track descriptor: %v", err)
	}

	return &desc, nil
}

// SourceURL selects the URL to probe. The download URL is used only when the
// playback method preference says so, the descriptor marks the track
// downloadable, and a non-empty download URL is present; every other case
// falls back to the streaming URL. The selection is deterministic per
// descriptor.
func SourceURL(d types.TrackDescriptor, method string) string {
	useDownload := method == config.PlaybackMethodDownload && d.Downloadable && d.DownloadURL != ""

	return lo.Ternary(useDownload, d.DownloadURL, d.StreamURL)
}

// probeRedirect issues a GET with redirect following disabled and captures
// the Location header as the actual CDN URL.
func (r *Resolver) probeRedirect(ctx context.Context, logger zerolog.Logger, src string) (u string, err error) {
	reqURL := src + r.credentialSuffix(src)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if nil != err {
		logger.Error().Err(err).Msg("Failed to create redirect probe request")
		return "", fmt.Errorf("failed to create redirect probe request: %v", err)
	}

	client := http.Client{ //nolint:exhaustruct
		Timeout: time.Duration(r.conf.API.Timeouts.RedirectProbe) * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if nil != err {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", context.DeadlineExceeded
		}

		if errors.Is(err, context.Canceled) {
			return "", context.Canceled
		}

		logger.Error().Err(err).Msg("Failed to send redirect probe request")

		return "", fmt.Errorf("failed to send redirect probe request: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to close redirect probe response body")
			err = errors.Join(err, fmt.Errorf("failed to close redirect probe response body: %v", closeErr))
		}
	}()

	loc := resp.Header.Get("Location")
	if loc == "" {
		logger.Error().Int("status_code", resp.StatusCode).Msg("Redirect probe response carried no Location header")
		return "", ErrRedirectMissing
	}

	return loc, nil
}

// credentialSuffix appends the credential the source URL needs: signed track
// URLs authenticate via query parameter, not header.
func (r *Resolver) credentialSuffix(src string) string {
	sep := lo.Ternary(strings.Contains(src, "?"), "&", "?")

	if r.conf.API.Authenticated() {
		return sep + "oauth_token=" + url.QueryEscape(r.conf.API.Key)
	}

	if r.conf.API.ClientID != "" {
		return sep + "client_id=" + url.QueryEscape(r.conf.API.ClientID)
	}

	return ""
}

// MetadataFromDescriptor derives the cacheable playback metadata from a
// decoded descriptor.
func MetadataFromDescriptor(d types.TrackDescriptor) types.PlaybackMetadata {
	return types.PlaybackMetadata{
		TrackID:         strconv.FormatInt(d.ID, 10),
		DurationSeconds: unit.SecondsFromMillis(d.Duration),
		Title:           d.Title,
		Artist:          d.User.Username,
		ArtworkURL:      parse.UpgradeArtwork(d.ArtworkURL),
		Bitrate:         BitrateLabel,
		Format:          FormatLabel,
	}
}
