package ratelimit

import (
	"math/rand/v2"
	"time"
)

// BackgroundFetchSleep returns a randomized pause inserted before each
// background metadata fetch so a queue scan does not burst the API.
func BackgroundFetchSleep() time.Duration {
	const (
		from = 250
		to   = 750
	)
	millis := rand.IntN(to-from) + from //nolint:gosec

	return time.Duration(millis) * time.Millisecond
}
