package unit

import (
	"strconv"
	"time"
)

const MillisPerSecond = 1000

// SecondsFromMillis converts an API duration in milliseconds to whole seconds.
func SecondsFromMillis(ms int64) int64 {
	return ms / MillisPerSecond
}

// FormatMinSec renders a duration in the compact "3m21s" form used in menu
// entry decorations.
func FormatMinSec(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60

	return strconv.Itoa(m) + "m" + strconv.Itoa(s) + "s"
}
