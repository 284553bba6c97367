package unit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xeptore/soundbridge/unit"
)

func TestSecondsFromMillis(t *testing.T) {
	t.Parallel()

	assert.Exactly(t, int64(180), unit.SecondsFromMillis(180000))
	assert.Exactly(t, int64(180), unit.SecondsFromMillis(180999))
	assert.Exactly(t, int64(0), unit.SecondsFromMillis(999))
}

func TestFormatMinSec(t *testing.T) {
	t.Parallel()

	assert.Exactly(t, "3m21s", unit.FormatMinSec(201*time.Second))
	assert.Exactly(t, "0m59s", unit.FormatMinSec(59*time.Second))
	assert.Exactly(t, "1m0s", unit.FormatMinSec(time.Minute))
	assert.Exactly(t, "75m15s", unit.FormatMinSec(75*time.Minute+15*time.Second))
}
