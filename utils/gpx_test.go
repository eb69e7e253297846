package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
  <trk>
    <trkseg>
      <trkpt lat="55.7558" lon="37.6173"><time>2026-03-01T08:00:00Z</time></trkpt>
      <trkpt lat="55.7648" lon="37.6173"><time>2026-03-01T08:10:00Z</time></trkpt>
      <trkpt lat="55.7738" lon="37.6173"><time>2026-03-01T08:20:00Z</time></trkpt>
    </trkseg>
  </trk>
</gpx>`

func TestParseGPX(t *testing.T) {
	track, err := ParseGPX([]byte(sampleGPX))
	require.NoError(t, err)

	// 0.018 degrees of latitude is almost exactly 2 km
	assert.InDelta(t, 2.0, track.DistanceKm, 0.05)
	assert.Equal(t, 20.0, track.Duration.Minutes())
	assert.Equal(t, 3, track.Points)
}

func TestParseGPXRejectsGarbage(t *testing.T) {
	_, err := ParseGPX([]byte("not xml at all"))
	assert.Error(t, err)

	_, err = ParseGPX([]byte(`<gpx><trk><trkseg></trkseg></trk></gpx>`))
	assert.Error(t, err)
}

func TestEstimateRunCalories(t *testing.T) {
	assert.InDelta(t, 388.5, EstimateRunCalories(75, 5), 0.1)
	assert.Zero(t, EstimateRunCalories(75, 0))
}
