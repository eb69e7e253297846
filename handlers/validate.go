package handlers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Canonical input ranges. Every numeric prompt validates against exactly one
// of these, so the same field never accepts different ranges in different
// flows.
const (
	minWeightKg    = 30.0
	maxWeightKg    = 300.0
	minHeightCm    = 100.0
	maxHeightCm    = 250.0
	minAge         = 10
	maxAge         = 120
	minWaterMl     = 1
	maxWaterMl     = 5000
	minPortionG    = 1.0
	maxPortionG    = 10000.0
	minDurationMin = 1
	maxDurationMin = 1440
	minDistanceKm  = 0.0
	maxDistanceKm  = 100.0
	minCalories    = 0
	maxCalories    = 5000
	maxSteps       = 200000
)

func parseFloatInRange(text string, lo, hi float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.Replace(strings.TrimSpace(text), ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number")
	}
	// NaN slips past plain comparisons, so the in-range form is required
	if math.IsNaN(v) || !(v >= lo && v <= hi) {
		return 0, fmt.Errorf("out of range %g-%g", lo, hi)
	}
	return v, nil
}

func parseIntInRange(text string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("not a whole number")
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("out of range %d-%d", lo, hi)
	}
	return v, nil
}

// parseClock accepts "H:MM" or "HH:MM" and normalizes to "HH:MM".
func parseClock(text string) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(text), ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("expected HH:MM")
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return "", fmt.Errorf("hour must be 0-23")
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return "", fmt.Errorf("minute must be 0-59")
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

// longestWord picks the fallback search term from a free-text food
// description when the full phrase finds nothing.
func longestWord(text string) string {
	best := ""
	for _, w := range strings.Fields(text) {
		if len([]rune(w)) > len([]rune(best)) {
			best = w
		}
	}
	return best
}
