package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloatInRange(t *testing.T) {
	v, err := parseFloatInRange("71.5", minWeightKg, maxWeightKg)
	require.NoError(t, err)
	assert.Equal(t, 71.5, v)

	// comma as the decimal separator
	v, err = parseFloatInRange("71,5", minWeightKg, maxWeightKg)
	require.NoError(t, err)
	assert.Equal(t, 71.5, v)

	_, err = parseFloatInRange("29.9", minWeightKg, maxWeightKg)
	assert.Error(t, err)
	_, err = parseFloatInRange("300.1", minWeightKg, maxWeightKg)
	assert.Error(t, err)
	_, err = parseFloatInRange("heavy", minWeightKg, maxWeightKg)
	assert.Error(t, err)

	// ParseFloat accepts these spellings, the range check must not
	for _, special := range []string{"NaN", "nan", "Inf", "-Inf", "+Inf"} {
		_, err = parseFloatInRange(special, minWeightKg, maxWeightKg)
		assert.Error(t, err, special)
	}

	// boundaries are inclusive
	_, err = parseFloatInRange("30", minWeightKg, maxWeightKg)
	assert.NoError(t, err)
	_, err = parseFloatInRange("300", minWeightKg, maxWeightKg)
	assert.NoError(t, err)
}

func TestParseIntInRange(t *testing.T) {
	v, err := parseIntInRange(" 42 ", minAge, maxAge)
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = parseIntInRange("9", minAge, maxAge)
	assert.Error(t, err)
	_, err = parseIntInRange("121", minAge, maxAge)
	assert.Error(t, err)
	_, err = parseIntInRange("42.5", minAge, maxAge)
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	for input, want := range map[string]string{
		"09:30": "09:30",
		"9:30":  "09:30",
		"0:00":  "00:00",
		"23:59": "23:59",
	} {
		got, err := parseClock(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"24:00", "12:60", "noon", "12", "-1:30", "12:5x"} {
		_, err := parseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestLongestWord(t *testing.T) {
	assert.Equal(t, "spaghetti", longestWord("big bowl of spaghetti"))
	assert.Equal(t, "tea", longestWord("tea"))
	assert.Equal(t, "", longestWord("   "))
}

func TestSplitAction(t *testing.T) {
	verb, arg := splitAction("food:2")
	assert.Equal(t, "food", verb)
	assert.Equal(t, "2", arg)

	verb, arg = splitAction("item:12:5")
	assert.Equal(t, "item", verb)
	assert.Equal(t, "12:5", arg)

	verb, arg = splitAction("confirm")
	assert.Equal(t, "confirm", verb)
	assert.Equal(t, "", arg)
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "█████░░░░░", bar(50, 100, 10))
	assert.Equal(t, "██████████", bar(150, 100, 10))
	assert.Equal(t, "░░░░░░░░░░", bar(0, 100, 10))
	assert.Equal(t, "░░░░░░░░░░", bar(10, 0, 10))
}
