package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "bare hour pm", input: "3pm", expected: "3:00 PM"},
		{name: "bare hour am", input: "8am", expected: "8:00 AM"},
		{name: "spaced meridiem", input: "3 PM", expected: "3:00 PM"},
		{name: "with minutes", input: "10:30am", expected: "10:30 AM"},
		{name: "already canonical", input: "3:00 PM", expected: "3:00 PM"},
		{name: "lowercase canonical", input: "3:00 pm", expected: "3:00 PM"},
		{name: "surrounding whitespace", input: "  7pm  ", expected: "7:00 PM"},
		{name: "not a time", input: "afternoon", expected: "afternoon"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTime(tt.input))
		})
	}
}

func TestNormalizeTimeIdempotent(t *testing.T) {
	for _, input := range []string{"3pm", "10:30 AM", "12 pm", "noonish"} {
		once := NormalizeTime(input)
		assert.Equal(t, once, NormalizeTime(once), "input %q", input)
	}
}

func TestNormalizeDate(t *testing.T) {
	// A "today" inside the operating year.
	now := time.Date(2025, 6, 9, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty means tomorrow", input: "", expected: "2025-06-10"},
		{name: "today keyword", input: "today", expected: "2025-06-09"},
		{name: "tomorrow keyword", input: "tomorrow", expected: "2025-06-10"},
		{name: "keyword case insensitive", input: "Tomorrow", expected: "2025-06-10"},
		{name: "canonical passthrough", input: "2025-06-15", expected: "2025-06-15"},
		{name: "unpadded", input: "2025-6-5", expected: "2025-06-05"},
		{name: "us slashes", input: "06/15/2025", expected: "2025-06-15"},
		{name: "long month name", input: "June 15, 2025", expected: "2025-06-15"},
		{name: "short month name", input: "Jun 15, 2025", expected: "2025-06-15"},
		{name: "wrong year pinned", input: "2024-06-15", expected: "2025-06-15"},
		{name: "future year pinned", input: "2030-01-02", expected: "2025-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.input, now, 2025)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeDateRejectsGarbage(t *testing.T) {
	now := time.Date(2025, 6, 9, 14, 0, 0, 0, time.UTC)
	_, err := NormalizeDate("next thursday", now, 2025)
	assert.Error(t, err)
}

func TestNormalizeDateIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 9, 14, 0, 0, 0, time.UTC)
	once, err := NormalizeDate("2030-06-15", now, 2025)
	require.NoError(t, err)
	twice, err := NormalizeDate(once, now, 2025)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestNormalizeDateKeywordsOutsideOperatingYear(t *testing.T) {
	// The host clock is a year ahead; keyword dates are still resolved
	// inside the operating year.
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	got, err := NormalizeDate("today", now, 2025)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", got)

	got, err = NormalizeDate("tomorrow", now, 2025)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-11", got)
}
