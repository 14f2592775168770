package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRound3(t *testing.T) {
	tests := []struct {
		name     string
		in       float64
		expected float64
	}{
		{"rounds down", 0.1234, 0.123},
		{"rounds up", 0.1235, 0.124},
		{"half away from zero", 0.0005, 0.001},
		{"negative half away from zero", -0.0005, -0.001},
		{"already exact", 0.25, 0.25},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Round3(tt.in), 1e-9)
		})
	}
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.7, Clamp01(0.7))
}

func TestNormalizeProfileURL(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"lowercases", "https://LinkedIn.com/in/Alice", "https://linkedin.com/in/alice"},
		{"strips query", "https://linkedin.com/in/alice?trk=search", "https://linkedin.com/in/alice"},
		{"strips trailing slash", "https://linkedin.com/in/alice/", "https://linkedin.com/in/alice"},
		{"trims whitespace", "  https://linkedin.com/in/alice ", "https://linkedin.com/in/alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeProfileURL(tt.in))
		})
	}
}

func TestProfileURLHash_EquivalentURLsCollide(t *testing.T) {
	a := ProfileURLHash("https://linkedin.com/in/alice?trk=x")
	b := ProfileURLHash("https://LINKEDIN.com/in/alice/")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	assert.Empty(t, ProfileURLHash("  "))
}

func TestDayWindow(t *testing.T) {
	start, end := DayWindow("2026-01-15")
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC).UnixMilli(), start)
	assert.Equal(t, time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC).UnixMilli(), end)
}

func TestDateUTC(t *testing.T) {
	at := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-01", DateUTC(at))
}
