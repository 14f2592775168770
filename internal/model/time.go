package model

import (
	"math"
	"time"
)

// Millis converts a time to UTC milliseconds since epoch, the timestamp
// representation used across the store.
func Millis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// DateUTC formats a time as the YYYY-MM-DD UTC day key used by daily
// reports and idempotency keys.
func DateUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// DayWindow returns the [start, end) UTC millisecond bounds of the given
// YYYY-MM-DD date. An unparseable date yields the current UTC day.
func DayWindow(date string) (int64, int64) {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		now := time.Now().UTC()
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	return day.UnixMilli(), day.Add(24 * time.Hour).UnixMilli()
}

// Round3 rounds half away from zero to 3 decimals, the stable rounding
// rule for confidences and score components.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
