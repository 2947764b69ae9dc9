package utils

import (
	"time"

	"github.com/dustin/go-humanize"
)

// GetMonthlyHours returns the number of hours in a month (approximation)
func GetMonthlyHours() float64 {
	return 730.0 // 365 days / 12 months * 24 hours
}

// FormatAge renders t relative to now, e.g. "3 hours ago"
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatUptime renders a duration rounded to minutes, e.g. "8h12m"
func FormatUptime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	d = d.Round(time.Minute)
	s := d.String()
	// drop the trailing "0s" left after rounding
	if len(s) > 2 && s[len(s)-2:] == "0s" {
		s = s[:len(s)-2]
	}
	return s
}
