package store

import "time"

// timeLayout is the ISO-8601-with-milliseconds format spec.md §6 mandates
// for every persisted timestamp. All read/write paths go through
// formatTime/parseTime so there is exactly one place that can drift.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}
