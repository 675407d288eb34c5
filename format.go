package gatewatch

import "github.com/jpalmerr/gatewatch/internal/timefmt"

var defaultFormatter = timefmt.New(timefmt.IST, nil)

// FormatIST converts an ISO-8601 timestamp to "DD-MM-YYYY, HH:MM:SS" in
// IST (UTC+05:30).
//
// Empty input and "N/A" yield "N/A". Input that cannot be parsed is returned
// unchanged.
//
//	gatewatch.FormatIST("2024-01-15T10:30:00Z") // "15-01-2024, 16:00:00"
func FormatIST(s string) string {
	return defaultFormatter.Format(s)
}
