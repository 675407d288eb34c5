package timefmt

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// NotAvailable is displayed for missing values.
const NotAvailable = "N/A"

// DisplayLayout is the rendered form: day-month-year, 24-hour clock.
const DisplayLayout = "02-01-2006, 15:04:05"

// istOffset is UTC+05:30 in seconds.
const istOffset = 5*60*60 + 30*60

// IST is India Standard Time as a fixed zone. No DST, no tzdata lookup.
var IST = time.FixedZone("IST", istOffset)

// ErrMalformedTimestamp is returned by [Parse] for input in none of the
// accepted wire formats.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// zoned layouts carry their own offset; naive layouts are read as UTC.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
	}

	// accepted by Format only, on top of what Parse accepts
	lenientZonedLayouts = []string{
		"2006-01-02T15:04Z07:00",
		"2006-01-02T15:04:05.999999999Z0700",
		"2006-01-02 15:04:05.999999999Z0700",
		time.RFC1123,
		time.RFC1123Z,
	}
	lenientNaiveLayouts = []string{
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// Parse parses s as an RFC 3339 timestamp. A space may replace the "T"
// separator and fractional seconds are optional. Timestamps without a zone
// offset are read as UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrMalformedTimestamp)
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, s)
}

// parseLenient accepts everything [Parse] does plus date-only,
// minute-precision, basic-offset and RFC 1123 timestamps.
func parseLenient(s string) (time.Time, error) {
	t, err := Parse(s)
	if err == nil {
		return t, nil
	}

	s = strings.TrimSpace(s)
	for _, layout := range lenientZonedLayouts {
		if t, perr := time.Parse(layout, s); perr == nil {
			return t, nil
		}
	}
	for _, layout := range lenientNaiveLayouts {
		if t, perr := time.ParseInLocation(layout, s, time.UTC); perr == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Formatter renders timestamps in a fixed location.
//
// The zero value formats in IST and logs through slog.Default().
type Formatter struct {
	Location *time.Location
	Logger   *slog.Logger
}

// New returns a Formatter for loc. A nil loc means IST.
func New(loc *time.Location, logger *slog.Logger) *Formatter {
	return &Formatter{Location: loc, Logger: logger}
}

// Format returns s in [DisplayLayout] converted to the formatter's location.
//
// Format is more forgiving than [Parse]: date-only, minute-precision,
// "+0530" style offsets and RFC 1123 are converted too. Empty input and "N/A"
// produce "N/A". Input that cannot be parsed is returned unchanged, as is
// input whose conversion panics.
func (f *Formatter) Format(s string) (out string) {
	if s == "" || s == NotAvailable {
		return NotAvailable
	}

	defer func() {
		if r := recover(); r != nil {
			f.logger().Error("error formatting timestamp", "input", s, "panic", fmt.Sprintf("%v", r))
			out = s
		}
	}()

	t, err := parseLenient(s)
	if err != nil {
		f.logger().Debug("timestamp left unformatted", "input", s, "error", err)
		return s
	}
	return t.In(f.location()).Format(DisplayLayout)
}

// FormatTime renders an already-parsed time.
func (f *Formatter) FormatTime(t time.Time) string {
	if t.IsZero() {
		return NotAvailable
	}
	return t.In(f.location()).Format(DisplayLayout)
}

func (f *Formatter) location() *time.Location {
	if f == nil || f.Location == nil {
		return IST
	}
	return f.Location
}

func (f *Formatter) logger() *slog.Logger {
	if f == nil || f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

// ParseOffset parses a "+05:30" style UTC offset into a fixed zone. The zone
// is named "IST" for +05:30 and "UTC±hh:mm" otherwise.
func ParseOffset(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return IST, nil
	}
	if strings.EqualFold(s, "Z") || strings.EqualFold(s, "UTC") {
		return time.UTC, nil
	}

	t, err := time.Parse("-07:00", s)
	if err != nil {
		return nil, fmt.Errorf("invalid utc offset %q (expected +hh:mm)", s)
	}
	_, offset := t.Zone()
	if offset == istOffset {
		return IST, nil
	}
	return time.FixedZone("UTC"+s, offset), nil
}
