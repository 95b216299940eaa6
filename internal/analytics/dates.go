package analytics

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Posting timestamps arrive in at least four incompatible conventions.
// Detection happens per row, first match wins; anything the format-specific
// parsers miss falls through to a generic parser preferring day-first, then
// a generic parser with default preferences.
var (
	reISODateTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T`)
	reRFCDate     = regexp.MustCompile(`^[A-Za-z]{3},\s+\d{1,2}\s+[A-Za-z]{3}\s+\d{4}`)
	reYMDDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reSlashDate   = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}(?:\s+\d{1,2}:\d{2})?$`)
)

var isoLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

var rfcLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04:05",
	"Mon, 2 Jan 2006",
}

// Slash dates are genuinely ambiguous; they parse day-first.
var slashLayouts = []string{
	"2/1/2006 15:04",
	"2/1/2006",
}

// NormalizeDay parses a raw posting timestamp of unknown format into a
// UTC calendar day. ok is false when every strategy fails; callers exclude
// such rows from aggregation rather than aborting the batch.
func NormalizeDay(raw string) (day time.Time, ok bool) {
	s := strings.TrimSpace(raw)
	switch s {
	case "", "nan", "NaT", "N/A":
		return time.Time{}, false
	}

	switch {
	case reISODateTime.MatchString(s):
		if t, err := parseLayouts(s, isoLayouts); err == nil {
			return toDay(t), true
		}
	case reRFCDate.MatchString(s):
		if t, err := parseLayouts(s, rfcLayouts); err == nil {
			return toDay(t), true
		}
	case reYMDDate.MatchString(s):
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return toDay(t), true
		}
	case reSlashDate.MatchString(s):
		if t, err := parseLayouts(s, slashLayouts); err == nil {
			return toDay(t), true
		}
	}

	// Generic fallbacks: day-first preference first, then default.
	if t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false)); err == nil {
		return toDay(t), true
	}
	if t, err := dateparse.ParseAny(s); err == nil {
		return toDay(t), true
	}
	return time.Time{}, false
}

func parseLayouts(s string, layouts []string) (time.Time, error) {
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// toDay strips the zone to a naive UTC calendar day.
func toDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
