package ingest

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ParseError marks a field value that matched no supported pattern.
// Callers treat it as a row-level skip, never a batch abort.
type ParseError struct {
	Field string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s from %q", e.Field, e.Value)
}

// Date layouts accepted for date-of-birth and reference-date columns.
// Day-first layouts come first: the sheets are UK-sourced, so "03/04/1980"
// means 3 April. The month-first fallback only ever matches when the
// day-first reading is impossible (day > 12), which is the best available
// resolution for re-exported US-locale sheets.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-1-2",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2/1/06",
	"1/2/2006",
}

func parseFlexibleDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateOfBirth parses a date of birth from any of the supported
// textual encodings. It returns a *ParseError when the value matches no
// supported pattern.
func ParseDateOfBirth(raw string) (day, month, year int, err error) {
	t, ok := parseFlexibleDate(raw)
	if !ok {
		return 0, 0, 0, &ParseError{Field: "date of birth", Value: raw}
	}
	return t.Day(), int(t.Month()), t.Year(), nil
}

// ConcatenateAddress joins a house number in front of the street line when
// one is present; otherwise the street line is returned unchanged. The
// result never carries leading or trailing separators.
func ConcatenateAddress(line1, houseNumber string) string {
	line1 = strings.TrimSpace(line1)
	houseNumber = strings.TrimSpace(houseNumber)
	if houseNumber == "" {
		return line1
	}
	if line1 == "" {
		return houseNumber
	}
	return houseNumber + " " + line1
}

// WithinLastDays reports whether the date in dateText falls within the
// trailing n-day window ending at today. It fails closed: an empty or
// unparsable value is never treated as recent.
func WithinLastDays(dateText string, n int, today time.Time) bool {
	t, ok := parseFlexibleDate(dateText)
	if !ok {
		return false
	}
	cutoff := today.AddDate(0, 0, -n)
	return !t.Before(cutoff)
}

// capitalize uppercases the first letter and lowercases the rest, matching
// how names are stored in the backend.
func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
