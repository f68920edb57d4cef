package utils

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

// GenerateUUID generates a UUID v4 string.
func GenerateUUID() string {
	return uuid.New().String()
}

// IsNumeric checks if a string is made of ASCII digits only.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// LastN returns the trailing n characters of s (all of s when shorter).
func LastN(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// ListToString renders names as "`a`, `b`".
func ListToString(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, n := range names {
		quoted = append(quoted, "`"+n+"`")
	}
	return strings.Join(quoted, ", ")
}

// LuhnValid reports whether a digit string carries a valid Luhn check digit.
func LuhnValid(number string) bool {
	if !IsNumeric(number) {
		return false
	}
	sum, dbl := 0, false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if dbl {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		dbl = !dbl
	}
	return sum%10 == 0
}

// EndOfMonth returns the last calendar day of month/year (two-digit years map to 20YY).
func EndOfMonth(month, year int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if year < 100 {
		year += 2000
	}
	firstNext := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	return firstNext.AddDate(0, 0, -1)
}

// IsExpired reports whether a card expiring at the end of month/year is no longer valid at "at".
// The card stays valid through the whole last day of the month.
func IsExpired(month, year int, at time.Time) bool {
	end := EndOfMonth(month, year, at.Location())
	today := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	return !today.Before(end.AddDate(0, 0, 1))
}
