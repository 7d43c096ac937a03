// Package dateutils normalizes the date and time cells of bank exports into
// ISO dates (YYYY-MM-DD) and HH:MM times.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayoutISO = "2006-01-02"
	TimeLayout    = "15:04"
)

// CommonFormats are tried with time.Parse after every fixed matcher failed.
var CommonFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2-Jan-2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2006/01/02",
}

// now is replaced in tests.
var now = time.Now

type dateMatcher struct {
	re               *regexp.Regexp
	year, month, day int
	hour, minute     int // zero when the matcher carries no time
}

const timeSuffix = `(?:[ T]+(\d{1,2}):(\d{2})(?::\d{2})?)?`

// dateMatchers is ordered; the first matcher producing a valid date wins.
var dateMatchers = []dateMatcher{
	{re: regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})` + timeSuffix + `$`), year: 1, month: 2, day: 3, hour: 4, minute: 5},
	{re: regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})` + timeSuffix + `$`), day: 1, month: 2, year: 3, hour: 4, minute: 5},
	{re: regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})` + timeSuffix + `$`), day: 1, month: 2, year: 3, hour: 4, minute: 5},
	{re: regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})` + timeSuffix + `$`), day: 1, month: 2, year: 3, hour: 4, minute: 5},
	{re: regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`), year: 1, month: 2, day: 3},
	{re: regexp.MustCompile(`^(\d{4})\.(\d{1,2})\.(\d{1,2})$`), year: 1, month: 2, day: 3},
}

var timeRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)

// ParseDate returns s as an ISO date, or today's date when s cannot be
// parsed into a year strictly between 1900 and 2100.
func ParseDate(s string) string {
	date, _ := ParseDateTime(s)
	return date
}

// ParseDateTime is ParseDate for cells that may also carry a time of day.
// The time is returned as HH:MM, or "" when the cell has none.
func ParseDateTime(s string) (string, string) {
	if date, tod, ok := TryParseDateTime(s); ok {
		return date, tod
	}
	return Today(), ""
}

// TryParseDateTime parses s without the today fallback.
func TryParseDateTime(s string) (date string, timeOfDay string, ok bool) {
	s = CleanDateString(s)
	if s == "" {
		return "", "", false
	}

	for _, m := range dateMatchers {
		groups := m.re.FindStringSubmatch(s)
		if groups == nil {
			continue
		}
		y, _ := strconv.Atoi(groups[m.year])
		mo, _ := strconv.Atoi(groups[m.month])
		d, _ := strconv.Atoi(groups[m.day])
		t, valid := buildDate(y, mo, d)
		if !valid {
			continue
		}
		tod := ""
		if m.hour > 0 && groups[m.hour] != "" {
			tod, _ = ParseTime(groups[m.hour] + ":" + groups[m.minute])
		}
		return ToISODate(t), tod, true
	}

	for _, layout := range CommonFormats {
		t, err := time.Parse(layout, s)
		if err != nil || !inRange(t.Year()) {
			continue
		}
		tod := ""
		if strings.Contains(layout, "15") {
			tod = t.Format(TimeLayout)
		}
		return ToISODate(t), tod, true
	}
	return "", "", false
}

func buildDate(y, mo, d int) (time.Time, bool) {
	if !inRange(y) || mo < 1 || mo > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow such as 31.02; reject it
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}

func inRange(year int) bool {
	return year > 1900 && year < 2100
}

// ParseTime validates an H:MM or HH:MM token and returns it as HH:MM.
// Seconds are accepted and dropped.
func ParseTime(s string) (string, bool) {
	groups := timeRe.FindStringSubmatch(strings.TrimSpace(s))
	if groups == nil {
		return "", false
	}
	h, _ := strconv.Atoi(groups[1])
	m, _ := strconv.Atoi(groups[2])
	if h > 23 || m > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}

// Today returns the current date as YYYY-MM-DD.
func Today() string {
	return ToISODate(now())
}

// ToISODate formats a time.Time value as an ISO date (YYYY-MM-DD)
func ToISODate(date time.Time) string {
	return date.Format(DateLayoutISO)
}

var spaceRe = regexp.MustCompile(`\s+`)

// CleanDateString trims the value and collapses inner whitespace.
func CleanDateString(dateStr string) string {
	return spaceRe.ReplaceAllString(strings.TrimSpace(dateStr), " ")
}
