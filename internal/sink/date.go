package sink

import (
	"regexp"
	"strings"
	"time"
)

// Layouts tried by ParseDate, full dates first.
var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	"2/1/2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2 2006",
	"Jan 2 2006",
	"02.01.06",
	"2.1.06",
}

// Layouts without a year; the year is inferred from the reference time.
var yearlessLayouts = []string{
	"2 January",
	"2 Jan",
	"January 2",
	"Jan 2",
	"02.01.",
	"2.1.",
	"02.01",
	"2.1",
}

var (
	weekdayPrefix = regexp.MustCompile(`(?i)^(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)(day|nesday|sday|urday)?\.?,?\s+`)
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	extraSpace    = regexp.MustCompile(`\s+`)
)

// ParseDate makes a best effort to read a free-form poster date.
//
// Weekday prefixes ("Sat", "Friday,"), ordinal suffixes ("12th") and commas
// are ignored. A date without a year gets the year of ref, or the next year
// when that would put it more than 60 days before ref. The result is
// midnight UTC of that day.
//
//	ParseDate("Sat 12th October", ref) // 12 Oct of ref's year
//	ParseDate("Unknown", ref)          // false
func ParseDate(s string, ref time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	s = weekdayPrefix.ReplaceAllString(s, "")
	s = ordinalSuffix.ReplaceAllString(s, "$1")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.TrimSpace(extraSpace.ReplaceAllString(s, " "))

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	for _, layout := range yearlessLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		d := time.Date(ref.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if d.Month() != t.Month() {
			// 29 Feb in a non-leap reference year
			continue
		}
		cutoff := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -60)
		if d.Before(cutoff) {
			d = d.AddDate(1, 0, 0)
		}
		return d, true
	}
	return time.Time{}, false
}
