// Package postdate turns the many ways job boards describe a posting date
// into a calendar date.
package postdate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	todayPattern     = regexp.MustCompile(`^(?:posted\s+)?(?:today|just\s+posted)$`)
	yesterdayPattern = regexp.MustCompile(`^(?:posted\s+)?yesterday$`)
	daysAgoPattern   = regexp.MustCompile(`^(?:posted\s+)?(\d{1,5})\+?\s+days?\s+ago$`)
	isoPrefixPattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(?:$|[T\s])`)
)

var layouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2006/01/02",
	"01/02/2006",
}

// Normalize parses raw into a date at UTC midnight. The calendar day of now
// anchors relative phrases. It returns nil for anything it cannot read.
func Normalize(raw string, now time.Time) *time.Time {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return nil
	}
	lower := strings.ToLower(s)
	today := dateOf(now)

	switch {
	case todayPattern.MatchString(lower):
		return &today
	case yesterdayPattern.MatchString(lower):
		d := today.AddDate(0, 0, -1)
		return &d
	}

	if m := daysAgoPattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		d := today.AddDate(0, 0, -n)
		return &d
	}

	if m := isoPrefixPattern.FindStringSubmatch(s); m != nil {
		t, err := time.Parse(time.DateOnly, m[1])
		if err != nil {
			return nil
		}
		return &t
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := dateOf(t)
			return &d
		}
	}
	return nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
