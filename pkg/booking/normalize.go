package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical YYYY-MM-DD form used for booking dates
// and completed-booking keys.
const DateLayout = "2006-01-02"

// timePattern accepts the free-text times users type: "3pm", "3 PM",
// "3:00pm", "10:30 AM".
var timePattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)

// NormalizeTime converts a free-text time into the canonical
// "H:MM AM/PM" form the site renders, e.g. "3pm" becomes "3:00 PM".
// Already-canonical input passes through unchanged, so the function is
// idempotent. Input that doesn't look like a clock time is returned
// trimmed, to be matched (and likely rejected) against the slot list
// as-is.
func NormalizeTime(t string) string {
	s := strings.TrimSpace(t)
	m := timePattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}

	hour, _ := strconv.Atoi(m[1])
	minutes := m[2]
	if minutes == "" {
		minutes = "00"
	}
	return fmt.Sprintf("%d:%s %s", hour, minutes, strings.ToUpper(m[3]))
}

// dateLayouts are the accepted input forms, canonical first.
var dateLayouts = []string{
	DateLayout,
	"2006-1-2",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// NormalizeDate resolves a user-supplied date to canonical YYYY-MM-DD
// within the operating year. Empty input means tomorrow; "today" and
// "tomorrow" are resolved against now. Any other year is pinned to the
// operating year — the site only takes reservations inside it.
func NormalizeDate(input string, now time.Time, operatingYear int) (string, error) {
	now = pinYear(now, operatingYear)

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "":
		return now.AddDate(0, 0, 1).Format(DateLayout), nil
	case "today":
		return now.Format(DateLayout), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(DateLayout), nil
	}

	trimmed := strings.TrimSpace(input)
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		return pinYear(parsed, operatingYear).Format(DateLayout), nil
	}
	return "", fmt.Errorf("unrecognized date %q (want YYYY-MM-DD, 'today' or 'tomorrow')", input)
}

func pinYear(t time.Time, year int) time.Time {
	if t.Year() == year {
		return t
	}
	return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
}
