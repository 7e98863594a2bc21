package booking

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

// HistoryEntry is one completed booking as shown to the caller.
type HistoryEntry struct {
	Date     string
	Court    string
	Slot     string
	Status   string
	BookedAt time.Time
}

// DefaultHistoryDays is how far back History looks when the caller
// doesn't say.
const DefaultHistoryDays = 30

// History returns the user's completed bookings over the last N days,
// most recent first. Completed bookings are keyed by date, so this is a
// bounded walk backwards from today.
func (f *Flow) History(ctx context.Context, user string, days int) ([]HistoryEntry, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}

	today := f.now()
	var entries []HistoryEntry
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -i).Format(DateLayout)

		raw, ok, err := f.kv.Get(ctx, completedKey(date))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		var cb CompletedBooking
		if err := json.Unmarshal(raw, &cb); err != nil {
			f.log.Warnf("skipping unreadable booking record for %s: %v", date, err)
			continue
		}
		if !strings.EqualFold(cb.User, user) {
			continue
		}

		entries = append(entries, HistoryEntry{
			Date:     date,
			Court:    cb.Court,
			Slot:     cb.Slot,
			Status:   cb.Status,
			BookedAt: cb.BookedAt,
		})
	}
	return entries, nil
}
