package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// PendingBooking bridges Phase 1 and Phase 2 for one user: the
// parameters of a booking that has requested its verification code but
// not yet submitted it. Written once at the end of Phase 1; read and
// deleted at the start of a confirmed Phase 2; never mutated in place.
// ID is the opaque ticket Phase 1 hands back so Phase 2 callers can
// name the booking they are completing; a later Phase 1 for the same
// user replaces the record and invalidates the old ticket.
type PendingBooking struct {
	ID        string    `json:"id"`
	Court     string    `json:"court"`
	Slot      string    `json:"time"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"timestamp"`
}

// CompletedBooking is the durable record of a finished booking, keyed
// by date (one booking per date). Written once on confirmed success and
// read-only afterward.
type CompletedBooking struct {
	Court    string    `json:"court"`
	Slot     string    `json:"time"`
	Date     string    `json:"date"`
	User     string    `json:"userEmail"`
	BookedAt time.Time `json:"timestamp"`
	Status   string    `json:"status"`
}

// StatusCompleted is the only status written today; the field exists so
// history rendering survives future states.
const StatusCompleted = "completed"

func pendingKey(user string) string   { return "pending_booking:" + user }
func completedKey(date string) string { return "booking:" + date }

func (f *Flow) putPending(ctx context.Context, user string, pb PendingBooking) error {
	data, err := json.Marshal(pb)
	if err != nil {
		return fmt.Errorf("failed to encode pending booking: %w", err)
	}
	return f.kv.Put(ctx, pendingKey(user), data, pendingTTL)
}

// getPending returns the pending booking for user. The store's TTL
// already expires records, but the creation timestamp is re-checked
// here so a record persisted by other means is still treated as absent
// once stale.
func (f *Flow) getPending(ctx context.Context, user string) (*PendingBooking, bool, error) {
	raw, ok, err := f.kv.Get(ctx, pendingKey(user))
	if err != nil || !ok {
		return nil, false, err
	}

	var pb PendingBooking
	if err := json.Unmarshal(raw, &pb); err != nil {
		return nil, false, fmt.Errorf("failed to decode pending booking: %w", err)
	}
	if f.now().Sub(pb.CreatedAt) >= pendingTTL {
		return nil, false, nil
	}
	return &pb, true, nil
}

func (f *Flow) putCompleted(ctx context.Context, cb CompletedBooking) error {
	data, err := json.Marshal(cb)
	if err != nil {
		return fmt.Errorf("failed to encode booking: %w", err)
	}
	return f.kv.Put(ctx, completedKey(cb.Date), data, 0)
}
