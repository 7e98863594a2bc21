package booking

import (
	"context"
	"errors"
	"strings"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/browser"
)

// ConfirmCode runs Phase 2: locate the page parked at the verification
// prompt, submit the received code, and wait for the site's verdict.
// ticket, when non-empty, must name the pending booking issued by
// Phase 1; a mismatch means that booking was replaced or expired and is
// reported as a stale ticket before anything is submitted. The
// pending booking is deleted only on confirmed success; after a timeout
// or conflict it is left untouched so the caller can reconcile
// manually. The page is likewise left open on the ambiguous paths for
// inspection.
func (f *Flow) ConfirmCode(ctx context.Context, user, code, ticket string) Outcome {
	if ticket != "" {
		pending, ok, err := f.getPending(ctx, user)
		if err != nil {
			f.log.Errorf("failed to read pending booking for %s: %v", user, err)
		}
		if ok && pending.ID != ticket {
			f.log.Infof("phase 2: ticket %s does not match pending booking %s for %s", ticket, pending.ID, user)
			return Outcome{Kind: KindStaleTicket, User: user, Ticket: ticket}
		}
	}

	page, found, err := f.site.PendingVerification(ctx, user)
	if err != nil {
		if errors.Is(err, browser.ErrResourceUnavailable) {
			return Outcome{Kind: KindResourceUnavailable, Err: err.Error(), User: user}
		}
		return Outcome{Kind: KindFailed, Step: "locate page", Err: err.Error(), User: user}
	}
	if !found {
		f.log.Infof("phase 2: no verification page open for %s", user)
		return Outcome{Kind: KindNoPendingSession, User: user}
	}

	f.log.Infof("phase 2: entering code for %s", user)
	if err := page.EnterCode(code); err != nil {
		return Outcome{Kind: KindFailed, Step: "enter code", Err: err.Error(), User: user}
	}
	if err := page.ConfirmCode(); err != nil {
		return Outcome{Kind: KindFailed, Step: "confirm", Err: err.Error(), User: user}
	}

	if err := page.AwaitConfirmation(f.confirmWait); err != nil {
		// Ambiguous: the site may have completed the booking without
		// showing the signal in time. Distinguish the one failure it
		// does spell out.
		body, berr := page.BodyText()
		if berr == nil && strings.Contains(body, conflictNotice) {
			f.log.Infof("phase 2: slot conflict for %s", user)
			return Outcome{Kind: KindReservedConflict, User: user}
		}
		f.log.Warnf("phase 2 timed out for %s: %v", user, err)
		return Outcome{Kind: KindVerificationTimeout, User: user}
	}

	f.site.ForgetVerification(user)

	pending, ok, err := f.getPending(ctx, user)
	if err != nil {
		f.log.Errorf("failed to read pending booking for %s: %v", user, err)
	}
	if !ok {
		// Confirmed on site but nothing recorded locally: report it
		// distinctly so the caller knows the court may be theirs anyway.
		f.log.Warnf("phase 2 succeeded for %s but no pending booking found", user)
		return Outcome{Kind: KindNoPendingBooking, User: user}
	}

	if err := f.kv.Delete(ctx, pendingKey(user)); err != nil {
		f.log.Errorf("failed to clear pending booking for %s: %v", user, err)
	}

	completed := CompletedBooking{
		Court:    pending.Court,
		Slot:     pending.Slot,
		Date:     pending.Date,
		User:     user,
		BookedAt: f.now(),
		Status:   StatusCompleted,
	}
	if err := f.putCompleted(ctx, completed); err != nil {
		f.log.Errorf("failed to record booking for %s: %v", user, err)
	}

	f.log.Infof("phase 2: booked %s at %s on %s for %s", pending.Court, pending.Slot, pending.Date, user)
	return Outcome{
		Kind: KindBooked,
		User: user, Court: pending.Court, Slot: pending.Slot, Date: pending.Date,
		Ticket: pending.ID,
	}
}
