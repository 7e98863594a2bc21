package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/browser"
)

// RequestCode runs Phase 1: connect, log in, pick court, date and
// slot, and ask the site to send the SMS verification code. On success
// the page is deliberately left open at the verification prompt,
// registered for the user, and a PendingBooking is persisted — that is
// the hand-off point to ConfirmCode. On any step failure the page is
// closed and a failure outcome carries the step and error.
func (f *Flow) RequestCode(ctx context.Context, user, court, timeSpec, date string) Outcome {
	if court == "" {
		court = f.defaultCourt
	}
	slot := NormalizeTime(timeSpec)

	day, err := NormalizeDate(date, f.now(), f.operatingYear)
	if err != nil {
		return Outcome{Kind: KindFailed, Step: "parse date", Err: err.Error(), User: user}
	}
	target, err := time.Parse(DateLayout, day)
	if err != nil {
		return Outcome{Kind: KindFailed, Step: "parse date", Err: err.Error(), User: user}
	}

	f.log.Infof("phase 1 start for %s: court=%s slot=%s date=%s", user, court, slot, day)

	page, err := f.site.OpenHome(ctx)
	if err != nil {
		if errors.Is(err, browser.ErrResourceUnavailable) {
			return Outcome{Kind: KindResourceUnavailable, Err: err.Error(), User: user}
		}
		return Outcome{Kind: KindFailed, Step: "connect", Err: err.Error(), User: user}
	}

	fail := func(step string, err error) Outcome {
		_ = page.Close()
		f.log.Errorf("phase 1 failed at %s for %s: %v", step, user, err)
		return Outcome{
			Kind: KindFailed, Step: step, Err: err.Error(),
			User: user, Court: court, Slot: slot, Date: day,
		}
	}

	if err := page.Login(f.email, f.password); err != nil {
		return fail("log in", err)
	}
	if err := page.OpenCourt(court); err != nil {
		return fail("open court", err)
	}
	if err := page.SelectDate(target, f.today()); err != nil {
		return fail("select date", err)
	}

	slots, err := page.FreeSlots()
	if err != nil {
		return fail("list slots", err)
	}
	if !slotListed(slots, slot) {
		_ = page.Close()
		f.log.Infof("phase 1: %s not free at %s on %s (free: %v)", slot, court, day, slots)
		return Outcome{
			Kind: KindSlotUnavailable,
			User: user, Court: court, Slot: slot, Date: day, Slots: slots,
		}
	}

	if err := page.SelectSlot(slot); err != nil {
		return fail("select slot", err)
	}
	if err := page.ChooseDuration(); err != nil {
		return fail("set duration", err)
	}
	if err := page.ChooseParticipant(); err != nil {
		return fail("select participant", err)
	}
	if err := page.RequestCode(); err != nil {
		return fail("request code", err)
	}

	pending := PendingBooking{
		ID:        uuid.NewString(),
		Court:     court,
		Slot:      slot,
		Date:      day,
		CreatedAt: f.now(),
	}
	if err := f.putPending(ctx, user, pending); err != nil {
		// The page stays open: the booking can still be completed on
		// site even though local bookkeeping will come up empty.
		f.log.Errorf("failed to store pending booking for %s: %v", user, err)
	}
	f.site.RememberVerification(user, page)

	f.log.Infof("phase 1 reached verification step for %s (ticket %s)", user, pending.ID)
	return Outcome{
		Kind: KindAwaitingCode,
		User: user, Court: court, Slot: slot, Date: day,
		Ticket: pending.ID,
	}
}
