// Package booking implements the two-phase booking protocol. Phase 1
// drives the site from its home page to the SMS verification step and
// leaves the page open; Phase 2, invoked once the caller has received
// the code, finds that page, submits the code and records the result.
// Every failure mode surfaces as a structured Outcome, never as an
// unhandled fault at the tool boundary.
package booking

import "time"

// Kind classifies how a booking operation ended.
type Kind string

const (
	// KindAwaitingCode is Phase 1's success: the site has sent the SMS
	// code and a page is parked at the verification prompt.
	KindAwaitingCode Kind = "awaiting_code"

	// KindBooked is Phase 2's success: the site confirmed the booking.
	KindBooked Kind = "booked"

	// KindSlotUnavailable means the requested time was not in the
	// site's rendered free-slot list. Slots carries what was available.
	KindSlotUnavailable Kind = "slot_unavailable"

	// KindNoPendingSession means Phase 2 found no open verification
	// page. User-actionable: redo Phase 1.
	KindNoPendingSession Kind = "no_pending_session"

	// KindNoPendingBooking means the site confirmed the booking but no
	// pending record exists locally — the court may well be booked even
	// though bookkeeping is incomplete.
	KindNoPendingBooking Kind = "no_pending_booking"

	// KindStaleTicket means the caller named a booking reference that no
	// longer matches the user's pending booking; nothing was submitted.
	KindStaleTicket Kind = "stale_ticket"

	// KindReservedConflict means someone else took the slot between
	// selection and confirmation. The slot is gone; no retry.
	KindReservedConflict Kind = "reserved_conflict"

	// KindVerificationTimeout is the ambiguous outcome: the success
	// signal never appeared and the conflict notice was absent. The
	// caller must check the site manually.
	KindVerificationTimeout Kind = "verification_timeout"

	// KindResourceUnavailable means the browser could not be launched.
	KindResourceUnavailable Kind = "resource_unavailable"

	// KindFailed is any other step failure; Step and Err carry context.
	KindFailed Kind = "failed"
)

// Outcome is the structured result of a booking operation. The tool
// layer renders it into human-readable text.
type Outcome struct {
	Kind  Kind
	User  string
	Court string
	Slot  string
	Date  string

	// Ticket is the pending booking's ID, set for KindAwaitingCode.
	Ticket string

	// Slots is the rendered availability, populated for
	// KindSlotUnavailable.
	Slots []string

	// Step names the transition that failed, for KindFailed.
	Step string

	// Err is the triggering error's message, when there is one.
	Err string
}

// conflictNotice is the site's wording when another player got the
// slot first.
const conflictNotice = "Court already reserved at this time"

// defaultConfirmWait bounds Phase 2's wait for the success signal.
// Deliberately long: it covers the site's own SMS round-trip handling.
const defaultConfirmWait = 3 * time.Minute

// pendingTTL is how long a pending booking bridges Phase 1 and
// Phase 2. Records older than this are treated as absent.
const pendingTTL = time.Hour
