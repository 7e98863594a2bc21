package mcptools

import (
	"fmt"
	"strings"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/booking"
)

// FormatOutcome renders a booking outcome as the human-readable text a
// tool call returns. Every Kind has a message; the default branch only
// guards against new kinds being added without one.
func FormatOutcome(o booking.Outcome) string {
	switch o.Kind {
	case booking.KindAwaitingCode:
		return fmt.Sprintf(`SMS code requested!

- Court: %s
- Time: %s
- Date: %s
- Booking reference: %s

An SMS verification code has been sent to your phone.

When you receive the SMS code, run:
enter_sms_code_and_complete({"code": "YOUR_SMS_CODE"})

The browser is waiting at the verification step.`, o.Court, o.Slot, o.Date, o.Ticket)

	case booking.KindBooked:
		return fmt.Sprintf(`Booking completed!

- Court: %s
- Time: %s
- Date: %s

The site confirmed your reservation ("You're all set!").`, o.Court, o.Slot, o.Date)

	case booking.KindSlotUnavailable:
		available := "none"
		if len(o.Slots) > 0 {
			available = strings.Join(o.Slots, ", ")
		}
		return fmt.Sprintf("%s is not available at %s on %s. Available times: %s",
			o.Slot, o.Court, o.Date, available)

	case booking.KindNoPendingSession:
		return `No SMS verification page found.

Please:
1. Run book_and_request_sms to get to the SMS verification step
2. When you receive the SMS code, run this tool again

If the server restarted since your booking attempt, the open page was
lost and the booking must be started over.`

	case booking.KindStaleTicket:
		return fmt.Sprintf(`Booking reference %s no longer matches your pending booking.

A newer booking attempt replaced it, or it expired. Nothing was
submitted. Run book_and_request_sms again, or retry without a
booking_id to complete your most recent attempt.`, o.Ticket)

	case booking.KindNoPendingBooking:
		return `The site accepted your code, but no pending booking record was
found locally (it may have expired). The court is likely booked —
check the site to confirm, since local history will not show it.`

	case booking.KindReservedConflict:
		return "Court already reserved at this time. Someone else got the slot first; please pick another time."

	case booking.KindVerificationTimeout:
		return "Booking timed out without a confirmation from the site. Check the site manually to verify your booking status before retrying."

	case booking.KindResourceUnavailable:
		return fmt.Sprintf("The automation browser could not be started: %s\nCheck the server's browser installation and try again.", o.Err)

	case booking.KindFailed:
		return fmt.Sprintf("Booking failed at step %q: %s", o.Step, o.Err)

	default:
		return fmt.Sprintf("Unexpected outcome %q", o.Kind)
	}
}

// FormatHistory renders the booking history listing.
func FormatHistory(email string, days int, entries []booking.HistoryEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking history for %s\n\n", email)
	fmt.Fprintf(&b, "Found %d bookings in the last %d days:\n", len(entries), days)
	if len(entries) == 0 {
		b.WriteString("\nNo bookings found in this time period.")
		return b.String()
	}
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%s - %s at %s (%s), booked %s",
			e.Date, e.Court, e.Slot, e.Status, e.BookedAt.Format("2006-01-02 15:04"))
	}
	return b.String()
}
