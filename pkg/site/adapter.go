// Package site is the adapter between the booking state machine and
// the rec.us web UI. The state machine only sees the named operations
// below; everything brittle about the site — selectors, settle delays,
// the react-datepicker markup — stays behind this boundary.
package site

import (
	"context"
	"time"
)

// Adapter opens pages on the reservation site and tracks which open
// page, if any, is parked at a verification prompt for a given user.
type Adapter interface {
	// OpenHome acquires the shared browser and opens a fresh tab on the
	// site's home page.
	OpenHome(ctx context.Context) (Page, error)

	// PendingVerification returns the page awaiting a verification code
	// for user, or false if none exists. It consults the registry
	// populated by RememberVerification first and falls back to probing
	// the browser's open tabs, so a booking survives the registry being
	// lost with an earlier process state. Absence is a normal outcome,
	// not an error; the error is only non-nil when the browser itself
	// cannot be acquired.
	PendingVerification(ctx context.Context, user string) (Page, bool, error)

	// RememberVerification associates user with the page left open at
	// the verification step.
	RememberVerification(user string, p Page)

	// ForgetVerification drops the association for user.
	ForgetVerification(user string)
}

// Page is one open tab being driven through the booking flow. Every
// operation waits for its page signal up to a step-specific bound and
// returns an error when the signal never appears.
type Page interface {
	// Login signs in from the home page.
	Login(email, password string) error

	// OpenCourt navigates to the named court's reservation page.
	OpenCourt(court string) error

	// SelectDate picks target in the date picker, advancing one month
	// from reference's month when needed. Only day cells inside the
	// displayed month are ever selected.
	SelectDate(target, reference time.Time) error

	// FreeSlots returns the free time slots rendered for the selected
	// date, in canonical "H:MM AM/PM" form.
	FreeSlots() ([]string, error)

	// SelectSlot clicks the slot matching the canonical time label.
	SelectSlot(slot string) error

	// ChooseDuration opens the duration dropdown and picks the first
	// available option.
	ChooseDuration() error

	// ChooseParticipant selects the account owner as participant.
	ChooseParticipant() error

	// RequestCode submits the booking and asks the site to send the SMS
	// code, waiting until the code input appears.
	RequestCode() error

	// EnterCode types the received code into the verification input.
	EnterCode(code string) error

	// ConfirmCode clicks the confirmation control.
	ConfirmCode() error

	// AwaitConfirmation waits up to timeout for the site's success
	// signal.
	AwaitConfirmation(timeout time.Duration) error

	// BodyText returns the page's visible body text, used to look for
	// the reserved-conflict notice after a timeout.
	BodyText() (string, error)

	// Close closes the tab. Phase 1 deliberately does not call this on
	// success; the open tab is the hand-off to Phase 2.
	Close() error
}
