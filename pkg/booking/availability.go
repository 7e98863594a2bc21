package booking

import (
	"context"
	"time"
)

// Availability is the result of a read-only availability check.
type Availability struct {
	Court string
	Date  string
	Slots []string

	// Requested is the normalized requested time, empty when the caller
	// asked for the whole day.
	Requested string

	// RequestedAvailable is set only when Requested is non-empty.
	RequestedAvailable *bool

	// Err carries the failure when the check could not complete; the
	// remaining fields still describe what was asked for.
	Err string
}

// CheckAvailability opens the court's reservation page for the given
// date and reads the free slots. No login, no booking; the page is
// closed before returning.
func (f *Flow) CheckAvailability(ctx context.Context, date, court, timeSpec string) Availability {
	if court == "" {
		court = f.defaultCourt
	}

	a := Availability{Court: court}
	if timeSpec != "" {
		a.Requested = NormalizeTime(timeSpec)
	}

	day, err := NormalizeDate(date, f.now(), f.operatingYear)
	if err != nil {
		a.Err = err.Error()
		return a
	}
	a.Date = day
	target, err := time.Parse(DateLayout, day)
	if err != nil {
		a.Err = err.Error()
		return a
	}

	f.log.Infof("checking availability: court=%s date=%s", court, day)

	page, err := f.site.OpenHome(ctx)
	if err != nil {
		a.Err = err.Error()
		return a
	}
	defer page.Close()

	if err := page.OpenCourt(court); err != nil {
		a.Err = err.Error()
		return a
	}
	if err := page.SelectDate(target, f.today()); err != nil {
		a.Err = err.Error()
		return a
	}

	slots, err := page.FreeSlots()
	if err != nil {
		a.Err = err.Error()
		return a
	}
	a.Slots = slots

	if a.Requested != "" {
		hit := slotListed(slots, a.Requested)
		a.RequestedAvailable = &hit
	}
	return a
}
