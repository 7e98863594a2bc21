package booking

import (
	"strings"
	"time"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/logging"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/site"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/store"
)

// Flow runs the booking protocol against a site adapter and a durable
// store. One Flow is shared by all tool calls in a process.
type Flow struct {
	site site.Adapter
	kv   store.KV
	log  *logging.Logger

	email         string
	password      string
	defaultCourt  string
	operatingYear int

	now         func() time.Time
	confirmWait time.Duration
}

// Params carries the collaborators and site credentials a Flow needs.
type Params struct {
	Site          site.Adapter
	KV            store.KV
	Log           *logging.Logger
	RecEmail      string
	RecPassword   string
	DefaultCourt  string
	OperatingYear int
}

// Option adjusts a Flow, mainly for tests.
type Option func(*Flow)

// WithClock overrides the flow's time source.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

// WithConfirmWait overrides how long Phase 2 waits for the success
// signal.
func WithConfirmWait(d time.Duration) Option {
	return func(f *Flow) { f.confirmWait = d }
}

// NewFlow creates a Flow.
func NewFlow(p Params, opts ...Option) *Flow {
	f := &Flow{
		site:          p.Site,
		kv:            p.KV,
		log:           p.Log,
		email:         p.RecEmail,
		password:      p.RecPassword,
		defaultCourt:  p.DefaultCourt,
		operatingYear: p.OperatingYear,
		now:           time.Now,
		confirmWait:   defaultConfirmWait,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// today is the flow's reference date, pinned to the operating year.
func (f *Flow) today() time.Time {
	return pinYear(f.now(), f.operatingYear)
}

// slotListed reports whether the requested canonical time appears in
// the rendered slot list. Containment, not equality: the site sometimes
// renders "3:00 PM - 5:00 PM" style labels.
func slotListed(slots []string, want string) bool {
	for _, s := range slots {
		if strings.Contains(s, want) {
			return true
		}
	}
	return false
}
