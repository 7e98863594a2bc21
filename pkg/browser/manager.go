// Package browser owns the shared browser-automation resource. One
// process holds at most one live Playwright handle; it is created
// lazily, reused until its time-to-live elapses, and replaced after
// that. The handle deliberately outlives individual tool calls so that
// a page left open at the SMS verification step by one call is still
// there when the follow-up call arrives minutes later.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/logging"
)

// ErrResourceUnavailable is returned when the browser runtime cannot be
// installed or launched. The manager keeps no half-initialized handle
// behind it; the next Acquire retries creation from scratch.
var ErrResourceUnavailable = errors.New("browser: automation resource unavailable")

// Handle is the single shared browser-automation resource: the
// Playwright driver, a Chromium instance and one browser context whose
// tabs hold any in-flight verification pages.
type Handle struct {
	pw        *playwright.Playwright
	browser   playwright.Browser
	context   playwright.BrowserContext
	createdAt time.Time
}

// NewPage opens a fresh tab in the shared context.
func (h *Handle) NewPage() (playwright.Page, error) {
	page, err := h.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	return page, nil
}

// Pages returns all open tabs, including any left parked at a
// verification prompt by an earlier call.
func (h *Handle) Pages() []playwright.Page {
	return h.context.Pages()
}

// CreatedAt returns when this handle was launched.
func (h *Handle) CreatedAt() time.Time { return h.createdAt }

func (h *Handle) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(h.createdAt) >= ttl
}

// close tears down the context, browser and driver. Errors are ignored
// so cleanup always runs to completion.
func (h *Handle) close() {
	if h.context != nil {
		_ = h.context.Close()
	}
	if h.browser != nil {
		_ = h.browser.Close()
	}
	if h.pw != nil {
		_ = h.pw.Stop()
	}
}

// LaunchFunc creates a new Handle. Injectable so tests can count and
// fail creations without a real browser.
type LaunchFunc func(ctx context.Context, headless bool) (*Handle, error)

// creation is the in-flight launch future. Concurrent Acquire calls
// during a launch all wait on done and share the same result.
type creation struct {
	done   chan struct{}
	handle *Handle
	err    error
}

// Manager guards the shared Handle. Acquire returns the live handle,
// launching a replacement when it is absent or past its TTL; only one
// launch is ever in flight.
type Manager struct {
	mu       sync.Mutex
	handle   *Handle
	creating *creation

	ttl      time.Duration
	headless bool
	launch   LaunchFunc
	now      func() time.Time
	log      *logging.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLaunchFunc overrides how handles are created.
func WithLaunchFunc(launch LaunchFunc) Option {
	return func(m *Manager) { m.launch = launch }
}

// WithClock overrides the manager's time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager. The handle is not launched until the
// first Acquire.
func NewManager(ttl time.Duration, headless bool, log *logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		ttl:      ttl,
		headless: headless,
		launch:   Launch,
		now:      time.Now,
		log:      log,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire returns a ready-to-use handle. A live, unexpired handle is
// returned as-is. Otherwise the old handle (if any) is closed and a new
// one launched; concurrent callers during the launch all receive the
// same outcome. On launch failure the handle stays nil so the next
// Acquire retries instead of reusing a cached failure.
func (m *Manager) Acquire(ctx context.Context) (*Handle, error) {
	m.mu.Lock()
	if m.handle != nil && !m.handle.expired(m.now(), m.ttl) {
		h := m.handle
		m.mu.Unlock()
		return h, nil
	}

	if m.creating != nil {
		c := m.creating
		m.mu.Unlock()
		select {
		case <-c.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return c.handle, c.err
	}

	old := m.handle
	m.handle = nil
	c := &creation{done: make(chan struct{})}
	m.creating = c
	m.mu.Unlock()

	if old != nil {
		m.log.Infof("closing expired browser handle (age %s)", m.now().Sub(old.createdAt))
		old.close()
	}

	handle, err := m.launch(ctx, m.headless)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrResourceUnavailable, err)
		m.log.Errorf("browser launch failed: %v", err)
	} else {
		handle.createdAt = m.now()
		m.log.Infof("browser launched")
	}

	m.mu.Lock()
	m.creating = nil
	if err == nil {
		m.handle = handle
	}
	m.mu.Unlock()

	c.handle, c.err = handle, err
	close(c.done)
	return handle, err
}

// Live returns the current handle without launching one. Used by flows
// that must not create a fresh, empty browser just to discover there is
// nothing in it.
func (m *Manager) Live() (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil || m.handle.expired(m.now(), m.ttl) {
		return nil, false
	}
	return m.handle, true
}

// Teardown closes the handle if present and resets liveness state.
// Safe to call when no handle exists.
func (m *Manager) Teardown() {
	m.mu.Lock()
	h := m.handle
	m.handle = nil
	m.mu.Unlock()

	if h != nil {
		h.close()
		m.log.Infof("browser handle torn down")
	}
}

// Launch is the production LaunchFunc: it installs the Playwright
// driver if needed, starts it, and launches headless (or headed)
// Chromium with a single shared context.
func Launch(ctx context.Context, headless bool) (*Handle, error) {
	// Driver output is discarded so it cannot corrupt the stdio MCP
	// transport sharing this process's stdout.
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return nil, fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	br, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := br.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: 1280, Height: 720},
	})
	if err != nil {
		_ = br.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create context: %w", err)
	}

	return &Handle{pw: pw, browser: br, context: context}, nil
}
