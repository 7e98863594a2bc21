package booking

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/logging"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/site"
)

func testLogger() *logging.Logger { return logging.Discard() }

// memKV is an in-memory store.KV for flow tests.
type memKV struct {
	mu      sync.Mutex
	data    map[string][]byte
	expiry  map[string]time.Time
	now     func() time.Time
	putErr  error
	deleted []string
}

func newMemKV() *memKV {
	return &memKV{
		data:   make(map[string][]byte),
		expiry: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (m *memKV) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = value
	if ttl > 0 {
		m.expiry[key] = m.now().Add(ttl)
	} else {
		delete(m.expiry, key)
	}
	return nil
}

func (m *memKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if exp, has := m.expiry[key]; has && !m.now().Before(exp) {
		return nil, false, nil
	}
	return v, true, nil
}

func (m *memKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.expiry, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memKV) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for k := range m.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if exp, has := m.expiry[k]; has && !m.now().Before(exp) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// fakePage scripts a site.Page: each operation succeeds unless its
// entry in errs is set, and calls are recorded in order.
type fakePage struct {
	errs  map[string]error
	calls []string

	slots    []string
	bodyText string
	closed   bool
}

func (p *fakePage) step(name string) error {
	p.calls = append(p.calls, name)
	return p.errs[name]
}

func (p *fakePage) Login(email, password string) error    { return p.step("login") }
func (p *fakePage) OpenCourt(court string) error          { return p.step("openCourt") }
func (p *fakePage) SelectDate(_, _ time.Time) error       { return p.step("selectDate") }
func (p *fakePage) SelectSlot(slot string) error          { return p.step("selectSlot") }
func (p *fakePage) ChooseDuration() error                 { return p.step("chooseDuration") }
func (p *fakePage) ChooseParticipant() error              { return p.step("chooseParticipant") }
func (p *fakePage) RequestCode() error                    { return p.step("requestCode") }
func (p *fakePage) EnterCode(code string) error           { return p.step("enterCode") }
func (p *fakePage) ConfirmCode() error                    { return p.step("confirmCode") }
func (p *fakePage) AwaitConfirmation(time.Duration) error { return p.step("awaitConfirmation") }

func (p *fakePage) FreeSlots() ([]string, error) {
	if err := p.step("freeSlots"); err != nil {
		return nil, err
	}
	return p.slots, nil
}

func (p *fakePage) BodyText() (string, error) {
	if err := p.step("bodyText"); err != nil {
		return "", err
	}
	return p.bodyText, nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

// fakeAdapter hands out scripted pages and records the verification
// registry traffic.
type fakeAdapter struct {
	homePage    *fakePage
	homeErr     error
	pendingPage *fakePage
	pendingErr  error

	remembered map[string]site.Page
	forgotten  []string
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{remembered: make(map[string]site.Page)}
}

func (a *fakeAdapter) OpenHome(context.Context) (site.Page, error) {
	if a.homeErr != nil {
		return nil, a.homeErr
	}
	return a.homePage, nil
}

func (a *fakeAdapter) PendingVerification(_ context.Context, user string) (site.Page, bool, error) {
	if a.pendingErr != nil {
		return nil, false, a.pendingErr
	}
	if a.pendingPage == nil {
		return nil, false, nil
	}
	return a.pendingPage, true, nil
}

func (a *fakeAdapter) RememberVerification(user string, p site.Page) {
	a.remembered[user] = p
}

func (a *fakeAdapter) ForgetVerification(user string) {
	a.forgotten = append(a.forgotten, user)
}

func testFlow(adapter site.Adapter, kv *memKV, opts ...Option) *Flow {
	params := Params{
		Site:          adapter,
		KV:            kv,
		Log:           testLogger(),
		RecEmail:      "owner@example.com",
		RecPassword:   "hunter2",
		DefaultCourt:  "DuPont",
		OperatingYear: 2025,
	}
	return NewFlow(params, opts...)
}
