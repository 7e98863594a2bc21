package site

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/browser"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/logging"
)

// Step timeouts, in milliseconds. These bound how long each transition
// waits for its page signal before the flow gives up.
const (
	defaultStepTimeoutMs = 12000
	homeNavTimeoutMs     = 20000
	loginPromptTimeoutMs = 10000
	loginFormTimeoutMs   = 8000
	courtLinkTimeoutMs   = 10000
	datePickerTimeoutMs  = 5000
	slotListTimeoutMs    = 8000
	durationMenuTimeout  = 5000
	codeInputTimeoutMs   = 8000
	confirmClickTimeout  = 180000
	bodyTextTimeoutMs    = 3000
)

// Settle delays, in milliseconds. The site re-renders asynchronously
// after several interactions; these mirror the pauses the flow needs
// between a click and the next stable state.
const (
	homeSettleMs     = 2000
	loginSettleMs    = 3000
	courtSettleMs    = 2000
	pickerSettleMs   = 1000
	monthSettleMs    = 500
	daySettleMs      = 1500
	sendCodeSettleMs = 2000
)

// verificationInput is the SMS code field. Its presence is what marks a
// tab as parked at the verification step.
const verificationInput = `input[id="totp"]`

// Rec drives www.rec.us. It implements Adapter.
type Rec struct {
	manager *browser.Manager
	baseURL string
	log     *logging.Logger

	mu      sync.Mutex
	pending map[string]*recPage
}

// NewRec creates the rec.us adapter on top of the shared browser
// manager.
func NewRec(manager *browser.Manager, baseURL string, log *logging.Logger) *Rec {
	return &Rec{
		manager: manager,
		baseURL: baseURL,
		log:     log,
		pending: make(map[string]*recPage),
	}
}

// OpenHome acquires the shared browser and opens the park's home page
// in a new tab.
func (r *Rec) OpenHome(ctx context.Context) (Page, error) {
	handle, err := r.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	pg, err := handle.NewPage()
	if err != nil {
		return nil, err
	}
	pg.SetDefaultTimeout(defaultStepTimeoutMs)

	_, err = pg.Goto(r.baseURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(homeNavTimeoutMs),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		_ = pg.Close()
		return nil, fmt.Errorf("failed to open %s: %w", r.baseURL, err)
	}
	pg.WaitForTimeout(homeSettleMs)

	return &recPage{page: pg}, nil
}

// PendingVerification finds the tab parked at the verification prompt
// for user: registry first, then a scan of all open tabs. Tabs that
// error while being probed are skipped, not fatal — a closed or
// navigated-away tab is simply not a match.
func (r *Rec) PendingVerification(ctx context.Context, user string) (Page, bool, error) {
	r.mu.Lock()
	registered := r.pending[user]
	r.mu.Unlock()

	if registered != nil {
		if registered.awaitingCode() {
			return registered, true, nil
		}
		// Stale registration: the tab was closed or moved on.
		r.ForgetVerification(user)
	}

	handle, err := r.manager.Acquire(ctx)
	if err != nil {
		return nil, false, err
	}

	for _, pg := range handle.Pages() {
		visible, err := pg.Locator(verificationInput).IsVisible()
		if err != nil {
			continue
		}
		if visible {
			r.log.Infof("found verification page by tab scan for %s", user)
			return &recPage{page: pg}, true, nil
		}
	}
	return nil, false, nil
}

// RememberVerification records the page left open at the verification
// step for user. At most one tab per handle sits at that step, so a
// second Phase 1 for the same user replaces the first.
func (r *Rec) RememberVerification(user string, p Page) {
	rp, ok := p.(*recPage)
	if !ok {
		return
	}
	r.mu.Lock()
	r.pending[user] = rp
	r.mu.Unlock()
}

// ForgetVerification drops the registry entry for user.
func (r *Rec) ForgetVerification(user string) {
	r.mu.Lock()
	delete(r.pending, user)
	r.mu.Unlock()
}

// recPage drives one tab through the reservation flow.
type recPage struct {
	page playwright.Page
}

// awaitingCode reports whether this tab still shows the code input.
func (p *recPage) awaitingCode() bool {
	visible, err := p.page.Locator(verificationInput).IsVisible()
	return err == nil && visible
}

func (p *recPage) Login(email, password string) error {
	if _, err := p.page.WaitForSelector("text=Log In", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(loginPromptTimeoutMs),
	}); err != nil {
		return fmt.Errorf("login prompt not found: %w", err)
	}
	if err := p.page.GetByText("Log In").Click(); err != nil {
		return fmt.Errorf("failed to open login form: %w", err)
	}

	if _, err := p.page.WaitForSelector(`input[id="email"]`, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(loginFormTimeoutMs),
	}); err != nil {
		return fmt.Errorf("login form not found: %w", err)
	}
	if err := p.page.Fill(`input[id="email"]`, email); err != nil {
		return fmt.Errorf("failed to fill email: %w", err)
	}
	if err := p.page.Fill(`input[id="password"]`, password); err != nil {
		return fmt.Errorf("failed to fill password: %w", err)
	}
	if err := p.page.GetByText("log in & continue").Click(); err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}
	p.page.WaitForTimeout(loginSettleMs)
	return nil
}

func (p *recPage) OpenCourt(court string) error {
	if _, err := p.page.WaitForSelector("text="+court, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(courtLinkTimeoutMs),
	}); err != nil {
		return fmt.Errorf("court %q not found: %w", court, err)
	}
	if err := p.page.GetByText(court).Click(); err != nil {
		return fmt.Errorf("failed to open court %q: %w", court, err)
	}
	p.page.WaitForTimeout(courtSettleMs)
	return nil
}

func (p *recPage) SelectDate(target, reference time.Time) error {
	if err := p.page.Locator("input").Click(); err != nil {
		return fmt.Errorf("failed to open date picker: %w", err)
	}
	if _, err := p.page.WaitForSelector(".react-datepicker", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(datePickerTimeoutMs),
	}); err != nil {
		return fmt.Errorf("date picker did not open: %w", err)
	}
	p.page.WaitForTimeout(pickerSettleMs)

	if MonthChanges(target, reference) {
		if err := p.page.GetByRole(*playwright.AriaRoleButton, playwright.PageGetByRoleOptions{
			Name: "right",
		}).Click(); err != nil {
			return fmt.Errorf("failed to advance month: %w", err)
		}
		p.page.WaitForTimeout(monthSettleMs)
	}

	if err := p.page.Locator(DaySelector(target.Day())).First().Click(); err != nil {
		return fmt.Errorf("failed to select day %d: %w", target.Day(), err)
	}
	p.page.WaitForTimeout(daySettleMs)
	return nil
}

func (p *recPage) FreeSlots() ([]string, error) {
	// Either a time like "3:00" or the "No free times" notice renders
	// once the slot panel has loaded.
	if _, err := p.page.WaitForSelector(`text=/(\d:)|(No free)/`, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(slotListTimeoutMs),
	}); err != nil {
		return nil, fmt.Errorf("slot list did not load: %w", err)
	}

	panelHTML, err := p.page.GetByText("Tennis").First().Locator("xpath=..").InnerHTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read slot panel: %w", err)
	}
	slots, err := ExtractSlotTimes(panelHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to parse slot panel: %w", err)
	}
	return slots, nil
}

func (p *recPage) SelectSlot(slot string) error {
	if err := p.page.GetByText(slot).Click(); err != nil {
		return fmt.Errorf("failed to select slot %q: %w", slot, err)
	}
	return nil
}

func (p *recPage) ChooseDuration() error {
	if err := p.page.Locator(`xpath=//label[text()='Duration']/following-sibling::button`).Click(); err != nil {
		return fmt.Errorf("failed to open duration menu: %w", err)
	}
	if _, err := p.page.WaitForSelector("text=2 hours", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(durationMenuTimeout),
	}); err != nil {
		return fmt.Errorf("duration options did not load: %w", err)
	}
	// First enabled option; shorter durations are listed first.
	if err := p.page.Locator(`div[role="option"]:not([aria-disabled="true"])`).First().Click(); err != nil {
		return fmt.Errorf("failed to choose duration: %w", err)
	}
	return nil
}

func (p *recPage) ChooseParticipant() error {
	if err := p.page.GetByText("Select participant").Click(); err != nil {
		return fmt.Errorf("failed to open participant menu: %w", err)
	}
	if err := p.page.GetByText("Account Owner").Click(); err != nil {
		return fmt.Errorf("failed to choose participant: %w", err)
	}
	return nil
}

func (p *recPage) RequestCode() error {
	if err := p.page.Locator("button.max-w-max").Click(); err != nil {
		return fmt.Errorf("failed to click book: %w", err)
	}
	if err := p.page.GetByText("Send Code").Click(); err != nil {
		return fmt.Errorf("failed to request code: %w", err)
	}
	p.page.WaitForTimeout(sendCodeSettleMs)

	if _, err := p.page.WaitForSelector(verificationInput, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(codeInputTimeoutMs),
	}); err != nil {
		return fmt.Errorf("verification input did not appear: %w", err)
	}
	return nil
}

func (p *recPage) EnterCode(code string) error {
	// Typed key-by-key: the input validates per keystroke and rejects a
	// single programmatic fill.
	if err := p.page.Locator(verificationInput).PressSequentially(code); err != nil {
		return fmt.Errorf("failed to enter code: %w", err)
	}
	return nil
}

func (p *recPage) ConfirmCode() error {
	if err := p.page.GetByText("Confirm").Last().Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(confirmClickTimeout),
	}); err != nil {
		return fmt.Errorf("failed to click confirm: %w", err)
	}
	return nil
}

func (p *recPage) AwaitConfirmation(timeout time.Duration) error {
	if _, err := p.page.WaitForSelector("text=You're all set!", playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	}); err != nil {
		return fmt.Errorf("no booking confirmation: %w", err)
	}
	return nil
}

func (p *recPage) BodyText() (string, error) {
	text, err := p.page.TextContent("body", playwright.PageTextContentOptions{
		Timeout: playwright.Float(bodyTextTimeoutMs),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read page text: %w", err)
	}
	return text, nil
}

func (p *recPage) Close() error {
	return p.page.Close()
}
