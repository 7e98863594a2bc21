// Package mcptools exposes the booking operations as MCP tools.
// Availability and diagnostics are public; booking, code submission and
// history require an authenticated session (see pkg/auth).
package mcptools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/playwright-community/playwright-go"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/auth"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/booking"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/browser"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/config"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/logging"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/store"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/summary"
)

var validate = validator.New()

// Deps are the collaborators the tool handlers share.
type Deps struct {
	Flow       *booking.Flow
	Manager    *browser.Manager
	KV         store.KV
	Summarizer *summary.Summarizer
	Config     *config.Config
	Log        *logging.Logger
}

// CheckCourtsInput are the arguments for check_tennis_courts.
type CheckCourtsInput struct {
	Date  string `json:"date,omitempty" jsonschema:"Date in YYYY-MM-DD format, 'today', 'tomorrow', or leave empty for tomorrow"`
	Court string `json:"court,omitempty" jsonschema:"Specific court name (DuPont, McLaren, Alice Marble, etc.)"`
	Time  string `json:"time,omitempty" jsonschema:"Preferred time (e.g. '8:00 AM')"`
}

// BookInput are the arguments for book_and_request_sms.
type BookInput struct {
	Court string `json:"court" validate:"required" jsonschema:"Court name"`
	Time  string `json:"time" validate:"required" jsonschema:"Time slot (e.g. '3pm' or '3:00 PM')"`
	Date  string `json:"date" validate:"required" jsonschema:"Date in YYYY-MM-DD format"`
}

// CodeInput are the arguments for enter_sms_code_and_complete.
type CodeInput struct {
	Code      string `json:"code" validate:"required,numeric" jsonschema:"SMS verification code you received on your phone"`
	BookingID string `json:"booking_id,omitempty" validate:"omitempty,uuid4" jsonschema:"Booking reference returned by book_and_request_sms (optional)"`
}

// HistoryInput are the arguments for get_booking_history.
type HistoryInput struct {
	Days int `json:"days,omitempty" validate:"omitempty,min=1,max=365" jsonschema:"Number of days to look back (default 30)"`
}

// EmptyInput is used by tools that take no arguments.
type EmptyInput struct{}

// Register adds all booking tools to the server.
func Register(server *mcp.Server, deps Deps) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_tennis_courts",
		Description: "Check tennis court availability for a court and date.",
	}, deps.checkCourts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "book_and_request_sms",
		Description: "Book a court up to the SMS verification step and request the code. Requires authentication.",
	}, deps.bookAndRequestSMS)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "enter_sms_code_and_complete",
		Description: "Complete a booking by entering the SMS verification code. Requires authentication.",
	}, deps.enterSMSCode)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "test_browser",
		Description: "Diagnostic: verify the automation browser can launch and load a page.",
	}, deps.testBrowser)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_booking_history",
		Description: "List your completed bookings. Requires authentication.",
	}, deps.bookingHistory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "auth_status",
		Description: "Show whether you are authenticated and which tools that unlocks.",
	}, deps.authStatus)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// session returns the active authenticated session, or a ready-to-send
// auth-required result when there is none.
func (d Deps) session(ctx context.Context) (*auth.Session, *mcp.CallToolResult) {
	s, ok, err := auth.ActiveSession(ctx, d.KV, time.Now())
	if err != nil {
		d.Log.Errorf("session lookup failed: %v", err)
		return nil, textResult(fmt.Sprintf("Authentication check failed: %v", err))
	}
	if !ok {
		return nil, textResult(d.authRequiredMessage())
	}
	return s, nil
}

func (d Deps) authRequiredMessage() string {
	allowed := "no authorized users configured"
	if len(d.Config.AuthorizedEmails) > 0 {
		allowed = strings.Join(d.Config.AuthorizedEmails, ", ")
	}
	return fmt.Sprintf(`Authentication required.

This booking operation needs an authenticated session. Authenticate
with an authorized email, then try again.

Authorized users: %s`, allowed)
}

func (d Deps) checkCourts(ctx context.Context, req *mcp.CallToolRequest, in CheckCourtsInput) (*mcp.CallToolResult, any, error) {
	a := d.Flow.CheckAvailability(ctx, in.Date, in.Court, in.Time)
	return textResult(d.Summarizer.Availability(ctx, a)), nil, nil
}

func (d Deps) bookAndRequestSMS(ctx context.Context, req *mcp.CallToolRequest, in BookInput) (*mcp.CallToolResult, any, error) {
	session, denied := d.session(ctx)
	if denied != nil {
		return denied, nil, nil
	}
	if err := validate.Struct(in); err != nil {
		return textResult(fmt.Sprintf("Invalid booking request: %v", err)), nil, nil
	}
	if !d.Config.CanBook() {
		return textResult("Booking is not configured: the server is missing rec.us credentials (REC_EMAIL / REC_PASSWORD)."), nil, nil
	}

	d.Log.Infof("booking requested by %s", session.Email)
	outcome := d.Flow.RequestCode(ctx, session.Email, in.Court, in.Time, in.Date)
	return textResult(FormatOutcome(outcome)), nil, nil
}

func (d Deps) enterSMSCode(ctx context.Context, req *mcp.CallToolRequest, in CodeInput) (*mcp.CallToolResult, any, error) {
	session, denied := d.session(ctx)
	if denied != nil {
		return denied, nil, nil
	}
	if err := validate.Struct(in); err != nil {
		return textResult(fmt.Sprintf("Invalid code: %v", err)), nil, nil
	}

	d.Log.Infof("code submission by %s", session.Email)
	outcome := d.Flow.ConfirmCode(ctx, session.Email, in.Code, in.BookingID)
	return textResult(FormatOutcome(outcome)), nil, nil
}

func (d Deps) testBrowser(ctx context.Context, req *mcp.CallToolRequest, in EmptyInput) (*mcp.CallToolResult, any, error) {
	handle, err := d.Manager.Acquire(ctx)
	if err != nil {
		return textResult(fmt.Sprintf("Browser test failed: %v", err)), nil, nil
	}

	page, err := handle.NewPage()
	if err != nil {
		return textResult(fmt.Sprintf("Browser test failed to open a page: %v", err)), nil, nil
	}
	defer page.Close()

	if _, err := page.Goto("https://example.com", playwright.PageGotoOptions{
		Timeout: playwright.Float(15000),
	}); err != nil {
		return textResult(fmt.Sprintf("Browser test failed to navigate: %v", err)), nil, nil
	}
	title, err := page.Title()
	if err != nil {
		return textResult(fmt.Sprintf("Browser test failed to read title: %v", err)), nil, nil
	}
	return textResult(fmt.Sprintf("Browser is working correctly. Test page title: %q", title)), nil, nil
}

func (d Deps) bookingHistory(ctx context.Context, req *mcp.CallToolRequest, in HistoryInput) (*mcp.CallToolResult, any, error) {
	session, denied := d.session(ctx)
	if denied != nil {
		return denied, nil, nil
	}
	if err := validate.Struct(in); err != nil {
		return textResult(fmt.Sprintf("Invalid history request: %v", err)), nil, nil
	}

	days := in.Days
	if days == 0 {
		days = booking.DefaultHistoryDays
	}
	entries, err := d.Flow.History(ctx, session.Email, days)
	if err != nil {
		return textResult(fmt.Sprintf("Error getting booking history: %v", err)), nil, nil
	}
	return textResult(FormatHistory(session.Email, days, entries)), nil, nil
}

func (d Deps) authStatus(ctx context.Context, req *mcp.CallToolRequest, in EmptyInput) (*mcp.CallToolResult, any, error) {
	s, ok, err := auth.ActiveSession(ctx, d.KV, time.Now())
	if err != nil {
		return textResult(fmt.Sprintf("Auth status check failed: %v", err)), nil, nil
	}
	if !ok {
		return textResult(d.authRequiredMessage() + `

Available without authentication:
- check_tennis_courts
- test_browser
- auth_status`), nil, nil
	}
	return textResult(fmt.Sprintf(`Authenticated as %s (session opened %s).

You can use:
- book_and_request_sms
- enter_sms_code_and_complete
- get_booking_history`, s.Email, s.Timestamp.Format(time.RFC1123))), nil, nil
}
