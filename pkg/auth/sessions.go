// Package auth keeps the session bookkeeping for booking tools:
// allow-listed users authenticate out-of-band, a session record lands
// in the store, and booking tools require a live one. Availability
// checks and diagnostics stay open to any caller.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/store"
)

const sessionPrefix = "mcp_session:"

// SessionTTL is how long an authenticated session stays valid.
const SessionTTL = time.Hour

// Session is one authenticated user.
type Session struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verified"`
	Timestamp time.Time `json:"timestamp"`
}

// StoreSession records an authenticated session for userID.
func StoreSession(ctx context.Context, kv store.KV, userID, email string) error {
	data, err := json.Marshal(Session{
		ID:        userID,
		Email:     email,
		Verified:  true,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	return kv.Put(ctx, sessionPrefix+userID, data, SessionTTL)
}

// ActiveSession returns the most recent unexpired session, if any. The
// store's TTL already drops expired records; the timestamp is
// re-checked so imported or hand-written records age out the same way.
func ActiveSession(ctx context.Context, kv store.KV, now time.Time) (*Session, bool, error) {
	keys, err := kv.List(ctx, sessionPrefix)
	if err != nil {
		return nil, false, err
	}

	var newest *Session
	for _, key := range keys {
		raw, ok, err := kv.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if now.Sub(s.Timestamp) >= SessionTTL {
			continue
		}
		if newest == nil || s.Timestamp.After(newest.Timestamp) {
			session := s
			newest = &session
		}
	}
	if newest == nil {
		return nil, false, nil
	}
	return newest, true, nil
}

// Authorized reports whether email is on the allow list. Comparison is
// case-insensitive.
func Authorized(email string, allowed []string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimSpace(a)) == email {
			return true
		}
	}
	return false
}
