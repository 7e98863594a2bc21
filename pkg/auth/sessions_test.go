package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKV is a map-backed store.KV; TTLs are ignored because the tests
// drive expiry through Session.Timestamp.
type fakeKV struct {
	data map[string][]byte
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string][]byte)} }

func (f *fakeKV) Put(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeKV) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range f.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func putSession(t *testing.T, kv *fakeKV, s Session) {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	kv.data["mcp_session:"+s.ID] = data
}

func TestStoreSessionRoundTrip(t *testing.T) {
	kv := newFakeKV()
	require.NoError(t, StoreSession(context.Background(), kv, "u1", "alice@example.com"))

	s, ok, err := ActiveSession(context.Background(), kv, time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", s.ID)
	assert.Equal(t, "alice@example.com", s.Email)
	assert.True(t, s.Verified)
}

func TestActiveSessionEmpty(t *testing.T) {
	_, ok, err := ActiveSession(context.Background(), newFakeKV(), time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestActiveSessionPicksNewest(t *testing.T) {
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	kv := newFakeKV()
	putSession(t, kv, Session{ID: "old", Email: "old@example.com", Verified: true,
		Timestamp: now.Add(-30 * time.Minute)})
	putSession(t, kv, Session{ID: "new", Email: "new@example.com", Verified: true,
		Timestamp: now.Add(-5 * time.Minute)})

	s, ok, err := ActiveSession(context.Background(), kv, now)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new@example.com", s.Email)
}

func TestActiveSessionExpiresByTimestamp(t *testing.T) {
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	kv := newFakeKV()
	putSession(t, kv, Session{ID: "u1", Email: "alice@example.com", Verified: true,
		Timestamp: now.Add(-SessionTTL)})

	_, ok, err := ActiveSession(context.Background(), kv, now)
	require.NoError(t, err)
	assert.False(t, ok, "a session exactly at the TTL boundary is expired")
}

func TestActiveSessionSkipsUnreadableRecords(t *testing.T) {
	now := time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC)
	kv := newFakeKV()
	kv.data["mcp_session:bad"] = []byte("not json")
	putSession(t, kv, Session{ID: "u1", Email: "alice@example.com", Verified: true,
		Timestamp: now.Add(-time.Minute)})

	s, ok, err := ActiveSession(context.Background(), kv, now)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", s.Email)
}

func TestAuthorized(t *testing.T) {
	allowed := []string{"Alice@Example.com", " bob@example.com "}

	tests := []struct {
		email    string
		expected bool
	}{
		{email: "alice@example.com", expected: true},
		{email: "ALICE@EXAMPLE.COM", expected: true},
		{email: "  alice@example.com  ", expected: true},
		{email: "bob@example.com", expected: true},
		{email: "mallory@example.com", expected: false},
		{email: "", expected: false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Authorized(tt.email, allowed), "email %q", tt.email)
	}

	assert.False(t, Authorized("alice@example.com", nil))
}
