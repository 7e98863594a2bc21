package summary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/booking"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/logging"
)

type stubGenerator struct {
	text string
	err  error
}

func (s *stubGenerator) Generate(context.Context, string, string) (string, error) {
	return s.text, s.err
}

func boolPtr(b bool) *bool { return &b }

func TestAvailabilityUsesGenerator(t *testing.T) {
	s := NewSummarizer(&stubGenerator{text: "Courts look great tomorrow!"}, logging.Discard())
	got := s.Availability(context.Background(), booking.Availability{
		Court: "DuPont", Date: "2025-06-10", Slots: []string{"3:00 PM"},
	})
	assert.Equal(t, "Courts look great tomorrow!", got)
}

func TestAvailabilityFallsBackOnError(t *testing.T) {
	s := NewSummarizer(&stubGenerator{err: errors.New("rate limited")}, logging.Discard())
	a := booking.Availability{Court: "DuPont", Date: "2025-06-10", Slots: []string{"3:00 PM"}}
	assert.Equal(t, Fallback(a), s.Availability(context.Background(), a))
}

func TestAvailabilityFallsBackOnEmptyText(t *testing.T) {
	s := NewSummarizer(&stubGenerator{text: "   "}, logging.Discard())
	a := booking.Availability{Court: "DuPont", Date: "2025-06-10"}
	assert.Equal(t, Fallback(a), s.Availability(context.Background(), a))
}

func TestAvailabilityWithoutGenerator(t *testing.T) {
	s := NewSummarizer(nil, logging.Discard())
	a := booking.Availability{Court: "DuPont", Date: "2025-06-10", Slots: []string{"3:00 PM"}}
	assert.Equal(t, Fallback(a), s.Availability(context.Background(), a))
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name     string
		a        booking.Availability
		expected string
	}{
		{
			name:     "error",
			a:        booking.Availability{Court: "DuPont", Date: "2025-06-10", Err: "site down"},
			expected: "Sorry, I couldn't check availability for DuPont on 2025-06-10. Error: site down",
		},
		{
			name:     "no slots",
			a:        booking.Availability{Court: "DuPont", Date: "2025-06-10"},
			expected: "No time slots are available at DuPont on 2025-06-10.",
		},
		{
			name: "slots without request",
			a: booking.Availability{
				Court: "DuPont", Date: "2025-06-10",
				Slots: []string{"8:00 AM", "3:00 PM"},
			},
			expected: "DuPont has 2 available time slots on 2025-06-10: 8:00 AM, 3:00 PM.",
		},
		{
			name: "requested time available",
			a: booking.Availability{
				Court: "DuPont", Date: "2025-06-10",
				Slots:              []string{"3:00 PM"},
				Requested:          "3:00 PM",
				RequestedAvailable: boolPtr(true),
			},
			expected: "DuPont has 1 available time slots on 2025-06-10: 3:00 PM." +
				" Your requested time of 3:00 PM is available!",
		},
		{
			name: "requested time taken",
			a: booking.Availability{
				Court: "DuPont", Date: "2025-06-10",
				Slots:              []string{"8:00 AM"},
				Requested:          "3:00 PM",
				RequestedAvailable: boolPtr(false),
			},
			expected: "DuPont has 1 available time slots on 2025-06-10: 8:00 AM." +
				" Unfortunately, your requested time of 3:00 PM is not available.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Fallback(tt.a))
		})
	}
}
