// Package summary turns availability data into a conversational
// answer. Generation is best-effort: when the model call fails or no
// API key is configured, a deterministic template takes over so the
// booking flow is never blocked on the LLM.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/booking"
	"github.com/elizabethsiegle/rec-us-mcp-server/pkg/logging"
)

const systemPrompt = "You are a helpful tennis court booking assistant. " +
	"Convert tennis court availability data into a friendly, conversational response. " +
	"Be concise but informative."

// Generator produces text from a system and user prompt.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// OpenAI is a Generator over the chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates an OpenAI generator.
func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Generate runs a single non-streaming completion.
func (o *OpenAI) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Summarizer renders availability results. gen may be nil, in which
// case only the fallback template is used.
type Summarizer struct {
	gen Generator
	log *logging.Logger
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(gen Generator, log *logging.Logger) *Summarizer {
	return &Summarizer{gen: gen, log: log}
}

// Availability describes the availability result conversationally,
// falling back to the deterministic template on any generation failure.
func (s *Summarizer) Availability(ctx context.Context, a booking.Availability) string {
	if s.gen == nil {
		return Fallback(a)
	}

	text, err := s.gen.Generate(ctx, systemPrompt, availabilityPrompt(a))
	if err != nil || strings.TrimSpace(text) == "" {
		s.log.Warnf("availability summary generation failed, using fallback: %v", err)
		return Fallback(a)
	}
	return text
}

func availabilityPrompt(a booking.Availability) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please summarize this tennis court availability data in a natural, friendly way:\n\n")
	fmt.Fprintf(&b, "Court: %s\n", a.Court)
	fmt.Fprintf(&b, "Date: %s\n", a.Date)
	if len(a.Slots) > 0 {
		fmt.Fprintf(&b, "Available times: %s\n", strings.Join(a.Slots, ", "))
	} else {
		fmt.Fprintf(&b, "Available times: None available\n")
	}
	if a.Requested != "" {
		fmt.Fprintf(&b, "Requested time: %s\n", a.Requested)
		if a.RequestedAvailable != nil {
			fmt.Fprintf(&b, "Requested time available: %v\n", *a.RequestedAvailable)
		}
	}
	if a.Err != "" {
		fmt.Fprintf(&b, "\nError occurred: %s\n", a.Err)
	}
	b.WriteString("\nMake it conversational and helpful.")
	return b.String()
}

// Fallback is the deterministic availability message used when
// generation is unavailable.
func Fallback(a booking.Availability) string {
	if a.Err != "" {
		return fmt.Sprintf("Sorry, I couldn't check availability for %s on %s. Error: %s",
			a.Court, a.Date, a.Err)
	}
	if len(a.Slots) == 0 {
		return fmt.Sprintf("No time slots are available at %s on %s.", a.Court, a.Date)
	}

	msg := fmt.Sprintf("%s has %d available time slots on %s: %s.",
		a.Court, len(a.Slots), a.Date, strings.Join(a.Slots, ", "))
	if a.Requested != "" && a.RequestedAvailable != nil {
		if *a.RequestedAvailable {
			msg += fmt.Sprintf(" Your requested time of %s is available!", a.Requested)
		} else {
			msg += fmt.Sprintf(" Unfortunately, your requested time of %s is not available.", a.Requested)
		}
	}
	return msg
}
