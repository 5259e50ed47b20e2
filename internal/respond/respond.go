// Package respond builds grounded prompts and streams generated answers as an
// ordered event sequence.
//
// The wire contract for a streamed reply is strict: exactly one sources event
// first, then zero or more cumulative answer deltas, then exactly one done
// event, emitted even when the provider produced zero tokens. Deltas carry
// the full answer-so-far rather than a diff, so a client that drops and
// reconnects mid-stream only needs the latest event.
package respond

import (
	"context"
	"fmt"
	"strings"

	"github.com/opspilot/opspilot/internal/intent"
	"github.com/opspilot/opspilot/internal/knowledge"
	"github.com/opspilot/opspilot/internal/log"
)

// Message is one turn of caller-supplied conversation history.
type Message struct {
	Role    string `json:"role"` // user, assistant or system
	Content string `json:"content"`
}

// MaxHistoryMessages is the number of most recent history entries forwarded
// to the completion provider.
const MaxHistoryMessages = 10

// GenerateRequest is one completion call.
type GenerateRequest struct {
	System      string
	History     []Message
	Prompt      string
	Temperature float32
}

// Generator is the slice of the completion provider the responder needs.
// When cb is non-nil the provider streams token deltas through it; the full
// final text is returned either way.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest, cb func(ctx context.Context, chunk string) error) (string, error)
}

// EmitFunc receives one wire event. Implementations typically serialize the
// event onto an SSE stream; tests collect them in a slice.
type EmitFunc func(ctx context.Context, event any) error

// SourcesEvent is always the first event of a stream.
type SourcesEvent struct {
	Sources []knowledge.Chunk `json:"sources"`
	Intent  intent.Intent     `json:"intent"`
}

// DeltaEvent carries the cumulative answer-so-far.
type DeltaEvent struct {
	Answer string `json:"answer"`
	Done   bool   `json:"done"`
}

// DoneEvent is always the last event of a stream.
type DoneEvent struct {
	Answer string        `json:"answer"`
	Done   bool          `json:"done"`
	Intent intent.Intent `json:"intent"`
}

// DefaultSystemPrompt instructs the model to answer from the provided context
// only. It can be overridden through configuration.
const DefaultSystemPrompt = "You are a helpful assistant for a business operations platform. " +
	"Answer the user's question using ONLY the provided context from the company's " +
	"knowledge base. If the context does not contain the answer, say so briefly. " +
	"Be concise and practical."

// promptTemplate embeds the retrieved context and the question into the final
// user turn.
const promptTemplate = `Context from the knowledge base:

%s

Question: %s`

// emptyAnswerFallback guarantees a non-empty answer on every 200 response.
const emptyAnswerFallback = "I wasn't able to generate an answer for that. Could you rephrase the question?"

// Streamer narrates retrieval-grounded answers.
type Streamer struct {
	generator    Generator
	systemPrompt string
	temperature  float32
	logger       log.Logger
}

// NewStreamer creates a Streamer. systemPrompt falls back to
// DefaultSystemPrompt when empty; logger may be nil.
func NewStreamer(generator Generator, systemPrompt string, temperature float32, logger log.Logger) *Streamer {
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Streamer{
		generator:    generator,
		systemPrompt: systemPrompt,
		temperature:  temperature,
		logger:       logger,
	}
}

// Stream generates an answer grounded in the given chunks and emits the
// ordered event sequence. The final cumulative answer is returned for callers
// that also need it out-of-band. An error from the generator or from emit
// aborts the stream; events already emitted stand.
func (s *Streamer) Stream(ctx context.Context, in intent.Intent, question string, chunks []knowledge.Chunk, history []Message, emit EmitFunc) (string, error) {
	if err := emit(ctx, SourcesEvent{Sources: chunks, Intent: in}); err != nil {
		return "", fmt.Errorf("emitting sources: %w", err)
	}

	req := GenerateRequest{
		System:      s.systemPrompt,
		History:     TruncateHistory(history),
		Prompt:      fmt.Sprintf(promptTemplate, knowledge.ContextBlock(chunks), question),
		Temperature: s.temperature,
	}

	var answer strings.Builder
	final, err := s.generator.Generate(ctx, req, func(cbCtx context.Context, chunk string) error {
		if chunk == "" {
			return nil
		}
		answer.WriteString(chunk)
		return emit(cbCtx, DeltaEvent{Answer: answer.String(), Done: false})
	})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}

	// The cumulative buffer wins when both exist; the provider's final text
	// covers non-streaming providers that never invoked the callback.
	text := answer.String()
	if text == "" {
		text = final
	}
	if strings.TrimSpace(text) == "" {
		text = emptyAnswerFallback
	}

	if err := emit(ctx, DoneEvent{Answer: text, Done: true, Intent: in}); err != nil {
		return "", fmt.Errorf("emitting done: %w", err)
	}

	s.logger.Debug("streamed answer",
		"intent", in,
		"sources", len(chunks),
		"answer_len", len(text))
	return text, nil
}

// Generate produces the same grounded answer without streaming events, for
// callers that return a single JSON envelope.
func (s *Streamer) Generate(ctx context.Context, question string, chunks []knowledge.Chunk, history []Message) (string, error) {
	req := GenerateRequest{
		System:      s.systemPrompt,
		History:     TruncateHistory(history),
		Prompt:      fmt.Sprintf(promptTemplate, knowledge.ContextBlock(chunks), question),
		Temperature: s.temperature,
	}

	text, err := s.generator.Generate(ctx, req, nil)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		text = emptyAnswerFallback
	}
	return text, nil
}

// TruncateHistory keeps the most recent MaxHistoryMessages entries.
func TruncateHistory(history []Message) []Message {
	if len(history) <= MaxHistoryMessages {
		return history
	}
	return history[len(history)-MaxHistoryMessages:]
}
