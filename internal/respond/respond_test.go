package respond

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/opspilot/opspilot/internal/intent"
	"github.com/opspilot/opspilot/internal/knowledge"
	"github.com/opspilot/opspilot/internal/log"
)

// fakeGenerator streams the configured chunks then returns their
// concatenation.
type fakeGenerator struct {
	chunks  []string
	err     error
	lastReq GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req GenerateRequest, cb func(context.Context, string) error) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	var full strings.Builder
	for _, c := range f.chunks {
		full.WriteString(c)
		if cb != nil {
			if err := cb(ctx, c); err != nil {
				return "", err
			}
		}
	}
	return full.String(), nil
}

func collectEvents(events *[]any) EmitFunc {
	return func(_ context.Context, event any) error {
		*events = append(*events, event)
		return nil
	}
}

func testChunks() []knowledge.Chunk {
	return []knowledge.Chunk{
		{ID: "c1", Source: "handbook.md", ChunkIndex: 1, Content: "receiving procedure", Similarity: 0.8},
	}
}

func TestStreamEventOrdering(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"To create", " a purchase order", ", open Purchasing."}}
	s := NewStreamer(gen, "", 0.7, log.NewNop())

	var events []any
	answer, err := s.Stream(context.Background(), intent.KnowledgeExplainer,
		"How do I create a purchase order?", testChunks(), nil, collectEvents(&events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 5 { // sources + 3 deltas + done
		t.Fatalf("got %d events, want 5", len(events))
	}

	first, ok := events[0].(SourcesEvent)
	if !ok {
		t.Fatalf("event 0 is %T, want SourcesEvent", events[0])
	}
	if first.Intent != intent.KnowledgeExplainer || len(first.Sources) != 1 {
		t.Errorf("sources event = %+v", first)
	}

	// Every delta carries the cumulative answer; each is a prefix of the next.
	prev := ""
	for i := 1; i < len(events)-1; i++ {
		delta, ok := events[i].(DeltaEvent)
		if !ok {
			t.Fatalf("event %d is %T, want DeltaEvent", i, events[i])
		}
		if delta.Done {
			t.Errorf("intermediate event %d has done=true", i)
		}
		if !strings.HasPrefix(delta.Answer, prev) {
			t.Errorf("delta %d %q is not an extension of %q", i, delta.Answer, prev)
		}
		prev = delta.Answer
	}

	done, ok := events[len(events)-1].(DoneEvent)
	if !ok {
		t.Fatalf("last event is %T, want DoneEvent", events[len(events)-1])
	}
	if !done.Done {
		t.Error("final event must have done=true")
	}
	if done.Answer != "To create a purchase order, open Purchasing." {
		t.Errorf("final answer = %q", done.Answer)
	}
	if done.Answer != answer {
		t.Errorf("returned answer %q differs from final event %q", answer, done.Answer)
	}
}

func TestStreamZeroTokensStillEmitsDone(t *testing.T) {
	gen := &fakeGenerator{chunks: nil} // provider produces no deltas, empty text
	s := NewStreamer(gen, "", 0.7, log.NewNop())

	var events []any
	answer, err := s.Stream(context.Background(), intent.KnowledgeExplainer,
		"q", testChunks(), nil, collectEvents(&events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events, want sources + done", len(events))
	}
	done := events[1].(DoneEvent)
	if !done.Done {
		t.Error("final event must have done=true")
	}
	if strings.TrimSpace(answer) == "" {
		t.Error("answer must never be empty on success")
	}
}

func TestStreamGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	s := NewStreamer(gen, "", 0.7, log.NewNop())

	var events []any
	_, err := s.Stream(context.Background(), intent.KnowledgeExplainer,
		"q", testChunks(), nil, collectEvents(&events))
	if err == nil {
		t.Fatal("expected error")
	}
	// Sources already went out; no done event may follow the failure.
	if len(events) != 1 {
		t.Errorf("got %d events, want only the sources event", len(events))
	}
}

func TestStreamEmitErrorAborts(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"a", "b"}}
	s := NewStreamer(gen, "", 0.7, log.NewNop())

	calls := 0
	emit := func(context.Context, any) error {
		calls++
		if calls > 1 {
			return errors.New("client disconnected")
		}
		return nil
	}

	if _, err := s.Stream(context.Background(), intent.KnowledgeExplainer, "q", testChunks(), nil, emit); err == nil {
		t.Fatal("expected error when emit fails")
	}
}

func TestStreamPromptContainsContextAndQuestion(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"ok"}}
	s := NewStreamer(gen, "", 0.7, log.NewNop())

	var events []any
	_, err := s.Stream(context.Background(), intent.KnowledgeExplainer,
		"How do I receive stock?", testChunks(), nil, collectEvents(&events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := gen.lastReq.Prompt
	if !strings.Contains(prompt, "SOURCE 1 (handbook.md#1)") {
		t.Errorf("prompt missing context block: %q", prompt)
	}
	if !strings.Contains(prompt, "How do I receive stock?") {
		t.Errorf("prompt missing question: %q", prompt)
	}
	if gen.lastReq.System == "" {
		t.Error("system prompt must be set")
	}
}

func TestStreamHistoryTruncation(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"ok"}}
	s := NewStreamer(gen, "", 0.7, log.NewNop())

	history := make([]Message, 25)
	for i := range history {
		history[i] = Message{Role: "user", Content: fmt.Sprintf("message %d", i)}
	}

	var events []any
	_, err := s.Stream(context.Background(), intent.KnowledgeExplainer,
		"q", testChunks(), history, collectEvents(&events))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gen.lastReq.History) != MaxHistoryMessages {
		t.Fatalf("history length = %d, want %d", len(gen.lastReq.History), MaxHistoryMessages)
	}
	if gen.lastReq.History[0].Content != "message 15" {
		t.Errorf("history should keep the most recent entries, first = %q", gen.lastReq.History[0].Content)
	}
}

func TestGenerateNonStreaming(t *testing.T) {
	gen := &fakeGenerator{chunks: []string{"full answer"}}
	s := NewStreamer(gen, "custom system", 0.5, log.NewNop())

	answer, err := s.Generate(context.Background(), "q", testChunks(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "full answer" {
		t.Errorf("answer = %q", answer)
	}
	if gen.lastReq.System != "custom system" {
		t.Errorf("system = %q, want custom override", gen.lastReq.System)
	}
}

func TestTruncateHistoryShort(t *testing.T) {
	history := []Message{{Role: "user", Content: "hi"}}
	got := TruncateHistory(history)
	if len(got) != 1 {
		t.Errorf("short history must pass through, got %d", len(got))
	}
}
