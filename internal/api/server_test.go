package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opspilot/opspilot/internal/intent"
	"github.com/opspilot/opspilot/internal/knowledge"
	"github.com/opspilot/opspilot/internal/log"
	"github.com/opspilot/opspilot/internal/respond"
	"github.com/opspilot/opspilot/internal/router"
)

// fakeClassifier implements Classifier.
type fakeClassifier struct {
	result intent.Result
	err    error
}

func (f *fakeClassifier) Classify(context.Context, string) (intent.Result, error) {
	if f.err != nil {
		return intent.Result{}, f.err
	}
	return f.result, nil
}

func (f *fakeClassifier) Outcome(ctx context.Context, message string) intent.Outcome {
	if f.err != nil {
		return intent.Outcome{Result: intent.DegradedResult(), Degraded: true, Reason: f.err.Error()}
	}
	return intent.Outcome{Result: f.result}
}

// fakeRouter implements Router with a configurable route function.
type fakeRouter struct {
	route func(ctx context.Context, req router.Request, emit respond.EmitFunc) (*router.Envelope, error)
}

func (f *fakeRouter) Route(ctx context.Context, req router.Request, emit respond.EmitFunc) (*router.Envelope, error) {
	return f.route(ctx, req, emit)
}

func envelopeRouter(env *router.Envelope) *fakeRouter {
	return &fakeRouter{route: func(context.Context, router.Request, respond.EmitFunc) (*router.Envelope, error) {
		return env, nil
	}}
}

func newTestServer(t *testing.T, classifier Classifier, rt Router) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Logger:     log.NewNop(),
		Classifier: classifier,
		Router:     rt,
	})
	require.NoError(t, err)
	return srv
}

func postJSON(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

// decodeSSE parses data-only SSE frames into raw JSON payloads.
func decodeSSE(t *testing.T, body string) []map[string]any {
	t.Helper()
	var events []map[string]any
	for _, frame := range strings.Split(body, "\n\n") {
		frame = strings.TrimSpace(frame)
		if frame == "" {
			continue
		}
		require.True(t, strings.HasPrefix(frame, "data: "), "frame %q must be data-only", frame)
		var event map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(frame, "data: ")), &event))
		events = append(events, event)
	}
	return events
}

func TestNewServerRequiresDependencies(t *testing.T) {
	_, err := NewServer(ServerConfig{Router: &fakeRouter{}})
	assert.Error(t, err)

	_, err = NewServer(ServerConfig{Classifier: &fakeClassifier{}})
	assert.Error(t, err)
}

func TestChatValidation(t *testing.T) {
	srv := newTestServer(t, &fakeClassifier{}, envelopeRouter(nil))

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{not json"},
		{"missing message", `{"tenantId":"T1"}`},
		{"blank message", `{"message":"   ","tenantId":"T1"}`},
		{"missing tenant", `{"message":"hello"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, srv, "/api/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestChatEnvelopeResponse(t *testing.T) {
	classifier := &fakeClassifier{result: intent.Result{
		Intent: intent.ProductsList, Confidence: 0.95, Parameters: map[string]any{},
	}}
	rt := &fakeRouter{route: func(_ context.Context, req router.Request, _ respond.EmitFunc) (*router.Envelope, error) {
		require.Equal(t, "T1", req.TenantID)
		require.Equal(t, intent.ProductsList, req.Result.Intent)
		return &router.Envelope{Intent: req.Result.Intent, Answer: "You have 12 products."}, nil
	}}
	srv := newTestServer(t, classifier, rt)

	rec := postJSON(t, srv, "/api/chat", `{"message":"List products","tenantId":"T1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env router.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "You have 12 products.", env.Answer)
	assert.Equal(t, intent.ProductsList, env.Intent)
}

func TestChatStreamsSSE(t *testing.T) {
	classifier := &fakeClassifier{result: intent.Result{
		Intent: intent.KnowledgeExplainer, Confidence: 0.9, Parameters: map[string]any{},
	}}
	chunks := []knowledge.Chunk{{ID: "c1", Source: "sop.md", ChunkIndex: 0, Content: "text", Similarity: 0.8}}
	rt := &fakeRouter{route: func(ctx context.Context, req router.Request, emit respond.EmitFunc) (*router.Envelope, error) {
		require.NotNil(t, emit)
		require.NoError(t, emit(ctx, respond.SourcesEvent{Sources: chunks, Intent: req.Result.Intent}))
		require.NoError(t, emit(ctx, respond.DeltaEvent{Answer: "To create"}))
		require.NoError(t, emit(ctx, respond.DeltaEvent{Answer: "To create a PO, open Purchasing."}))
		require.NoError(t, emit(ctx, respond.DoneEvent{Answer: "To create a PO, open Purchasing.", Done: true, Intent: req.Result.Intent}))
		return nil, nil
	}}
	srv := newTestServer(t, classifier, rt)

	rec := postJSON(t, srv, "/api/chat", `{"message":"Explain the purchase order workflow","tenantId":"T1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))

	events := decodeSSE(t, rec.Body.String())
	require.Len(t, events, 4)

	// First event carries sources and no answer.
	_, hasSources := events[0]["sources"]
	assert.True(t, hasSources)
	_, hasAnswer := events[0]["answer"]
	assert.False(t, hasAnswer)

	// Deltas are cumulative with done=false.
	assert.Equal(t, "To create", events[1]["answer"])
	assert.Equal(t, false, events[1]["done"])
	assert.Equal(t, "To create a PO, open Purchasing.", events[2]["answer"])

	// Terminal event carries done=true and the full answer.
	last := events[len(events)-1]
	assert.Equal(t, true, last["done"])
	assert.Equal(t, "To create a PO, open Purchasing.", last["answer"])
}

func TestChatRoutingErrorBeforeStream(t *testing.T) {
	rt := &fakeRouter{route: func(context.Context, router.Request, respond.EmitFunc) (*router.Envelope, error) {
		return nil, assert.AnError
	}}
	srv := newTestServer(t, &fakeClassifier{result: intent.DegradedResult()}, rt)

	rec := postJSON(t, srv, "/api/chat", `{"message":"hello","tenantId":"T1"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "answer generation failed", body.Error)
	assert.NotEmpty(t, body.Details)
}

func TestChatRoutingErrorMidStream(t *testing.T) {
	rt := &fakeRouter{route: func(ctx context.Context, req router.Request, emit respond.EmitFunc) (*router.Envelope, error) {
		require.NoError(t, emit(ctx, respond.SourcesEvent{Sources: nil, Intent: req.Result.Intent}))
		return nil, assert.AnError
	}}
	srv := newTestServer(t, &fakeClassifier{result: intent.Result{Intent: intent.KnowledgeExplainer}}, rt)

	rec := postJSON(t, srv, "/api/chat", `{"message":"how do refunds work","tenantId":"T1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := decodeSSE(t, rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "answer generation failed", events[1]["error"])
}

func TestChatHistoryTruncated(t *testing.T) {
	var got []respond.Message
	rt := &fakeRouter{route: func(_ context.Context, req router.Request, _ respond.EmitFunc) (*router.Envelope, error) {
		got = req.History
		return &router.Envelope{Intent: req.Result.Intent, Answer: "ok"}, nil
	}}
	srv := newTestServer(t, &fakeClassifier{result: intent.Result{Intent: intent.ProductsList}}, rt)

	history := make([]respond.Message, 0, 25)
	for range 25 {
		history = append(history, respond.Message{Role: "user", Content: "m"})
	}
	payload, err := json.Marshal(chatRequest{Message: "List products", TenantID: "T1", History: history})
	require.NoError(t, err)

	rec := postJSON(t, srv, "/api/chat", string(payload))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, got, respond.MaxHistoryMessages)
}

func TestClassify(t *testing.T) {
	classifier := &fakeClassifier{result: intent.Result{
		Intent:     intent.ProductsSearch,
		Confidence: 0.92,
		Parameters: map[string]any{"searchTerm": "usb cable"},
	}}
	srv := newTestServer(t, classifier, envelopeRouter(nil))

	rec := postJSON(t, srv, "/api/classify", `{"message":"find usb cables"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result intent.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, intent.ProductsSearch, result.Intent)
	assert.InDelta(t, 0.92, result.Confidence, 1e-9)
	assert.Equal(t, "usb cable", result.Parameters["searchTerm"])
}

func TestClassifyValidation(t *testing.T) {
	srv := newTestServer(t, &fakeClassifier{}, envelopeRouter(nil))

	rec := postJSON(t, srv, "/api/classify", `{"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifyProviderError(t *testing.T) {
	srv := newTestServer(t, &fakeClassifier{err: assert.AnError}, envelopeRouter(nil))

	rec := postJSON(t, srv, "/api/classify", `{"message":"hello"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Details)
}

func TestHealthProbes(t *testing.T) {
	srv := newTestServer(t, &fakeClassifier{}, envelopeRouter(nil))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	rt := &fakeRouter{route: func(context.Context, router.Request, respond.EmitFunc) (*router.Envelope, error) {
		panic("boom")
	}}
	srv := newTestServer(t, &fakeClassifier{result: intent.Result{Intent: intent.Fallback}}, rt)

	rec := postJSON(t, srv, "/api/chat", `{"message":"hi","tenantId":"T1"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimitExceeded(t *testing.T) {
	srv, err := NewServer(ServerConfig{
		Logger:     log.NewNop(),
		Classifier: &fakeClassifier{result: intent.Result{Intent: intent.ProductsList}},
		Router:     envelopeRouter(&router.Envelope{Intent: intent.ProductsList, Answer: "ok"}),
		RateRPS:    1,
		RateBurst:  2,
	})
	require.NoError(t, err)

	var last int
	for range 5 {
		rec := postJSON(t, srv, "/api/chat", `{"message":"List products","tenantId":"T1"}`)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(t, &fakeClassifier{result: intent.Result{Intent: intent.ProductsList}},
		envelopeRouter(&router.Envelope{Intent: intent.ProductsList, Answer: "ok"}))

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"x","tenantId":"T1"}`))
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}
