// Package router maps a classified intent to one of four handling strategies
// and orchestrates the chosen one.
//
// The partition of the taxonomy into strategies is the single source of truth
// for dispatch: navigation.page routes to the navigation strategy, the
// enumerated live-data intents to the live-data strategy, knowledge.explainer
// to retrieval, and everything else (including unknown intents) to the
// fallback chain. Adding an intent means adding it to exactly one partition;
// no other code path references intent names.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/opspilot/opspilot/internal/intent"
	"github.com/opspilot/opspilot/internal/knowledge"
	"github.com/opspilot/opspilot/internal/livedata"
	"github.com/opspilot/opspilot/internal/log"
	"github.com/opspilot/opspilot/internal/nav"
	"github.com/opspilot/opspilot/internal/respond"
	"github.com/opspilot/opspilot/internal/tenant"
)

// Strategy identifies one of the four handling strategies.
type Strategy int

const (
	StrategyNavigation Strategy = iota
	StrategyLiveData
	StrategyKnowledge
	StrategyFallback
)

// String implements fmt.Stringer for logging.
func (s Strategy) String() string {
	switch s {
	case StrategyNavigation:
		return "navigation"
	case StrategyLiveData:
		return "live_data"
	case StrategyKnowledge:
		return "knowledge"
	default:
		return "fallback"
	}
}

// dispatch is built once at package init. Lookups missing from the table fall
// to the fallback strategy, which keeps the partition total over arbitrary
// intents.
var dispatch = buildDispatch()

func buildDispatch() map[intent.Intent]Strategy {
	table := make(map[intent.Intent]Strategy, len(intent.LiveData)+2)
	for _, in := range intent.LiveData {
		table[in] = StrategyLiveData
	}
	table[intent.Navigation] = StrategyNavigation
	table[intent.KnowledgeExplainer] = StrategyKnowledge
	return table
}

// StrategyFor returns the strategy an intent routes to.
func StrategyFor(in intent.Intent) Strategy {
	if s, ok := dispatch[in]; ok {
		return s
	}
	return StrategyFallback
}

// Action instructs the client to perform a UI action.
type Action struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// Envelope is the single non-streaming response shape. Streaming replies
// deliver the same information incrementally through respond events.
type Envelope struct {
	Intent  intent.Intent     `json:"intent"`
	Sources []knowledge.Chunk `json:"sources,omitempty"`
	Answer  string            `json:"answer"`
	Action  *Action           `json:"action,omitempty"`
	Data    any               `json:"data,omitempty"`
}

// Request carries everything one routed request needs. TenantID is mandatory
// and validated by the caller before routing.
type Request struct {
	Result   intent.Result
	TenantID string
	Message  string
	History  []respond.Message
}

// Retriever is the slice of the knowledge store the router needs.
type Retriever interface {
	Retrieve(ctx context.Context, query, tenantID string, topK int) ([]knowledge.Chunk, error)
}

// Responder narrates retrieval-grounded answers, streaming or not.
type Responder interface {
	Stream(ctx context.Context, in intent.Intent, question string, chunks []knowledge.Chunk, history []respond.Message, emit respond.EmitFunc) (string, error)
	Generate(ctx context.Context, question string, chunks []knowledge.Chunk, history []respond.Message) (string, error)
}

// CompanyFinder resolves tenant company metadata; returns (nil, nil) when the
// tenant is unknown.
type CompanyFinder interface {
	Company(ctx context.Context, tenantID string) (*tenant.Company, error)
}

// Config tunes routing behavior.
type Config struct {
	// TopK is the number of chunks kept after the similarity filter.
	// Default 10.
	TopK int

	// Streaming enables SSE replies for retrieval-grounded answers. When
	// false every strategy returns a single Envelope.
	Streaming bool
}

// Router orchestrates the four strategies.
type Router struct {
	retriever Retriever
	responder Responder
	live      livedata.Handler
	companies CompanyFinder
	cfg       Config
	logger    log.Logger
}

// New creates a Router. logger may be nil.
func New(retriever Retriever, responder Responder, live livedata.Handler, companies CompanyFinder, cfg Config, logger log.Logger) *Router {
	if cfg.TopK <= 0 {
		cfg.TopK = 10
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Router{
		retriever: retriever,
		responder: responder,
		live:      live,
		companies: companies,
		cfg:       cfg,
		logger:    logger,
	}
}

// Route dispatches the request. When the reply streams, events go through
// emit and the returned Envelope is nil; otherwise emit is untouched and the
// Envelope carries the complete reply. A nil emit forces non-streaming.
func (r *Router) Route(ctx context.Context, req Request, emit respond.EmitFunc) (*Envelope, error) {
	strategy := StrategyFor(req.Result.Intent)
	r.logger.Debug("routing request",
		"intent", req.Result.Intent,
		"strategy", strategy.String(),
		"tenant_id", req.TenantID)

	switch strategy {
	case StrategyNavigation:
		return r.routeNavigation(req), nil
	case StrategyLiveData:
		return r.routeLiveData(ctx, req), nil
	case StrategyKnowledge:
		return r.routeKnowledge(ctx, req, emit)
	default:
		return r.routeFallback(ctx, req, emit)
	}
}

// routeNavigation resolves the requested page. Terminal and non-streaming.
func (r *Router) routeNavigation(req Request) *Envelope {
	name := req.Message
	if page, ok := req.Result.Parameters[intent.ParamPage].(string); ok && page != "" {
		name = page
	}

	target, ok := nav.Find(name)
	if !ok {
		return &Envelope{Intent: req.Result.Intent, Answer: nav.Help}
	}

	return &Envelope{
		Intent: req.Result.Intent,
		Answer: fmt.Sprintf("I'll take you to the %s page.", target.Page),
		Action: &Action{Type: "navigate", URL: target.URL},
	}
}

// routeLiveData invokes the live-data handler. The only strategy that returns
// operational data; handler errors become answer content, never a transport
// failure.
func (r *Router) routeLiveData(ctx context.Context, req Request) *Envelope {
	result := r.live.Handle(ctx, req.Result.Intent, req.Result.Parameters, req.TenantID)

	if !result.Success {
		return &Envelope{
			Intent: req.Result.Intent,
			Answer: "Sorry, I encountered an error: " + result.Err,
		}
	}

	answer := result.Formatted
	if answer == "" {
		answer = "Query executed successfully."
	}
	return &Envelope{
		Intent: req.Result.Intent,
		Answer: answer,
		Data:   result.Data,
	}
}

// routeKnowledge answers from the tenant knowledge base. A navigation-shaped
// question short-circuits to canned guidance before any retrieval.
func (r *Router) routeKnowledge(ctx context.Context, req Request, emit respond.EmitFunc) (*Envelope, error) {
	if answer, ok := nav.Guidance(req.Message); ok {
		return &Envelope{Intent: req.Result.Intent, Answer: answer}, nil
	}

	chunks, err := r.retriever.Retrieve(ctx, req.Message, req.TenantID, r.cfg.TopK)
	if err != nil {
		// Retrieval failure degrades to a static answer rather than failing
		// the request.
		r.logger.Warn("retrieval failed, degrading", "error", err)
		return &Envelope{Intent: req.Result.Intent, Answer: genericReply}, nil
	}

	if len(chunks) == 0 {
		return r.zeroResultReply(ctx, req), nil
	}

	return r.narrate(ctx, req, chunks, emit)
}

// zeroResultReply is the two-tier fallback for empty retrieval: a cheap
// structured company lookup for "what's my company's name" shapes, then a
// static message.
func (r *Router) zeroResultReply(ctx context.Context, req Request) *Envelope {
	lower := strings.ToLower(req.Message)
	asksCompany := strings.Contains(lower, "company") &&
		(strings.Contains(lower, "name") || strings.Contains(lower, "what") || strings.Contains(lower, "who"))

	if asksCompany && r.companies != nil {
		company, err := r.companies.Company(ctx, req.TenantID)
		if err != nil {
			r.logger.Warn("company lookup failed", "error", err)
		} else if company != nil {
			return &Envelope{Intent: req.Result.Intent, Answer: company.Describe()}
		}
	}

	return &Envelope{Intent: req.Result.Intent, Answer: syncingReply}
}

// narrate streams the grounded answer when streaming is on, otherwise returns
// a complete envelope with sources attached.
func (r *Router) narrate(ctx context.Context, req Request, chunks []knowledge.Chunk, emit respond.EmitFunc) (*Envelope, error) {
	if r.cfg.Streaming && emit != nil {
		if _, err := r.responder.Stream(ctx, req.Result.Intent, req.Message, chunks, req.History, emit); err != nil {
			return nil, err
		}
		return nil, nil
	}

	answer, err := r.responder.Generate(ctx, req.Message, chunks, req.History)
	if err != nil {
		r.logger.Warn("generation failed, degrading", "error", err)
		return &Envelope{Intent: req.Result.Intent, Answer: genericReply}, nil
	}
	return &Envelope{
		Intent:  req.Result.Intent,
		Sources: chunks,
		Answer:  answer,
	}, nil
}
