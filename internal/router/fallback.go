package router

import (
	"context"
	"regexp"
	"strings"

	"github.com/opspilot/opspilot/internal/respond"
)

// Static replies used by the fallback chain.
const (
	greetingReply = "Hi! How can I help you today?"

	gibberishReply = "I'm not sure I understand. Could you rephrase that?"

	genericReply = "I can help with your business operations — ask me about " +
		"products, orders, inventory, purchase orders, suppliers or reports."

	syncingReply = "I'm still syncing your knowledge base. Please check back " +
		"in a few minutes, or ask me about your live data instead."
)

// greetings is the exact-match set for the greeting check. Matching is
// case-insensitive on the trimmed message; substrings do not count, so
// "hi there" is not a greeting.
var greetings = map[string]struct{}{
	"hi":             {},
	"hello":          {},
	"hey":            {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
}

// gibberishPattern matches a single long run of letters with no spaces,
// e.g. keyboard mash like "asdfgh".
var gibberishPattern = regexp.MustCompile(`(?i)^[a-z]{6,}$`)

// fallbackRule is one cheap local check. Rules run in order; the first match
// is terminal.
type fallbackRule struct {
	name  string
	match func(trimmed string) bool
	reply string
}

var fallbackRules = []fallbackRule{
	{
		name: "greeting",
		match: func(trimmed string) bool {
			_, ok := greetings[strings.ToLower(trimmed)]
			return ok
		},
		reply: greetingReply,
	},
	{
		name: "gibberish",
		match: func(trimmed string) bool {
			if len(trimmed) < 3 {
				return true
			}
			return !strings.Contains(trimmed, " ") && gibberishPattern.MatchString(trimmed)
		},
		reply: gibberishReply,
	},
}

// matchFallbackRule runs the static checks against the trimmed message.
func matchFallbackRule(message string) (string, bool) {
	trimmed := strings.TrimSpace(message)
	for _, rule := range fallbackRules {
		if rule.match(trimmed) {
			return rule.reply, true
		}
	}
	return "", false
}

// routeFallback runs the heuristic chain: static rules first, then retrieval
// as a best effort. A retrieval error or an empty result produces the generic
// static reply; expensive calls never run for messages a cheap check catches.
func (r *Router) routeFallback(ctx context.Context, req Request, emit respond.EmitFunc) (*Envelope, error) {
	if reply, ok := matchFallbackRule(req.Message); ok {
		return &Envelope{Intent: req.Result.Intent, Answer: reply}, nil
	}

	chunks, err := r.retriever.Retrieve(ctx, req.Message, req.TenantID, r.cfg.TopK)
	if err != nil {
		r.logger.Warn("fallback retrieval failed", "error", err)
		return &Envelope{Intent: req.Result.Intent, Answer: genericReply}, nil
	}
	if len(chunks) == 0 {
		return &Envelope{Intent: req.Result.Intent, Answer: genericReply}, nil
	}

	return r.narrate(ctx, req, chunks, emit)
}
