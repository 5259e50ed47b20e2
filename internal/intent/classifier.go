package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/opspilot/opspilot/internal/log"
)

// Completer is the narrow slice of the completion provider the classifier
// needs: a single non-streaming completion at deterministic temperature.
// Defined here, by the consumer, so tests can substitute a fake.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// systemPrompt instructs the completion provider to emit strict JSON matching
// Result. The decision rule between knowledge.explainer and action intents is
// embedded here: procedural/identity questions ("how do I…", "what should
// I…", "steps to…") are explainer; direct imperatives ("show", "list",
// "get") and bare noun-phrase questions ("what products") map to the
// corresponding action intent.
const systemPrompt = `You are an intent classifier for a business operations platform.
Classify the user message into exactly one intent and respond with strict JSON only:

{"intent": "<intent>", "confidence": <0.0-1.0>, "parameters": {...}}

Intents:
- navigation.page: the user wants to open an application page. parameters MUST include {"page": "<page name>"}.
- knowledge.explainer: procedural or identity questions — "how do I...", "what should I...", "steps to...", "why...". Use this for questions about processes, NOT for direct data requests.
- fallback: greetings, small talk, or anything that fits no other intent.
- Live data intents (direct imperatives like "show/list/get" or bare noun-phrase questions like "what products" map here, NOT to knowledge.explainer):
  inventory.check, inventory.low_stock, inventory.out_of_stock, inventory.value,
  products.list, products.search, products.detail, products.count, products.by_category,
  orders.recent, orders.search, orders.status, orders.pending, orders.count,
  purchase_orders.list, purchase_orders.search, purchase_orders.status, purchase_orders.pending,
  audits.recent, audits.search,
  suppliers.list, suppliers.search, suppliers.detail,
  warehouses.list, warehouses.search, warehouses.stock,
  customers.list, customers.search, customers.detail,
  categories.list, brands.list,
  analytics.sales, analytics.inventory, analytics.top_products

For lookup/search intents put free-text search terms in parameters under
"searchTerm", "sku" or "orderNumber". Do not invent other keys.
Respond with the JSON object only, no prose, no code fences.`

// Classifier classifies messages via an external completion provider.
type Classifier struct {
	completer Completer
	logger    log.Logger
}

// NewClassifier creates a Classifier. logger may be nil.
func NewClassifier(completer Completer, logger log.Logger) *Classifier {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Classifier{completer: completer, logger: logger}
}

// Classify classifies a trimmed, non-empty message. Callers must reject empty
// input before invoking. Errors are returned raw; use Outcome for the
// degrading variant the router consumes.
func (c *Classifier) Classify(ctx context.Context, message string) (Result, error) {
	raw, err := c.completer.Complete(ctx, systemPrompt, message)
	if err != nil {
		return Result{}, fmt.Errorf("completion failed: %w", err)
	}

	result, err := parseResult(raw)
	if err != nil {
		return Result{}, fmt.Errorf("parsing classification: %w", err)
	}

	c.logger.Debug("classified message",
		"intent", result.Intent,
		"confidence", result.Confidence)
	return result, nil
}

// Outcome classifies the message and degrades any failure to the low
// confidence fallback result. It never returns an error: classifier failures
// must not abort the request.
func (c *Classifier) Outcome(ctx context.Context, message string) Outcome {
	result, err := c.Classify(ctx, message)
	if err != nil {
		c.logger.Warn("classification degraded to fallback", "error", err)
		return Outcome{Result: DegradedResult(), Degraded: true, Reason: err.Error()}
	}
	return Outcome{Result: result}
}

// parseResult decodes the provider output into a Result. Providers sometimes
// wrap JSON in markdown fences despite instructions; those are stripped
// before decoding. Unknown intents are preserved as-is; the router's
// partition sends them to the fallback strategy.
func parseResult(raw string) (Result, error) {
	cleaned := stripFences(strings.TrimSpace(raw))
	if cleaned == "" {
		return Result{}, fmt.Errorf("empty completion output")
	}

	var result Result
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return Result{}, fmt.Errorf("invalid JSON %q: %w", truncate(cleaned, 120), err)
	}

	if result.Intent == "" {
		return Result{}, fmt.Errorf("missing intent in %q", truncate(cleaned, 120))
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return Result{}, fmt.Errorf("confidence %v out of range [0,1]", result.Confidence)
	}
	if result.Parameters == nil {
		result.Parameters = map[string]any{}
	}

	return result, nil
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
