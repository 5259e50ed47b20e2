// Package model wraps the Genkit completion and embedding providers behind
// the narrow interfaces the rest of the application consumes.
package model

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/opspilot/opspilot/internal/respond"
)

// Config selects the completion model and its sampling behavior for routed
// answers. Classification always runs at temperature 0 regardless of
// Temperature so identical messages classify identically.
type Config struct {
	ModelName   string
	Temperature float32
}

// Client issues completion calls through a Genkit instance. It implements
// intent.Completer and respond.Generator.
// Client is safe for concurrent use by multiple goroutines.
type Client struct {
	g   *genkit.Genkit
	cfg Config
}

// NewClient creates a Client.
func NewClient(g *genkit.Genkit, cfg Config) (*Client, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return &Client{g: g, cfg: cfg}, nil
}

// fullModelName qualifies a bare model name with the googleai provider
// prefix. Names that already carry a provider pass through unchanged.
func fullModelName(name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return "googleai/" + name
}

// Complete runs a single-turn deterministic completion. Used by the intent
// classifier, which needs the same message to classify the same way every
// time.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(fullModelName(c.cfg.ModelName)),
		ai.WithSystem(system),
		ai.WithPrompt(prompt),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr[float32](0),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	return resp.Text(), nil
}

// Generate runs a multi-turn completion over the request history. When cb is
// non-nil, token deltas stream through it as they arrive; the complete final
// text is returned either way.
func (c *Client) Generate(ctx context.Context, req respond.GenerateRequest, cb func(ctx context.Context, chunk string) error) (string, error) {
	messages := make([]*ai.Message, 0, len(req.History)+1)
	for _, m := range req.History {
		switch m.Role {
		case "assistant", "model":
			messages = append(messages, ai.NewModelMessage(ai.NewTextPart(m.Content)))
		default:
			messages = append(messages, ai.NewUserMessage(ai.NewTextPart(m.Content)))
		}
	}
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(req.Prompt)))

	temperature := req.Temperature
	if temperature == 0 {
		temperature = c.cfg.Temperature
	}

	opts := []ai.GenerateOption{
		ai.WithModelName(fullModelName(c.cfg.ModelName)),
		ai.WithSystem(req.System),
		ai.WithMessages(messages...),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature: genai.Ptr(temperature),
		}),
	}
	if cb != nil {
		opts = append(opts, ai.WithStreaming(func(ctx context.Context, chunk *ai.ModelResponseChunk) error {
			return cb(ctx, chunk.Text())
		}))
	}

	resp, err := genkit.Generate(ctx, c.g, opts...)
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return resp.Text(), nil
}
