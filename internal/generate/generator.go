// Package generate turns natural-language threat-hunting hypotheses into SQL
// queries by prompting a text-generation provider. It is a collaborator of the
// evaluation engine, not part of it: the engine only consumes the resulting
// {hypothesis_id, hypothesis_name, sql_query} triples.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/encoding/json"

	"github.com/trailhunt-ai/trailhunt/engine/internal/cache"
	"github.com/trailhunt-ai/trailhunt/engine/internal/llm"
	"github.com/trailhunt-ai/trailhunt/engine/pkg/types"
)

const (
	generationTemperature = 0.1
	generationMaxTokens   = 2000

	// fallbackQuery is used when a provider response cannot be parsed. It
	// executes cleanly, so the hypothesis is scored on (poor) results rather
	// than dropped.
	fallbackQuery = "SELECT * FROM cloudtrail_logs LIMIT 10"
)

// Generator produces one GeneratedQuery per hypothesis via an LLM provider.
type Generator struct {
	provider llm.Provider
	model    string
	logger   *slog.Logger
	cache    *cache.QueryCache
}

// Option configures optional Generator behavior.
type Option func(*Generator)

// WithCache enables the persistent generation cache: hypotheses already
// generated for the same model are served from the cache without a provider
// call.
func WithCache(c *cache.QueryCache) Option {
	return func(g *Generator) { g.cache = c }
}

// New creates a Generator. An empty model selects the provider default.
func New(provider llm.Provider, model string, logger *slog.Logger, opts ...Option) *Generator {
	if model == "" {
		model = provider.DefaultModel()
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &Generator{provider: provider, model: model, logger: logger}
	for _, o := range opts {
		o(g)
	}
	return g
}

// queryResponse is the JSON object the provider is instructed to return.
type queryResponse struct {
	Interpretation string   `json:"interpretation"`
	Reasoning      string   `json:"reasoning"`
	Assumptions    []string `json:"assumptions"`
	Confidence     float64  `json:"confidence"`
	KeyFields      []string `json:"key_fields"`
	SQLQuery       string   `json:"sql_query"`
}

// GenerateQuery generates a SQL query for one hypothesis. A provider error is
// returned to the caller; an unparseable response degrades to a fallback query
// with zero confidence rather than failing.
func (g *Generator) GenerateQuery(ctx context.Context, h types.Hypothesis) (*types.GeneratedQuery, error) {
	if g.cache != nil {
		hash := cache.ContentHash(h.Text)
		if cached, err := g.cache.Get(hash, g.model); err == nil && cached != nil {
			g.logger.Debug("generation cache hit", "id", h.ID)
			return cached, nil
		}
	}

	req := &llm.CompletionRequest{
		Model:        g.model,
		SystemPrompt: fmt.Sprintf(systemPromptTemplate, datasetSchema),
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf(userPromptTemplate, h.ID, h.Name, h.Text)},
		},
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	}

	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate query for hypothesis %s: %w", h.ID, err)
	}

	out := g.parseResponse(h, resp.Content)

	if g.cache != nil {
		hash := cache.ContentHash(h.Text)
		if err := g.cache.Put(hash, g.model, out); err != nil {
			g.logger.Warn("generation cache write failed", "id", h.ID, "err", err)
		}
	}

	return out, nil
}

// parseResponse decodes the provider reply into a GeneratedQuery, stripping
// markdown code fences if present. Parse failures produce the fallback query.
func (g *Generator) parseResponse(h types.Hypothesis, raw string) *types.GeneratedQuery {
	cleaned := stripCodeFences(raw)

	var parsed queryResponse
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		g.logger.Warn("unparseable generation response, using fallback query",
			"id", h.ID, "err", err)
		return &types.GeneratedQuery{
			HypothesisID:   h.ID,
			HypothesisName: h.Name,
			HypothesisText: h.Text,
			SQLQuery:       fallbackQuery,
			Explanation: types.QueryExplanation{
				Interpretation: "Failed to parse generation response",
				Reasoning:      "Error occurred during generation",
				Assumptions:    []string{},
				Confidence:     0.0,
				KeyFields:      []string{},
			},
		}
	}

	return &types.GeneratedQuery{
		HypothesisID:   h.ID,
		HypothesisName: h.Name,
		HypothesisText: h.Text,
		SQLQuery:       parsed.SQLQuery,
		Explanation: types.QueryExplanation{
			Interpretation: parsed.Interpretation,
			Reasoning:      parsed.Reasoning,
			Assumptions:    parsed.Assumptions,
			Confidence:     parsed.Confidence,
			KeyFields:      parsed.KeyFields,
		},
	}
}

// GenerateBatch generates queries for all hypotheses in order. A hypothesis
// whose generation call fails outright is logged and skipped; the batch
// continues.
func (g *Generator) GenerateBatch(ctx context.Context, hypotheses []types.Hypothesis) []types.GeneratedQuery {
	out := make([]types.GeneratedQuery, 0, len(hypotheses))
	for i, h := range hypotheses {
		g.logger.Info("generating query", "n", i+1, "total", len(hypotheses), "name", h.Name)
		q, err := g.GenerateQuery(ctx, h)
		if err != nil {
			g.logger.Error("generation failed, skipping hypothesis", "id", h.ID, "err", err)
			continue
		}
		out = append(out, *q)
	}
	return out
}

// stripCodeFences removes a surrounding markdown code fence from s.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
