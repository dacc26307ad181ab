package research

import (
	"context"
	"strings"

	"pressroom/internal/core"
	"pressroom/internal/knowledge"
	"pressroom/internal/logger"
	"pressroom/internal/search"
)

const (
	// DefaultMaxInternal bounds passages kept from the knowledge index.
	DefaultMaxInternal = 12
	// DefaultMaxWeb bounds citations kept from web search.
	DefaultMaxWeb = 10
)

// KnowledgeSource is the internal semantic index as seen by the collector.
type KnowledgeSource interface {
	Query(ctx context.Context, query string, limit int) ([]knowledge.Hit, error)
}

// Collector gathers sourced facts for a topic from the internal
// knowledge index and/or live web search. Sub-source failures degrade
// grounding confidence instead of failing the build; an empty bundle
// with confidence 0 is a valid handoff.
type Collector struct {
	internal    KnowledgeSource
	web         search.Provider
	maxInternal int
	maxWeb      int
}

// NewCollector creates a research collector. Either source may be nil;
// a nil source behaves like a source that returned nothing.
func NewCollector(internal KnowledgeSource, web search.Provider) *Collector {
	return &Collector{
		internal:    internal,
		web:         web,
		maxInternal: DefaultMaxInternal,
		maxWeb:      DefaultMaxWeb,
	}
}

// SetLimits overrides the per-source retention bounds.
func (c *Collector) SetLimits(maxInternal, maxWeb int) {
	if maxInternal > 0 {
		c.maxInternal = maxInternal
	}
	if maxWeb > 0 {
		c.maxWeb = maxWeb
	}
}

// Collect gathers facts for topic+keywords from the enabled sources.
func (c *Collector) Collect(ctx context.Context, topic string, keywords []string, useInternal, useWeb bool) core.ResearchBundle {
	query := buildQuery(topic, keywords)

	var facts []core.SourcedFact
	internalOK := false
	webOK := false

	if useInternal && c.internal != nil {
		hits, err := c.internal.Query(ctx, query, c.maxInternal)
		if err != nil {
			logger.Warn("internal knowledge query failed, continuing without it", "query", query, "error", err.Error())
		} else {
			internalOK = true
			for _, hit := range hits {
				if hit.ID == "" {
					continue // No resolvable locator; drop rather than surface
				}
				facts = append(facts, core.SourcedFact{
					Title:   hit.Title,
					Locator: hit.ID,
					Snippet: excerpt(hit.Content, 280),
					Source:  core.SourceInternal,
				})
			}
		}
	}

	if useWeb && c.web != nil {
		results, err := c.web.Search(ctx, query, search.Config{MaxResults: c.maxWeb})
		if err != nil {
			logger.Warn("web research failed, continuing without it", "query", query, "error", err.Error())
		} else {
			webOK = true
			for _, r := range results {
				if r.URL == "" {
					continue // Citations must carry a resolvable locator
				}
				facts = append(facts, core.SourcedFact{
					Title:   r.Title,
					Locator: r.URL,
					Snippet: r.Snippet,
					Source:  core.SourceWeb,
				})
			}
		}
	}

	degraded := (useInternal && c.internal != nil && !internalOK) ||
		(useWeb && c.web != nil && !webOK)
	bundle := core.ResearchBundle{
		Facts:      facts,
		Confidence: confidence(facts, degraded),
	}

	logger.Info("research collected",
		"topic", topic,
		"facts", len(bundle.Facts),
		"confidence", bundle.Confidence,
		"internal_ok", internalOK,
		"web_ok", webOK,
	)

	return bundle
}

// buildQuery joins topic and keywords into one search query.
func buildQuery(topic string, keywords []string) string {
	parts := []string{strings.TrimSpace(topic)}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" && !strings.EqualFold(kw, topic) {
			parts = append(parts, kw)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// confidence estimates grounding strength from citation count and
// source diversity, clipped to [0,100]. A requested sub-source that
// failed caps the result.
func confidence(facts []core.SourcedFact, degraded bool) int {
	if len(facts) == 0 {
		return 0
	}

	score := len(facts) * 8
	if score > 70 {
		score = 70
	}

	hasInternal := false
	hasWeb := false
	for _, f := range facts {
		switch f.Source {
		case core.SourceInternal:
			hasInternal = true
		case core.SourceWeb:
			hasWeb = true
		}
	}

	switch {
	case hasInternal && hasWeb:
		score += 30
	case hasInternal || hasWeb:
		score += 15
	}

	if degraded && score > 60 {
		score = 60
	}

	if score > 100 {
		score = 100
	}
	return score
}

// excerpt trims content to at most n runes on a word boundary.
func excerpt(content string, n int) string {
	content = strings.TrimSpace(content)
	if len(content) <= n {
		return content
	}
	cut := content[:n]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
