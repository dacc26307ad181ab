package analyzer

import (
	"strings"

	"pressroom/internal/core"
)

// EnhanceModeMinWords is the raw-content length at which a build reworks
// the supplied draft instead of generating from scratch.
const EnhanceModeMinWords = 200

// Field presence weights. Substitutable fields (topic, title, raw
// content) are counted once through the subject check.
const (
	weightSubject    = 30
	weightRawContent = 25
	weightKeyPoints  = 10
	weightCategory   = 10
	weightKeywords   = 10
	weightAudience   = 10
	weightTone       = 5
)

// Analyzer scores completeness of a (possibly partial) ContentRequest.
// It is a pure function of its input: no network calls, no state, safe
// to invoke on every keystroke.
type Analyzer struct{}

// New creates an input analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze computes a completeness score, the generation mode, and the
// inputs still missing. Identical input always yields identical output.
func (a *Analyzer) Analyze(req core.ContentRequest) core.CompletenessAnalysis {
	req.Normalize()

	rawWords := wordCount(req.RawContent)
	hasSubject := strings.TrimSpace(req.Topic) != "" ||
		strings.TrimSpace(req.Title) != "" ||
		rawWords > 0

	score := 0
	if hasSubject {
		score += weightSubject
	}
	if rawWords >= EnhanceModeMinWords {
		score += weightRawContent
	} else if rawWords > 0 {
		// Partial credit for a short draft
		score += weightRawContent * rawWords / EnhanceModeMinWords
	}
	if len(req.KeyPoints) > 0 {
		score += weightKeyPoints
	}
	if strings.TrimSpace(req.Category) != "" {
		score += weightCategory
	}
	if len(req.Keywords) > 0 {
		score += weightKeywords
	}
	if strings.TrimSpace(req.Audience) != "" {
		score += weightAudience
	}
	if strings.TrimSpace(req.Tone) != "" {
		score += weightTone
	}

	mode := core.ModeGenerate
	if rawWords >= EnhanceModeMinWords {
		mode = core.ModeEnhance
	}

	var missing []string
	if !hasSubject {
		missing = append(missing, "topic")
	}
	if rawWords < EnhanceModeMinWords {
		missing = append(missing, "raw_content")
	}
	if strings.TrimSpace(req.Category) == "" {
		missing = append(missing, "category")
	}
	if len(req.Keywords) == 0 {
		missing = append(missing, "keywords")
	}

	return core.CompletenessAnalysis{
		Score:         score,
		Label:         labelForScore(score),
		Mode:          mode,
		MissingFields: missing,
		ReadyToBuild:  hasSubject,
	}
}

// MissingInputPrompts maps missing-field identifiers to the prompts a
// caller shows the author when a build short-circuits.
func MissingInputPrompts(fields []string) []core.MissingInput {
	prompts := map[string]string{
		"topic":       "Provide a topic or title for the article, or paste draft content to work from.",
		"raw_content": "Paste existing draft content, or the article will be generated from the topic alone.",
		"category":    "Pick a sector category so the article is filed correctly.",
		"keywords":    "Add target keywords to guide search optimization.",
	}
	out := make([]core.MissingInput, 0, len(fields))
	for _, f := range fields {
		prompt, ok := prompts[f]
		if !ok {
			prompt = "Provide a value for " + f + "."
		}
		out = append(out, core.MissingInput{Field: f, Prompt: prompt})
	}
	return out
}

func labelForScore(score int) core.CompletenessLabel {
	switch {
	case score >= 75:
		return core.CompletenessRich
	case score >= 50:
		return core.CompletenessSufficient
	case score >= 25:
		return core.CompletenessPartial
	default:
		return core.CompletenessMinimal
	}
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
