package enhance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pressroom/internal/core"
	"pressroom/internal/llm"
	"pressroom/internal/logger"
)

// ErrEmptyBody is returned when the model produces no usable article body.
var ErrEmptyBody = errors.New("generation returned an empty body")

// RecentTitleWindow is how many recent titles per category the enhancer
// checks new titles against.
const RecentTitleWindow = 5

// lengthTolerance is the accepted band around the target word count.
const lengthTolerance = 0.20

// TextGenerator is the text-generation capability the enhancer needs.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string, constraints llm.Constraints) (string, error)
}

// TitleLog exposes recently published titles so new ones can be kept
// distinct within a category.
type TitleLog interface {
	RecentTitles(ctx context.Context, category string, limit int) ([]string, error)
}

// Enhancer turns a content request plus research into a draft article.
// It writes from scratch in generate mode and reworks the author's text
// in enhance mode.
type Enhancer struct {
	generator TextGenerator
	titles    TitleLog
}

// NewEnhancer creates an enhancer. titles may be nil, in which case
// title de-duplication is skipped.
func NewEnhancer(generator TextGenerator, titles TitleLog) *Enhancer {
	return &Enhancer{generator: generator, titles: titles}
}

// Enhance produces a draft article for the request in the given mode.
func (e *Enhancer) Enhance(ctx context.Context, req core.ContentRequest, mode core.GenerationMode, research core.ResearchBundle) (*core.DraftArticle, error) {
	category := ResolveCategory(req.Category, req.Topic, req.Keywords)
	recent := e.recentTitles(ctx, category)

	var prompt string
	if mode == core.ModeEnhance {
		prompt = buildEnhancePrompt(req, research, recent)
	} else {
		prompt = buildGeneratePrompt(req, research, recent)
	}

	raw, err := e.generator.Complete(ctx, prompt, llm.Constraints{
		MaxTokens:   tokenBudget(req.TargetWordCount),
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("content generation failed: %w", err)
	}

	draft, err := e.assemble(raw, req, category, recent)
	if err != nil {
		return nil, err
	}

	logger.Info("draft assembled",
		"mode", string(mode),
		"title", draft.Title,
		"category", draft.Category,
		"words", draft.WordCount,
	)
	return draft, nil
}

// Improve runs the single bounded revision pass, feeding the prior
// evaluation's findings back as directives.
func (e *Enhancer) Improve(ctx context.Context, draft *core.DraftArticle, req core.ContentRequest, eval *core.EvaluationResult) (*core.DraftArticle, error) {
	prompt := buildImprovePrompt(draft, req, eval)

	raw, err := e.generator.Complete(ctx, prompt, llm.Constraints{
		MaxTokens:   tokenBudget(req.TargetWordCount),
		Temperature: 0.5,
	})
	if err != nil {
		return nil, fmt.Errorf("improvement pass failed: %w", err)
	}

	revised, err := e.assemble(raw, req, draft.Category, nil)
	if err != nil {
		return nil, err
	}
	revised.ID = draft.ID
	revised.Image = draft.Image

	logger.Info("draft revised", "title", revised.Title, "words", revised.WordCount)
	return revised, nil
}

// Passthrough builds a draft directly from the author's raw content
// without any model call, for requests that skip enhancement.
func (e *Enhancer) Passthrough(req core.ContentRequest) (*core.DraftArticle, error) {
	body := strings.TrimSpace(req.RawContent)
	if body == "" {
		return nil, ErrEmptyBody
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSpace(req.Topic)
	}
	if title == "" {
		title = firstLine(body)
	}

	category := ResolveCategory(req.Category, req.Topic, req.Keywords)
	draft := &core.DraftArticle{
		ID:        uuid.New().String(),
		Title:     title,
		Body:      body,
		Excerpt:   excerptFrom(body),
		Category:  category,
		Tags:      req.Keywords,
		WordCount: countWords(body),
		CreatedAt: time.Now(),
	}
	return draft, nil
}

// assemble parses a model response into a draft and applies the title
// and length policies.
func (e *Enhancer) assemble(raw string, req core.ContentRequest, category string, recent []string) (*core.DraftArticle, error) {
	title, excerpt, tags, body := parseArticleResponse(raw)
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyBody
	}

	if req.Title != "" {
		title = req.Title
	}
	if title == "" {
		title = firstLine(body)
	}
	title = disambiguateTitle(title, recent, category)

	if excerpt == "" {
		excerpt = excerptFrom(body)
	}
	if len(tags) == 0 {
		tags = req.Keywords
	}

	words := countWords(body)
	checkLength(words, req.TargetWordCount)

	return &core.DraftArticle{
		ID:        uuid.New().String(),
		Title:     title,
		Body:      body,
		Excerpt:   excerpt,
		Category:  category,
		Tags:      tags,
		WordCount: words,
		CreatedAt: time.Now(),
	}, nil
}

func (e *Enhancer) recentTitles(ctx context.Context, category string) []string {
	if e.titles == nil {
		return nil
	}
	recent, err := e.titles.RecentTitles(ctx, category, RecentTitleWindow)
	if err != nil {
		logger.Warn("could not load recent titles, skipping de-duplication", "category", category, "error", err.Error())
		return nil
	}
	return recent
}

// disambiguateTitle appends the category when the generated title
// collides with a recently published one.
func disambiguateTitle(title string, recent []string, category string) string {
	for _, prev := range recent {
		if strings.EqualFold(strings.TrimSpace(prev), strings.TrimSpace(title)) {
			return fmt.Sprintf("%s: A %s Perspective", title, category)
		}
	}
	return title
}

// checkLength flags drafts outside the tolerance band around the
// target. Length misses are warnings for the evaluator, not failures.
func checkLength(words, target int) {
	if target <= 0 {
		return
	}
	low := int(float64(target) * (1 - lengthTolerance))
	high := int(float64(target) * (1 + lengthTolerance))
	if words < low || words > high {
		logger.Warn("draft length outside tolerance",
			"words", words, "target", target, "low", low, "high", high)
	}
}

// tokenBudget sizes the completion for the target length with headroom
// for markdown structure and the response envelope.
func tokenBudget(targetWords int) int32 {
	if targetWords <= 0 {
		targetWords = core.DefaultWordCount
	}
	return int32(targetWords*3 + 500)
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func firstLine(body string) string {
	line := body
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		line = body[:idx]
	}
	return strings.Trim(strings.TrimSpace(line), "# ")
}

// excerptFrom derives a standfirst from the opening of the body.
func excerptFrom(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line) > 160 {
			cut := line[:160]
			if idx := strings.LastIndex(cut, " "); idx > 0 {
				cut = cut[:idx]
			}
			return cut + "..."
		}
		return line
	}
	return ""
}
