package enhance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pressroom/internal/core"
	"pressroom/internal/llm"
)

type mockGenerator struct {
	response   string
	err        error
	lastPrompt string
	calls      int
}

func (m *mockGenerator) Complete(_ context.Context, prompt string, _ llm.Constraints) (string, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

type mockTitleLog struct {
	titles []string
	err    error
}

func (m *mockTitleLog) RecentTitles(_ context.Context, _ string, limit int) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && len(m.titles) > limit {
		return m.titles[:limit], nil
	}
	return m.titles, nil
}

const structuredResponse = `TITLE: Sizing Debt for Solar Projects
EXCERPT: How lenders size debt against contracted solar revenue.
TAGS: solar, project finance, DSCR
BODY:
# Sizing Debt for Solar Projects

Lenders size debt against contracted revenue using coverage ratios.

The DSCR target drives the sculpted repayment profile.`

func TestEnhanceGenerateMode(t *testing.T) {
	gen := &mockGenerator{response: structuredResponse}
	e := NewEnhancer(gen, nil)

	req := core.ContentRequest{
		Topic:           "solar debt sizing",
		Keywords:        []string{"DSCR"},
		TargetWordCount: 500,
	}
	draft, err := e.Enhance(context.Background(), req, core.ModeGenerate, core.ResearchBundle{})
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}

	if draft.Title != "Sizing Debt for Solar Projects" {
		t.Errorf("unexpected title: %q", draft.Title)
	}
	if draft.Excerpt != "How lenders size debt against contracted solar revenue." {
		t.Errorf("unexpected excerpt: %q", draft.Excerpt)
	}
	if len(draft.Tags) != 3 {
		t.Errorf("expected 3 tags, got %v", draft.Tags)
	}
	if draft.WordCount == 0 || !strings.Contains(draft.Body, "DSCR target") {
		t.Errorf("body not carried through: %q", draft.Body)
	}
	if draft.ID == "" {
		t.Error("draft must get an id")
	}
	if draft.Category == "" {
		t.Error("draft must get a category")
	}
}

func TestEnhanceModeIncludesDraftInPrompt(t *testing.T) {
	gen := &mockGenerator{response: structuredResponse}
	e := NewEnhancer(gen, nil)

	req := core.ContentRequest{
		Topic:           "solar debt sizing",
		RawContent:      "author draft text about sculpting repayments",
		TargetWordCount: 500,
	}
	if _, err := e.Enhance(context.Background(), req, core.ModeEnhance, core.ResearchBundle{}); err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if !strings.Contains(gen.lastPrompt, "author draft text about sculpting repayments") {
		t.Error("enhance mode prompt must include the author's draft")
	}
	if !strings.Contains(gen.lastPrompt, "Rework the draft") {
		t.Error("enhance mode must use the rework framing")
	}
}

func TestEnhanceUserTitleWins(t *testing.T) {
	gen := &mockGenerator{response: structuredResponse}
	e := NewEnhancer(gen, nil)

	req := core.ContentRequest{
		Title:           "My Exact Title",
		TargetWordCount: 500,
	}
	draft, err := e.Enhance(context.Background(), req, core.ModeGenerate, core.ResearchBundle{})
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if draft.Title != "My Exact Title" {
		t.Errorf("user-supplied title must be kept verbatim, got %q", draft.Title)
	}
}

func TestEnhanceEmptyBody(t *testing.T) {
	gen := &mockGenerator{response: "TITLE: Something\nBODY:\n   "}
	e := NewEnhancer(gen, nil)

	_, err := e.Enhance(context.Background(), core.ContentRequest{Topic: "x", TargetWordCount: 500}, core.ModeGenerate, core.ResearchBundle{})
	if !errors.Is(err, ErrEmptyBody) {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
}

func TestEnhanceTitleDeduplication(t *testing.T) {
	gen := &mockGenerator{response: structuredResponse}
	titles := &mockTitleLog{titles: []string{"sizing debt for solar projects"}}
	e := NewEnhancer(gen, titles)

	req := core.ContentRequest{Topic: "solar debt sizing", Category: "Project Finance", TargetWordCount: 500}
	draft, err := e.Enhance(context.Background(), req, core.ModeGenerate, core.ResearchBundle{})
	if err != nil {
		t.Fatalf("Enhance failed: %v", err)
	}
	if draft.Title == "Sizing Debt for Solar Projects" {
		t.Error("colliding title must be disambiguated")
	}
	if !strings.HasPrefix(draft.Title, "Sizing Debt for Solar Projects") {
		t.Errorf("disambiguation should extend the original title, got %q", draft.Title)
	}

	if !strings.Contains(gen.lastPrompt, "sizing debt for solar projects") {
		t.Error("recent titles must be surfaced in the prompt")
	}
}

func TestImproveKeepsIdentity(t *testing.T) {
	gen := &mockGenerator{response: structuredResponse}
	e := NewEnhancer(gen, nil)

	draft := &core.DraftArticle{
		ID:       "draft-1",
		Title:    "Original Title",
		Body:     "original body",
		Category: "Project Finance",
		Image:    &core.ImageOutcome{Status: core.ImageResolved, URL: "https://img.example/1.png"},
	}
	eval := &core.EvaluationResult{
		CriticalIssues: []string{"domain accuracy below floor"},
		Suggestions:    []string{"add a worked DSCR example"},
	}

	revised, err := e.Improve(context.Background(), draft, core.ContentRequest{Topic: "x", TargetWordCount: 500}, eval)
	if err != nil {
		t.Fatalf("Improve failed: %v", err)
	}
	if revised.ID != "draft-1" {
		t.Errorf("revision must keep the draft id, got %q", revised.ID)
	}
	if revised.Image == nil || revised.Image.URL != "https://img.example/1.png" {
		t.Error("revision must keep the resolved image")
	}
	if !strings.Contains(gen.lastPrompt, "domain accuracy below floor") {
		t.Error("critical issues must appear in the improvement prompt")
	}
	if !strings.Contains(gen.lastPrompt, "add a worked DSCR example") {
		t.Error("suggestions must appear in the improvement prompt")
	}
}

func TestPassthroughUsesRawContentVerbatim(t *testing.T) {
	e := NewEnhancer(nil, nil)

	raw := "The model audit checklist.\n\nEvery formula gets reviewed twice."
	req := core.ContentRequest{
		Title:      "Audit Checklist",
		RawContent: raw,
		Category:   "Financial Modelling",
	}
	draft, err := e.Passthrough(req)
	if err != nil {
		t.Fatalf("Passthrough failed: %v", err)
	}
	if draft.Body != raw {
		t.Errorf("passthrough body must equal the raw content, got %q", draft.Body)
	}
	if draft.Title != "Audit Checklist" {
		t.Errorf("unexpected title: %q", draft.Title)
	}
	if draft.Category != "Financial Modelling" {
		t.Errorf("unexpected category: %q", draft.Category)
	}
}

func TestPassthroughEmpty(t *testing.T) {
	e := NewEnhancer(nil, nil)
	if _, err := e.Passthrough(core.ContentRequest{RawContent: "   "}); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("expected ErrEmptyBody, got %v", err)
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"solar PPA pricing and tax equity", "Renewable Energy"},
		{"DSCR sculpting for lenders", "Project Finance"},
		{"cap rate compression in office property", "Real Estate"},
		{"a pleasant walk in the park", DefaultCategory},
	}
	for _, tt := range tests {
		if got := InferCategory(tt.topic, nil); got != tt.want {
			t.Errorf("InferCategory(%q) = %q, want %q", tt.topic, got, tt.want)
		}
	}
}

func TestResolveCategoryKeepsValidRequested(t *testing.T) {
	if got := ResolveCategory("project finance", "solar farms", nil); got != "Project Finance" {
		t.Errorf("expected canonical casing, got %q", got)
	}
	if got := ResolveCategory("Fishing", "solar farms", nil); got != "Renewable Energy" {
		t.Errorf("invalid requested category must fall back to inference, got %q", got)
	}
}

func TestParseArticleResponseFallback(t *testing.T) {
	title, _, _, body := parseArticleResponse("Just a Title\nAnd then body text.")
	if title != "Just a Title" || body != "And then body text." {
		t.Errorf("fallback parse wrong: title=%q body=%q", title, body)
	}
}
