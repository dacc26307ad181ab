package evaluate

import (
	"math"
	"strings"
	"testing"

	"pressroom/internal/core"
)

func strongDraft() *core.DraftArticle {
	body := `# Sizing Debt for Solar Projects

How much debt can a contracted solar project carry? Lenders answer with coverage ratios, and the DSCR target drives everything downstream.

## The coverage math

A 1.30x DSCR on contracted cash flow is a common starting point. For example, a project with $13m of annual CFADS supports roughly $10m of debt service, which at a 6% rate and 18-year tenor sizes to about $110m of senior debt. Sensitivity runs on price and production shift that number quickly.

## Sculpting the profile

- Sculpted amortization follows the cash flow curve
- Covenant headroom narrows in merchant tail years
- Leverage above 80% needs contracted revenue

In practice, the sculpting case determines the equity IRR more than the headline leverage does.

## The takeaway

Size to the downside case, not the base case. The DSCR covenant is the binding constraint once the PPA rolls off.`

	return &core.DraftArticle{
		ID:        "draft-1",
		Title:     "Sizing Debt for Solar Projects: DSCR in Practice",
		Body:      body,
		Excerpt:   "How lenders size debt against contracted solar revenue.",
		Category:  "Project Finance",
		Tags:      []string{"solar", "DSCR", "project finance"},
		WordCount: len(strings.Fields(body)),
		Image:     &core.ImageOutcome{Status: core.ImageResolved, Quality: 85},
	}
}

func strongRequest() core.ContentRequest {
	return core.ContentRequest{
		Keywords:        []string{"DSCR", "solar"},
		TargetWordCount: 200,
		ImageDecision:   core.ImageAutoSelect,
	}
}

func TestEvaluateWeightsSumToOne(t *testing.T) {
	e := NewEvaluator(70)

	for _, decision := range []core.ImageDecision{core.ImageAutoSelect, core.ImageSkip} {
		req := strongRequest()
		req.ImageDecision = decision
		result := e.Evaluate(strongDraft(), req, core.ResearchBundle{}, nil, PassContext{FirstPass: true, RetryAllowed: true})

		sum := 0.0
		for _, d := range result.Dimensions {
			sum += d.Weight
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("decision %s: weights sum to %f, want 1.0", decision, sum)
		}
	}
}

func TestEvaluateOverallIsWeightedSum(t *testing.T) {
	e := NewEvaluator(70)
	result := e.Evaluate(strongDraft(), strongRequest(), core.ResearchBundle{}, nil, PassContext{FirstPass: true, RetryAllowed: true})

	want := 0.0
	for _, d := range result.Dimensions {
		want += d.Score * d.Weight
	}
	if math.Abs(result.Overall-math.Round(want*10)/10) > 1e-9 {
		t.Errorf("overall %f does not match weighted sum %f", result.Overall, want)
	}
}

func TestEvaluateImageSkipExcludesDimension(t *testing.T) {
	e := NewEvaluator(70)
	req := strongRequest()
	req.ImageDecision = core.ImageSkip
	draft := strongDraft()
	draft.Image = nil

	result := e.Evaluate(draft, req, core.ResearchBundle{}, nil, PassContext{FirstPass: true, RetryAllowed: true})
	for _, d := range result.Dimensions {
		if d.Name == DimImage {
			t.Fatal("image dimension must be excluded when the image policy is skip")
		}
	}
	if len(result.Dimensions) != 6 {
		t.Errorf("expected 6 dimensions, got %d", len(result.Dimensions))
	}
}

func TestEvaluateCriticalFloorVetoesPublish(t *testing.T) {
	e := NewEvaluator(50)
	draft := strongDraft()
	draft.Image = &core.ImageOutcome{Status: core.ImageNone} // Scores 30, under the floor

	result := e.Evaluate(draft, strongRequest(), core.ResearchBundle{}, nil,
		PassContext{FirstPass: true, RetryAllowed: true, AutoPublish: true})
	if len(result.CriticalIssues) == 0 {
		t.Fatal("a dimension under 40 must raise a critical issue")
	}
	if !result.MeetsThreshold {
		t.Errorf("meets_threshold is the plain overall comparison, got overall %f", result.Overall)
	}
	if result.Recommendation == core.RecommendPublish {
		t.Error("critical issues must veto publication regardless of overall score")
	}
}

func TestEvaluatePerRequestThresholdOverridesDefault(t *testing.T) {
	e := NewEvaluator(70)

	demanding := strongRequest()
	demanding.QualityThreshold = 99
	result := e.Evaluate(strongDraft(), demanding, core.ResearchBundle{}, nil,
		PassContext{FirstPass: true, RetryAllowed: true, AutoPublish: true})
	if result.MeetsThreshold {
		t.Fatalf("overall %f must not meet a per-request threshold of 99", result.Overall)
	}
	if result.Recommendation != core.RecommendImprove {
		t.Errorf("failing first pass must recommend improve_and_retry, got %s", result.Recommendation)
	}

	lenient := strongRequest()
	lenient.QualityThreshold = 50
	strict := NewEvaluator(99)
	result = strict.Evaluate(strongDraft(), lenient, core.ResearchBundle{}, nil,
		PassContext{FirstPass: true, RetryAllowed: true, AutoPublish: true})
	if !result.MeetsThreshold {
		t.Fatalf("overall %f should meet the per-request threshold of 50", result.Overall)
	}
	if result.Recommendation != core.RecommendPublish {
		t.Errorf("meets + auto_publish must recommend publish, got %s", result.Recommendation)
	}
}

func TestEvaluateStrongDraftMeetsThreshold(t *testing.T) {
	e := NewEvaluator(70)
	result := e.Evaluate(strongDraft(), strongRequest(), core.ResearchBundle{}, nil,
		PassContext{FirstPass: true, RetryAllowed: true, AutoPublish: true})

	if !result.MeetsThreshold {
		t.Fatalf("strong draft should meet threshold 70, got overall %f with critical %v",
			result.Overall, result.CriticalIssues)
	}
	if result.Recommendation != core.RecommendPublish {
		t.Errorf("meets + auto_publish must recommend publish, got %s", result.Recommendation)
	}
}

func TestRecommendHoldWithoutAutoPublish(t *testing.T) {
	result := &core.EvaluationResult{MeetsThreshold: true}
	if got := recommend(result, PassContext{FirstPass: true, RetryAllowed: true, AutoPublish: false}); got != core.RecommendHold {
		t.Errorf("meets without auto_publish must hold, got %s", got)
	}
}

func TestRecommendCriticalIssuesActLikeFailure(t *testing.T) {
	flawed := &core.EvaluationResult{MeetsThreshold: true, CriticalIssues: []string{"image scored 30"}}

	if got := recommend(flawed, PassContext{FirstPass: true, RetryAllowed: true, AutoPublish: true}); got != core.RecommendImprove {
		t.Errorf("critical issues on the first pass must recommend improve_and_retry, got %s", got)
	}
	if got := recommend(flawed, PassContext{FirstPass: false, RetryAllowed: true, AutoPublish: true}); got != core.RecommendHold {
		t.Errorf("critical issues after the improvement pass must hold, got %s", got)
	}
}

func TestRecommendImproveOnlyOnFirstPass(t *testing.T) {
	failing := &core.EvaluationResult{MeetsThreshold: false}

	if got := recommend(failing, PassContext{FirstPass: true, RetryAllowed: true}); got != core.RecommendImprove {
		t.Errorf("first failing pass must recommend improve_and_retry, got %s", got)
	}
	if got := recommend(failing, PassContext{FirstPass: false, RetryAllowed: true}); got != core.RecommendHold {
		t.Errorf("second failing pass must hold, got %s", got)
	}
	if got := recommend(failing, PassContext{FirstPass: true, RetryAllowed: false}); got != core.RecommendHold {
		t.Errorf("failing pass with retry disallowed must hold, got %s", got)
	}
}

func TestScoreOriginalityFlagsCopy(t *testing.T) {
	draft := strongDraft()

	full, _ := scoreOriginality(draft, nil)
	if full != 100 {
		t.Errorf("no prior bodies must score 100, got %f", full)
	}

	copied, note := scoreOriginality(draft, []string{draft.Body})
	if copied != 0 {
		t.Errorf("a verbatim copy must score 0, got %f", copied)
	}
	if note == "" {
		t.Error("verbatim copy must carry a feedback note")
	}

	fresh, _ := scoreOriginality(draft, []string{"entirely unrelated text about gardening and weather patterns for many words in a row"})
	if fresh < 90 {
		t.Errorf("unrelated prior body should barely dent originality, got %f", fresh)
	}
}

func TestScoreImageStatuses(t *testing.T) {
	tests := []struct {
		name  string
		image *core.ImageOutcome
		want  float64
	}{
		{"resolved with quality", &core.ImageOutcome{Status: core.ImageResolved, Quality: 90}, 90},
		{"resolved without quality", &core.ImageOutcome{Status: core.ImageResolved}, 75},
		{"pending", &core.ImageOutcome{Status: core.ImagePending}, 70},
		{"none", &core.ImageOutcome{Status: core.ImageNone}, 30},
		{"missing outcome", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, _ := scoreImage(tt.image); got != tt.want {
				t.Errorf("scoreImage() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestScoreDomainAccuracyWithResearch(t *testing.T) {
	draft := strongDraft()
	grounded := core.ResearchBundle{
		Confidence: 80,
		Facts: []core.SourcedFact{
			{Title: "solar coverage ratios", Locator: "doc-1", Source: core.SourceInternal},
		},
	}
	score, _ := scoreDomainAccuracy(draft, grounded)
	if score < 70 {
		t.Errorf("draft referencing its research should score well, got %f", score)
	}

	ungroundedFacts := core.ResearchBundle{
		Confidence: 80,
		Facts: []core.SourcedFact{
			{Title: "quarterly municipal wastewater tariffs", Locator: "doc-9", Source: core.SourceInternal},
		},
	}
	low, _ := scoreDomainAccuracy(draft, ungroundedFacts)
	if low >= score {
		t.Errorf("ignoring the research must score lower (%f vs %f)", low, score)
	}
}

func TestLengthWarning(t *testing.T) {
	if warn := lengthWarning(1000, 1000); warn != "" {
		t.Errorf("on-target length must not warn: %q", warn)
	}
	if warn := lengthWarning(700, 1000); warn == "" {
		t.Error("30%% under target must warn")
	}
	if warn := lengthWarning(1300, 1000); warn == "" {
		t.Error("30%% over target must warn")
	}
	if warn := lengthWarning(500, 0); warn != "" {
		t.Errorf("no target means no warning: %q", warn)
	}
}
