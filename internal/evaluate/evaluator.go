package evaluate

import (
	"fmt"
	"math"

	"pressroom/internal/core"
	"pressroom/internal/logger"
)

// criticalFloor is the per-dimension score below which the article
// cannot be published regardless of its overall score.
const criticalFloor = 40.0

// warningCeiling marks dimensions weak enough to warn about without
// blocking publication.
const warningCeiling = 60.0

// lengthTolerance is the accepted band around the target word count.
const lengthTolerance = 0.20

// PassContext tells the evaluator where the draft sits in the build so
// it can recommend the right next step. The arbiter owns the actual
// state transition; the recommendation is advisory.
type PassContext struct {
	FirstPass    bool // False on the post-improvement re-evaluation
	RetryAllowed bool // False when enhancement was skipped
	AutoPublish  bool
}

// Evaluator scores drafts across weighted quality dimensions.
type Evaluator struct {
	threshold float64
}

// NewEvaluator creates an evaluator with the given publish threshold.
// A non-positive threshold falls back to the default.
func NewEvaluator(threshold float64) *Evaluator {
	if threshold <= 0 {
		threshold = core.DefaultQualityThreshold
	}
	return &Evaluator{threshold: threshold}
}

// Evaluate scores the draft and produces the publish recommendation.
// The request's quality threshold governs meets_threshold; the
// evaluator's own threshold is the fallback for requests that carry
// none. When req.ImageDecision is skip, the image dimension is
// excluded and the remaining weights renormalized.
func (e *Evaluator) Evaluate(draft *core.DraftArticle, req core.ContentRequest, research core.ResearchBundle, recentBodies []string, pass PassContext) *core.EvaluationResult {
	threshold := e.threshold
	if req.QualityThreshold > 0 {
		threshold = req.QualityThreshold
	}
	includeImage := req.ImageDecision != core.ImageSkip

	type scored struct {
		name     string
		score    float64
		feedback string
	}
	raw := []scored{}
	add := func(name string, score float64, feedback string) {
		raw = append(raw, scored{name, score, feedback})
	}

	seoScore, seoNote := scoreSearchOptimization(draft, req.Keywords)
	add(DimSearchOptimization, seoScore, seoNote)
	readScore, readNote := scoreReadability(draft)
	add(DimReadability, readScore, readNote)
	accScore, accNote := scoreDomainAccuracy(draft, research)
	add(DimDomainAccuracy, accScore, accNote)
	engScore, engNote := scoreEngagement(draft)
	add(DimEngagement, engScore, engNote)
	depthScore, depthNote := scoreTechnicalDepth(draft)
	add(DimTechnicalDepth, depthScore, depthNote)
	origScore, origNote := scoreOriginality(draft, recentBodies)
	add(DimOriginality, origScore, origNote)
	if includeImage {
		imgScore, imgNote := scoreImage(draft.Image)
		add(DimImage, imgScore, imgNote)
	}

	weightSum := 0.0
	for _, s := range raw {
		weightSum += dimensionWeights[s.name]
	}

	result := &core.EvaluationResult{}
	overall := 0.0
	for _, s := range raw {
		weight := dimensionWeights[s.name] / weightSum
		overall += s.score * weight
		result.Dimensions = append(result.Dimensions, core.DimensionScore{
			Name:     s.name,
			Score:    s.score,
			Weight:   weight,
			Feedback: s.feedback,
		})

		switch {
		case s.score < criticalFloor:
			result.CriticalIssues = append(result.CriticalIssues,
				fmt.Sprintf("%s scored %.0f, below the %.0f floor: %s", s.name, s.score, criticalFloor, s.feedback))
		case s.score < warningCeiling:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s is weak (%.0f): %s", s.name, s.score, s.feedback))
		}
		if s.score < threshold && s.feedback != "" {
			result.Suggestions = append(result.Suggestions, fmt.Sprintf("improve %s: %s", s.name, s.feedback))
		}
	}

	result.Overall = math.Round(overall*10) / 10
	result.Level = core.LevelForScore(result.Overall)
	result.MeetsThreshold = result.Overall >= threshold

	if warn := lengthWarning(draft.WordCount, req.TargetWordCount); warn != "" {
		result.Warnings = append(result.Warnings, warn)
	}

	result.Recommendation = recommend(result, pass)

	logger.Info("draft evaluated",
		"overall", result.Overall,
		"level", string(result.Level),
		"meets_threshold", result.MeetsThreshold,
		"critical_issues", len(result.CriticalIssues),
		"recommendation", string(result.Recommendation),
	)
	return result
}

// Threshold returns the publish threshold in effect.
func (e *Evaluator) Threshold() float64 { return e.threshold }

// recommend picks the next step for the arbiter. Critical issues veto
// publication even above threshold; a failing first pass earns exactly
// one improvement attempt; everything else holds.
func recommend(result *core.EvaluationResult, pass PassContext) core.Recommendation {
	if result.MeetsThreshold && len(result.CriticalIssues) == 0 {
		if pass.AutoPublish {
			return core.RecommendPublish
		}
		return core.RecommendHold
	}
	if pass.FirstPass && pass.RetryAllowed {
		return core.RecommendImprove
	}
	return core.RecommendHold
}

func lengthWarning(words, target int) string {
	if target <= 0 {
		return ""
	}
	low := int(float64(target) * (1 - lengthTolerance))
	high := int(float64(target) * (1 + lengthTolerance))
	if words < low {
		return fmt.Sprintf("article is %d words, under the %d-%d target band", words, low, high)
	}
	if words > high {
		return fmt.Sprintf("article is %d words, over the %d-%d target band", words, low, high)
	}
	return ""
}
