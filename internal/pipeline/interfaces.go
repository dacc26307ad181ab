package pipeline

import (
	"context"

	"pressroom/internal/core"
	"pressroom/internal/evaluate"
)

// InputAnalyzer judges request completeness. Must be side-effect free.
type InputAnalyzer interface {
	Analyze(req core.ContentRequest) core.CompletenessAnalysis
}

// Researcher gathers sourced facts for a topic. Sub-source failures are
// absorbed into the bundle's confidence, never surfaced as errors.
type Researcher interface {
	Collect(ctx context.Context, topic string, keywords []string, useInternal, useWeb bool) core.ResearchBundle
}

// ContentEnhancer turns requests into drafts and revises them.
type ContentEnhancer interface {
	Enhance(ctx context.Context, req core.ContentRequest, mode core.GenerationMode, research core.ResearchBundle) (*core.DraftArticle, error)
	Improve(ctx context.Context, draft *core.DraftArticle, req core.ContentRequest, eval *core.EvaluationResult) (*core.DraftArticle, error)
	Passthrough(req core.ContentRequest) (*core.DraftArticle, error)
}

// ImageResolver applies the request's hero-image policy.
type ImageResolver interface {
	Resolve(ctx context.Context, req core.ContentRequest, draft *core.DraftArticle) (*core.ImageOutcome, error)
}

// QualityEvaluator scores drafts and recommends the next step.
type QualityEvaluator interface {
	Evaluate(draft *core.DraftArticle, req core.ContentRequest, research core.ResearchBundle, recentBodies []string, pass evaluate.PassContext) *core.EvaluationResult
}

// ContentStore is the persistence surface the pipeline needs.
type ContentStore interface {
	SaveArticle(ctx context.Context, draft *core.DraftArticle, state core.BuildState, score float64) error
	SaveBuildRecord(ctx context.Context, result *core.BuildResult) error
	RecentPublishedBodies(ctx context.Context, limit int) ([]string, error)
	ReleaseImage(ctx context.Context, id string) error
}
