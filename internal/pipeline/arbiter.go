package pipeline

import (
	"context"
	"time"

	"pressroom/internal/core"
	"pressroom/internal/evaluate"
	"pressroom/internal/logger"
)

// gateState is the arbiter's position in the quality gate.
type gateState string

const (
	gateEvaluating         gateState = "evaluating"
	gateImprovementPending gateState = "improvement_pending"
	gateDeciding           gateState = "deciding"
)

// Verdict is the arbiter's terminal decision for one draft.
type Verdict struct {
	Draft            *core.DraftArticle
	Evaluation       *core.EvaluationResult
	Improved         bool  // The improvement pass ran and produced the final draft
	ImproveErr       error // Improvement was attempted and failed; first draft kept
	State            core.BuildState
	WasAutoPublished bool
}

// Arbiter walks a draft through the quality gate: evaluate, at most one
// improvement pass, re-evaluate, then decide publish or hold. Builds
// that skipped enhancement have no generation backing and go straight
// from a failing evaluation to hold.
type Arbiter struct {
	enhancer          ContentEnhancer
	evaluator         QualityEvaluator
	generationTimeout time.Duration
}

// NewArbiter creates the publish arbiter.
func NewArbiter(enhancer ContentEnhancer, evaluator QualityEvaluator, generationTimeout time.Duration) *Arbiter {
	return &Arbiter{
		enhancer:          enhancer,
		evaluator:         evaluator,
		generationTimeout: generationTimeout,
	}
}

// Arbitrate runs the gate to a terminal verdict. The only error it can
// return is context cancellation; improvement failures are absorbed
// into a hold verdict.
func (a *Arbiter) Arbitrate(ctx context.Context, draft *core.DraftArticle, req core.ContentRequest, research core.ResearchBundle, recentBodies []string) (*Verdict, error) {
	verdict := &Verdict{Draft: draft}
	retryAllowed := !req.SkipEnhancement

	state := gateEvaluating
	firstPass := true

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch state {
		case gateEvaluating:
			verdict.Evaluation = a.evaluator.Evaluate(verdict.Draft, req, research, recentBodies, evaluate.PassContext{
				FirstPass:    firstPass,
				RetryAllowed: retryAllowed,
				AutoPublish:  req.AutoPublish,
			})
			if verdict.Evaluation.Recommendation == core.RecommendImprove {
				state = gateImprovementPending
			} else {
				state = gateDeciding
			}

		case gateImprovementPending:
			improveCtx := ctx
			if a.generationTimeout > 0 {
				var cancel context.CancelFunc
				improveCtx, cancel = context.WithTimeout(ctx, a.generationTimeout)
				defer cancel()
			}

			revised, err := a.enhancer.Improve(improveCtx, verdict.Draft, req, verdict.Evaluation)
			if err != nil {
				// The first draft stands; hold it for review.
				logger.Warn("improvement pass failed, holding first draft", "error", err.Error())
				verdict.ImproveErr = err
				state = gateDeciding
				break
			}
			verdict.Draft = revised
			verdict.Improved = true
			firstPass = false
			state = gateEvaluating

		case gateDeciding:
			if verdict.Evaluation.Recommendation == core.RecommendPublish {
				verdict.State = core.BuildPublished
				verdict.WasAutoPublished = true
			} else {
				verdict.State = core.BuildDraft
			}
			logger.Info("publish decision",
				"state", string(verdict.State),
				"overall", verdict.Evaluation.Overall,
				"improved", verdict.Improved,
			)
			return verdict, nil
		}
	}
}
