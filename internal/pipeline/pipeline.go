package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"pressroom/internal/analyzer"
	"pressroom/internal/core"
	"pressroom/internal/logger"
)

// originalityWindow is how many recently published bodies the evaluator
// compares new drafts against.
const originalityWindow = 10

// Timeouts are the per-stage time budgets. Zero disables the budget for
// that stage.
type Timeouts struct {
	Research   time.Duration
	Generation time.Duration
	Image      time.Duration
	Evaluation time.Duration
}

// Pipeline orchestrates one build: analyze, research, enhance, image,
// then the quality gate. Stages run strictly in order; each build is
// independent and owns its work objects.
type Pipeline struct {
	analyzer   InputAnalyzer
	researcher Researcher
	enhancer   ContentEnhancer
	images     ImageResolver
	evaluator  QualityEvaluator
	store      ContentStore
	timeouts   Timeouts
}

// New wires a pipeline. researcher, images and store may be nil; the
// corresponding stages then skip or degrade.
func New(analyzer InputAnalyzer, researcher Researcher, enhancer ContentEnhancer, images ImageResolver, evaluator QualityEvaluator, store ContentStore, timeouts Timeouts) *Pipeline {
	return &Pipeline{
		analyzer:   analyzer,
		researcher: researcher,
		enhancer:   enhancer,
		images:     images,
		evaluator:  evaluator,
		store:      store,
		timeouts:   timeouts,
	}
}

// Analyze runs the completeness analysis alone, without starting a
// build. Callers use it to pre-flight partial requests.
func (p *Pipeline) Analyze(req core.ContentRequest) core.CompletenessAnalysis {
	req.Normalize()
	return p.analyzer.Analyze(req)
}

// stageOrder is the fixed checklist every build reports against.
var stageOrder = []core.StageID{
	core.StageAnalyze, core.StageResearch, core.StageEnhance,
	core.StageImage, core.StageEvaluate, core.StageImprove, core.StageDecide,
}

type tracker struct {
	stages []core.StageStatus
}

func newTracker() *tracker {
	t := &tracker{}
	for _, id := range stageOrder {
		t.stages = append(t.stages, core.StageStatus{ID: id, State: core.StagePending})
	}
	return t
}

func (t *tracker) set(id core.StageID, state core.StageState) {
	for i := range t.stages {
		if t.stages[i].ID == id {
			t.stages[i].State = state
			return
		}
	}
}

// Build runs one request to a terminal BuildResult. It never panics
// across stage boundaries and always returns a result, even on failure.
func (p *Pipeline) Build(ctx context.Context, req core.ContentRequest) *core.BuildResult {
	result := &core.BuildResult{BuildID: uuid.New().String()}
	t := newTracker()

	logger.Info("build started", "build_id", result.BuildID, "topic", req.Topic)

	req.Normalize()
	if err := req.Validate(); err != nil {
		t.set(core.StageAnalyze, core.StageFailed)
		return p.finish(ctx, result, t, core.BuildFailed, &StageError{Stage: core.StageAnalyze, Err: err})
	}

	// Analyze
	t.set(core.StageAnalyze, core.StageRunning)
	analysis := p.analyzer.Analyze(req)
	t.set(core.StageAnalyze, core.StageCompleted)

	if !analysis.ReadyToBuild {
		result.MissingInputs = analyzer.MissingInputPrompts(analysis.MissingFields)
		return p.finish(ctx, result, t, core.BuildInputIncomplete,
			&StageError{Stage: core.StageAnalyze, Err: ErrInputIncomplete})
	}

	if cancelled := p.cancelled(ctx, result, t, core.StageResearch); cancelled != nil {
		return cancelled
	}

	// Research
	var research core.ResearchBundle
	runResearch := p.researcher != nil && !req.SkipResearch && !req.SkipEnhancement &&
		(req.UseInternal || req.UseWeb)
	if runResearch {
		t.set(core.StageResearch, core.StageRunning)
		rctx, cancel := stageContext(ctx, p.timeouts.Research)
		research = p.researcher.Collect(rctx, req.Topic, req.Keywords, req.UseInternal, req.UseWeb)
		cancel()
		t.set(core.StageResearch, core.StageCompleted)
		result.Research = &research
	} else {
		t.set(core.StageResearch, core.StageSkipped)
	}

	if cancelled := p.cancelled(ctx, result, t, core.StageEnhance); cancelled != nil {
		return cancelled
	}

	// Enhance
	var draft *core.DraftArticle
	var err error
	if req.SkipEnhancement {
		// Raw content is used verbatim; the stage itself is skipped.
		draft, err = p.enhancer.Passthrough(req)
		t.set(core.StageEnhance, core.StageSkipped)
	} else {
		t.set(core.StageEnhance, core.StageRunning)
		ectx, cancel := stageContext(ctx, p.timeouts.Generation)
		draft, err = p.enhancer.Enhance(ectx, req, analysis.Mode, research)
		cancel()
	}
	if err != nil {
		t.set(core.StageEnhance, core.StageFailed)
		return p.finish(ctx, result, t, core.BuildFailed, classify(core.StageEnhance, err))
	}
	if !req.SkipEnhancement {
		t.set(core.StageEnhance, core.StageCompleted)
	}

	if cancelled := p.cancelled(ctx, result, t, core.StageImage); cancelled != nil {
		result.Draft = draft
		return cancelled
	}

	// Image
	if p.images != nil {
		t.set(core.StageImage, core.StageRunning)
		ictx, cancel := stageContext(ctx, p.timeouts.Image)
		outcome, ierr := p.images.Resolve(ictx, req, draft)
		cancel()
		if ierr != nil {
			t.set(core.StageImage, core.StageFailed)
			result.Draft = draft
			return p.finish(ctx, result, t, core.BuildFailed, classify(core.StageImage, ierr))
		}
		if outcome == nil {
			t.set(core.StageImage, core.StageSkipped)
		} else {
			draft.Image = outcome
			result.Image = outcome
			t.set(core.StageImage, core.StageCompleted)
		}
	} else {
		t.set(core.StageImage, core.StageSkipped)
	}

	if cancelled := p.cancelled(ctx, result, t, core.StageEvaluate); cancelled != nil {
		result.Draft = draft
		return cancelled
	}

	// Quality gate
	var recentBodies []string
	if p.store != nil {
		recentBodies, err = p.store.RecentPublishedBodies(ctx, originalityWindow)
		if err != nil {
			logger.Warn("could not load published bodies for originality", "error", err.Error())
		}
	}

	t.set(core.StageEvaluate, core.StageRunning)
	arbiter := NewArbiter(p.enhancer, p.evaluator, p.timeouts.Generation)
	verdict, err := arbiter.Arbitrate(ctx, draft, req, research, recentBodies)
	if err != nil {
		t.set(core.StageEvaluate, core.StageCancelled)
		result.Draft = draft
		return p.finish(ctx, result, t, core.BuildCancelled, &StageError{Stage: core.StageEvaluate, Err: err})
	}
	t.set(core.StageEvaluate, core.StageCompleted)
	switch {
	case verdict.Improved:
		t.set(core.StageImprove, core.StageCompleted)
	case verdict.ImproveErr != nil:
		t.set(core.StageImprove, core.StageFailed)
	default:
		t.set(core.StageImprove, core.StageSkipped)
	}

	// Decide and persist
	t.set(core.StageDecide, core.StageRunning)
	result.Draft = verdict.Draft
	result.Evaluation = verdict.Evaluation
	if p.store != nil {
		if err := p.store.SaveArticle(ctx, verdict.Draft, verdict.State, verdict.Evaluation.Overall); err != nil {
			t.set(core.StageDecide, core.StageFailed)
			return p.finish(ctx, result, t, core.BuildFailed, &StageError{Stage: core.StageDecide, Err: err})
		}
	}
	t.set(core.StageDecide, core.StageCompleted)

	result.Success = true
	result.State = verdict.State
	result.WasAutoPublished = verdict.WasAutoPublished
	return p.finish(ctx, result, t, verdict.State, nil)
}

// finish stamps the terminal state, releases resources held by failed
// builds, and writes the audit record.
func (p *Pipeline) finish(ctx context.Context, result *core.BuildResult, t *tracker, state core.BuildState, stageErr *StageError) *core.BuildResult {
	result.State = state
	result.Stages = t.stages
	result.CompletedAt = time.Now()

	if stageErr != nil {
		result.FailedStage = stageErr.Stage
		result.Error = stageErr.Error()
	}

	// A failed or cancelled build must not keep its library image claim.
	terminal := state == core.BuildFailed || state == core.BuildCancelled
	if terminal && p.store != nil && result.Draft != nil &&
		result.Draft.Image != nil && result.Draft.Image.ImageID != "" {
		if err := p.store.ReleaseImage(context.WithoutCancel(ctx), result.Draft.Image.ImageID); err != nil {
			logger.Warn("failed to release claimed image", "image_id", result.Draft.Image.ImageID, "error", err.Error())
		}
	}

	if p.store != nil {
		if err := p.store.SaveBuildRecord(context.WithoutCancel(ctx), result); err != nil {
			logger.Warn("failed to save build record", "build_id", result.BuildID, "error", err.Error())
		}
	}

	logger.Info("build finished",
		"build_id", result.BuildID,
		"state", string(result.State),
		"auto_published", result.WasAutoPublished,
		"error", result.Error,
	)
	return result
}

// cancelled short-circuits the build when the caller's context is done.
func (p *Pipeline) cancelled(ctx context.Context, result *core.BuildResult, t *tracker, next core.StageID) *core.BuildResult {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	t.set(next, core.StageCancelled)
	state := core.BuildCancelled
	if errors.Is(err, context.DeadlineExceeded) {
		state = core.BuildFailed
	}
	return p.finish(ctx, result, t, state, classify(next, err))
}

func stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
