package core

import (
	"fmt"
	"strings"
	"time"
)

// ImageDecision selects how the hero image for an article is resolved.
type ImageDecision string

const (
	ImageAutoSelect   ImageDecision = "auto_select"   // Pick the best unused library image
	ImageGenerate     ImageDecision = "generate"      // Invoke the image generation backend
	ImageUserProvided ImageDecision = "user_provided" // Placeholder; the author will attach one later
	ImageSkip         ImageDecision = "skip"          // No hero image; image dimension excluded from scoring
)

// GenerationMode indicates whether the enhancer writes from scratch or
// reworks caller-supplied text.
type GenerationMode string

const (
	ModeGenerate GenerationMode = "generate"
	ModeEnhance  GenerationMode = "enhance"
)

// DefaultWordCount is the target article length when the request does not set one.
const DefaultWordCount = 1000

// DefaultQualityThreshold is the minimum weighted score for auto-publish eligibility.
const DefaultQualityThreshold = 70.0

// ContentRequest is the caller-supplied intent for one build.
// Immutable once a build starts; Normalize/Validate are called before
// the pipeline touches it.
type ContentRequest struct {
	Topic            string        `json:"topic"`             // Subject to write about (optional if RawContent given)
	Title            string        `json:"title"`             // Exact title (optional; generated when empty)
	RawContent       string        `json:"raw_content"`       // Partial or full draft supplied by the author
	KeyPoints        []string      `json:"key_points"`        // Talking points to preserve in spirit
	Category         string        `json:"category"`          // Sector tag; inferred when empty
	Keywords         []string      `json:"keywords"`          // Target keywords
	Audience         string        `json:"audience"`          // Target audience description
	Tone             string        `json:"tone"`              // Desired tone
	TargetWordCount  int           `json:"target_word_count"` // Desired length; defaults to DefaultWordCount
	ImageDecision    ImageDecision `json:"image_decision"`    // One of the four hero-image policies
	ImagePrompt      string        `json:"image_prompt"`      // Optional prompt for ImageGenerate
	AutoPublish      bool          `json:"auto_publish"`      // Publish automatically when the threshold is met
	QualityThreshold float64       `json:"quality_threshold"` // 0-100; defaults to DefaultQualityThreshold
	SkipResearch     bool          `json:"skip_research"`     // Bypass the research stage entirely
	SkipEnhancement  bool          `json:"skip_enhancement"`  // Use RawContent verbatim; no rewriting
	UseInternal      bool          `json:"use_internal"`      // Query the internal knowledge index
	UseWeb           bool          `json:"use_web"`           // Query live web search
}

// Normalize fills defaults without touching caller-set fields.
func (r *ContentRequest) Normalize() {
	if r.TargetWordCount <= 0 {
		r.TargetWordCount = DefaultWordCount
	}
	if r.QualityThreshold <= 0 {
		r.QualityThreshold = DefaultQualityThreshold
	}
	if r.ImageDecision == "" {
		r.ImageDecision = ImageSkip
	}
}

// Validate rejects structurally invalid requests. Missing-but-substitutable
// content (no topic, no raw content) is the analyzer's concern, not an
// error here.
func (r *ContentRequest) Validate() error {
	switch r.ImageDecision {
	case ImageAutoSelect, ImageGenerate, ImageUserProvided, ImageSkip:
	default:
		return fmt.Errorf("unknown image decision %q", r.ImageDecision)
	}
	if r.ImageDecision == ImageGenerate && r.ImagePrompt == "" &&
		strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Topic) == "" && strings.TrimSpace(r.RawContent) == "" {
		return fmt.Errorf("image decision %q needs a prompt or draft material to derive one from", ImageGenerate)
	}
	if r.QualityThreshold < 0 || r.QualityThreshold > 100 {
		return fmt.Errorf("quality threshold %.1f out of range [0,100]", r.QualityThreshold)
	}
	if r.SkipEnhancement && strings.TrimSpace(r.RawContent) == "" {
		return fmt.Errorf("skip_enhancement requires raw content")
	}
	return nil
}

// CompletenessLabel buckets the completeness score.
type CompletenessLabel string

const (
	CompletenessMinimal    CompletenessLabel = "minimal"
	CompletenessPartial    CompletenessLabel = "partial"
	CompletenessSufficient CompletenessLabel = "sufficient"
	CompletenessRich       CompletenessLabel = "rich"
)

// CompletenessAnalysis is the analyzer's verdict on a (possibly partial)
// request. Derived on every call; never persisted.
type CompletenessAnalysis struct {
	Score         int               `json:"score"`          // 0-100 weighted presence score
	Label         CompletenessLabel `json:"label"`          // Bucketed score
	Mode          GenerationMode    `json:"mode"`           // Inferred generation mode
	MissingFields []string          `json:"missing_fields"` // Fields with no satisfied substitute
	ReadyToBuild  bool              `json:"ready_to_build"` // True when a build can proceed
}

// FactSource tags where a sourced fact came from.
type FactSource string

const (
	SourceInternal FactSource = "internal" // Internal knowledge index
	SourceWeb      FactSource = "web"      // Live web search
)

// SourcedFact is one research finding with a resolvable locator.
type SourcedFact struct {
	Title   string     `json:"title"`
	Locator string     `json:"locator"` // URL or internal document id
	Snippet string     `json:"snippet"`
	Source  FactSource `json:"source"`
}

// ResearchBundle is the research stage's handoff to the enhancer.
// An empty bundle with confidence 0 is a valid (if weak) result.
type ResearchBundle struct {
	Facts      []SourcedFact `json:"facts"`
	Confidence int           `json:"confidence"` // 0-100 grounding confidence
}

// ImageStatus describes how an image resolution ended.
type ImageStatus string

const (
	ImageResolved ImageStatus = "resolved" // Concrete image attached
	ImagePending  ImageStatus = "pending"  // Author will supply one; scored neutral
	ImageNone     ImageStatus = "none"     // Skipped, or library had nothing usable
)

// ImageOutcome is the resolved hero image for a draft.
type ImageOutcome struct {
	Status  ImageStatus `json:"status"`
	ImageID string      `json:"image_id,omitempty"`
	URL     string      `json:"url,omitempty"`
	Source  string      `json:"source,omitempty"`  // "library", "generated", "user"
	Quality float64     `json:"quality,omitempty"` // 0-100 estimate
	Prompt  string      `json:"prompt,omitempty"`  // Generation prompt, when generated
}

// LibraryImage is one stock image in the shared hero-image library.
// Claimed images stay in the library but are skipped by auto-selection.
type LibraryImage struct {
	ID       string   `json:"id"`
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Keywords []string `json:"keywords,omitempty"`
	Quality  float64  `json:"quality"` // 0-100 curation score
	Claimed  bool     `json:"claimed"`
}

// DraftArticle is the mutable work object flowing through the pipeline.
// It exists only within one build attempt; at most one improved
// successor is produced per attempt.
type DraftArticle struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	Excerpt   string        `json:"excerpt"`
	Category  string        `json:"category"`
	Tags      []string      `json:"tags"`
	WordCount int           `json:"word_count"`
	Image     *ImageOutcome `json:"image,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// DimensionScore is one independently scored axis of article quality.
type DimensionScore struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`  // 0-100 raw score
	Weight   float64 `json:"weight"` // Weights across reported dimensions sum to 1.0
	Feedback string  `json:"feedback"`
}

// QualityLevel buckets the weighted overall score.
type QualityLevel string

const (
	QualityExcellent QualityLevel = "excellent" // >= 85
	QualityGood      QualityLevel = "good"      // >= 70
	QualityFair      QualityLevel = "fair"      // >= 50
	QualityPoor      QualityLevel = "poor"
)

// LevelForScore maps an overall score onto its quality bucket.
func LevelForScore(score float64) QualityLevel {
	switch {
	case score >= 85:
		return QualityExcellent
	case score >= 70:
		return QualityGood
	case score >= 50:
		return QualityFair
	default:
		return QualityPoor
	}
}

// Recommendation is the evaluator's publish verdict.
type Recommendation string

const (
	RecommendPublish Recommendation = "publish"
	RecommendHold    Recommendation = "hold"
	RecommendImprove Recommendation = "improve_and_retry"
)

// EvaluationResult aggregates all dimension scores for one evaluation pass.
type EvaluationResult struct {
	Overall        float64          `json:"overall"` // Weighted sum of dimension scores
	Level          QualityLevel     `json:"level"`
	MeetsThreshold bool             `json:"meets_threshold"`
	Dimensions     []DimensionScore `json:"dimensions"`
	CriticalIssues []string         `json:"critical_issues"`
	Warnings       []string         `json:"warnings"`
	Suggestions    []string         `json:"suggestions"`
	Recommendation Recommendation   `json:"recommendation"`
}

// StageID names one pipeline stage.
type StageID string

const (
	StageAnalyze  StageID = "analyze"
	StageResearch StageID = "research"
	StageEnhance  StageID = "enhance"
	StageImage    StageID = "image"
	StageEvaluate StageID = "evaluate"
	StageImprove  StageID = "improve"
	StageDecide   StageID = "decide"
)

// StageState is the lifecycle of one stage within a build.
type StageState string

const (
	StagePending   StageState = "pending"
	StageRunning   StageState = "running"
	StageCompleted StageState = "completed"
	StageSkipped   StageState = "skipped"
	StageFailed    StageState = "failed"
	StageCancelled StageState = "cancelled"
)

// StageStatus is one entry in the build's ordered stage checklist.
// Updated only by the orchestrator.
type StageStatus struct {
	ID    StageID    `json:"id"`
	State StageState `json:"state"`
}

// BuildState is the terminal state of one build attempt.
type BuildState string

const (
	BuildPublished       BuildState = "published"
	BuildDraft           BuildState = "draft"
	BuildFailed          BuildState = "failed"
	BuildCancelled       BuildState = "cancelled"
	BuildInputIncomplete BuildState = "input_incomplete"
)

// MissingInput names a required field the caller must supply, with a
// human-readable prompt.
type MissingInput struct {
	Field  string `json:"field"`
	Prompt string `json:"prompt"`
}

// BuildResult is the terminal record returned to the caller.
// Never mutated after return.
type BuildResult struct {
	Success          bool              `json:"success"`
	BuildID          string            `json:"build_id"`
	State            BuildState        `json:"state"`
	Draft            *DraftArticle     `json:"draft,omitempty"`
	Evaluation       *EvaluationResult `json:"evaluation,omitempty"`
	Image            *ImageOutcome     `json:"image,omitempty"`
	Research         *ResearchBundle   `json:"research,omitempty"`
	WasAutoPublished bool              `json:"was_auto_published"`
	MissingInputs    []MissingInput    `json:"missing_inputs,omitempty"`
	FailedStage      StageID           `json:"failed_stage,omitempty"`
	Error            string            `json:"error,omitempty"`
	Stages           []StageStatus     `json:"stages"`
	CompletedAt      time.Time         `json:"completed_at"`
}
