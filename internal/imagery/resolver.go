package imagery

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"pressroom/internal/core"
	"pressroom/internal/logger"
)

// ErrGeneratorUnavailable means the request explicitly asked for image
// generation but no generation backend is configured.
var ErrGeneratorUnavailable = errors.New("image generation capability unavailable")

// candidateLimit bounds how many library images are considered per
// auto-selection pass.
const candidateLimit = 10

// Library is the stock-image store as seen by the resolver. Claiming is
// atomic: at most one concurrent build wins a given image.
type Library interface {
	FindImages(ctx context.Context, category string, keywords []string, limit int, includeUsed bool) ([]core.LibraryImage, error)
	ClaimImage(ctx context.Context, id, articleID string) (bool, error)
}

// Generator produces a new image for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt, size, quality string) (*GeneratedImage, error)
}

// Resolver attaches a hero image to a draft according to the request's
// image policy. Library misses and generation failures degrade to a
// "none" outcome; only an explicit generate request with no backend is
// a hard error.
type Resolver struct {
	library   Library
	generator Generator
	outputDir string
	size      string
	quality   string
}

// NewResolver creates an image resolver. Either backend may be nil.
func NewResolver(library Library, generator Generator, outputDir, size, quality string) *Resolver {
	if size == "" {
		size = "1536x1024"
	}
	return &Resolver{
		library:   library,
		generator: generator,
		outputDir: outputDir,
		size:      size,
		quality:   quality,
	}
}

// Resolve applies the request's image policy to the draft.
// A nil outcome with nil error means the image concern was skipped and
// quality scoring should exclude the image dimension.
func (r *Resolver) Resolve(ctx context.Context, req core.ContentRequest, draft *core.DraftArticle) (*core.ImageOutcome, error) {
	switch req.ImageDecision {
	case core.ImageSkip:
		return nil, nil

	case core.ImageUserProvided:
		// The author attaches their own image after the build.
		return &core.ImageOutcome{Status: core.ImagePending, Source: "user"}, nil

	case core.ImageGenerate:
		if r.generator == nil {
			return nil, ErrGeneratorUnavailable
		}
		return r.generate(ctx, req, draft)

	default: // auto_select
		return r.autoSelect(ctx, req, draft)
	}
}

// autoSelect picks the best unclaimed library image for the draft's
// category and keywords. When every match is already in use the best
// used match is shared instead; generation is the fallback only when
// the library has no match at all.
func (r *Resolver) autoSelect(ctx context.Context, req core.ContentRequest, draft *core.DraftArticle) (*core.ImageOutcome, error) {
	if r.library != nil {
		candidates, err := r.library.FindImages(ctx, draft.Category, draft.Tags, candidateLimit, false)
		if err != nil {
			logger.Warn("image library lookup failed", "category", draft.Category, "error", err.Error())
		}
		for _, img := range candidates {
			claimed, err := r.library.ClaimImage(ctx, img.ID, draft.ID)
			if err != nil {
				logger.Warn("image claim failed", "image_id", img.ID, "error", err.Error())
				continue
			}
			if !claimed {
				continue // Another build won this image; try the next candidate
			}
			logger.Info("hero image selected from library", "image_id", img.ID, "quality", img.Quality)
			return &core.ImageOutcome{
				Status:  core.ImageResolved,
				ImageID: img.ID,
				URL:     img.URL,
				Source:  "library",
				Quality: img.Quality,
			}, nil
		}

		used, err := r.library.FindImages(ctx, draft.Category, draft.Tags, 1, true)
		if err != nil {
			logger.Warn("image library lookup failed", "category", draft.Category, "error", err.Error())
		}
		if len(used) > 0 {
			img := used[0]
			logger.Info("hero image shared from library, all matches in use", "image_id", img.ID, "quality", img.Quality)
			// ImageID stays empty: a failed build must not release
			// another article's claim.
			return &core.ImageOutcome{
				Status:  core.ImageResolved,
				URL:     img.URL,
				Source:  "library",
				Quality: img.Quality,
			}, nil
		}
	}

	if r.generator != nil {
		outcome, err := r.generate(ctx, req, draft)
		if err != nil {
			logger.Warn("generation fallback failed, continuing without image", "error", err.Error())
			return &core.ImageOutcome{Status: core.ImageNone}, nil
		}
		return outcome, nil
	}

	logger.Warn("no library match and no generator configured", "category", draft.Category)
	return &core.ImageOutcome{Status: core.ImageNone}, nil
}

func (r *Resolver) generate(ctx context.Context, req core.ContentRequest, draft *core.DraftArticle) (*core.ImageOutcome, error) {
	prompt := strings.TrimSpace(req.ImagePrompt)
	if prompt == "" {
		prompt = derivePrompt(draft)
	}

	img, err := r.generator.Generate(ctx, prompt, r.size, r.quality)
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	url := img.URL
	if url == "" && img.B64Data != "" {
		path := filepath.Join(r.outputDir, uuid.New().String()+".png")
		if err := SaveBase64Image(img.B64Data, path); err != nil {
			return nil, err
		}
		url = path
	}
	if url == "" {
		return nil, fmt.Errorf("image generation returned no payload")
	}

	logger.Info("hero image generated", "url", url)
	return &core.ImageOutcome{
		Status: core.ImageResolved,
		URL:    url,
		Source: "generated",
		Prompt: prompt,
	}, nil
}

// derivePrompt builds a generation prompt from the draft when the
// request did not supply one.
func derivePrompt(draft *core.DraftArticle) string {
	var b strings.Builder
	b.WriteString("Professional editorial hero image for a finance publication article titled ")
	fmt.Fprintf(&b, "%q", draft.Title)
	if draft.Category != "" {
		b.WriteString(", sector: " + draft.Category)
	}
	b.WriteString(". Clean, modern, no text overlay.")
	return b.String()
}
