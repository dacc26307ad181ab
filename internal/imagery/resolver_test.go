package imagery

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pressroom/internal/core"
)

type mockLibrary struct {
	images    []core.LibraryImage // Unclaimed candidates
	used      []core.LibraryImage // Returned only when includeUsed is set
	findErr   error
	claimable map[string]bool
	claims    []string
}

func (m *mockLibrary) FindImages(_ context.Context, _ string, _ []string, limit int, includeUsed bool) ([]core.LibraryImage, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	images := m.images
	if includeUsed {
		images = append(append([]core.LibraryImage{}, m.images...), m.used...)
	}
	if limit > 0 && len(images) > limit {
		return images[:limit], nil
	}
	return images, nil
}

func (m *mockLibrary) ClaimImage(_ context.Context, id, _ string) (bool, error) {
	m.claims = append(m.claims, id)
	return m.claimable[id], nil
}

type mockImageGen struct {
	result *GeneratedImage
	err    error
	calls  int
}

func (m *mockImageGen) Generate(_ context.Context, _, _, _ string) (*GeneratedImage, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func testDraft() *core.DraftArticle {
	return &core.DraftArticle{
		ID:       "draft-1",
		Title:    "Sizing Debt for Solar Projects",
		Category: "Project Finance",
		Tags:     []string{"solar", "DSCR"},
	}
}

func TestResolveSkip(t *testing.T) {
	r := NewResolver(nil, nil, "", "", "")
	outcome, err := r.Resolve(context.Background(), core.ContentRequest{ImageDecision: core.ImageSkip}, testDraft())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if outcome != nil {
		t.Errorf("skip must yield a nil outcome, got %+v", outcome)
	}
}

func TestResolveUserProvided(t *testing.T) {
	r := NewResolver(nil, nil, "", "", "")
	outcome, err := r.Resolve(context.Background(), core.ContentRequest{ImageDecision: core.ImageUserProvided}, testDraft())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if outcome.Status != core.ImagePending || outcome.Source != "user" {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestResolveAutoSelectClaimsLibraryImage(t *testing.T) {
	lib := &mockLibrary{
		images: []core.LibraryImage{
			{ID: "img-1", URL: "https://cdn.example/img-1.png", Quality: 88},
		},
		claimable: map[string]bool{"img-1": true},
	}
	r := NewResolver(lib, nil, "", "", "")

	outcome, err := r.Resolve(context.Background(), core.ContentRequest{ImageDecision: core.ImageAutoSelect}, testDraft())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if outcome.Status != core.ImageResolved || outcome.ImageID != "img-1" || outcome.Source != "library" {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
	if outcome.Quality != 88 {
		t.Errorf("library quality score must carry through, got %f", outcome.Quality)
	}
}

func TestResolveAutoSelectSkipsLostClaims(t *testing.T) {
	lib := &mockLibrary{
		images: []core.LibraryImage{
			{ID: "img-1", URL: "https://cdn.example/img-1.png"},
			{ID: "img-2", URL: "https://cdn.example/img-2.png"},
		},
		claimable: map[string]bool{"img-1": false, "img-2": true},
	}
	r := NewResolver(lib, nil, "", "", "")

	outcome, err := r.Resolve(context.Background(), core.ContentRequest{ImageDecision: core.ImageAutoSelect}, testDraft())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if outcome.ImageID != "img-2" {
		t.Errorf("expected the second candidate after a lost claim, got %+v", outcome)
	}
	if len(lib.claims) != 2 {
		t.Errorf("expected 2 claim attempts, got %d", len(lib.claims))
	}
}

func TestResolveAutoSelectSharesBestMatchWhenAllClaimed(t *testing.T) {
	lib := &mockLibrary{
		used: []core.LibraryImage{
			{ID: "img-1", URL: "https://cdn.example/img-1.png", Quality: 91},
		},
	}
	gen := &mockImageGen{result: &GeneratedImage{URL: "https://cdn.example/generated.png"}}
	r := NewResolver(lib, gen, "", "", "")

	outcome, err := r.Resolve(context.Background(), core.ContentRequest{ImageDecision: core.ImageAutoSelect}, testDraft())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if outcome.Status != core.ImageResolved || outcome.Source != "library" || outcome.URL != "https://cdn.example/img-1.png" {
		t.Errorf("all-claimed library must share its best match, got %+v", outcome)
	}
	if outcome.ImageID != "" {
		t.Errorf("a shared image must not carry a claim id, got %q", outcome.ImageID)
	}
	if len(lib.claims) != 0 {
		t.Errorf("sharing must not attempt a claim, got %v", lib.claims)
	}
	if gen.calls != 0 {
		t.Errorf("a library match must win over generation, got %d calls", gen.calls)
	}
}

func TestResolveAutoSelectEmptyLibraryDegradesToNone(t *testing.T) {
	lib := &mockLibrary{}
	r := NewResolver(lib, nil, "", "", "")

	outcome, err := r.Resolve(context.Background(), core.ContentRequest{ImageDecision: core.ImageAutoSelect}, testDraft())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if outcome.Status != core.ImageNone {
		t.Errorf("empty library without generator must degrade to none, got %+v", outcome)
	}
}

func TestResolveAutoSelectFallsBackToGeneration(t *testing.T) {
	lib := &mockLibrary{}
	gen := &mockImageGen{result: &GeneratedImage{URL: "https://cdn.example/generated.png"}}
	r := NewResolver(lib, gen, "", "", "")

	outcome, err := r.Resolve(context.Background(), core.ContentRequest{ImageDecision: core.ImageAutoSelect}, testDraft())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if outcome.Status != core.ImageResolved || outcome.Source != "generated" {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
	if gen.calls != 1 {
		t.Errorf("expected one generation call, got %d", gen.calls)
	}
}

func TestResolveGenerateWithoutBackendFails(t *testing.T) {
	r := NewResolver(nil, nil, "", "", "")
	_, err := r.Resolve(context.Background(), core.ContentRequest{
		ImageDecision: core.ImageGenerate,
		ImagePrompt:   "a wind farm at dusk",
	}, testDraft())
	if !errors.Is(err, ErrGeneratorUnavailable) {
		t.Errorf("expected ErrGeneratorUnavailable, got %v", err)
	}
}

func TestResolveGenerateUsesRequestPrompt(t *testing.T) {
	gen := &mockImageGen{result: &GeneratedImage{URL: "https://cdn.example/generated.png"}}
	r := NewResolver(nil, gen, "", "", "")

	outcome, err := r.Resolve(context.Background(), core.ContentRequest{
		ImageDecision: core.ImageGenerate,
		ImagePrompt:   "a wind farm at dusk",
	}, testDraft())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if outcome.Prompt != "a wind farm at dusk" {
		t.Errorf("request prompt must be used verbatim, got %q", outcome.Prompt)
	}
}

func TestDerivePromptMentionsTitleAndCategory(t *testing.T) {
	prompt := derivePrompt(testDraft())
	for _, want := range []string{"Sizing Debt for Solar Projects", "Project Finance"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("derived prompt missing %q: %q", want, prompt)
		}
	}
}
