package store

import (
	"context"
	"testing"
	"time"

	"pressroom/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleDraft(id, title, category string) *core.DraftArticle {
	return &core.DraftArticle{
		ID:        id,
		Title:     title,
		Body:      "body of " + title,
		Excerpt:   "excerpt",
		Category:  category,
		Tags:      []string{"solar"},
		WordCount: 4,
		CreatedAt: time.Now(),
	}
}

func TestSaveAndGetArticle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	draft := sampleDraft("a-1", "Debt Sizing Basics", "Project Finance")
	draft.Image = &core.ImageOutcome{Status: core.ImageResolved, ImageID: "img-1", URL: "https://cdn.example/1.png"}

	if err := s.SaveArticle(ctx, draft, core.BuildDraft, 64.5); err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}

	got, state, score, err := s.GetArticle(ctx, "a-1")
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if got.Title != draft.Title || got.Body != draft.Body || got.Category != draft.Category {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if state != core.BuildDraft || score != 64.5 {
		t.Errorf("state/score mismatch: %s %f", state, score)
	}
	if got.Image == nil || got.Image.ImageID != "img-1" {
		t.Errorf("image not restored: %+v", got.Image)
	}
	if len(got.Tags) != 1 || got.Tags[0] != "solar" {
		t.Errorf("tags not restored: %v", got.Tags)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, _, _, err := s.GetArticle(context.Background(), "missing"); err == nil {
		t.Error("expected an error for a missing article")
	}
}

func TestRecentTitlesScopedToCategoryAndState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i, title := range []string{"First", "Second", "Third"} {
		draft := sampleDraft(string(rune('a'+i)), title, "Project Finance")
		if err := s.SaveArticle(ctx, draft, core.BuildPublished, 80); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveArticle(ctx, sampleDraft("d", "Held Draft", "Project Finance"), core.BuildDraft, 60); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveArticle(ctx, sampleDraft("e", "Other Category", "Real Estate"), core.BuildPublished, 80); err != nil {
		t.Fatal(err)
	}

	titles, err := s.RecentTitles(ctx, "Project Finance", 5)
	if err != nil {
		t.Fatalf("RecentTitles failed: %v", err)
	}
	if len(titles) != 3 {
		t.Fatalf("expected 3 published titles in category, got %v", titles)
	}
	for _, title := range titles {
		if title == "Held Draft" || title == "Other Category" {
			t.Errorf("title %q must not appear", title)
		}
	}
}

func TestRecentTitlesHonorsLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		draft := sampleDraft(string(rune('a'+i)), "Title", "Insights")
		if err := s.SaveArticle(ctx, draft, core.BuildPublished, 80); err != nil {
			t.Fatal(err)
		}
	}
	titles, err := s.RecentTitles(ctx, "Insights", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(titles) != 5 {
		t.Errorf("expected the 5 newest titles, got %d", len(titles))
	}
}

func TestRecentPublishedBodies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveArticle(ctx, sampleDraft("a", "Published", "Insights"), core.BuildPublished, 80); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveArticle(ctx, sampleDraft("b", "Held", "Insights"), core.BuildDraft, 60); err != nil {
		t.Fatal(err)
	}

	bodies, err := s.RecentPublishedBodies(ctx, 10)
	if err != nil {
		t.Fatalf("RecentPublishedBodies failed: %v", err)
	}
	if len(bodies) != 1 || bodies[0] != "body of Published" {
		t.Errorf("unexpected bodies: %v", bodies)
	}
}

func TestClaimImageIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	img := core.LibraryImage{ID: "img-1", URL: "https://cdn.example/1.png", Category: "Insights", Quality: 80}
	if err := s.AddImage(ctx, img); err != nil {
		t.Fatalf("AddImage failed: %v", err)
	}

	first, err := s.ClaimImage(ctx, "img-1", "art-1")
	if err != nil || !first {
		t.Fatalf("first claim should win: %v %v", first, err)
	}
	second, err := s.ClaimImage(ctx, "img-1", "art-2")
	if err != nil {
		t.Fatalf("second claim errored: %v", err)
	}
	if second {
		t.Error("second claim must lose")
	}

	if err := s.ReleaseImage(ctx, "img-1"); err != nil {
		t.Fatalf("ReleaseImage failed: %v", err)
	}
	again, err := s.ClaimImage(ctx, "img-1", "art-3")
	if err != nil || !again {
		t.Errorf("released image must be claimable again: %v %v", again, err)
	}
}

func TestFindImagesSkipsClaimed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	images := []core.LibraryImage{
		{ID: "img-1", URL: "u1", Category: "Project Finance", Quality: 90},
		{ID: "img-2", URL: "u2", Category: "Project Finance", Quality: 70},
		{ID: "img-3", URL: "u3", Category: "Real Estate", Quality: 95, Keywords: []string{"solar"}},
	}
	for _, img := range images {
		if err := s.AddImage(ctx, img); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.ClaimImage(ctx, "img-1", "art-1"); err != nil {
		t.Fatal(err)
	}

	found, err := s.FindImages(ctx, "Project Finance", nil, 10, false)
	if err != nil {
		t.Fatalf("FindImages failed: %v", err)
	}
	if len(found) != 1 || found[0].ID != "img-2" {
		t.Errorf("expected only the unclaimed category image, got %+v", found)
	}

	widened, err := s.FindImages(ctx, "Project Finance", []string{"solar"}, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(widened) != 2 {
		t.Errorf("keyword widening should pull in the cross-category match, got %+v", widened)
	}
}

func TestFindImagesIncludingUsed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	images := []core.LibraryImage{
		{ID: "img-1", URL: "u1", Category: "Project Finance", Quality: 90},
		{ID: "img-2", URL: "u2", Category: "Project Finance", Quality: 70},
	}
	for _, img := range images {
		if err := s.AddImage(ctx, img); err != nil {
			t.Fatal(err)
		}
	}
	for _, id := range []string{"img-1", "img-2"} {
		if _, err := s.ClaimImage(ctx, id, "art-1"); err != nil {
			t.Fatal(err)
		}
	}

	unused, err := s.FindImages(ctx, "Project Finance", nil, 10, false)
	if err != nil {
		t.Fatalf("FindImages failed: %v", err)
	}
	if len(unused) != 0 {
		t.Errorf("all images are claimed, expected none, got %+v", unused)
	}

	all, err := s.FindImages(ctx, "Project Finance", nil, 10, true)
	if err != nil {
		t.Fatalf("FindImages failed: %v", err)
	}
	if len(all) != 2 || all[0].ID != "img-1" {
		t.Errorf("includeUsed must return claimed images best quality first, got %+v", all)
	}
}

func TestSaveBuildRecord(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result := &core.BuildResult{
		BuildID:          "build-1",
		State:            core.BuildPublished,
		Draft:            sampleDraft("a-1", "T", "Insights"),
		Evaluation:       &core.EvaluationResult{Overall: 82.5},
		WasAutoPublished: true,
		CompletedAt:      time.Now(),
	}
	if err := s.SaveBuildRecord(ctx, result); err != nil {
		t.Fatalf("SaveBuildRecord failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats["builds"] != 1 {
		t.Errorf("expected 1 build record, got %d", stats["builds"])
	}
}
