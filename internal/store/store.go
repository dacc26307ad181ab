package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"pressroom/internal/core"
)

// Store is the SQLite-backed content store: published and held
// articles, build records, and the shared hero-image library.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (creating if needed) the content database in dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "pressroom.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	articlesTable := `
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		excerpt TEXT,
		category TEXT,
		tags TEXT,
		word_count INTEGER,
		image_id TEXT,
		image_url TEXT,
		state TEXT NOT NULL,
		overall_score REAL,
		created_at DATETIME,
		published_at DATETIME
	);`

	buildsTable := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		article_id TEXT,
		state TEXT NOT NULL,
		overall_score REAL,
		was_auto_published INTEGER,
		failed_stage TEXT,
		error TEXT,
		completed_at DATETIME
	);`

	imagesTable := `
	CREATE TABLE IF NOT EXISTS images (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT,
		category TEXT,
		keywords TEXT,
		quality REAL,
		claimed INTEGER DEFAULT 0,
		claimed_at DATETIME,
		used_by TEXT
	);`

	for _, table := range []string{articlesTable, buildsTable, imagesTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveArticle writes the draft under the given lifecycle state.
// Published articles get a publish timestamp; drafts can be saved again
// later with a new state.
func (s *Store) SaveArticle(ctx context.Context, draft *core.DraftArticle, state core.BuildState, score float64) error {
	tags, _ := json.Marshal(draft.Tags)

	var imageID, imageURL string
	if draft.Image != nil {
		imageID = draft.Image.ImageID
		imageURL = draft.Image.URL
	}

	var publishedAt interface{}
	if state == core.BuildPublished {
		publishedAt = time.Now().UTC()
	}

	query := `
	INSERT OR REPLACE INTO articles
	(id, title, body, excerpt, category, tags, word_count, image_id, image_url, state, overall_score, created_at, published_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		draft.ID, draft.Title, draft.Body, draft.Excerpt, draft.Category,
		string(tags), draft.WordCount, imageID, imageURL,
		string(state), score, draft.CreatedAt.UTC(), publishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save article: %w", err)
	}
	return nil
}

// GetArticle loads one article with its stored state and score.
func (s *Store) GetArticle(ctx context.Context, id string) (*core.DraftArticle, core.BuildState, float64, error) {
	query := `
	SELECT id, title, body, excerpt, category, tags, word_count, image_id, image_url, state, overall_score, created_at
	FROM articles WHERE id = ?`

	var draft core.DraftArticle
	var tags, imageID, imageURL, state string
	var score float64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&draft.ID, &draft.Title, &draft.Body, &draft.Excerpt, &draft.Category,
		&tags, &draft.WordCount, &imageID, &imageURL, &state, &score, &draft.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, "", 0, fmt.Errorf("article %s not found", id)
	}
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to load article: %w", err)
	}

	_ = json.Unmarshal([]byte(tags), &draft.Tags)
	if imageURL != "" || imageID != "" {
		draft.Image = &core.ImageOutcome{Status: core.ImageResolved, ImageID: imageID, URL: imageURL}
	}
	return &draft, core.BuildState(state), score, nil
}

// RecentTitles returns the newest published titles in a category, used
// to keep new titles distinct.
func (s *Store) RecentTitles(ctx context.Context, category string, limit int) ([]string, error) {
	query := `
	SELECT title FROM articles
	WHERE state = ? AND category = ?
	ORDER BY published_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, string(core.BuildPublished), category, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// RecentPublishedBodies returns the newest published article bodies,
// used for originality comparison.
func (s *Store) RecentPublishedBodies(ctx context.Context, limit int) ([]string, error) {
	query := `
	SELECT body FROM articles
	WHERE state = ?
	ORDER BY published_at DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, string(core.BuildPublished), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query published bodies: %w", err)
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	return bodies, rows.Err()
}

// SaveBuildRecord persists the outcome of one build attempt for audit.
func (s *Store) SaveBuildRecord(ctx context.Context, result *core.BuildResult) error {
	var articleID string
	var score float64
	if result.Draft != nil {
		articleID = result.Draft.ID
	}
	if result.Evaluation != nil {
		score = result.Evaluation.Overall
	}

	query := `
	INSERT OR REPLACE INTO builds
	(id, article_id, state, overall_score, was_auto_published, failed_stage, error, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		result.BuildID, articleID, string(result.State), score,
		result.WasAutoPublished, string(result.FailedStage), result.Error, result.CompletedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save build record: %w", err)
	}
	return nil
}

// AddImage adds a stock image to the hero-image library.
func (s *Store) AddImage(ctx context.Context, img core.LibraryImage) error {
	keywords, _ := json.Marshal(img.Keywords)

	query := `
	INSERT OR REPLACE INTO images (id, url, title, category, keywords, quality, claimed)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		img.ID, img.URL, img.Title, img.Category, string(keywords), img.Quality, img.Claimed,
	)
	if err != nil {
		return fmt.Errorf("failed to add image: %w", err)
	}
	return nil
}

// FindImages returns library images for a category, best quality
// first. Claimed images are excluded unless includeUsed is set.
// Keyword matches against title and keyword list widen the candidate
// set when the category alone is thin.
func (s *Store) FindImages(ctx context.Context, category string, keywords []string, limit int, includeUsed bool) ([]core.LibraryImage, error) {
	claimFilter := "claimed = 0 AND "
	if includeUsed {
		claimFilter = ""
	}
	query := `
	SELECT id, url, title, category, keywords, quality
	FROM images
	WHERE ` + claimFilter + `category = ?
	ORDER BY quality DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, category, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	images, err := scanImages(rows)
	if err != nil {
		return nil, err
	}

	if len(images) < limit && len(keywords) > 0 {
		more, err := s.findByKeywords(ctx, keywords, limit-len(images), category, includeUsed)
		if err != nil {
			return nil, err
		}
		images = append(images, more...)
	}
	return images, nil
}

func (s *Store) findByKeywords(ctx context.Context, keywords []string, limit int, excludeCategory string, includeUsed bool) ([]core.LibraryImage, error) {
	claimFilter := "claimed = 0 AND "
	if includeUsed {
		claimFilter = ""
	}
	// Stored keyword lists are JSON arrays; a LIKE on the serialized
	// form is close enough for candidate widening.
	query := `
	SELECT id, url, title, category, keywords, quality
	FROM images
	WHERE ` + claimFilter + `category != ? AND (`
	args := []interface{}{excludeCategory}
	for i, kw := range keywords {
		if i > 0 {
			query += " OR "
		}
		query += "keywords LIKE ? OR title LIKE ?"
		pattern := "%" + kw + "%"
		args = append(args, pattern, pattern)
	}
	query += ") ORDER BY quality DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images by keyword: %w", err)
	}
	return scanImages(rows)
}

func scanImages(rows *sql.Rows) ([]core.LibraryImage, error) {
	defer rows.Close()

	var images []core.LibraryImage
	for rows.Next() {
		var img core.LibraryImage
		var keywords string
		if err := rows.Scan(&img.ID, &img.URL, &img.Title, &img.Category, &keywords, &img.Quality); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(keywords), &img.Keywords)
		images = append(images, img)
	}
	return images, rows.Err()
}

// ClaimImage atomically marks an image as claimed. It returns false
// when another build already holds the claim; the conditional UPDATE is
// the only writer of the claimed flag.
func (s *Store) ClaimImage(ctx context.Context, id, articleID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE images SET claimed = 1, claimed_at = ?, used_by = ? WHERE id = ? AND claimed = 0`,
		time.Now().UTC(), articleID, id,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim image: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ReleaseImage returns a claimed image to the pool, for builds that
// claimed an image and then failed.
func (s *Store) ReleaseImage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE images SET claimed = 0, claimed_at = NULL, used_by = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to release image: %w", err)
	}
	return nil
}

// Stats reports store contents for the status surfaces.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	stats := make(map[string]int)

	queries := map[string]string{
		"published_articles": `SELECT COUNT(*) FROM articles WHERE state = 'published'`,
		"draft_articles":     `SELECT COUNT(*) FROM articles WHERE state = 'draft'`,
		"builds":             `SELECT COUNT(*) FROM builds`,
		"library_images":     `SELECT COUNT(*) FROM images WHERE claimed = 0`,
	}
	for name, query := range queries {
		var count int
		if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		stats[name] = count
	}
	return stats, nil
}
