package knowledge

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Embedder produces embedding vectors for passages and queries.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float64, error)
}

// Passage is one entry in the internal knowledge index. The CRM loads
// passages out of band (methodology notes, past engagements, sector
// research); the pipeline only queries them.
type Passage struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AddedAt   time.Time `json:"added_at"`
	Embedding []float64 `json:"-"`
}

// Hit is a passage with its relevance to a query.
type Hit struct {
	Passage
	Score float64 `json:"score"` // Cosine similarity, -1..1
}

// Index is the sqlite-backed semantic index over internal passages.
type Index struct {
	db       *sql.DB
	embedder Embedder
}

// NewIndex opens (or creates) the index database under dataDir.
func NewIndex(dataDir string, embedder Embedder) (*Index, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "knowledge.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge database: %w", err)
	}

	idx := &Index{db: db, embedder: embedder}
	if err := idx.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize knowledge database: %w", err)
	}

	return idx, nil
}

func (i *Index) initialize() error {
	table := `
	CREATE TABLE IF NOT EXISTS passages (
		id TEXT PRIMARY KEY,
		title TEXT,
		content TEXT,
		embedding TEXT,
		added_at DATETIME
	);`
	if _, err := i.db.Exec(table); err != nil {
		return fmt.Errorf("failed to create passages table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (i *Index) Close() error {
	return i.db.Close()
}

// Add embeds and stores one passage, returning its id.
func (i *Index) Add(ctx context.Context, title, content string) (string, error) {
	embedding, err := i.embedder.GenerateEmbedding(ctx, content)
	if err != nil {
		return "", fmt.Errorf("failed to embed passage: %w", err)
	}

	embJSON, err := json.Marshal(embedding)
	if err != nil {
		return "", fmt.Errorf("failed to encode embedding: %w", err)
	}

	id := uuid.NewString()
	_, err = i.db.ExecContext(ctx, `
		INSERT INTO passages (id, title, content, embedding, added_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, title, content, string(embJSON), time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to store passage: %w", err)
	}

	return id, nil
}

// Query returns the top-limit passages by cosine similarity to the
// query text. The corpus is scanned in full; internal knowledge bases
// stay small enough that an exhaustive scan beats index maintenance.
func (i *Index) Query(ctx context.Context, query string, limit int) ([]Hit, error) {
	queryEmbedding, err := i.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := i.db.QueryContext(ctx, `SELECT id, title, content, embedding, added_at FROM passages`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan passages: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var p Passage
		var embJSON string
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &embJSON, &p.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		if err := json.Unmarshal([]byte(embJSON), &p.Embedding); err != nil {
			continue // Unreadable embedding; skip rather than fail the query
		}
		hits = append(hits, Hit{Passage: p, Score: CosineSimilarity(queryEmbedding, p.Embedding)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate passages: %w", err)
	}

	sort.Slice(hits, func(a, b int) bool { return hits[a].Score > hits[b].Score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Count returns the number of stored passages.
func (i *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := i.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passages`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count passages: %w", err)
	}
	return n, nil
}

// CosineSimilarity computes cosine similarity between two vectors.
// Mismatched or zero-length vectors score 0.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
