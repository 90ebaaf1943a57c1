package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// EmbeddingCache memoizes vectors in SQLite, keyed by model and the SHA-256 of the embedded text.
type EmbeddingCache struct {
	db *sql.DB
}

// NewEmbeddingCache creates a new EmbeddingCache on an already migrated database.
func NewEmbeddingCache(db *sql.DB) *EmbeddingCache {
	return &EmbeddingCache{db: db}
}

// TextHash returns the hex SHA-256 digest used as the cache key for text.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Lookup returns the cached vector for (model, text). The boolean is false on a miss.
func (c *EmbeddingCache) Lookup(ctx context.Context, model, text string) ([]float64, bool, error) {
	var raw string
	err := c.db.QueryRowContext(ctx,
		"SELECT vector FROM embeddings WHERE model = ? AND text_hash = ?",
		model, TextHash(text),
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query embedding: %w", err)
	}

	var vector []float64
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached embedding: %w", err)
	}
	if len(vector) == 0 {
		return nil, false, nil
	}
	return vector, true, nil
}

// Store records vector for (model, text), replacing any previous entry.
func (c *EmbeddingCache) Store(ctx context.Context, model, text string, vector []float64) error {
	if len(vector) == 0 {
		return fmt.Errorf("refusing to cache empty embedding")
	}
	raw, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to encode embedding: %w", err)
	}

	_, err = c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO embeddings (model, text_hash, dims, vector) VALUES (?, ?, ?, ?)",
		model, TextHash(text), len(vector), string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	return nil
}

// Count returns the number of cached vectors.
func (c *EmbeddingCache) Count(ctx context.Context) (int, error) {
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM embeddings").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count embeddings: %w", err)
	}
	return n, nil
}
