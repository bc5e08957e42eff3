package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"comment-translator/internal/textutil"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS comment_translations (
	hash       TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	translated TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsert = `
INSERT INTO comment_translations (hash, source, translated)
VALUES ($1, $2, $3)
ON CONFLICT (hash) DO UPDATE SET translated = EXCLUDED.translated, updated_at = now()`

// TranslationCache is a translation memory keyed by source comment text,
// held in memory and optionally backed by PostgreSQL.
type TranslationCache struct {
	pool   *pgxpool.Pool
	mu     sync.RWMutex
	memory map[string]string // hash → translated text
}

// NewTranslationCache creates a cache. A nil pool keeps it in memory only.
func NewTranslationCache(pool *pgxpool.Pool) *TranslationCache {
	return &TranslationCache{
		pool:   pool,
		memory: make(map[string]string),
	}
}

// Connect opens a PostgreSQL pool for databaseURL and verifies it.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// EnsureSchema creates the backing table if needed.
func (c *TranslationCache) EnsureSchema(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if _, err := c.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create translation memory table: %w", err)
	}
	return nil
}

// Get retrieves a remembered translation of sourceText.
func (c *TranslationCache) Get(ctx context.Context, sourceText string) (string, bool) {
	hash := textutil.Hash(sourceText)

	c.mu.RLock()
	if v, ok := c.memory[hash]; ok {
		c.mu.RUnlock()
		return v, true
	}
	c.mu.RUnlock()

	if c.pool == nil {
		return "", false
	}

	var translated string
	err := c.pool.QueryRow(ctx, `SELECT translated FROM comment_translations WHERE hash = $1`, hash).Scan(&translated)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Warn().Err(err).Msg("Translation memory lookup failed")
		}
		return "", false
	}

	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	return translated, true
}

// Set remembers translated as the translation of sourceText.
func (c *TranslationCache) Set(ctx context.Context, sourceText, translated string) error {
	hash := textutil.Hash(sourceText)

	c.mu.Lock()
	c.memory[hash] = translated
	c.mu.Unlock()

	if c.pool == nil {
		return nil
	}

	_, err := c.pool.Exec(ctx, upsert, hash, sourceText, translated)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// SetBatch remembers several translations, keyed by source text, in one
// round trip.
func (c *TranslationCache) SetBatch(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	c.mu.Lock()
	for source, translated := range pairs {
		hash := textutil.Hash(source)
		c.memory[hash] = translated
		batch.Queue(upsert, hash, source, translated)
	}
	c.mu.Unlock()

	if c.pool == nil {
		return nil
	}
	if err := c.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("cache set batch: %w", err)
	}
	return nil
}

// Preload loads all remembered translations into memory.
func (c *TranslationCache) Preload(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}

	rows, err := c.pool.Query(ctx, `SELECT hash, translated FROM comment_translations`)
	if err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}
	defer rows.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for rows.Next() {
		var hash, translated string
		if err := rows.Scan(&hash, &translated); err != nil {
			return fmt.Errorf("preload cache: %w", err)
		}
		c.memory[hash] = translated
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preload cache: %w", err)
	}

	log.Info().Int("count", count).Msg("Preloaded translation memory")
	return nil
}
