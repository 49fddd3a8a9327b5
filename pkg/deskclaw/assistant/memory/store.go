// Package memory – store.go implements the SQLite-backed retrieval store
// used for file Q&A and web research. Documents are chunked by paragraph,
// embedded, and stored with JSON-encoded float32 vectors; retrieval runs
// an in-process cosine search over a memory-resident vector cache. This
// avoids any external vector database while keeping top-k retrieval fast
// at desktop scale.
package memory

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// maxChunkChars bounds a single chunk; oversized paragraphs are split.
const maxChunkChars = 1000

// SQLiteStore provides persistent document storage with vector retrieval.
type SQLiteStore struct {
	db       *sql.DB
	embedder EmbeddingProvider
	logger   *slog.Logger

	// vectorCache holds all chunk embeddings in memory for cosine search.
	// Refreshed after every index operation.
	vectorCacheMu sync.RWMutex
	vectorCache   []vectorCacheEntry
}

// vectorCacheEntry holds one chunk embedding for in-memory search.
type vectorCacheEntry struct {
	chunkID   int64
	docID     string
	text      string
	embedding []float32
}

// SearchResult is a single retrieval hit with its similarity score.
type SearchResult struct {
	DocID string
	Text  string
	Score float64
}

// NewSQLiteStore opens or creates the retrieval database.
func NewSQLiteStore(dbPath string, embedder EmbeddingProvider, logger *slog.Logger) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create memory directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	store := &SQLiteStore{
		db:       db,
		embedder: embedder,
		logger:   logger.With("component", "memory"),
	}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if err := store.refreshVectorCache(); err != nil {
		store.logger.Warn("failed to load vector cache", "error", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id     TEXT UNIQUE NOT NULL,
			hash       TEXT NOT NULL,
			indexed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS chunks (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id     TEXT NOT NULL,
			chunk_idx  INTEGER NOT NULL,
			text       TEXT NOT NULL,
			embedding  TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(doc_id, chunk_idx)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// IndexDocument chunks, embeds and stores a document. Re-indexing an
// unchanged document (same content hash) is a no-op; changed documents
// replace all previous chunks.
func (s *SQLiteStore) IndexDocument(ctx context.Context, docID, content string) error {
	chunks := chunkText(content)
	if len(chunks) == 0 {
		return fmt.Errorf("document %q has no indexable text", docID)
	}

	hash := hashText(content)
	var existing string
	err := s.db.QueryRow("SELECT hash FROM documents WHERE doc_id = ?", docID).Scan(&existing)
	if err == nil && existing == hash {
		s.logger.Debug("document unchanged, skipping index", "doc", docID)
		return nil
	}

	embeddings, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embedding %d chunks: %w", len(chunks), err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin index tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chunks WHERE doc_id = ?", docID); err != nil {
		return fmt.Errorf("clear old chunks: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO documents (doc_id, hash) VALUES (?, ?)
		 ON CONFLICT(doc_id) DO UPDATE SET hash = excluded.hash, indexed_at = CURRENT_TIMESTAMP`,
		docID, hash,
	); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}

	for i, chunk := range chunks {
		emb, err := json.Marshal(embeddings[i])
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		if _, err := tx.Exec(
			"INSERT INTO chunks (doc_id, chunk_idx, text, embedding) VALUES (?, ?, ?, ?)",
			docID, i, chunk, string(emb),
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit index tx: %w", err)
	}

	s.logger.Info("document indexed", "doc", docID, "chunks", len(chunks), "embedder", s.embedder.Name())
	return s.refreshVectorCache()
}

// IndexFile reads a file from disk and indexes it under its path.
func (s *SQLiteStore) IndexFile(ctx context.Context, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %q: %w", path, err)
	}
	return s.IndexDocument(ctx, path, string(content))
}

// Retrieve returns the top-k most similar chunks for a query, best first.
// An empty result is not an error.
func (s *SQLiteStore) Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = 3
	}

	vecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	queryVec := vecs[0]

	s.vectorCacheMu.RLock()
	defer s.vectorCacheMu.RUnlock()

	results := make([]SearchResult, 0, len(s.vectorCache))
	for _, entry := range s.vectorCache {
		score := cosine(queryVec, entry.embedding)
		if score <= 0 {
			continue
		}
		results = append(results, SearchResult{
			DocID: entry.docID,
			Text:  entry.text,
			Score: score,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// RetrieveTexts is Retrieve flattened to the chunk texts only, the shape
// the assistant handlers consume.
func (s *SQLiteStore) RetrieveTexts(ctx context.Context, query string, k int) ([]string, error) {
	results, err := s.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return texts, nil
}

// refreshVectorCache reloads all chunk embeddings into memory.
func (s *SQLiteStore) refreshVectorCache() error {
	rows, err := s.db.Query("SELECT id, doc_id, text, embedding FROM chunks WHERE embedding IS NOT NULL")
	if err != nil {
		return err
	}
	defer rows.Close()

	var cache []vectorCacheEntry
	for rows.Next() {
		var entry vectorCacheEntry
		var embJSON string
		if err := rows.Scan(&entry.chunkID, &entry.docID, &entry.text, &embJSON); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(embJSON), &entry.embedding); err != nil {
			s.logger.Warn("skipping chunk with bad embedding", "chunk", entry.chunkID, "error", err)
			continue
		}
		cache = append(cache, entry)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.vectorCacheMu.Lock()
	s.vectorCache = cache
	s.vectorCacheMu.Unlock()
	return nil
}

// chunkText splits content into paragraph chunks, further splitting
// paragraphs that exceed maxChunkChars.
func chunkText(content string) []string {
	var chunks []string
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for len(para) > maxChunkChars {
			cut := strings.LastIndex(para[:maxChunkChars], " ")
			if cut <= 0 {
				cut = maxChunkChars
			}
			chunks = append(chunks, strings.TrimSpace(para[:cut]))
			para = strings.TrimSpace(para[cut:])
		}
		if para != "" {
			chunks = append(chunks, para)
		}
	}
	return chunks
}

// hashText returns the hex SHA-256 of text.
func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
