package memory

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := NewSQLiteStore(":memory:", NewHashEmbedder(64), logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIndexAndRetrieve(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	doc := "The solar system has eight planets orbiting the sun.\n\n" +
		"Bread is baked from flour, water, salt and yeast.\n\n" +
		"Jupiter is the largest planet in the solar system."
	if err := store.IndexDocument(ctx, "notes.txt", doc); err != nil {
		t.Fatalf("index: %v", err)
	}

	results, err := store.Retrieve(ctx, "largest planet solar system", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if results[0].Text != "Jupiter is the largest planet in the solar system." {
		t.Errorf("top result = %q", results[0].Text)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("results not sorted by score at index %d", i)
		}
	}
}

func TestReindexUnchangedIsNoop(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.IndexDocument(ctx, "a.txt", "hello world"); err != nil {
		t.Fatalf("first index: %v", err)
	}
	if err := store.IndexDocument(ctx, "a.txt", "hello world"); err != nil {
		t.Fatalf("second index: %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM chunks WHERE doc_id = 'a.txt'").Scan(&count); err != nil {
		t.Fatalf("count chunks: %v", err)
	}
	if count != 1 {
		t.Errorf("chunk count = %d, want 1", count)
	}
}

func TestReindexChangedReplacesChunks(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.IndexDocument(ctx, "b.txt", "first\n\nsecond\n\nthird"); err != nil {
		t.Fatalf("first index: %v", err)
	}
	if err := store.IndexDocument(ctx, "b.txt", "only one paragraph now"); err != nil {
		t.Fatalf("second index: %v", err)
	}

	var count int
	if err := store.db.QueryRow("SELECT COUNT(*) FROM chunks WHERE doc_id = 'b.txt'").Scan(&count); err != nil {
		t.Fatalf("count chunks: %v", err)
	}
	if count != 1 {
		t.Errorf("chunk count = %d, want 1", count)
	}
}

func TestIndexEmptyDocumentFails(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	if err := store.IndexDocument(context.Background(), "empty.txt", "  \n\n  "); err == nil {
		t.Fatal("expected error for empty document")
	}
}

func TestRetrieveEmptyStore(t *testing.T) {
	t.Parallel()
	store := openTestStore(t)
	results, err := store.Retrieve(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestChunkText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"two paragraphs", "one\n\ntwo", 2},
		{"blank paragraphs skipped", "one\n\n   \n\ntwo", 2},
		{"single paragraph", "just one", 1},
		{"empty", "", 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := chunkText(tt.input)
			if len(got) != tt.want {
				t.Errorf("chunkText(%q) = %d chunks, want %d", tt.input, len(got), tt.want)
			}
		})
	}
}

func TestHashEmbedderDeterministic(t *testing.T) {
	t.Parallel()
	emb := NewHashEmbedder(32)
	a, err := emb.Embed(context.Background(), []string{"hello world"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	b, err := emb.Embed(context.Background(), []string{"hello world"})
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if cosine(a[0], b[0]) < 0.999 {
		t.Error("same text should embed identically")
	}
}
