package flat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
)

// vocabEmbedder maps known texts to fixed vectors, so tests control the
// geometry exactly. Passages and queries share the vocabulary.
type vocabEmbedder struct {
	vectors  map[string][]float32
	passages int
	queryErr error
}

func (e *vocabEmbedder) EmbedPassages(_ context.Context, texts []string) ([][]float32, error) {
	e.passages++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := e.vectors[text]
		if !ok {
			return nil, errors.New("unknown text: " + text)
		}
		out[i] = vec
	}
	return out, nil
}

func (e *vocabEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.queryErr != nil {
		return nil, e.queryErr
	}
	vec, ok := e.vectors[text]
	if !ok {
		return nil, errors.New("unknown text: " + text)
	}
	return vec, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testItems() []domain.CatalogItem {
	items := []domain.CatalogItem{
		{ID: 1, Name: "Короб 200x200", Cost: 1500},
		{ID: 2, Name: "Крышка короба", Cost: 400},
		{ID: 3, Name: "Винт М6", Cost: 12},
	}
	for i := range items {
		items[i].NormalizedName = domain.NormalizeName(items[i].Name)
	}
	return items
}

func testEmbedder() *vocabEmbedder {
	return &vocabEmbedder{vectors: map[string][]float32{
		"короб 200x200": {1, 0, 0},
		"крышка короба": {0.9, 0.3, 0},
		"винт м6":       {0, 0, 1},
		"нужен короб":   {1, 0.1, 0},
		"винтик":        {0, 0.1, 1},
	}}
}

func newTestHandle(t *testing.T, embedder *vocabEmbedder, cache *Cache) *Handle {
	t.Helper()
	builder := NewBuilder(embedder, nil, nil, nil, 2, discardLogger())
	return NewHandle(builder, embedder, cache, discardLogger())
}

func TestHandleSearch(t *testing.T) {
	h := newTestHandle(t, testEmbedder(), nil)

	n, err := h.Rebuild(context.Background(), testItems())
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if n != 3 || !h.Ready() || h.Size() != 3 {
		t.Fatalf("unexpected index state: n=%d ready=%v size=%d", n, h.Ready(), h.Size())
	}

	candidates, err := h.Search(context.Background(), "нужен короб", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	if candidates[0].ItemID != 1 || candidates[0].Rank != 1 {
		t.Fatalf("best candidate = %+v, want item 1 rank 1", candidates[0])
	}
	if candidates[1].Score > candidates[0].Score {
		t.Fatalf("candidates out of order: %+v", candidates)
	}
}

func TestHandleSearchBeforeBuild(t *testing.T) {
	h := newTestHandle(t, testEmbedder(), nil)

	_, err := h.Search(context.Background(), "нужен короб", 2)
	if !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestHandleEmptyCatalog(t *testing.T) {
	h := newTestHandle(t, testEmbedder(), nil)

	n, err := h.Rebuild(context.Background(), nil)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if n != 0 || !h.Ready() {
		t.Fatalf("empty catalog must produce a ready empty index: n=%d ready=%v", n, h.Ready())
	}

	candidates, err := h.Search(context.Background(), "нужен короб", 3)
	if err != nil || candidates != nil {
		t.Fatalf("empty index search = (%v, %v), want (nil, nil)", candidates, err)
	}
}

func TestHandleEmbedErrorIsUnavailable(t *testing.T) {
	embedder := testEmbedder()
	h := newTestHandle(t, embedder, nil)
	if _, err := h.Rebuild(context.Background(), testItems()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	embedder.queryErr = errors.New("embedder down")
	_, err := h.Search(context.Background(), "нужен короб", 2)
	if !domain.IsKind(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}

func TestSimilarToExcludesSelf(t *testing.T) {
	h := newTestHandle(t, testEmbedder(), nil)
	if _, err := h.Rebuild(context.Background(), testItems()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	candidates, err := h.SimilarTo(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("SimilarTo() error = %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(candidates))
	}
	for _, c := range candidates {
		if c.ItemID == 1 {
			t.Fatalf("result contains the item itself: %+v", candidates)
		}
	}
	if candidates[0].ItemID != 2 {
		t.Fatalf("nearest neighbor = %d, want 2", candidates[0].ItemID)
	}
}

func TestSimilarToUnknownItem(t *testing.T) {
	h := newTestHandle(t, testEmbedder(), nil)
	if _, err := h.Rebuild(context.Background(), testItems()); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	_, err := h.SimilarTo(context.Background(), 99, 2)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRebuildReusesCachedIndex(t *testing.T) {
	cache, err := OpenCache("", discardLogger())
	if err != nil {
		t.Fatalf("OpenCache() error = %v", err)
	}
	defer func() { _ = cache.Close() }()

	embedder := testEmbedder()
	h := newTestHandle(t, embedder, cache)

	if _, err := h.Rebuild(context.Background(), testItems()); err != nil {
		t.Fatalf("first Rebuild() error = %v", err)
	}
	builds := embedder.passages
	if builds == 0 {
		t.Fatalf("first build must embed passages")
	}

	if _, err := h.Rebuild(context.Background(), testItems()); err != nil {
		t.Fatalf("second Rebuild() error = %v", err)
	}
	if embedder.passages != builds {
		t.Fatalf("identical catalog must reuse cached index, embed calls %d -> %d", builds, embedder.passages)
	}

	// Content change invalidates the cached index.
	changed := testItems()
	changed[0].Cost = 1600
	if _, err := h.Rebuild(context.Background(), changed); err != nil {
		t.Fatalf("third Rebuild() error = %v", err)
	}
	if embedder.passages == builds {
		t.Fatalf("changed catalog must be re-embedded")
	}
}
