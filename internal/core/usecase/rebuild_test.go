package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/naladwepo/procurement-assistant/internal/core/domain"
)

type sourceFake struct {
	items []domain.CatalogItem
	err   error
}

func (f *sourceFake) Load(context.Context) ([]domain.CatalogItem, error) {
	return f.items, f.err
}

type persisterFake struct {
	replaced int
	err      error
}

func (f *persisterFake) ReplaceCatalog(_ context.Context, items []domain.CatalogItem) error {
	if f.err != nil {
		return f.err
	}
	f.replaced = len(items)
	return nil
}

type publisherFake struct {
	built int
	err   error
	hash  string
}

func (f *publisherFake) Rebuild(_ context.Context, items []domain.CatalogItem) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.built = len(items)
	return len(items), nil
}

func (f *publisherFake) ContentHash() string { return f.hash }

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishCatalogReloaded(_ context.Context, hash string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, hash)
	return nil
}

func (f *queueFake) SubscribeCatalogReloaded(context.Context, func(context.Context, string) error) error {
	return nil
}

func catalogFixture() []domain.CatalogItem {
	return []domain.CatalogItem{
		{ID: 1, Name: "Короб 200x200", Cost: 1500},
		{ID: 2, Name: "Крышка короба", Cost: 400},
	}
}

func TestRebuildBroadcasts(t *testing.T) {
	persister := &persisterFake{}
	publisher := &publisherFake{hash: "abc"}
	queue := &queueFake{}
	uc := NewRebuildUseCase(&sourceFake{items: catalogFixture()}, persister, publisher, queue, nil, testLogger())

	size, err := uc.Rebuild(context.Background(), true)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if size != 2 || publisher.built != 2 || persister.replaced != 2 {
		t.Fatalf("unexpected rebuild sizes: size=%d built=%d replaced=%d", size, publisher.built, persister.replaced)
	}
	if len(queue.published) != 1 || queue.published[0] != "abc" {
		t.Fatalf("expected broadcast of content hash, got %v", queue.published)
	}
}

func TestRebuildNoBroadcast(t *testing.T) {
	queue := &queueFake{}
	uc := NewRebuildUseCase(&sourceFake{items: catalogFixture()}, nil, &publisherFake{}, queue, nil, testLogger())

	if _, err := uc.Rebuild(context.Background(), false); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if len(queue.published) != 0 {
		t.Fatalf("broadcast=false must not publish, got %v", queue.published)
	}
}

func TestRebuildSourceError(t *testing.T) {
	uc := NewRebuildUseCase(&sourceFake{err: errors.New("file missing")}, nil, &publisherFake{}, nil, nil, testLogger())

	if _, err := uc.Rebuild(context.Background(), false); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRebuildPersistFailureIsNotFatal(t *testing.T) {
	persister := &persisterFake{err: errors.New("db down")}
	publisher := &publisherFake{}
	uc := NewRebuildUseCase(&sourceFake{items: catalogFixture()}, persister, publisher, nil, nil, testLogger())

	size, err := uc.Rebuild(context.Background(), false)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if size != 2 {
		t.Fatalf("size = %d, want 2", size)
	}
}

func TestRebuildIndexError(t *testing.T) {
	uc := NewRebuildUseCase(&sourceFake{items: catalogFixture()}, nil, &publisherFake{err: errors.New("embedder down")}, nil, nil, testLogger())

	if _, err := uc.Rebuild(context.Background(), false); err == nil {
		t.Fatalf("expected error")
	}
}
