package cart

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/buildunia/commerce/internal/domain"
	"github.com/buildunia/commerce/internal/kv"
)

func testStore() *Store {
	return NewStore(kv.NewMemoryStore(), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := testStore()

	state, _ := Apply(State{}, AddItem{Product: domain.Product{ID: "p1", Category: "IoT", Price: 500}})
	if err := store.Save(ctx, "user-1", state); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(loaded.Lines) != 1 || loaded.Lines[0].ProductID != "p1" {
		t.Errorf("unexpected state: %+v", loaded)
	}
}

func TestStore_MissingCartLoadsEmpty(t *testing.T) {
	state, err := testStore().Load(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(state.Lines) != 0 {
		t.Errorf("expected empty cart, got %+v", state)
	}
}

func TestStore_CorruptPayloadLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemoryStore()
	store := NewStore(backing, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_ = backing.Set(ctx, "cart:user-1", []byte("{not json"), time.Hour)

	state, err := store.Load(ctx, "user-1")
	if err != nil {
		t.Fatalf("expected fail-open load, got error: %v", err)
	}
	if len(state.Lines) != 0 {
		t.Errorf("expected empty cart, got %+v", state)
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := testStore()

	state, _ := Apply(State{}, AddItem{Product: domain.Product{ID: "p1", Category: "IoT", Price: 500}})
	_ = store.Save(ctx, "user-1", state)

	if err := store.Clear(ctx, "user-1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	loaded, _ := store.Load(ctx, "user-1")
	if len(loaded.Lines) != 0 {
		t.Errorf("expected empty cart after clear, got %+v", loaded)
	}
}
