package cart

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/buildunia/commerce/internal/domain"
	"github.com/buildunia/commerce/internal/kv"
)

type fakeCatalog struct {
	products map[string]domain.Product
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func newTestHandler() *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewStore(kv.NewMemoryStore(), time.Hour, logger)
	catalog := &fakeCatalog{products: map[string]domain.Product{
		"p1": {ID: "p1", Title: "Smart Irrigation Kit", Category: "IoT", Price: 500},
		"p2": {ID: "p2", Title: "Line Follower Kit", Category: "IoT", Price: 300},
		"p3": {ID: "p3", Title: "Career Session", Category: "Mentorship", Price: 750},
	}}
	return NewHandler(store, catalog, logger)
}

func addItem(t *testing.T, h *Handler, userID, productID string) *httptest.ResponseRecorder {
	t.Helper()

	body := `{"product_id":"` + productID + `"}`
	req := httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))
	req.Header.Set("X-User-ID", userID)
	rec := httptest.NewRecorder()
	h.HandleAddItem(rec, req)
	return rec
}

func TestHandler_AddItem(t *testing.T) {
	t.Run("adds product and returns cart", func(t *testing.T) {
		h := newTestHandler()
		rec := addItem(t, h, "user-1", "p1")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp cartResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(resp.Lines) != 1 || resp.Lines[0].ProductID != "p1" {
			t.Errorf("unexpected lines: %+v", resp.Lines)
		}
		if resp.Total != 500 {
			t.Errorf("expected total 500, got %d", resp.Total)
		}
	})

	t.Run("unknown product yields 404", func(t *testing.T) {
		h := newTestHandler()
		rec := addItem(t, h, "user-1", "missing")

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("category limit yields 409 and keeps cart intact", func(t *testing.T) {
		h := newTestHandler()
		addItem(t, h, "user-1", "p1")
		addItem(t, h, "user-1", "p1")

		rec := addItem(t, h, "user-1", "p2")
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}

		var resp map[string]string
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["kind"] != "category" {
			t.Errorf("expected category kind, got %q", resp["kind"])
		}

		state, _ := h.store.Load(context.Background(), "user-1")
		if state.TotalQuantity() != 2 {
			t.Errorf("cart changed after rejection: %+v", state)
		}
	})
}

func TestHandler_UpdateItem(t *testing.T) {
	h := newTestHandler()
	addItem(t, h, "user-1", "p1")

	req := httptest.NewRequest(http.MethodPatch, "/cart/items/p1", strings.NewReader(`{"quantity":2}`))
	req.SetPathValue("productId", "p1")
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	h.HandleUpdateItem(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp cartResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Lines[0].Quantity != 2 {
		t.Errorf("expected quantity 2, got %d", resp.Lines[0].Quantity)
	}
}

func TestHandler_RemoveItem(t *testing.T) {
	h := newTestHandler()
	addItem(t, h, "user-1", "p1")

	req := httptest.NewRequest(http.MethodDelete, "/cart/items/p1", nil)
	req.SetPathValue("productId", "p1")
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	h.HandleRemoveItem(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp cartResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.Lines) != 0 {
		t.Errorf("expected empty cart, got %+v", resp.Lines)
	}
}

func TestHandler_GetLimits(t *testing.T) {
	h := newTestHandler()
	addItem(t, h, "user-1", "p1")
	addItem(t, h, "user-1", "p3")

	req := httptest.NewRequest(http.MethodGet, "/cart/limits", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	h.HandleGetLimits(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var limits Limits
	if err := json.Unmarshal(rec.Body.Bytes(), &limits); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if limits.TotalItems != 2 || limits.MaxTotalItems != 5 || limits.MaxSameCategory != 2 {
		t.Errorf("unexpected limits: %+v", limits)
	}
	if limits.CategoryCounts["IoT"] != 1 || limits.CategoryCounts["Mentorship"] != 1 {
		t.Errorf("unexpected category counts: %v", limits.CategoryCounts)
	}
}

func TestHandler_Clear(t *testing.T) {
	h := newTestHandler()
	addItem(t, h, "user-1", "p1")

	req := httptest.NewRequest(http.MethodDelete, "/cart", nil)
	req.Header.Set("X-User-ID", "user-1")
	rec := httptest.NewRecorder()
	h.HandleClear(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	state, _ := h.store.Load(context.Background(), "user-1")
	if state.TotalQuantity() != 0 {
		t.Errorf("expected empty cart, got %+v", state)
	}
}
