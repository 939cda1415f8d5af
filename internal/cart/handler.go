package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/buildunia/commerce/internal/domain"
	"github.com/buildunia/commerce/internal/httpx"
)

// ProductGetter is the slice of the catalog the cart needs: category and
// prices for the product being added.
type ProductGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type Handler struct {
	store    *Store
	products ProductGetter
	logger   *slog.Logger
}

func NewHandler(store *Store, products ProductGetter, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		products: products,
		logger:   logger,
	}
}

type cartResponse struct {
	Lines []Line `json:"lines"`
	Total int64  `json:"total"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.Load(r.Context(), httpx.UserID(r))
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeState(w, state)
}

func (h *Handler) HandleGetLimits(w http.ResponseWriter, r *http.Request) {
	state, err := h.store.Load(r.Context(), httpx.UserID(r))
	if err != nil {
		h.logger.Error("failed to load cart", "error", err)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, state.Limits())
}

type addItemRequest struct {
	ProductID string             `json:"product_id"`
	Option    domain.PriceOption `json:"price_option,omitempty"`
	Quantity  int                `json:"quantity,omitempty"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing product id")
		return
	}

	product, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "product_id", req.ProductID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		httpx.WriteError(w, h.logger, http.StatusNotFound, "product not found")
		return
	}

	h.mutate(w, r, AddItem{Product: *product, Option: req.Option, Quantity: req.Quantity})
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing product id")
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	h.mutate(w, r, UpdateQuantity{ProductID: productID, Quantity: req.Quantity})
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	if productID == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing product id")
		return
	}

	h.mutate(w, r, RemoveItem{ProductID: productID})
}

func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, Clear{})
}

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, action Action) {
	userID := httpx.UserID(r)

	state, err := h.store.Load(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", userID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	next, err := Apply(state, action)
	var limitErr *LimitError
	if errors.As(err, &limitErr) {
		httpx.WriteJSON(w, h.logger, http.StatusConflict, map[string]string{
			"error": limitErr.Error(),
			"kind":  string(limitErr.Kind),
		})
		return
	}
	if err != nil {
		h.logger.Error("failed to apply cart action", "error", err, "user_id", userID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.store.Save(r.Context(), userID, next); err != nil {
		h.logger.Error("failed to save cart", "error", err, "user_id", userID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("cart updated", "user_id", userID, "total_items", next.TotalQuantity())
	h.writeState(w, next)
}

func (h *Handler) writeState(w http.ResponseWriter, state State) {
	lines := state.Lines
	if lines == nil {
		lines = []Line{}
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, cartResponse{
		Lines: lines,
		Total: state.Subtotal(),
	})
}
