package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/buildunia/commerce/internal/cart"
	"github.com/buildunia/commerce/internal/httpx"
	"github.com/buildunia/commerce/internal/payment"
)

type Handler struct {
	service  *Service
	carts    *cart.Store
	sessions *SessionStore
	logger   *slog.Logger
}

func NewHandler(service *Service, carts *cart.Store, sessions *SessionStore, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		carts:    carts,
		sessions: sessions,
		logger:   logger,
	}
}

type sessionResponse struct {
	Stage    Stage        `json:"stage"`
	Shipping ShippingForm `json:"shipping"`
	Quote    Quote        `json:"quote"`
	OrderID  string       `json:"order_id,omitempty"`
}

// HandleGetSession returns the current checkout state with a live quote.
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserID(r)

	session, err := h.sessions.Load(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load checkout session", "error", err, "user_id", userID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	state, err := h.carts.Load(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", userID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, sessionResponse{
		Stage:    session.Stage,
		Shipping: session.Shipping,
		Quote:    PriceCart(state),
		OrderID:  session.OrderID,
	})
}

// HandleReviewCart is the cart review -> shipping transition.
func (h *Handler) HandleReviewCart(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserID(r)

	session, state, ok := h.loadBoth(w, r, userID)
	if !ok {
		return
	}

	if err := session.AdvanceToShipping(state); err != nil {
		h.writeTransitionError(w, err)
		return
	}

	if !h.saveSession(w, r, userID, session) {
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, sessionResponse{
		Stage: session.Stage,
		Quote: PriceCart(state),
	})
}

// HandleSubmitShipping is the shipping -> payment transition.
func (h *Handler) HandleSubmitShipping(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserID(r)

	var form ShippingForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	session, state, ok := h.loadBoth(w, r, userID)
	if !ok {
		return
	}

	fieldErrs, err := session.AdvanceToPayment(state, form)
	if err != nil {
		h.writeTransitionError(w, err)
		return
	}
	if fieldErrs != nil {
		// Retain the submitted form even though the stage did not move.
		if !h.saveSession(w, r, userID, session) {
			return
		}
		httpx.WriteJSON(w, h.logger, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": fieldErrs,
		})
		return
	}

	if !h.saveSession(w, r, userID, session) {
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, sessionResponse{
		Stage:    session.Stage,
		Shipping: session.Shipping,
		Quote:    PriceCart(state),
	})
}

// HandleBack steps one stage toward cart review, keeping entered data.
func (h *Handler) HandleBack(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserID(r)

	session, err := h.sessions.Load(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load checkout session", "error", err, "user_id", userID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	session.Back()

	if !h.saveSession(w, r, userID, session) {
		return
	}
	httpx.WriteJSON(w, h.logger, http.StatusOK, sessionResponse{
		Stage:    session.Stage,
		Shipping: session.Shipping,
	})
}

// HandleCreateOrder is the payment entry action: POST /orders/create.
func (h *Handler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserID(r)

	intent, err := h.service.BeginPayment(r.Context(), userID)
	if err != nil {
		h.writePaymentError(w, err, userID)
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusCreated, intent)
}

// HandleVerifyPayment is POST /orders/verify-payment.
func (h *Handler) HandleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserID(r)

	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" || req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "missing payment fields")
		return
	}

	result, err := h.service.VerifyPayment(r.Context(), userID, req)
	if errors.Is(err, ErrOrderNotFound) {
		httpx.WriteError(w, h.logger, http.StatusNotFound, "order not found")
		return
	}
	if errors.Is(err, ErrSignatureMismatch) {
		httpx.WriteJSON(w, h.logger, http.StatusBadRequest, VerifyResult{
			Success:       false,
			OrderID:       req.OrderID,
			PaymentStatus: "failed",
		})
		return
	}
	if err != nil {
		h.logger.Error("payment verification failed", "error", err, "order_id", req.OrderID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, result)
}

type dismissRequest struct {
	OrderID string `json:"order_id"`
}

// HandleDismissPayment records a widget dismissal; the order stays pending.
func (h *Handler) HandleDismissPayment(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserID(r)

	var req dismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, h.logger, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.service.DismissPayment(r.Context(), userID, req.OrderID)
	if errors.Is(err, ErrOrderNotFound) {
		httpx.WriteError(w, h.logger, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to record dismissal", "error", err, "order_id", req.OrderID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return
	}

	httpx.WriteJSON(w, h.logger, http.StatusOK, map[string]string{"status": "pending"})
}

func (h *Handler) loadBoth(w http.ResponseWriter, r *http.Request, userID string) (*Session, cart.State, bool) {
	session, err := h.sessions.Load(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load checkout session", "error", err, "user_id", userID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return nil, cart.State{}, false
	}

	state, err := h.carts.Load(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", userID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return nil, cart.State{}, false
	}
	return session, state, true
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, userID string, session *Session) bool {
	if err := h.sessions.Save(r.Context(), userID, session); err != nil {
		h.logger.Error("failed to save checkout session", "error", err, "user_id", userID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
		return false
	}
	return true
}

func (h *Handler) writeTransitionError(w http.ResponseWriter, err error) {
	var limitErr *cart.LimitError
	if errors.As(err, &limitErr) {
		httpx.WriteJSON(w, h.logger, http.StatusConflict, map[string]string{
			"error": limitErr.Error(),
			"kind":  string(limitErr.Kind),
		})
		return
	}
	if errors.Is(err, ErrWrongStage) {
		httpx.WriteError(w, h.logger, http.StatusConflict, "not available in current checkout stage")
		return
	}
	httpx.WriteError(w, h.logger, http.StatusBadRequest, err.Error())
}

func (h *Handler) writePaymentError(w http.ResponseWriter, err error, userID string) {
	var limitErr *cart.LimitError
	switch {
	case errors.As(err, &limitErr):
		httpx.WriteJSON(w, h.logger, http.StatusConflict, map[string]string{
			"error": limitErr.Error(),
			"kind":  string(limitErr.Kind),
		})
	case errors.Is(err, ErrWrongStage):
		httpx.WriteError(w, h.logger, http.StatusConflict, "complete shipping details before payment")
	case errors.Is(err, payment.ErrGatewayUnavailable):
		// Retryable: the order was marked failed, a retry creates a new one.
		httpx.WriteJSON(w, h.logger, http.StatusBadGateway, map[string]any{
			"error":     "payment provider unavailable, please try again",
			"retryable": true,
		})
	default:
		h.logger.Error("failed to begin payment", "error", err, "user_id", userID)
		httpx.WriteError(w, h.logger, http.StatusInternalServerError, "internal server error")
	}
}
