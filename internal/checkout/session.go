// Package checkout drives the three-stage purchase flow: cart review,
// shipping details, payment. Forward movement is gated on validation;
// stepping back never loses entered data.
package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/buildunia/commerce/internal/cart"
	"github.com/buildunia/commerce/internal/domain"
	"github.com/buildunia/commerce/internal/kv"
)

type Stage string

const (
	StageCartReview Stage = "cart_review"
	StageShipping   Stage = "shipping"
	StagePayment    Stage = "payment"
)

var ErrWrongStage = errors.New("checkout: operation not valid in current stage")

// Session is one user's in-flight checkout. It lives in the kv store so any
// storefront instance can pick it up mid-flow.
type Session struct {
	Stage    Stage        `json:"stage"`
	Shipping ShippingForm `json:"shipping"`
	// OrderID is the pending order of the latest payment attempt, if any.
	OrderID string `json:"order_id,omitempty"`
}

func NewSession() *Session {
	return &Session{Stage: StageCartReview}
}

// AdvanceToShipping moves past cart review. The cart invariants are
// re-checked here because the cart may have been mutated elsewhere in the
// session since the engine last saw it.
func (s *Session) AdvanceToShipping(state cart.State) error {
	if s.Stage != StageCartReview {
		return ErrWrongStage
	}
	if len(state.Lines) == 0 {
		return errors.New("checkout: cart is empty")
	}
	if err := state.CheckLimits(); err != nil {
		return err
	}
	s.Stage = StageShipping
	return nil
}

// AdvanceToPayment validates the shipping form against the live cart. On
// failure the returned FieldErrors is non-nil and the stage does not move;
// the submitted form is still retained for redisplay.
func (s *Session) AdvanceToPayment(state cart.State, form ShippingForm) (FieldErrors, error) {
	if s.Stage != StageShipping && s.Stage != StagePayment {
		return nil, ErrWrongStage
	}
	if err := state.CheckLimits(); err != nil {
		return nil, err
	}

	s.Shipping = form

	requireMentor := state.HasCategory(domain.CategoryMentorship)
	if errs := ValidateShipping(form, requireMentor); errs != nil {
		return errs, nil
	}

	s.Stage = StagePayment
	return nil, nil
}

// Back steps one stage toward cart review. Entered data is retained.
func (s *Session) Back() {
	switch s.Stage {
	case StagePayment:
		s.Stage = StageShipping
	case StageShipping:
		s.Stage = StageCartReview
	}
}

// SessionStore persists checkout sessions per user.
type SessionStore struct {
	kv  kv.Store
	ttl time.Duration
}

func NewSessionStore(store kv.Store, ttl time.Duration) *SessionStore {
	return &SessionStore{kv: store, ttl: ttl}
}

func sessionKey(userID string) string {
	return fmt.Sprintf("checkout:%s", userID)
}

// Load returns the user's session, or a fresh one at cart review when none
// exists or the payload is unreadable.
func (s *SessionStore) Load(ctx context.Context, userID string) (*Session, error) {
	data, err := s.kv.Get(ctx, sessionKey(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return NewSession(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load checkout session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return NewSession(), nil
	}
	if session.Stage == "" {
		session.Stage = StageCartReview
	}
	return &session, nil
}

func (s *SessionStore) Save(ctx context.Context, userID string, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal checkout session: %w", err)
	}
	if err := s.kv.Set(ctx, sessionKey(userID), data, s.ttl); err != nil {
		return fmt.Errorf("save checkout session: %w", err)
	}
	return nil
}

func (s *SessionStore) Clear(ctx context.Context, userID string) error {
	if err := s.kv.Delete(ctx, sessionKey(userID)); err != nil {
		return fmt.Errorf("clear checkout session: %w", err)
	}
	return nil
}
