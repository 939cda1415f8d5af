package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/buildunia/commerce/internal/kv"
)

// Store persists cart state per user. A missing or corrupt payload loads as
// an empty cart rather than an error: losing a cart is recoverable, locking
// a user out of shopping is not.
type Store struct {
	kv     kv.Store
	ttl    time.Duration
	logger *slog.Logger
}

func NewStore(store kv.Store, ttl time.Duration, logger *slog.Logger) *Store {
	return &Store{kv: store, ttl: ttl, logger: logger}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

func (s *Store) Load(ctx context.Context, userID string) (State, error) {
	data, err := s.kv.Get(ctx, cartKey(userID))
	if errors.Is(err, kv.ErrNotFound) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("load cart: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("discarding corrupt cart payload", "user_id", userID, "error", err)
		return State{}, nil
	}
	return state, nil
}

func (s *Store) Save(ctx context.Context, userID string, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}
	if err := s.kv.Set(ctx, cartKey(userID), data, s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.kv.Delete(ctx, cartKey(userID)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
