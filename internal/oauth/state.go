package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/francopiloto/finance-api/internal/domain"
)

// ErrStateNotFound means the state expired or was already consumed.
var ErrStateNotFound = errors.New("oauth state not found")

const stateTTL = 5 * time.Minute

// LoginState is what a callback needs to finish the flow the start began.
type LoginState struct {
	Provider domain.Provider `json:"provider"`
	Device   string          `json:"device"`
}

// StateStore keeps pending login states in redis under single-use keys.
type StateStore struct {
	rdb redis.UniversalClient
}

func NewStateStore(rdb redis.UniversalClient) *StateStore {
	return &StateStore{rdb: rdb}
}

// Save stores the state and returns the opaque key to thread through the
// provider round trip.
func (s *StateStore) Save(ctx context.Context, state LoginState) (string, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("marshal login state: %w", err)
	}

	key := uuid.NewString()
	if err := s.rdb.Set(ctx, stateKey(key), payload, stateTTL).Err(); err != nil {
		return "", fmt.Errorf("store login state: %w", err)
	}
	return key, nil
}

// Consume atomically fetches and deletes the state, so a replayed callback
// fails on the second attempt.
func (s *StateStore) Consume(ctx context.Context, key string) (LoginState, error) {
	payload, err := s.rdb.GetDel(ctx, stateKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return LoginState{}, ErrStateNotFound
	}
	if err != nil {
		return LoginState{}, fmt.Errorf("load login state: %w", err)
	}

	var state LoginState
	if err := json.Unmarshal(payload, &state); err != nil {
		return LoginState{}, fmt.Errorf("unmarshal login state: %w", err)
	}
	return state, nil
}

func stateKey(key string) string {
	return "oauth:state:" + key
}
