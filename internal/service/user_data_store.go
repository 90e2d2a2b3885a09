package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// UserDataStore gives typed access to the per-user documents held in a KVStore
type UserDataStore struct {
	kv    domain.KVStore
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewUserDataStore creates a new UserDataStore
func NewUserDataStore(kv domain.KVStore) *UserDataStore {
	return &UserDataStore{
		kv:    kv,
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock serialises read-modify-write cycles on one user's documents.
// The returned func releases the lock.
func (s *UserDataStore) Lock(userID string) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// InitUser writes the default balance, goal and an empty trip list
func (s *UserDataStore) InitUser(ctx context.Context, userID string) error {
	if err := s.SetBalance(ctx, userID, domain.DefaultBalance); err != nil {
		return err
	}
	if err := s.SetGoal(ctx, userID, domain.DefaultGoal); err != nil {
		return err
	}
	return s.SetTrips(ctx, userID, []domain.Trip{})
}

// Balance returns the user's balance, or the default when it was never set
func (s *UserDataStore) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.getDecimal(ctx, domain.BalanceKey(userID), domain.DefaultBalance)
}

// SetBalance stores the user's balance
func (s *UserDataStore) SetBalance(ctx context.Context, userID string, balance decimal.Decimal) error {
	return s.put(ctx, domain.BalanceKey(userID), balance)
}

// Goal returns the user's stored goal amount, or the default
func (s *UserDataStore) Goal(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.getDecimal(ctx, domain.GoalKey(userID), domain.DefaultGoal)
}

// SetGoal stores the user's goal amount
func (s *UserDataStore) SetGoal(ctx context.Context, userID string, goal decimal.Decimal) error {
	return s.put(ctx, domain.GoalKey(userID), goal)
}

// Trips returns the user's trips in stored order. A missing key is an empty list.
func (s *UserDataStore) Trips(ctx context.Context, userID string) ([]domain.Trip, error) {
	raw, err := s.kv.Get(ctx, domain.TripsKey(userID))
	if errors.Is(err, domain.ErrNotFound) {
		return []domain.Trip{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load trips: %w", err)
	}

	var trips []domain.Trip
	if err := json.Unmarshal(raw, &trips); err != nil {
		return nil, fmt.Errorf("failed to decode trips: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, nil
}

// SetTrips replaces the user's trip collection
func (s *UserDataStore) SetTrips(ctx context.Context, userID string, trips []domain.Trip) error {
	if trips == nil {
		trips = []domain.Trip{}
	}
	return s.put(ctx, domain.TripsKey(userID), trips)
}

// UserIDs lists every user that has at least one stored document
func (s *UserDataStore) UserIDs(ctx context.Context) ([]string, error) {
	keys, err := s.kv.Keys(ctx, domain.UserKeyPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	seen := make(map[string]struct{})
	for _, key := range keys {
		rest := strings.TrimPrefix(key, domain.UserKeyPrefix())
		i := strings.LastIndex(rest, ":")
		if i <= 0 {
			continue
		}
		seen[rest[:i]] = struct{}{}
	}

	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *UserDataStore) getDecimal(ctx context.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load %s: %w", key, err)
	}

	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return decimal.Zero, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return d, nil
}

func (s *UserDataStore) put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}
	return nil
}
