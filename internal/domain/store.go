package domain

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Defaults written at signup and returned for keys that were never set
var (
	DefaultBalance = decimal.RequireFromString("1234.56")
	DefaultGoal    = decimal.RequireFromString("5678.90")
)

const userKeyPrefix = "user:"

// KVStore is a flat key-value store holding JSON documents.
// Get returns ErrNotFound for a missing key; Delete of a missing key is not an error.
type KVStore interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// BalanceKey is the key of a user's balance scalar
func BalanceKey(userID string) string {
	return userKeyPrefix + userID + ":balance"
}

// GoalKey is the key of a user's goal scalar
func GoalKey(userID string) string {
	return userKeyPrefix + userID + ":goal"
}

// TripsKey is the key of a user's trip collection
func TripsKey(userID string) string {
	return userKeyPrefix + userID + ":trips"
}

// UserIDFromTripsKey extracts the user id from a trips key
func UserIDFromTripsKey(key string) (string, bool) {
	if !strings.HasPrefix(key, userKeyPrefix) || !strings.HasSuffix(key, ":trips") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(key, userKeyPrefix), ":trips")
	return id, id != ""
}

// UserKeyPrefix is the prefix shared by every per-user key
func UserKeyPrefix() string {
	return userKeyPrefix
}
