package sqlite

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *KVStore {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "tripsaver.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewKVStore(db)
}

func TestKVStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t)

	_, err := s.Get(ctx, domain.TripsKey("u1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Set(ctx, domain.TripsKey("u1"), json.RawMessage(`[{"id":1}]`)))
	require.NoError(t, s.Set(ctx, domain.TripsKey("u1"), json.RawMessage(`[{"id":2}]`)))

	got, err := s.Get(ctx, domain.TripsKey("u1"))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":2}]`, string(got))

	require.NoError(t, s.Delete(ctx, domain.TripsKey("u1")))
	_, err = s.Get(ctx, domain.TripsKey("u1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKVStore_KeysEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	s := openTestDB(t)

	for _, k := range []string{"user:a_b:trips", "user:axb:trips", "user:a_b:goal"} {
		require.NoError(t, s.Set(ctx, k, json.RawMessage(`1`)))
	}

	keys, err := s.Keys(ctx, "user:a_b:")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:a_b:goal", "user:a_b:trips"}, keys)
}

func TestUserRepository_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	created, err := repo.Create(ctx, &domain.User{Email: "sam@example.com", Name: "Sam", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSubscriptionPlan, created.SubscriptionPlan)

	got, err := repo.GetByEmail(ctx, "SAM@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sam", byID.Name)

	_, err = repo.Create(ctx, &domain.User{Email: "Sam@Example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}
