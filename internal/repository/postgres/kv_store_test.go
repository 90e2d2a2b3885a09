package postgres

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTx returns a migrated transaction that is rolled back when the test ends.
// Skips the test if TEST_DATABASE_URL is not set.
func testTx(t *testing.T) pgx.Tx {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := Connect(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	return tx
}

func TestKVStore_Postgres(t *testing.T) {
	tx := testTx(t)
	ctx := context.Background()
	store := NewKVStore(tx)

	t.Run("missing key", func(t *testing.T) {
		_, err := store.Get(ctx, domain.BalanceKey("nobody"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("upsert and read back", func(t *testing.T) {
		key := domain.TripsKey("pg-user")
		require.NoError(t, store.Set(ctx, key, json.RawMessage(`[]`)))
		require.NoError(t, store.Set(ctx, key, json.RawMessage(`[{"id": 5, "name": "Rome"}]`)))

		got, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id": 5, "name": "Rome"}]`, string(got))
	})

	t.Run("keys by prefix", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, domain.GoalKey("pg-user"), json.RawMessage(`"10"`)))

		keys, err := store.Keys(ctx, "user:pg-user:")
		require.NoError(t, err)
		assert.Equal(t, []string{"user:pg-user:goal", "user:pg-user:trips"}, keys)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, domain.GoalKey("pg-user")))
		_, err := store.Get(ctx, domain.GoalKey("pg-user"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestUserRepository_Postgres(t *testing.T) {
	tx := testTx(t)
	ctx := context.Background()
	repo := NewUserRepository(tx)

	created, err := repo.Create(ctx, &domain.User{Email: "pg-user@example.com", Name: "Pat", PasswordHash: "hash"})
	require.NoError(t, err)

	got, err := repo.GetByEmail(ctx, "PG-USER@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, domain.DefaultSubscriptionPlan, got.SubscriptionPlan)

	_, err = repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
}
