package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDataStore_Defaults(t *testing.T) {
	store := NewUserDataStore(testutil.NewMockKVStore())
	ctx := context.Background()

	balance, err := store.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(domain.DefaultBalance))

	goal, err := store.Goal(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, goal.Equal(domain.DefaultGoal))

	trips, err := store.Trips(ctx, "u1")
	require.NoError(t, err)
	assert.NotNil(t, trips)
	assert.Empty(t, trips)
}

func TestUserDataStore_AcceptsNumericScalars(t *testing.T) {
	kv := testutil.NewMockKVStore()
	kv.Data[domain.BalanceKey("u1")] = json.RawMessage(`1500.25`)
	kv.Data[domain.TripsKey("u1")] = json.RawMessage(`null`)
	store := NewUserDataStore(kv)

	balance, err := store.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("1500.25")))

	trips, err := store.Trips(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestUserDataStore_PropagatesStoreErrors(t *testing.T) {
	kv := testutil.NewMockKVStore()
	kv.GetFn = func(key string) (json.RawMessage, error) {
		return nil, errors.New("connection reset")
	}
	store := NewUserDataStore(kv)

	_, err := store.Balance(context.Background(), "u1")
	assert.Error(t, err)
	_, err = store.Trips(context.Background(), "u1")
	assert.Error(t, err)
}

func TestUserDataStore_UserIDs(t *testing.T) {
	kv := testutil.NewMockKVStore()
	store := NewUserDataStore(kv)
	ctx := context.Background()

	require.NoError(t, store.InitUser(ctx, "bob"))
	require.NoError(t, store.SetBalance(ctx, "alice", dec("1")))
	kv.Put("settings:theme", "dark")

	ids, err := store.UserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, ids)
}

func TestUserDataStore_LockSerialisesUpdates(t *testing.T) {
	store := NewUserDataStore(testutil.NewMockKVStore())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := store.Lock("u1")
			defer unlock()

			balance, err := store.Balance(ctx, "u1")
			if err != nil {
				t.Error(err)
				return
			}
			if err := store.SetBalance(ctx, "u1", balance.Add(dec("1"))); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	balance, err := store.Balance(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, balance.Equal(domain.DefaultBalance.Add(dec("20"))), "got %s", balance)
}
