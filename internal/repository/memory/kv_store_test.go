package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	_, err := s.Get(ctx, "user:1:balance")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, s.Set(ctx, "user:1:balance", json.RawMessage(`"10.5"`)))

	got, err := s.Get(ctx, "user:1:balance")
	require.NoError(t, err)
	assert.JSONEq(t, `"10.5"`, string(got))

	require.NoError(t, s.Delete(ctx, "user:1:balance"))
	require.NoError(t, s.Delete(ctx, "user:1:balance"))

	_, err = s.Get(ctx, "user:1:balance")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestKVStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	value := json.RawMessage(`[1]`)
	require.NoError(t, s.Set(ctx, "k", value))
	value[1] = '2'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[1]`, string(got))

	got[1] = '3'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, `[1]`, string(again))
}

func TestKVStore_Keys(t *testing.T) {
	ctx := context.Background()
	s := NewKVStore()

	for _, k := range []string{"user:b:trips", "user:a:trips", "user:a:goal", "other"} {
		require.NoError(t, s.Set(ctx, k, json.RawMessage(`null`)))
	}

	keys, err := s.Keys(ctx, "user:")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:a:goal", "user:a:trips", "user:b:trips"}, keys)
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	r := NewUserRepository()

	created, err := r.Create(ctx, &domain.User{Email: "Ana@Example.com", Name: "Ana"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	byEmail, err := r.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byEmail.ID)

	byID, err := r.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", byID.Name)

	_, err = r.Create(ctx, &domain.User{Email: "ana@example.com"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = r.GetByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
