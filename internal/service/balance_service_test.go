package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupBalanceService() (*BalanceService, *testutil.MockKVStore, *testutil.RecordingPublisher) {
	kv := testutil.NewMockKVStore()
	publisher := &testutil.RecordingPublisher{}
	svc := NewBalanceService(NewUserDataStore(kv), newTestCalculator())
	svc.SetEventPublisher(publisher)
	return svc, kv, publisher
}

func TestBalanceService_SetBalance(t *testing.T) {
	svc, kv, publisher := setupBalanceService()
	ctx := context.Background()

	kv.Put(domain.TripsKey(testUserID), []domain.Trip{
		{ID: 1, Name: "Rome", EstimatedCost: dec("1000"), SavedAmount: dec("100"), Progress: dec("10")},
	})

	balance, err := svc.SetBalance(ctx, testUserID, dec("2000"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("2000")))

	stored, err := svc.GetBalance(ctx, testUserID)
	require.NoError(t, err)
	assert.True(t, stored.Equal(dec("2000")))

	trips := storedTrips(t, kv)
	assert.True(t, trips[0].SavedAmount.Equal(dec("100")), "set balance does not attribute")
	assert.Equal(t, []string{"balance.updated"}, publisher.Types())
}

func TestBalanceService_SetBalance_Negative(t *testing.T) {
	svc, kv, _ := setupBalanceService()

	_, err := svc.SetBalance(context.Background(), testUserID, dec("-1"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	assert.Empty(t, kv.Data)
}

func TestBalanceService_AddSavings_AttributesToPrimary(t *testing.T) {
	svc, kv, publisher := setupBalanceService()
	ctx := context.Background()

	kv.Put(domain.BalanceKey(testUserID), dec("500"))
	kv.Put(domain.TripsKey(testUserID), []domain.Trip{
		{ID: 1, Name: "Complete", EstimatedCost: dec("100"), SavedAmount: dec("100"), Priority: 1, IsStarred: true},
		{ID: 2, Name: "Medium", EstimatedCost: dec("1000"), SavedAmount: dec("200"), Priority: 2},
		{ID: 3, Name: "High", EstimatedCost: dec("1000"), SavedAmount: dec("0"), Priority: 1},
	})

	result, err := svc.AddSavings(ctx, testUserID, dec("250"))
	require.NoError(t, err)

	assert.True(t, result.Balance.Equal(dec("750")))
	require.NotNil(t, result.Trip)
	assert.Equal(t, int64(3), result.Trip.ID, "completed trips are never primary")
	assert.True(t, result.Trip.SavedAmount.Equal(dec("250")))
	assert.True(t, result.Trip.Progress.Equal(dec("25")))

	trips := storedTrips(t, kv)
	assert.True(t, trips[1].SavedAmount.Equal(dec("200")))
	assert.True(t, trips[2].SavedAmount.Equal(dec("250")))

	var balance json.RawMessage
	require.NoError(t, kv.Decode(domain.BalanceKey(testUserID), &balance))
	assert.JSONEq(t, `"750"`, string(balance))

	assert.Equal(t, []string{"trip.updated", "balance.updated"}, publisher.Types())
}

func TestBalanceService_AddSavings_NoActiveTrip(t *testing.T) {
	svc, kv, _ := setupBalanceService()

	result, err := svc.AddSavings(context.Background(), testUserID, dec("10"))
	require.NoError(t, err)

	assert.Nil(t, result.Trip)
	assert.True(t, result.Balance.Equal(domain.DefaultBalance.Add(dec("10"))))
	_, hasTrips := kv.Data[domain.TripsKey(testUserID)]
	assert.False(t, hasTrips, "trips are not written when nothing was attributed")
}

func TestBalanceService_AddSavings_StoreFailure(t *testing.T) {
	svc, kv, publisher := setupBalanceService()
	kv.SetFn = func(key string, value json.RawMessage) error {
		return errors.New("disk full")
	}

	_, err := svc.AddSavings(context.Background(), testUserID, dec("10"))
	assert.Error(t, err)
	assert.Empty(t, publisher.Types())
}

func TestBalanceService_AddSavings_BalanceWriteFailureKeepsTrips(t *testing.T) {
	svc, kv, publisher := setupBalanceService()
	ctx := context.Background()

	kv.Put(domain.BalanceKey(testUserID), dec("500"))
	kv.Put(domain.TripsKey(testUserID), []domain.Trip{
		{ID: 1, Name: "Rome", EstimatedCost: dec("1000"), ReturnDate: "2026-06-30"},
	})
	kv.SetFn = func(key string, value json.RawMessage) error {
		if strings.HasSuffix(key, ":balance") {
			return errors.New("disk full")
		}
		kv.Put(key, value)
		return nil
	}

	_, err := svc.AddSavings(ctx, testUserID, dec("250"))
	require.Error(t, err)
	assert.Empty(t, publisher.Types())

	trips := storedTrips(t, kv)
	require.Len(t, trips, 1)
	assert.True(t, trips[0].SavedAmount.IsZero(), "saved amount must not move when the balance write fails")

	// the retry after the store recovers attributes exactly once
	kv.SetFn = nil
	result, err := svc.AddSavings(ctx, testUserID, dec("250"))
	require.NoError(t, err)
	assert.True(t, result.Balance.Equal(dec("750")))
	assert.True(t, storedTrips(t, kv)[0].SavedAmount.Equal(dec("250")))
}

func TestBalanceService_AddSavings_Negative(t *testing.T) {
	svc, _, _ := setupBalanceService()

	_, err := svc.AddSavings(context.Background(), testUserID, dec("-5"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
