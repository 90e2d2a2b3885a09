package service

import (
	"context"
	"testing"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_GetProfile(t *testing.T) {
	userRepo := testutil.NewMockUserRepository()
	kv := testutil.NewMockKVStore()
	svc := NewProfileService(userRepo, NewUserDataStore(kv), newTestCalculator())

	user := &domain.User{ID: uuid.New(), Email: "dee@example.com", Name: "Dee"}
	userRepo.AddUser(user)

	id := user.ID.String()
	kv.Put(domain.BalanceKey(id), dec("99.50"))
	kv.Put(domain.TripsKey(id), []domain.Trip{
		{ID: 7, Name: "Stale", EstimatedCost: dec("1000"), SavedAmount: dec("500"), ReturnDate: "2026-04-09"},
	})

	profile, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, user, profile.User)
	assert.True(t, profile.Balance.Equal(dec("99.50")))
	assert.True(t, profile.Goal.Equal(domain.DefaultGoal), "missing goal reads back as the default")
	require.Len(t, profile.Trips, 1)
	assert.True(t, profile.Trips[0].Progress.Equal(dec("50")))
	assertDecimalNear(t, dec("5"), profile.Trips[0].DailyTarget, 1e-6)
}

func TestProfileService_GetProfile_UserNotFound(t *testing.T) {
	svc := NewProfileService(testutil.NewMockUserRepository(), NewUserDataStore(testutil.NewMockKVStore()), newTestCalculator())

	_, err := svc.GetProfile(context.Background(), uuid.New())
	if err != domain.ErrUserNotFound {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
}
