package service

import (
	"context"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/google/uuid"
)

// ProfileService assembles the user's full profile
type ProfileService struct {
	userRepo domain.UserRepository
	data     *UserDataStore
	calc     *SavingsCalculator
}

// NewProfileService creates a new ProfileService
func NewProfileService(userRepo domain.UserRepository, data *UserDataStore, calc *SavingsCalculator) *ProfileService {
	return &ProfileService{userRepo: userRepo, data: data, calc: calc}
}

// GetProfile returns the user with their balance, goal and trips.
// Trip targets are recomputed against today before they are returned.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	id := userID.String()
	balance, err := s.data.Balance(ctx, id)
	if err != nil {
		return nil, err
	}
	goal, err := s.data.Goal(ctx, id)
	if err != nil {
		return nil, err
	}
	trips, err := s.data.Trips(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.Profile{
		User:    user,
		Balance: balance,
		Goal:    goal,
		Trips:   s.calc.RecomputeAll(trips),
	}, nil
}
