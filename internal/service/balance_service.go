package service

import (
	"context"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// BalanceService handles the user's balance and its attribution to trips
type BalanceService struct {
	data           *UserDataStore
	calc           *SavingsCalculator
	eventPublisher websocket.EventPublisher
}

// NewBalanceService creates a new BalanceService
func NewBalanceService(data *UserDataStore, calc *SavingsCalculator) *BalanceService {
	return &BalanceService{data: data, calc: calc}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *BalanceService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *BalanceService) publishEvent(userID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// SavingsResult is the outcome of adding savings
type SavingsResult struct {
	Balance decimal.Decimal `json:"balance"`
	Trip    *domain.Trip    `json:"trip,omitempty"` // nil when no trip is active
}

// GetBalance returns the user's balance
func (s *BalanceService) GetBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.data.Balance(ctx, userID)
}

// SetBalance stores the balance as given. Attribution of the change to a
// trip is done by the client that made it.
func (s *BalanceService) SetBalance(ctx context.Context, userID string, balance decimal.Decimal) (decimal.Decimal, error) {
	if balance.IsNegative() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	unlock := s.data.Lock(userID)
	defer unlock()

	if err := s.data.SetBalance(ctx, userID, balance); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to store balance")
		return decimal.Zero, err
	}

	s.publishEvent(userID, websocket.BalanceUpdated(map[string]decimal.Decimal{"balance": balance}))
	return balance, nil
}

// AddSavings adds amount to the balance and to the primary trip's saved
// amount. With no active trip only the balance changes.
func (s *BalanceService) AddSavings(ctx context.Context, userID string, amount decimal.Decimal) (*SavingsResult, error) {
	if amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	unlock := s.data.Lock(userID)
	defer unlock()

	balance, err := s.data.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}
	trips, err := s.data.Trips(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &SavingsResult{Balance: balance.Add(amount)}
	previous := append([]domain.Trip(nil), trips...)

	trips = s.calc.RecomputeAll(trips)
	if idx := domain.PrimaryTripIndex(trips); idx >= 0 {
		updated := s.calc.WithSavedAmount(trips[idx], trips[idx].SavedAmount.Add(amount))
		trips[idx] = updated
		if err := s.data.SetTrips(ctx, userID, trips); err != nil {
			return nil, err
		}
		result.Trip = &updated
	}

	if err := s.data.SetBalance(ctx, userID, result.Balance); err != nil {
		// a retried request must not attribute the amount twice
		if result.Trip != nil {
			if rbErr := s.data.SetTrips(ctx, userID, previous); rbErr != nil {
				log.Error().Err(rbErr).Str("user_id", userID).Msg("Failed to restore trips after balance write failed")
			}
		}
		return nil, err
	}

	log.Debug().
		Str("user_id", userID).
		Str("amount", amount.String()).
		Bool("attributed", result.Trip != nil).
		Msg("Added savings")

	if result.Trip != nil {
		s.publishEvent(userID, websocket.TripUpdated(*result.Trip))
	}
	s.publishEvent(userID, websocket.BalanceUpdated(map[string]decimal.Decimal{"balance": result.Balance}))
	return result, nil
}
