package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/util"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// TripService handles trip-related business logic
type TripService struct {
	data           *UserDataStore
	calc           *SavingsCalculator
	eventPublisher websocket.EventPublisher
}

// NewTripService creates a new TripService
func NewTripService(data *UserDataStore, calc *SavingsCalculator) *TripService {
	return &TripService{data: data, calc: calc}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *TripService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *TripService) publishEvent(userID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(userID, event)
	}
}

// CreateTripInput contains the input for planning a trip
type CreateTripInput struct {
	ID            int64 // optional client-assigned id
	Name          string
	From          string
	To            string
	StarRating    string
	Transport     string
	TravelDate    string
	ReturnDate    string
	EstimatedCost *decimal.Decimal // nil uses domain.DefaultEstimatedCost
	Priority      *int // nil uses domain.DefaultPriority
	IsStarred     bool
	Balance       *decimal.Decimal
	FlightDetails *domain.FlightDetails
}

// TripSummary is the dashboard view of a user's trips
type TripSummary struct {
	Primary    *domain.Trip    `json:"primary"`
	Active     []domain.Trip   `json:"active"`
	Completed  []domain.Trip   `json:"completed"`
	GoalAmount decimal.Decimal `json:"goalAmount"`
	Balance    decimal.Decimal `json:"balance"`
}

// List returns the user's trips with fresh targets in the requested order
func (s *TripService) List(ctx context.Context, userID string, key domain.SortKey) ([]domain.Trip, error) {
	trips, err := s.data.Trips(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.SortTrips(s.calc.RecomputeAll(trips), key), nil
}

// Summary returns the primary trip, active and completed trips and the goal amount
func (s *TripService) Summary(ctx context.Context, userID string) (*TripSummary, error) {
	trips, err := s.data.Trips(ctx, userID)
	if err != nil {
		return nil, err
	}
	balance, err := s.data.Balance(ctx, userID)
	if err != nil {
		return nil, err
	}

	trips = s.calc.RecomputeAll(trips)
	active, completed := domain.PartitionTrips(trips)
	summary := &TripSummary{
		Active:    domain.SortTrips(active, domain.SortByPriority),
		Completed: completed,
		Balance:   balance,
	}

	if primary, ok := domain.PrimaryTrip(trips); ok {
		summary.Primary = &primary
		summary.GoalAmount = primary.EstimatedCost
		return summary, nil
	}

	goal, err := s.data.Goal(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary.GoalAmount = goal
	return summary, nil
}

// Get returns one trip with fresh targets
func (s *TripService) Get(ctx context.Context, userID string, tripID int64) (*domain.Trip, error) {
	trips, err := s.data.Trips(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := domain.FindTrip(trips, tripID)
	if idx < 0 {
		return nil, domain.ErrTripNotFound
	}
	trip := s.calc.Recompute(trips[idx])
	return &trip, nil
}

// Create appends a new trip to the user's collection. Repeating a create with
// a client id that already exists returns the stored trip unchanged.
func (s *TripService) Create(ctx context.Context, userID string, input CreateTripInput) (*domain.Trip, error) {
	trip, err := s.buildTrip(input)
	if err != nil {
		return nil, err
	}

	unlock := s.data.Lock(userID)
	defer unlock()

	trips, err := s.data.Trips(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.ID > 0 {
		if idx := domain.FindTrip(trips, input.ID); idx >= 0 {
			existing := trips[idx]
			return &existing, nil
		}
		trip.ID = input.ID
	} else {
		trip.ID = s.calc.Now().UnixMilli()
		for domain.FindTrip(trips, trip.ID) >= 0 {
			trip.ID++
		}
	}

	trips = append(trips, trip)
	if err := s.data.SetTrips(ctx, userID, trips); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to store new trip")
		return nil, err
	}

	s.publishEvent(userID, websocket.TripCreated(trip))
	return &trip, nil
}

func (s *TripService) buildTrip(input CreateTripInput) (domain.Trip, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" && input.To != "" {
		name = domain.DefaultTripName(input.StarRating, input.To)
	}
	if name == "" {
		return domain.Trip{}, fmt.Errorf("%w: name or destination is required", domain.ErrInvalidInput)
	}
	if len(name) > domain.MaxTripNameLength {
		return domain.Trip{}, fmt.Errorf("%w: name must be at most %d characters", domain.ErrInvalidInput, domain.MaxTripNameLength)
	}

	cost := domain.DefaultEstimatedCost
	if input.EstimatedCost != nil {
		cost = *input.EstimatedCost
	}
	if cost.IsNegative() {
		return domain.Trip{}, domain.ErrInvalidAmount
	}

	priority := domain.DefaultPriority
	if input.Priority != nil {
		priority = *input.Priority
	}
	if !domain.ValidPriority(priority) {
		return domain.Trip{}, domain.ErrInvalidPriority
	}

	if err := s.validateDates(input.TravelDate, input.ReturnDate); err != nil {
		return domain.Trip{}, err
	}

	createdAt := s.calc.Now().UTC().Truncate(time.Millisecond)
	trip := domain.Trip{
		Name:          name,
		From:          input.From,
		To:            input.To,
		StarRating:    input.StarRating,
		Transport:     input.Transport,
		TravelDate:    input.TravelDate,
		ReturnDate:    input.ReturnDate,
		EstimatedCost: cost,
		SavedAmount:   decimal.Zero,
		Priority:      priority,
		IsStarred:     input.IsStarred,
		Balance:       input.Balance,
		FlightDetails: input.FlightDetails,
		CreatedAt:     &createdAt,
	}
	return s.calc.Recompute(trip), nil
}

// Update merges a partial JSON document onto the stored trip. A patch that
// only carries progress is applied as a direct progress edit; anything else
// is merged field by field and the derived fields are recomputed.
func (s *TripService) Update(ctx context.Context, userID string, tripID int64, patch json.RawMessage) (*domain.Trip, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(patch, &fields); err != nil {
		return nil, fmt.Errorf("%w: body must be a JSON object", domain.ErrInvalidInput)
	}
	delete(fields, "id")
	delete(fields, "createdAt")

	if raw, ok := fields["progress"]; ok && len(fields) == 1 {
		var progress decimal.Decimal
		if err := json.Unmarshal(raw, &progress); err != nil {
			return nil, domain.ErrInvalidProgress
		}
		return s.UpdateProgress(ctx, userID, tripID, progress)
	}

	return s.mutate(ctx, userID, tripID, func(trip domain.Trip) (domain.Trip, error) {
		merged, err := mergeTrip(trip, fields)
		if err != nil {
			return domain.Trip{}, err
		}
		if err := s.validateMerged(merged); err != nil {
			return domain.Trip{}, err
		}
		return s.calc.Recompute(merged), nil
	})
}

// UpdateProgress sets progress directly; saved amount follows from it
func (s *TripService) UpdateProgress(ctx context.Context, userID string, tripID int64, progress decimal.Decimal) (*domain.Trip, error) {
	return s.mutate(ctx, userID, tripID, func(trip domain.Trip) (domain.Trip, error) {
		return s.calc.WithProgress(trip, progress), nil
	})
}

// UpdatePriority changes a trip's priority and optionally its starred flag
func (s *TripService) UpdatePriority(ctx context.Context, userID string, tripID int64, priority int, starred *bool) (*domain.Trip, error) {
	if !domain.ValidPriority(priority) {
		return nil, domain.ErrInvalidPriority
	}
	return s.mutate(ctx, userID, tripID, func(trip domain.Trip) (domain.Trip, error) {
		trip.Priority = priority
		if starred != nil {
			trip.IsStarred = *starred
		}
		return s.calc.Recompute(trip), nil
	})
}

// Delete removes a trip. Deleting an unknown id succeeds.
func (s *TripService) Delete(ctx context.Context, userID string, tripID int64) error {
	unlock := s.data.Lock(userID)
	defer unlock()

	trips, err := s.data.Trips(ctx, userID)
	if err != nil {
		return err
	}
	idx := domain.FindTrip(trips, tripID)
	if idx < 0 {
		log.Debug().Str("user_id", userID).Int64("trip_id", tripID).Msg("Delete of unknown trip ignored")
		return nil
	}

	trips = append(trips[:idx], trips[idx+1:]...)
	if err := s.data.SetTrips(ctx, userID, trips); err != nil {
		return err
	}

	s.publishEvent(userID, websocket.TripDeleted(map[string]int64{"id": tripID}))
	return nil
}

// mutate applies fn to one trip under the user's lock and stores the result
func (s *TripService) mutate(ctx context.Context, userID string, tripID int64, fn func(domain.Trip) (domain.Trip, error)) (*domain.Trip, error) {
	unlock := s.data.Lock(userID)
	defer unlock()

	trips, err := s.data.Trips(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := domain.FindTrip(trips, tripID)
	if idx < 0 {
		return nil, domain.ErrTripNotFound
	}

	updated, err := fn(trips[idx])
	if err != nil {
		return nil, err
	}
	updated.ID = tripID
	trips[idx] = updated

	if err := s.data.SetTrips(ctx, userID, trips); err != nil {
		log.Error().Err(err).Str("user_id", userID).Int64("trip_id", tripID).Msg("Failed to store trip")
		return nil, err
	}

	s.publishEvent(userID, websocket.TripUpdated(updated))
	return &updated, nil
}

// mergeTrip overlays the patch fields onto the trip's JSON form
func mergeTrip(trip domain.Trip, fields map[string]json.RawMessage) (domain.Trip, error) {
	base, err := json.Marshal(trip)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("failed to encode trip: %w", err)
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(base, &doc); err != nil {
		return domain.Trip{}, fmt.Errorf("failed to encode trip: %w", err)
	}
	for k, v := range fields {
		doc[k] = v
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("failed to merge trip: %w", err)
	}
	var out domain.Trip
	if err := json.Unmarshal(merged, &out); err != nil {
		return domain.Trip{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return out, nil
}

func (s *TripService) validateMerged(trip domain.Trip) error {
	if strings.TrimSpace(trip.Name) == "" || len(trip.Name) > domain.MaxTripNameLength {
		return fmt.Errorf("%w: name must be 1-%d characters", domain.ErrInvalidInput, domain.MaxTripNameLength)
	}
	if trip.EstimatedCost.IsNegative() || trip.SavedAmount.IsNegative() {
		return domain.ErrInvalidAmount
	}
	if trip.Priority != 0 && !domain.ValidPriority(trip.Priority) {
		return domain.ErrInvalidPriority
	}
	return s.validateDates(trip.TravelDate, trip.ReturnDate)
}

func (s *TripService) validateDates(dates ...string) error {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if _, err := util.ParseCalendarDate(d, s.calc.Location()); err != nil {
			return fmt.Errorf("%w: %q", domain.ErrInvalidDate, d)
		}
	}
	return nil
}
