// Package planner holds the client's view of a user's savings and trips and
// the pure transitions that change it.
package planner

import (
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// State is everything the client knows about the signed-in user
type State struct {
	User     *domain.User    `json:"user,omitempty"`
	Balance  decimal.Decimal `json:"balance"`
	Goal     decimal.Decimal `json:"goal"`
	Trips    []domain.Trip   `json:"trips"`
	DemoMode bool            `json:"demoMode"`
}

// NewState returns the signed-out state with the store's defaults
func NewState() State {
	return State{
		Balance: domain.DefaultBalance,
		Goal:    domain.DefaultGoal,
		Trips:   []domain.Trip{},
	}
}

// DemoUser is the local-only identity used when no store is reachable
func DemoUser() *domain.User {
	return &domain.User{Email: "demo@example.com", Name: "Demo User", SubscriptionPlan: domain.DefaultSubscriptionPlan}
}

// SignedIn reports whether the state belongs to a user
func (s State) SignedIn() bool {
	return s.User != nil
}

// Primary returns the trip that absorbs undirected savings
func (s State) Primary() (domain.Trip, bool) {
	return domain.PrimaryTrip(s.Trips)
}

// Active returns unfinished trips, starred first then by priority
func (s State) Active() []domain.Trip {
	active, _ := domain.PartitionTrips(s.Trips)
	return domain.SortTrips(active, domain.SortByPriority)
}

// Completed returns the trips that are fully funded and ready to book
func (s State) Completed() []domain.Trip {
	_, completed := domain.PartitionTrips(s.Trips)
	return completed
}

// GoalAmount is the primary trip's cost, or the stored goal when no trip is active
func (s State) GoalAmount() decimal.Decimal {
	if primary, ok := s.Primary(); ok {
		return primary.EstimatedCost
	}
	return s.Goal
}

// Sorted returns the trips in the requested display order
func (s State) Sorted(key domain.SortKey) []domain.Trip {
	return domain.SortTrips(s.Trips, key)
}

// Trip returns the trip with the given id
func (s State) Trip(id int64) (domain.Trip, bool) {
	idx := domain.FindTrip(s.Trips, id)
	if idx < 0 {
		return domain.Trip{}, false
	}
	return s.Trips[idx], true
}

func (s State) cloneTrips() []domain.Trip {
	trips := make([]domain.Trip, len(s.Trips))
	copy(trips, s.Trips)
	return trips
}
