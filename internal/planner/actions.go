package planner

import (
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Action is a user intent applied by Reduce
type Action interface {
	actionName() string
}

// Hydrate replaces the state with data loaded from the store
type Hydrate struct {
	User    *domain.User
	Balance decimal.Decimal
	Goal    decimal.Decimal
	Trips   []domain.Trip
}

// EnterDemo switches to local-only mode with the demo identity
type EnterDemo struct{}

// SignOut discards the user's state
type SignOut struct{}

// CreateTrip confirms a plan. Now stamps the id and createdAt.
type CreateTrip struct {
	Name          string
	From          string
	To            string
	StarRating    string
	Transport     string
	TravelDate    string
	ReturnDate    string
	EstimatedCost decimal.Decimal // zero uses domain.DefaultEstimatedCost
	FlightDetails *domain.FlightDetails
	Now           time.Time
}

// SetBalance sets the balance and moves the difference onto the primary trip
type SetBalance struct {
	Balance decimal.Decimal
}

// AddSavings adds to the balance and to the primary trip
type AddSavings struct {
	Amount decimal.Decimal
}

// SetSavedAmount sets one trip's saved amount
type SetSavedAmount struct {
	TripID int64
	Amount decimal.Decimal
}

// SetProgress edits one trip's progress directly
type SetProgress struct {
	TripID   int64
	Progress decimal.Decimal
}

// SetPriority changes a trip's priority and, when Starred is set, its star
type SetPriority struct {
	TripID   int64
	Priority int
	Starred  *bool
}

// DeleteTrip removes a trip
type DeleteTrip struct {
	TripID int64
}

// RefreshTargets recomputes every trip for today
type RefreshTargets struct{}

func (Hydrate) actionName() string        { return "hydrate" }
func (EnterDemo) actionName() string      { return "enter_demo" }
func (SignOut) actionName() string        { return "sign_out" }
func (CreateTrip) actionName() string     { return "create_trip" }
func (SetBalance) actionName() string     { return "set_balance" }
func (AddSavings) actionName() string     { return "add_savings" }
func (SetSavedAmount) actionName() string { return "set_saved_amount" }
func (SetProgress) actionName() string    { return "set_progress" }
func (SetPriority) actionName() string    { return "set_priority" }
func (DeleteTrip) actionName() string     { return "delete_trip" }
func (RefreshTargets) actionName() string { return "refresh_targets" }
