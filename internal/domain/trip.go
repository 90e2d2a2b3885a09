package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Trip priorities. Zero means unset and orders like PriorityLow.
const (
	PriorityHigh    = 1
	PriorityMedium  = 2
	PriorityLow     = 3
	DefaultPriority = PriorityMedium
)

// DefaultEstimatedCost is used when a plan arrives without a cost estimate
var DefaultEstimatedCost = decimal.NewFromInt(3000)

// Hundred is the progress value of a fully funded trip
var Hundred = decimal.NewFromInt(100)

// FlightDetails is the passenger and cabin selection captured when planning
type FlightDetails struct {
	Adults            int    `json:"adults"`
	Children          int    `json:"children"`
	Infants           int    `json:"infants"`
	CabinClass        string `json:"cabinClass"`
	DirectFlightsOnly bool   `json:"directFlightsOnly"`
	FlexibleDates     bool   `json:"flexibleDates"`
}

// Trip is one savings goal tied to a prospective journey
type Trip struct {
	ID            int64            `json:"id"`
	Name          string           `json:"name"`
	From          string           `json:"from,omitempty"`
	To            string           `json:"to,omitempty"`
	StarRating    string           `json:"starRating,omitempty"`
	Transport     string           `json:"transport,omitempty"`
	TravelDate    string           `json:"travelDate"`
	ReturnDate    string           `json:"returnDate"`
	EstimatedCost decimal.Decimal  `json:"estimatedCost"`
	SavedAmount   decimal.Decimal  `json:"savedAmount"`
	Progress      decimal.Decimal  `json:"progress"`
	Priority      int              `json:"priority,omitempty"`
	IsStarred     bool             `json:"isStarred"`
	DailyTarget   decimal.Decimal  `json:"dailyTarget"`
	WeeklyTarget  decimal.Decimal  `json:"weeklyTarget"`
	MonthlyTarget decimal.Decimal  `json:"monthlyTarget"`
	Balance       *decimal.Decimal `json:"balance,omitempty"`
	FlightDetails *FlightDetails   `json:"flightDetails,omitempty"`
	CreatedAt     *time.Time       `json:"createdAt,omitempty"`
}

// SavingsTargets is the contribution needed per period to close a trip's gap
type SavingsTargets struct {
	Daily   decimal.Decimal `json:"dailyTarget"`
	Weekly  decimal.Decimal `json:"weeklyTarget"`
	Monthly decimal.Decimal `json:"monthlyTarget"`
}

// ZeroTargets is returned whenever a trip has nothing left to save or no time to save it in
var ZeroTargets = SavingsTargets{Daily: decimal.Zero, Weekly: decimal.Zero, Monthly: decimal.Zero}

// WithTargets returns a copy of t carrying the given targets
func (t Trip) WithTargets(targets SavingsTargets) Trip {
	t.DailyTarget = targets.Daily
	t.WeeklyTarget = targets.Weekly
	t.MonthlyTarget = targets.Monthly
	return t
}

// Targets returns the targets stored on the trip
func (t Trip) Targets() SavingsTargets {
	return SavingsTargets{Daily: t.DailyTarget, Weekly: t.WeeklyTarget, Monthly: t.MonthlyTarget}
}

// EffectivePriority returns the priority used for ordering, treating unset as low
func (t Trip) EffectivePriority() int {
	if t.Priority == 0 {
		return PriorityLow
	}
	return t.Priority
}

// IsCompleted reports whether the trip is fully funded and ready to book
func (t Trip) IsCompleted() bool {
	return t.Progress.GreaterThanOrEqual(Hundred)
}

// DefaultTripName builds "{stars} Star Trip - {city}" from a destination like "Paris, France"
func DefaultTripName(starRating, to string) string {
	city := strings.TrimSpace(strings.SplitN(to, ",", 2)[0])
	return starRating + " Star Trip - " + city
}

// ValidPriority reports whether p is one of the three supported priorities
func ValidPriority(p int) bool {
	return p >= PriorityHigh && p <= PriorityLow
}

// FindTrip returns the index of the trip with the given id, or -1
func FindTrip(trips []Trip, id int64) int {
	for i := range trips {
		if trips[i].ID == id {
			return i
		}
	}
	return -1
}
