package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an account holder
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	SubscriptionPlan string    `json:"subscriptionPlan,omitempty"`
	PasswordHash     string    `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
}

// DefaultSubscriptionPlan is assigned at signup
const DefaultSubscriptionPlan = "free"

// Profile is everything the client needs to hydrate its local state
type Profile struct {
	User    *User           `json:"user"`
	Balance decimal.Decimal `json:"balance"`
	Goal    decimal.Decimal `json:"goal"`
	Trips   []Trip          `json:"trips"`
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}
