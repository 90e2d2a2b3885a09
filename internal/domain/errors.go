package domain

import "errors"

// Domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTripNotFound       = errors.New("trip not found")
	ErrInvalidAmount      = errors.New("amount must be a non-negative number")
	ErrInvalidProgress    = errors.New("progress must be between 0 and 100")
	ErrInvalidPriority    = errors.New("priority must be 1, 2 or 3")
	ErrInvalidDate        = errors.New("invalid calendar date")
	ErrStorageDisabled    = errors.New("object storage is not configured")
)

// Validation constants
const (
	MaxTripNameLength = 255
	MinPasswordLength = 6
)
