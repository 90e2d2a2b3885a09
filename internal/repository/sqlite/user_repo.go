package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/google/uuid"
)

// UserRepository implements domain.UserRepository on SQLite
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	out := *user
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = time.Now().UTC()
	}
	if out.SubscriptionPlan == "" {
		out.SubscriptionPlan = domain.DefaultSubscriptionPlan
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, subscription_plan, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, out.ID.String(), out.Email, out.Name, out.PasswordHash, out.SubscriptionPlan, out.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `WHERE id = ?`, id.String())
}

// GetByEmail retrieves a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `WHERE email = ?`, email)
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*domain.User, error) {
	var (
		user      domain.User
		id        string
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, subscription_plan, created_at FROM users `+where, arg,
	).Scan(&id, &user.Email, &user.Name, &user.PasswordHash, &user.SubscriptionPlan, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}
	user.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &user, nil
}
