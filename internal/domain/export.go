package domain

import (
	"context"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ObjectStorage stores exported documents
type ObjectStorage interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// Snapshot is the exported copy of a user's data
type Snapshot struct {
	User       *User           `json:"user"`
	Balance    decimal.Decimal `json:"balance"`
	Goal       decimal.Decimal `json:"goal"`
	Trips      []Trip          `json:"trips"`
	ExportedAt time.Time       `json:"exportedAt"`
}

// ExportResult points at an uploaded snapshot
type ExportResult struct {
	ObjectPath string    `json:"objectPath"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
