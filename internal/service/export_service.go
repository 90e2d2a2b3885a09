package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/google/uuid"
)

// ExportURLExpiry is how long a presigned export link stays valid
const ExportURLExpiry = 15 * time.Minute

// ExportService writes snapshots of a user's data to object storage
type ExportService struct {
	storage  domain.ObjectStorage
	profiles *ProfileService
	now      func() time.Time
}

// NewExportService creates a new ExportService. storage may be nil when
// object storage is not configured.
func NewExportService(storage domain.ObjectStorage, profiles *ProfileService) *ExportService {
	return &ExportService{storage: storage, profiles: profiles, now: time.Now}
}

// IsEnabled indicates whether exports are supported
func (s *ExportService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// Export uploads a JSON snapshot and returns a presigned link to it
func (s *ExportService) Export(ctx context.Context, userID uuid.UUID) (*domain.ExportResult, error) {
	if !s.IsEnabled() {
		return nil, domain.ErrStorageDisabled
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	snapshot := domain.Snapshot{
		User:       profile.User,
		Balance:    profile.Balance,
		Goal:       profile.Goal,
		Trips:      profile.Trips,
		ExportedAt: now,
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	objectPath := fmt.Sprintf("exports/%s/%s.json", userID, uuid.New())
	if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(data), "application/json", int64(len(data))); err != nil {
		return nil, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	url, err := s.storage.GeneratePresignedURL(ctx, objectPath, ExportURLExpiry)
	if err != nil {
		return nil, err
	}

	return &domain.ExportResult{
		ObjectPath: objectPath,
		URL:        url,
		ExpiresAt:  now.Add(ExportURLExpiry),
	}, nil
}
