package service

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TargetRefreshWorker periodically recomputes stored savings targets, which
// go stale as the return date approaches
type TargetRefreshWorker struct {
	data     *UserDataStore
	calc     *SavingsCalculator
	logger   zerolog.Logger
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// TargetRefreshWorkerConfig holds configuration for the refresh worker
type TargetRefreshWorkerConfig struct {
	Interval time.Duration
}

// DefaultTargetRefreshWorkerConfig returns the default configuration
func DefaultTargetRefreshWorkerConfig() TargetRefreshWorkerConfig {
	return TargetRefreshWorkerConfig{Interval: time.Hour}
}

// RefreshResult reports one refresh pass
type RefreshResult struct {
	Users   int
	Updated int
	Errors  int
}

// NewTargetRefreshWorker creates a new refresh worker
func NewTargetRefreshWorker(data *UserDataStore, calc *SavingsCalculator, logger zerolog.Logger, config TargetRefreshWorkerConfig) *TargetRefreshWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultTargetRefreshWorkerConfig().Interval
	}

	return &TargetRefreshWorker{
		data:     data,
		calc:     calc,
		logger:   logger.With().Str("component", "target_refresh_worker").Logger(),
		interval: config.Interval,
	}
}

// Start begins the background refresh loop. A stopped worker can be started again.
func (w *TargetRefreshWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting target refresh worker")
	go w.run(ctx, stopCh, doneCh)
}

// Stop gracefully stops the worker and waits for the current pass to end
func (w *TargetRefreshWorker) Stop() {
	w.mu.Lock()
	if !w.running || w.stopCh == nil {
		w.mu.Unlock()
		return
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.stopCh = nil
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping target refresh worker")
	close(stopCh)
	<-doneCh
	w.logger.Info().Msg("Target refresh worker stopped")
}

// IsRunning returns whether the worker is currently running
func (w *TargetRefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *TargetRefreshWorker) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.refreshAll(ctx, stopCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.refreshAll(ctx, stopCh)
		}
	}
}

// RefreshAll recomputes every user's trips and writes back the collections that changed
func (w *TargetRefreshWorker) RefreshAll(ctx context.Context) RefreshResult {
	return w.refreshAll(ctx, nil)
}

// refreshAll is RefreshAll that also gives up when stopCh closes
func (w *TargetRefreshWorker) refreshAll(ctx context.Context, stopCh <-chan struct{}) RefreshResult {
	start := time.Now()
	var result RefreshResult

	userIDs, err := w.data.UserIDs(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to list users for target refresh")
		return result
	}

	for _, userID := range userIDs {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Context cancelled, stopping refresh")
			return result
		case <-stopCh:
			w.logger.Info().Msg("Stop signal received, stopping refresh")
			return result
		default:
		}

		result.Users++
		changed, err := w.RefreshUser(ctx, userID)
		if err != nil {
			w.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to refresh targets")
			result.Errors++
			continue
		}
		if changed {
			result.Updated++
		}
	}

	w.logger.Info().
		Int("users", result.Users).
		Int("updated", result.Updated).
		Int("errors", result.Errors).
		Dur("elapsed", time.Since(start)).
		Msg("Completed target refresh")
	return result
}

// RefreshUser recomputes one user's trips, reporting whether anything changed
func (w *TargetRefreshWorker) RefreshUser(ctx context.Context, userID string) (bool, error) {
	unlock := w.data.Lock(userID)
	defer unlock()

	trips, err := w.data.Trips(ctx, userID)
	if err != nil {
		return false, err
	}
	if len(trips) == 0 {
		return false, nil
	}

	refreshed := w.calc.RecomputeAll(trips)

	before, err := json.Marshal(trips)
	if err != nil {
		return false, err
	}
	after, err := json.Marshal(refreshed)
	if err != nil {
		return false, err
	}
	if bytes.Equal(before, after) {
		return false, nil
	}

	return true, w.data.SetTrips(ctx, userID, refreshed)
}
