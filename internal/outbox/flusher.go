package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
)

// FlusherConfig holds the retry policy of a Flusher. An op is discarded
// after MaxAttempts failed flushes; one flush tries it TriesPerFlush times.
type FlusherConfig struct {
	MaxAttempts     int
	TriesPerFlush   uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultFlusherConfig returns the default retry policy
func DefaultFlusherConfig() FlusherConfig {
	return FlusherConfig{
		MaxAttempts:     20,
		TriesPerFlush:   3,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// FlushResult reports one flush pass
type FlushResult struct {
	Sent    int
	Dropped int
	Pending int
}

// Flusher drains a Queue through a Sender, oldest op first
type Flusher struct {
	queue  Queue
	sender Sender
	logger zerolog.Logger
	config FlusherConfig
	mu     sync.Mutex
}

// NewFlusher creates a new Flusher. Zero config fields take their defaults.
func NewFlusher(queue Queue, sender Sender, logger zerolog.Logger, config FlusherConfig) *Flusher {
	defaults := DefaultFlusherConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.TriesPerFlush == 0 {
		config.TriesPerFlush = defaults.TriesPerFlush
	}
	if config.InitialInterval <= 0 {
		config.InitialInterval = defaults.InitialInterval
	}
	if config.MaxInterval <= 0 {
		config.MaxInterval = defaults.MaxInterval
	}

	return &Flusher{
		queue:  queue,
		sender: sender,
		logger: logger.With().Str("component", "outbox_flusher").Logger(),
		config: config,
	}
}

// Flush sends pending ops in order. It stops at the first op that still
// fails after its retries so later ops never overtake it. ErrUnauthorized
// is returned as soon as the store rejects the credentials.
func (f *Flusher) Flush(ctx context.Context) (FlushResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result FlushResult

	ops, err := f.queue.Pending(ctx)
	if err != nil {
		return result, err
	}

	for i, op := range ops {
		err := f.send(ctx, op)
		switch {
		case err == nil:
			result.Sent++
			if err := f.queue.Remove(ctx, op.ID); err != nil {
				return result, err
			}

		case errors.Is(err, ErrGone), errors.Is(err, ErrRejected):
			f.logger.Warn().Err(err).Str("kind", string(op.Kind)).Int64("trip_id", op.TripID).Msg("Dropping op the store will not accept")
			result.Dropped++
			if err := f.queue.Remove(ctx, op.ID); err != nil {
				return result, err
			}

		case errors.Is(err, ErrUnauthorized):
			result.Pending = len(ops) - i
			return result, err

		default:
			if ctx.Err() != nil {
				result.Pending = len(ops) - i
				return result, ctx.Err()
			}
			if op.Attempts+1 >= f.config.MaxAttempts {
				f.logger.Error().Err(err).Str("kind", string(op.Kind)).Int("attempts", op.Attempts+1).Msg("Giving up on op")
				result.Dropped++
				if err := f.queue.Remove(ctx, op.ID); err != nil {
					return result, err
				}
				continue
			}
			result.Pending = len(ops) - i
			if markErr := f.queue.MarkFailed(ctx, op.ID, err.Error()); markErr != nil {
				return result, markErr
			}
			f.logger.Debug().Err(err).Str("kind", string(op.Kind)).Msg("Op not synced, will retry")
			return result, err
		}
	}

	return result, nil
}

// send delivers one op with exponential backoff between tries
func (f *Flusher) send(ctx context.Context, op Op) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.config.InitialInterval
	b.MaxInterval = f.config.MaxInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := f.sender.Send(ctx, op)
		if err != nil && isPermanent(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(f.config.TriesPerFlush),
		backoff.WithNotify(func(err error, wait time.Duration) {
			f.logger.Debug().Err(err).Dur("wait", wait).Str("kind", string(op.Kind)).Msg("Retrying op")
		}),
	)
	return err
}

func isPermanent(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrGone) || errors.Is(err, ErrRejected)
}

// Run flushes every interval until ctx is done. Unauthorized errors end the loop.
func (f *Flusher) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := f.Flush(ctx)
		if errors.Is(err, ErrUnauthorized) {
			return err
		}
		if err != nil && ctx.Err() == nil {
			f.logger.Warn().Err(err).Int("pending", res.Pending).Msg("Outbox flush incomplete")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
