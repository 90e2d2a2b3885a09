package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/cli"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/client"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/config"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/localstore"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/outbox"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/planner"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// app is the state shared by every command for one invocation
type app struct {
	cfg   config.ClientConfig
	store *localstore.Store
	calc  *service.SavingsCalculator
	api   *client.Client
	state planner.State
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadClientFrom(flagConfig)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := localstore.Open(ctx, flagState)
	if err != nil {
		return nil, err
	}
	state, err := store.Load(ctx)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &app{
		cfg:   cfg,
		store: store,
		calc:  service.NewSavingsCalculator(loc),
		api:   client.FromConfig(cfg),
	}
	// stored targets were computed for the day they were saved
	a.state, _, _ = planner.Reduce(a.calc, state, planner.RefreshTargets{})
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// apply runs action through the planner, persists the result with its
// store writes, then tries to push those writes once
func (a *app) apply(ctx context.Context, action planner.Action) error {
	if !a.state.SignedIn() {
		if err := a.enterDemo(ctx); err != nil {
			return err
		}
	}

	next, ops, err := planner.Reduce(a.calc, a.state, action)
	if err != nil {
		return err
	}
	if err := a.store.Commit(ctx, next, ops); err != nil {
		return err
	}
	a.state = next

	if len(ops) > 0 {
		_, _ = a.push(ctx, 1)
	}
	return nil
}

func (a *app) enterDemo(ctx context.Context) error {
	fmt.Fprintln(os.Stderr, cli.Warn("  Not signed in: changes stay on this device. Run `tripsaver login` to sync."))
	next, _, err := planner.Reduce(a.calc, a.state, planner.EnterDemo{})
	if err != nil {
		return err
	}
	a.state = next
	return a.store.Save(ctx, next)
}

// push drains the outbox. Ops that fail stay queued for the next sync.
func (a *app) push(ctx context.Context, tries uint) (outbox.FlushResult, error) {
	queue := a.store.Queue()
	if !a.api.HasToken() || a.state.DemoMode {
		n, err := queue.Len(ctx)
		return outbox.FlushResult{Pending: n}, err
	}

	flusher := outbox.NewFlusher(queue, a.api, log.Logger, outbox.FlusherConfig{TriesPerFlush: tries})
	res, err := flusher.Flush(ctx)
	switch {
	case errors.Is(err, outbox.ErrUnauthorized):
		fmt.Fprintln(os.Stderr, cli.Warn("  Session expired: changes are kept on this device. Run `tripsaver login`."))
	case err != nil:
		log.Warn().Err(err).Int("pending", res.Pending).Msg("Store unreachable, changes kept locally")
	}
	return res, err
}

// pull replaces local state with the store's copy
func (a *app) pull(ctx context.Context) error {
	profile, err := a.api.Profile(ctx)
	if err != nil {
		return err
	}

	next, _, err := planner.Reduce(a.calc, a.state, planner.Hydrate{
		User:    profile.User.Domain(),
		Balance: profile.Balance,
		Goal:    profile.Goal,
		Trips:   profile.Trips,
	})
	if err != nil {
		return err
	}
	if err := a.store.Save(ctx, next); err != nil {
		return err
	}
	a.state = next
	return a.store.MarkSynced(ctx, time.Now())
}

func (a *app) saveConfig() error {
	return config.SaveClientTo(flagConfig, a.cfg)
}

// withApp opens the app for the duration of fn
func withApp(fn func(ctx context.Context, a *app) error) error {
	ctx := context.Background()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(ctx, a)
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%q: %w", s, domain.ErrInvalidAmount)
	}
	return d, nil
}

func parseTripID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a trip id", s)
	}
	return id, nil
}

func printError(err error) {
	var apiErr *client.APIError
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(os.Stderr, cli.Error("  Not authorized. Check anon_key in the config or run `tripsaver login`."))
	case errors.Is(err, client.ErrUnavailable):
		fmt.Fprintln(os.Stderr, cli.Error("  Store unavailable: "+err.Error()))
	case errors.As(err, &apiErr):
		fmt.Fprintln(os.Stderr, cli.Error("  "+apiErr.Error()))
	default:
		fmt.Fprintln(os.Stderr, cli.Error("  Error: "+err.Error()))
	}
}
