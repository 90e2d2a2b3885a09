package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/client"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/handler"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/middleware"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/outbox"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/planner"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/repository/memory"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	anonKey   = "roundtrip-anon"
	jwtSecret = "roundtrip-secret-0123456789abcdefghij"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// newStore serves the real API over in-memory repositories
func newStore(t *testing.T) (*httptest.Server, *service.SavingsCalculator) {
	t.Helper()

	calc := service.NewSavingsCalculatorWithClock(time.UTC, func() time.Time { return now })
	data := service.NewUserDataStore(memory.NewKVStore())
	users := memory.NewUserRepository()
	tokens := service.NewTokenIssuer(jwtSecret, "tripsaver", "tripsaver-api", time.Hour)
	profiles := service.NewProfileService(users, data, calc)
	hub := websocket.NewHub()

	v, err := middleware.NewTokenValidator(jwtSecret, "tripsaver", "tripsaver-api")
	require.NoError(t, err)
	limiter := middleware.NewRateLimiterWithConfig(6000, 1000)
	t.Cleanup(limiter.Stop)

	e := echo.New()
	handler.RegisterRoutes(e,
		middleware.NewAnonKeyMiddleware(anonKey),
		middleware.NewAuthMiddleware(v),
		limiter,
		handler.NewAuthHandler(service.NewAuthService(users, data, tokens)),
		handler.NewProfileHandler(profiles),
		handler.NewBalanceHandler(service.NewBalanceService(data, calc)),
		handler.NewTripHandler(service.NewTripService(data, calc)),
		handler.NewEstimateHandler(service.NewCostEstimator()),
		handler.NewExportHandler(service.NewExportService(nil, profiles)),
		handler.NewWebSocketHandler(hub, websocket.NewJWTValidator(v), []string{"*"}),
	)

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, calc
}

func TestRoundTrip_PlanSaveSyncDelete(t *testing.T) {
	ctx := context.Background()
	srv, calc := newStore(t)
	api := client.New(srv.URL, anonKey, 2*time.Second)

	_, err := api.Signup(ctx, "sam@example.com", "secret1", "Sam")
	require.NoError(t, err)
	session, err := api.Login(ctx, "sam@example.com", "secret1")
	require.NoError(t, err)
	api = api.WithToken(session.AccessToken)

	profile, err := api.Profile(ctx)
	require.NoError(t, err)
	assert.True(t, profile.Balance.Equal(domain.DefaultBalance))
	assert.Empty(t, profile.Trips)

	// work locally, recording the writes
	state, _, err := planner.Reduce(calc, planner.NewState(), planner.Hydrate{
		User: profile.User.Domain(), Balance: profile.Balance, Goal: profile.Goal, Trips: profile.Trips,
	})
	require.NoError(t, err)

	queue := outbox.NewMemoryQueue()
	apply := func(a planner.Action) {
		t.Helper()
		next, ops, err := planner.Reduce(calc, state, a)
		require.NoError(t, err)
		require.NoError(t, queue.Enqueue(ctx, ops...))
		state = next
	}
	apply(planner.CreateTrip{Name: "Rome", ReturnDate: "2026-09-30", EstimatedCost: decimal.NewFromInt(1000), Now: now})
	apply(planner.AddSavings{Amount: decimal.NewFromInt(100)})
	apply(planner.SetPriority{TripID: state.Trips[0].ID, Priority: domain.PriorityHigh})

	flusher := outbox.NewFlusher(queue, api, zerolog.Nop(), outbox.FlusherConfig{InitialInterval: time.Millisecond})
	res, err := flusher.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, outbox.FlushResult{Sent: 4}, res)

	profile, err = api.Profile(ctx)
	require.NoError(t, err)
	assert.True(t, profile.Balance.Equal(state.Balance))
	require.Len(t, profile.Trips, 1)
	remote := profile.Trips[0]
	local := state.Trips[0]
	assert.Equal(t, local.ID, remote.ID)
	assert.True(t, remote.SavedAmount.Equal(decimal.NewFromInt(100)))
	assert.True(t, remote.Progress.Equal(decimal.NewFromInt(10)))
	assert.True(t, remote.DailyTarget.Equal(local.DailyTarget))
	assert.Equal(t, domain.PriorityHigh, remote.Priority)

	// replaying the create is harmless
	replay, err := outbox.NewOp(outbox.KindCreateTrip, local.ID, local)
	require.NoError(t, err)
	require.NoError(t, api.Send(ctx, replay))

	apply(planner.DeleteTrip{TripID: local.ID})
	stale, err := outbox.NewOp(outbox.KindUpdateTrip, local.ID, map[string]string{"savedAmount": "5"})
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(ctx, stale))

	res, err = flusher.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, outbox.FlushResult{Sent: 1, Dropped: 1}, res)

	profile, err = api.Profile(ctx)
	require.NoError(t, err)
	assert.Empty(t, profile.Trips)
}

func TestRoundTrip_BadTokenKeepsOps(t *testing.T) {
	ctx := context.Background()
	srv, _ := newStore(t)
	api := client.New(srv.URL, anonKey, 2*time.Second).WithToken("not-a-jwt")

	queue := outbox.NewMemoryQueue()
	op, err := outbox.NewOp(outbox.KindSetBalance, 0, map[string]string{"balance": "10"})
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(ctx, op))

	_, err = outbox.NewFlusher(queue, api, zerolog.Nop(), outbox.FlusherConfig{}).Flush(ctx)
	require.ErrorIs(t, err, outbox.ErrUnauthorized)

	n, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
