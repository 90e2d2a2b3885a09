package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/middleware"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/testutil"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

const (
	testAnonKey   = "anon-test-key"
	testJWTSecret = "handler-test-secret-0123456789abcdef"
	testIssuer    = "tripsaver-test"
	testAudience  = "tripsaver-api"
)

// testNow is 09:00 on 1 March 2026, UTC
var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// testServer wires the real routes and middleware over in-memory stores
type testServer struct {
	e       *echo.Echo
	kv      *testutil.MockKVStore
	users   *testutil.MockUserRepository
	storage *testutil.MockObjectStorage
	hub     *websocket.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	kv := testutil.NewMockKVStore()
	users := testutil.NewMockUserRepository()
	storage := testutil.NewMockObjectStorage()
	hub := websocket.NewHub()

	calc := service.NewSavingsCalculatorWithClock(time.UTC, func() time.Time { return testNow })
	data := service.NewUserDataStore(kv)
	tokens := service.NewTokenIssuer(testJWTSecret, testIssuer, testAudience, time.Hour)

	authService := service.NewAuthService(users, data, tokens)
	profileService := service.NewProfileService(users, data, calc)
	balanceService := service.NewBalanceService(data, calc)
	balanceService.SetEventPublisher(hub)
	tripService := service.NewTripService(data, calc)
	tripService.SetEventPublisher(hub)
	exportService := service.NewExportService(storage, profileService)

	v, err := middleware.NewTokenValidator(testJWTSecret, testIssuer, testAudience)
	require.NoError(t, err)

	rateLimiter := middleware.NewRateLimiterWithConfig(6000, 1000)
	t.Cleanup(rateLimiter.Stop)

	e := echo.New()
	RegisterRoutes(e,
		middleware.NewAnonKeyMiddleware(testAnonKey),
		middleware.NewAuthMiddleware(v),
		rateLimiter,
		NewAuthHandler(authService),
		NewProfileHandler(profileService),
		NewBalanceHandler(balanceService),
		NewTripHandler(tripService),
		NewEstimateHandler(service.NewCostEstimator()),
		NewExportHandler(exportService),
		NewWebSocketHandler(hub, websocket.NewJWTValidator(v), []string{"*"}),
	)

	return &testServer{e: e, kv: kv, users: users, storage: storage, hub: hub}
}

// do sends a request and returns the recorder. body may be nil, a string or any JSON value.
func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, APIPrefix+path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// signupAndLogin creates a user and returns an access token for it
func (s *testServer) signupAndLogin(t *testing.T, email string) string {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/signup", testAnonKey, map[string]string{
		"email": email, "password": "secret123", "name": "Tess",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/login", testAnonKey, map[string]string{
		"email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var login LoginResponse
	decodeBody(t, rec, &login)
	return login.AccessToken
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}
