// Package client talks to the TripSaver store API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/config"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	apiPrefix   = "/api/v1"
	maxBodySize = 1 << 20 // 1 MB
	userAgent   = "tripsaver-cli/1.0"
)

var (
	// ErrUnauthorized indicates the anon key or access token was rejected.
	ErrUnauthorized = errors.New("tripsaver: unauthorized")
	// ErrNotFound indicates the addressed trip does not exist.
	ErrNotFound = errors.New("tripsaver: not found")
	// ErrUnavailable indicates the store could not be reached in time.
	ErrUnavailable = errors.New("tripsaver: store unavailable")
)

// APIError is a non-success response other than 401 and 404
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tripsaver: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("tripsaver: %s (status %d)", e.Message, e.StatusCode)
}

// Client calls the store API. The zero timeout uses config.DefaultSyncTimeout.
type Client struct {
	baseURL string
	anonKey string
	token   string
	timeout time.Duration
	http    *http.Client
}

// New creates a client for the API at baseURL
func New(baseURL, anonKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = config.DefaultSyncTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		anonKey: anonKey,
		timeout: timeout,
		http:    &http.Client{},
	}
}

// FromConfig creates a client from the CLI configuration
func FromConfig(cfg config.ClientConfig) *Client {
	c := New(config.GetAPIURL(cfg), config.GetAnonKey(cfg), cfg.Timeout())
	c.token = cfg.AccessToken
	return c
}

// WithToken returns a copy of c that authenticates with token
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// HasToken reports whether user calls can be made
func (c *Client) HasToken() bool {
	return c.token != ""
}

// User is the account returned by signup and login
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Domain converts u to a domain user. An unparseable id leaves ID zero.
func (u User) Domain() *domain.User {
	out := &domain.User{Email: u.Email, Name: u.Name}
	if id, err := uuid.Parse(u.ID); err == nil {
		out.ID = id
	}
	return out
}

// Session is a successful login
type Session struct {
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
	ExpiresIn   int64  `json:"expiresIn"`
	User        User   `json:"user"`
}

// Profile is the user's full remote state
type Profile struct {
	User    User            `json:"user"`
	Balance decimal.Decimal `json:"balance"`
	Goal    decimal.Decimal `json:"goal"`
	Trips   []domain.Trip   `json:"trips"`
}

// SavingsResult is the outcome of POST /savings
type SavingsResult struct {
	Balance decimal.Decimal `json:"balance"`
	Trip    *domain.Trip    `json:"trip,omitempty"`
}

// Signup registers a new account using the anon key
func (c *Client) Signup(ctx context.Context, email, password, name string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	body := map[string]string{"email": email, "password": password, "name": name}
	if err := c.do(ctx, http.MethodPost, "/signup", c.anonKey, body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out Session
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", c.anonKey, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile loads the user, balance, goal and trips
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.userCall(ctx, http.MethodGet, "/profile", nil, &out); err != nil {
		return nil, err
	}
	if out.Trips == nil {
		out.Trips = []domain.Trip{}
	}
	return &out, nil
}

// SetBalance stores the balance
func (c *Client) SetBalance(ctx context.Context, balance decimal.Decimal) (decimal.Decimal, error) {
	var out struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := c.userCall(ctx, http.MethodPut, "/balance", map[string]decimal.Decimal{"balance": balance}, &out); err != nil {
		return decimal.Zero, err
	}
	return out.Balance, nil
}

// AddSavings adds to the balance and lets the store attribute it
func (c *Client) AddSavings(ctx context.Context, amount decimal.Decimal) (*SavingsResult, error) {
	var out SavingsResult
	if err := c.userCall(ctx, http.MethodPost, "/savings", map[string]decimal.Decimal{"amount": amount}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTrip stores a trip. body is any JSON-encodable trip document.
func (c *Client) CreateTrip(ctx context.Context, body any) (*domain.Trip, error) {
	var out struct {
		Trip *domain.Trip `json:"trip"`
	}
	if err := c.userCall(ctx, http.MethodPost, "/trips", body, &out); err != nil {
		return nil, err
	}
	return out.Trip, nil
}

// UpdateTrip merges patch onto the stored trip
func (c *Client) UpdateTrip(ctx context.Context, id int64, patch any) (*domain.Trip, error) {
	var out struct {
		Trip *domain.Trip `json:"trip"`
	}
	if err := c.userCall(ctx, http.MethodPut, tripPath(id), patch, &out); err != nil {
		return nil, err
	}
	return out.Trip, nil
}

// DeleteTrip removes a trip. Unknown ids succeed.
func (c *Client) DeleteTrip(ctx context.Context, id int64) error {
	return c.userCall(ctx, http.MethodDelete, tripPath(id), nil, nil)
}

func tripPath(id int64) string {
	return "/trips/" + strconv.FormatInt(id, 10)
}

func (c *Client) userCall(ctx context.Context, method, path string, body, out any) error {
	if c.token == "" {
		return ErrUnauthorized
	}
	return c.do(ctx, method, path, c.token, body, out)
}

// do performs one request bounded by the client timeout and decodes the
// success body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := encodeBody(body)
		if err != nil {
			return fmt.Errorf("tripsaver: encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("tripsaver: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, errorMessage(data))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("tripsaver: parsing response: %w", err)
	}
	return nil
}

func encodeBody(body any) ([]byte, error) {
	if raw, ok := body.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(body)
}

// errorMessage pulls a message out of either an {error} body or a problem document
func errorMessage(data []byte) string {
	var body struct {
		Error  string `json:"error"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	switch {
	case body.Error != "":
		return body.Error
	case body.Detail != "":
		return body.Detail
	default:
		return body.Title
	}
}
