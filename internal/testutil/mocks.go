package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/websocket"
	"github.com/google/uuid"
)

// MockKVStore is a mock implementation of domain.KVStore
type MockKVStore struct {
	Data  map[string]json.RawMessage
	GetFn func(key string) (json.RawMessage, error)
	SetFn func(key string, value json.RawMessage) error
	Sets  int
	mu    sync.Mutex
}

// NewMockKVStore creates a new MockKVStore
func NewMockKVStore() *MockKVStore {
	return &MockKVStore{Data: make(map[string]json.RawMessage)}
}

// Get returns the stored value or domain.ErrNotFound
func (m *MockKVStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if m.GetFn != nil {
		return m.GetFn(key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.Data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append(json.RawMessage(nil), value...), nil
}

// Set stores value under key
func (m *MockKVStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if m.SetFn != nil {
		return m.SetFn(key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	m.Data[key] = append(json.RawMessage(nil), value...)
	return nil
}

// Delete removes key
func (m *MockKVStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
	return nil
}

// Keys lists keys with the given prefix in sorted order
func (m *MockKVStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.Data))
	for k := range m.Data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Put stores any JSON-encodable value (helper for tests)
func (m *MockKVStore) Put(key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal %s: %v", key, err))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = data
}

// Decode unmarshals the value at key into dst (helper for tests)
func (m *MockKVStore) Decode(key string, dst any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.Data[key]
	if !ok {
		return domain.ErrNotFound
	}
	return json.Unmarshal(value, dst)
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	ByID     map[uuid.UUID]*domain.User
	ByEmail  map[string]*domain.User
	CreateFn func(user *domain.User) (*domain.User, error)
	mu       sync.Mutex
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		ByID:    make(map[uuid.UUID]*domain.User),
		ByEmail: make(map[string]*domain.User),
	}
}

// Create stores a user, rejecting duplicate emails
func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if m.CreateFn != nil {
		return m.CreateFn(user)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := m.ByEmail[email]; exists {
		return nil, domain.ErrEmailTaken
	}
	created := *user
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if created.SubscriptionPlan == "" {
		created.SubscriptionPlan = domain.DefaultSubscriptionPlan
	}
	m.ByID[created.ID] = &created
	m.ByEmail[email] = &created
	return &created, nil
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.ByEmail[strings.ToLower(email)]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ByID[user.ID] = user
	m.ByEmail[strings.ToLower(user.Email)] = user
}

// PublishedEvent is one call to RecordingPublisher.Publish
type PublishedEvent struct {
	UserID string
	Event  websocket.Event
}

// RecordingPublisher is a websocket.EventPublisher that remembers what it was given
type RecordingPublisher struct {
	Events []PublishedEvent
	mu     sync.Mutex
}

// Publish records the event
func (p *RecordingPublisher) Publish(userID string, event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, PublishedEvent{UserID: userID, Event: event})
}

// Types returns the event types published so far
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.Events))
	for i, e := range p.Events {
		types[i] = e.Event.Type
	}
	return types
}

// MockObjectStorage is a mock implementation of domain.ObjectStorage
type MockObjectStorage struct {
	Objects      map[string][]byte
	ContentTypes map[string]string
	UploadErr    error
	PresignErr   error
	mu           sync.Mutex
}

// NewMockObjectStorage creates a new MockObjectStorage
func NewMockObjectStorage() *MockObjectStorage {
	return &MockObjectStorage{
		Objects:      make(map[string][]byte),
		ContentTypes: make(map[string]string),
	}
}

// Upload stores the object in memory
func (m *MockObjectStorage) Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error) {
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	body, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[objectPath] = body
	m.ContentTypes[objectPath] = contentType
	return objectPath, nil
}

// Delete removes the object
func (m *MockObjectStorage) Delete(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, objectPath)
	return nil
}

// GeneratePresignedURL returns a fake URL for the object
func (m *MockObjectStorage) GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	if m.PresignErr != nil {
		return "", m.PresignErr
	}
	return fmt.Sprintf("https://storage.test/%s?expires=%d", objectPath, int(expiry.Seconds())), nil
}
