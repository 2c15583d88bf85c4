package mocks

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// MockBackend is an in-memory implementation of ports.Backend for testing
type MockBackend struct {
	mu      sync.RWMutex
	records map[domain.RecordType][]domain.Record
	users   map[string]mockUser
	parks   []domain.Park
	areas   []domain.Area
	token   string
	nextID  int

	// Errors to return from the next calls, keyed by operation name
	// ("list", "add", "update", "delete", "login", "profile", "parks", "areas")
	Errors map[string]error

	// Call counters
	ListCalls   int
	AddCalls    int
	UpdateCalls int
	DeleteCalls int

	// Last request arguments
	LastLocations []string
	LastPayload   map[string]string
	LastAfter     map[string]string
}

type mockUser struct {
	password string
	user     domain.User
}

// NewMockBackend creates an empty mock backend
func NewMockBackend() *MockBackend {
	return &MockBackend{
		records: make(map[domain.RecordType][]domain.Record),
		users:   make(map[string]mockUser),
		Errors:  make(map[string]error),
	}
}

// AddUser registers a user that can log in
func (m *MockBackend) AddUser(user domain.User, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.UserID] = mockUser{password: password, user: user}
}

// SetParks replaces the parks and areas returned by the location API
func (m *MockBackend) SetParks(parks []domain.Park, areas []domain.Area) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parks = parks
	m.areas = areas
}

// Seed appends records of a type
func (m *MockBackend) Seed(t domain.RecordType, records ...domain.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		r.Type = t
		m.records[t] = append(m.records[t], r)
	}
}

// Records returns a copy of the stored records of a type
func (m *MockBackend) Records(t domain.RecordType) []domain.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.records[t])
}

// SetToken sets the token that Profile accepts
func (m *MockBackend) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

func (m *MockBackend) fail(op string) error {
	if err, ok := m.Errors[op]; ok && err != nil {
		return err
	}
	return nil
}

// Login checks credentials and issues a fake token
func (m *MockBackend) Login(ctx context.Context, userID, password string, remember7Days bool) (string, *domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fail("login"); err != nil {
		return "", nil, err
	}
	u, ok := m.users[userID]
	if !ok || u.password != password {
		return "", nil, fmt.Errorf("Invalid credentials!")
	}
	m.token = "token-" + userID
	user := u.user
	return m.token, &user, nil
}

// Profile returns the logged-in user
func (m *MockBackend) Profile(ctx context.Context) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.fail("profile"); err != nil {
		return nil, err
	}
	for _, u := range m.users {
		if "token-"+u.user.UserID == m.token {
			user := u.user
			return &user, nil
		}
	}
	return nil, fmt.Errorf("Token is invalid!")
}

// ListAreas returns all areas
func (m *MockBackend) ListAreas(ctx context.Context) ([]domain.Area, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("areas"); err != nil {
		return nil, err
	}
	return slices.Clone(m.areas), nil
}

// ListParks returns all parks
func (m *MockBackend) ListParks(ctx context.Context) ([]domain.Park, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.fail("parks"); err != nil {
		return nil, err
	}
	return slices.Clone(m.parks), nil
}

// List returns records whose Location is in locationIDs
func (m *MockBackend) List(ctx context.Context, t domain.RecordType, locationIDs []string) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls++
	m.LastLocations = slices.Clone(locationIDs)
	if err := m.fail("list"); err != nil {
		return nil, err
	}

	var out []domain.Record
	for _, r := range m.records[t] {
		if slices.Contains(locationIDs, r.Get(domain.FieldLocation)) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

// Add stores the payload as a new record
func (m *MockBackend) Add(ctx context.Context, t domain.RecordType, payload map[string]string) (*domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AddCalls++
	m.LastPayload = payload
	if err := m.fail("add"); err != nil {
		return nil, err
	}

	m.nextID++
	values := make(map[string]string, len(payload))
	for k, v := range payload {
		values[k] = v
	}
	if to, ok := values[domain.FieldTo]; ok && t == domain.RecordTransfer {
		values[domain.FieldLocation] = to
	}
	r := domain.NewRecord(t, fmt.Sprintf("%024x", m.nextID), values)
	m.records[t] = append([]domain.Record{r}, m.records[t]...)

	created := r.Clone()
	return &created, nil
}

// Update merges after into the stored record
func (m *MockBackend) Update(ctx context.Context, t domain.RecordType, id string, after map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls++
	m.LastAfter = after
	if err := m.fail("update"); err != nil {
		return err
	}

	for i, r := range m.records[t] {
		if r.ID == id {
			for k, v := range after {
				m.records[t][i].Values[k] = v
			}
			return nil
		}
	}
	return fmt.Errorf("record not found: %s", id)
}

// Delete removes a record by id
func (m *MockBackend) Delete(ctx context.Context, t domain.RecordType, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	if err := m.fail("delete"); err != nil {
		return err
	}

	for i, r := range m.records[t] {
		if r.ID == id {
			m.records[t] = slices.Delete(m.records[t], i, i+1)
			return nil
		}
	}
	return fmt.Errorf("record not found: %s", id)
}
