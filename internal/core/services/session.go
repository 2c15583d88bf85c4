package services

import (
	"fmt"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/ports"
)

// Session slot keys
const (
	KeyToken         = "token"
	KeySelectedParks = "selectedParkIds"
)

// SessionStore keeps the bearer token and park selection in a key-value store
type SessionStore struct {
	kv ports.KeyValueStore
}

// NewSessionStore creates a session store
func NewSessionStore(kv ports.KeyValueStore) *SessionStore {
	return &SessionStore{kv: kv}
}

// Token returns the stored token, "" when logged out
func (s *SessionStore) Token() (string, error) {
	v, ok, err := s.kv.Get(KeyToken)
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	if !ok {
		return "", nil
	}
	return string(v), nil
}

// SetToken stores the token after a login
func (s *SessionStore) SetToken(token string) error {
	if err := s.kv.Set(KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

// ClearToken forgets the token
func (s *SessionStore) ClearToken() error {
	if err := s.kv.Delete(KeyToken); err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}
	return nil
}

// SelectedParkIDs returns the persisted selection
func (s *SessionStore) SelectedParkIDs() ([]string, error) {
	v, ok, err := s.kv.Get(KeySelectedParks)
	if err != nil {
		return nil, fmt.Errorf("failed to read park selection: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return domain.SplitIDs(string(v)), nil
}

// SetSelectedParkIDs persists the selection as CSV
func (s *SessionStore) SetSelectedParkIDs(ids []string) error {
	if err := s.kv.Set(KeySelectedParks, []byte(domain.JoinIDs(ids))); err != nil {
		return fmt.Errorf("failed to store park selection: %w", err)
	}
	return nil
}

// Clear drops every session slot
func (s *SessionStore) Clear() error {
	if err := s.ClearToken(); err != nil {
		return err
	}
	if err := s.kv.Delete(KeySelectedParks); err != nil {
		return fmt.Errorf("failed to clear park selection: %w", err)
	}
	return nil
}
