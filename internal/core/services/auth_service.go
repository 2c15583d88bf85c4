package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/ports"
)

// ErrNotLoggedIn is returned when no token is stored
var ErrNotLoggedIn = errors.New("not logged in")

// AuthService handles the token lifecycle
type AuthService struct {
	api     ports.AuthAPI
	session *SessionStore
}

// NewAuthService creates a new auth service
func NewAuthService(api ports.AuthAPI, session *SessionStore) *AuthService {
	return &AuthService{api: api, session: session}
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	UserID        string
	Password      string
	Remember7Days bool
}

// Login exchanges credentials for a token, stores it and loads the profile.
// A failed profile fetch clears the token again.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*domain.User, error) {
	if strings.TrimSpace(req.UserID) == "" || req.Password == "" {
		return nil, &domain.ValidationError{Message: "UserId and password are required!"}
	}

	token, _, err := s.api.Login(ctx, req.UserID, req.Password, req.Remember7Days)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	if err := s.session.SetToken(token); err != nil {
		return nil, err
	}

	slog.Info("logged in", "user", req.UserID, "remember", req.Remember7Days)
	return s.Restore(ctx)
}

// Restore loads the profile for the stored token.
// Any profile failure is treated as an expired token and clears it.
func (s *AuthService) Restore(ctx context.Context) (*domain.User, error) {
	token, err := s.session.Token()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	user, err := s.api.Profile(ctx)
	if err != nil {
		slog.Warn("profile fetch failed, clearing token", "error", err)
		if clearErr := s.session.ClearToken(); clearErr != nil {
			return nil, errors.Join(err, clearErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrNotLoggedIn, err)
	}
	return user, nil
}

// Logout clears every session slot
func (s *AuthService) Logout() error {
	return s.session.Clear()
}
