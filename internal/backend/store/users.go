package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/kamal-hamza/assetctl/internal/backend/auth"
	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// CreateUser creates or replaces a user with a bcrypt-hashed password.
func (s *Store) CreateUser(ctx context.Context, u domain.User, password string) (*domain.User, error) {
	if u.UserID == "" || password == "" {
		return nil, badInput("UserId and password are required!")
	}
	if u.UserName == "" {
		u.UserName = u.UserID
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, s.q(
		`DELETE FROM users WHERE user_id = ?`), u.UserID)
	if err != nil {
		return nil, fmt.Errorf("replacing user: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO users (user_id, user_name, user_group, password_hash, park_ids)
		 VALUES (?, ?, ?, ?, ?)`),
		u.UserID, u.UserName, u.UserGroup, hash, domain.JoinIDs(u.ParkIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	user, _, err := s.getUser(ctx, s.db, u.UserID)
	return user, err
}

// GetUser returns a user by id, or nil when it doesn't exist.
func (s *Store) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, _, err := s.getUser(ctx, s.db, userID)
	return user, err
}

func (s *Store) getUser(ctx context.Context, q querier, userID string) (*domain.User, string, error) {
	var (
		u      domain.User
		hash   string
		parkID string
	)
	err := q.QueryRowContext(ctx, s.q(
		`SELECT user_id, user_name, user_group, password_hash, park_ids
		 FROM users WHERE user_id = ?`), userID,
	).Scan(&u.UserID, &u.UserName, &u.UserGroup, &hash, &parkID)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting user: %w", err)
	}
	u.ParkIDs = domain.SplitIDs(parkID)
	if u.ParkIDs == nil {
		u.ParkIDs = []string{}
	}
	return &u, hash, nil
}

// Authenticate checks credentials. It returns nil without an error when the
// user is unknown or the password is wrong.
func (s *Store) Authenticate(ctx context.Context, userID, password string) (*domain.User, error) {
	user, hash, err := s.getUser(ctx, s.db, userID)
	if err != nil || user == nil {
		return nil, err
	}
	if !auth.CheckPassword(hash, password) {
		return nil, nil
	}
	return user, nil
}

// GrantParks adds park ids to a user's access list, skipping ones already
// granted, and returns the resulting list.
func (s *Store) GrantParks(ctx context.Context, userID string, parkIDs []string) ([]string, error) {
	var granted []string
	err := s.inTx(ctx, "grant", func(tx *sql.Tx) error {
		user, _, err := s.getUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %q: %w", userID, ErrNotFound)
		}

		granted = user.ParkIDs
		for _, id := range parkIDs {
			if id != "" && !slices.Contains(granted, id) {
				granted = append(granted, id)
			}
		}

		_, err = tx.ExecContext(ctx, s.q(
			`UPDATE users SET park_ids = ? WHERE user_id = ?`),
			domain.JoinIDs(granted), userID,
		)
		if err != nil {
			return fmt.Errorf("granting parks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return granted, nil
}
