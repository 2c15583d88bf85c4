package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// CreateArea inserts an area unless one with the same code exists.
// It reports whether a row was created.
func (s *Store) CreateArea(ctx context.Context, a domain.Area) (bool, error) {
	if a.Code == "" {
		return false, badInput("area code is required")
	}

	var existing string
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT area_id FROM areas WHERE code = ?`), a.Code,
	).Scan(&existing)
	if err == nil {
		return false, nil
	}
	if err != sql.ErrNoRows {
		return false, fmt.Errorf("checking area: %w", err)
	}

	if a.AreaID == "" {
		a.AreaID = a.Code
	}
	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO areas (area_id, code, name) VALUES (?, ?, ?)`),
		a.AreaID, a.Code, a.Name,
	)
	if err != nil {
		return false, fmt.Errorf("creating area: %w", err)
	}
	return true, nil
}

// ListAreas returns all areas ordered by code.
func (s *Store) ListAreas(ctx context.Context) ([]domain.Area, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT area_id, code, name FROM areas ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing areas: %w", err)
	}
	defer rows.Close()

	areas := []domain.Area{}
	for rows.Next() {
		var a domain.Area
		if err := rows.Scan(&a.AreaID, &a.Code, &a.Name); err != nil {
			return nil, fmt.Errorf("scanning area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// CreatePark inserts a park unless the id is taken. It reports whether a row
// was created.
func (s *Store) CreatePark(ctx context.Context, p domain.Park) (bool, error) {
	if p.ParkID == "" {
		return false, badInput("park id is required")
	}

	existing, err := s.GetPark(ctx, p.ParkID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	_, err = s.db.ExecContext(ctx, s.q(
		`INSERT INTO parks (park_id, name, area_code) VALUES (?, ?, ?)`),
		p.ParkID, p.Name, p.AreaCode,
	)
	if err != nil {
		return false, fmt.Errorf("creating park: %w", err)
	}
	return true, nil
}

// GetPark returns a park by id, or nil when it doesn't exist.
func (s *Store) GetPark(ctx context.Context, parkID string) (*domain.Park, error) {
	var p domain.Park
	err := s.db.QueryRowContext(ctx, s.q(
		`SELECT park_id, name, area_code FROM parks WHERE park_id = ?`), parkID,
	).Scan(&p.ParkID, &p.Name, &p.AreaCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting park: %w", err)
	}
	return &p, nil
}

// ListParks returns all parks ordered by id.
func (s *Store) ListParks(ctx context.Context) ([]domain.Park, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT park_id, name, area_code FROM parks ORDER BY park_id`)
	if err != nil {
		return nil, fmt.Errorf("listing parks: %w", err)
	}
	defer rows.Close()

	parks := []domain.Park{}
	for rows.Next() {
		var p domain.Park
		if err := rows.Scan(&p.ParkID, &p.Name, &p.AreaCode); err != nil {
			return nil, fmt.Errorf("scanning park: %w", err)
		}
		parks = append(parks, p)
	}
	return parks, rows.Err()
}

// ParksFor returns the parks granted to a user, in grant order. Unknown
// ids are skipped.
func (s *Store) ParksFor(ctx context.Context, user *domain.User) ([]domain.Park, error) {
	all, err := s.ListParks(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Park, len(all))
	for _, p := range all {
		byID[p.ParkID] = p
	}

	parks := []domain.Park{}
	for _, id := range user.ParkIDs {
		if p, ok := byID[id]; ok {
			parks = append(parks, p)
		}
	}
	return parks, nil
}
