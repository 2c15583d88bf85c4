package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// SeedUser is a user entry in a seed file.
type SeedUser struct {
	domain.User
	Password string `json:"password"`
}

// SeedData is the layout of a seed file. Comments and trailing commas are
// allowed.
type SeedData struct {
	Areas   []domain.Area                         `json:"areas"`
	Parks   []domain.Park                         `json:"parks"`
	Users   []SeedUser                            `json:"users"`
	Records map[domain.RecordType][]domain.Record `json:"records"`
}

// SeedResult counts what a seed run created.
type SeedResult struct {
	Areas   int
	Parks   int
	Users   int
	Records int
}

// ParseSeed decodes JSONC seed data.
func ParseSeed(data []byte) (*SeedData, error) {
	var seed SeedData
	if err := json.Unmarshal(jsonc.ToJSON(data), &seed); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	return &seed, nil
}

// LoadSeedFile reads and decodes a JSONC seed file.
func LoadSeedFile(path string) (*SeedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// Seed loads areas, parks, users and records. Existing areas and parks are
// kept; users are replaced; records are only inserted when their id is new.
func (s *Store) Seed(ctx context.Context, seed *SeedData) (SeedResult, error) {
	var res SeedResult

	for _, a := range seed.Areas {
		created, err := s.CreateArea(ctx, a)
		if err != nil {
			return res, fmt.Errorf("seeding area %s: %w", a.Code, err)
		}
		if created {
			res.Areas++
		}
	}

	for _, p := range seed.Parks {
		created, err := s.CreatePark(ctx, p)
		if err != nil {
			return res, fmt.Errorf("seeding park %s: %w", p.ParkID, err)
		}
		if created {
			res.Parks++
		}
	}

	for _, u := range seed.Users {
		if _, err := s.CreateUser(ctx, u.User, u.Password); err != nil {
			return res, fmt.Errorf("seeding user %s: %w", u.UserID, err)
		}
		res.Users++
	}

	for _, t := range domain.RecordTypes {
		for _, rec := range seed.Records[t] {
			rec.Type = t
			if rec.ID != "" {
				existing, err := s.GetRecord(ctx, t, rec.ID)
				if err != nil {
					return res, err
				}
				if existing != nil {
					continue
				}
			}
			if err := s.insertRecord(ctx, s.db, &rec); err != nil {
				return res, fmt.Errorf("seeding %s: %w", t, err)
			}
			res.Records++
		}
	}

	return res, nil
}
