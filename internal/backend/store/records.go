package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kamal-hamza/assetctl/internal/backend/db"
	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// ListRecords returns records of a type, newest When first. A nil locations
// slice means every location; an empty one matches nothing.
func (s *Store) ListRecords(ctx context.Context, t domain.RecordType, locations []string) ([]domain.Record, error) {
	records := []domain.Record{}
	if locations != nil && len(locations) == 0 {
		return records, nil
	}

	query := `SELECT id, kind, doc FROM records WHERE kind = ?`
	args := []any{string(t)}
	if locations != nil {
		query += ` AND location IN (` + db.Placeholders(len(locations)) + `)`
		for _, loc := range locations {
			args = append(args, loc)
		}
	}
	query += ` ORDER BY when_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing %s records: %w", t, err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetRecord returns a record by id, or nil when it doesn't exist.
func (s *Store) GetRecord(ctx context.Context, t domain.RecordType, id string) (*domain.Record, error) {
	return s.getRecord(ctx, s.db, t, id)
}

func (s *Store) getRecord(ctx context.Context, q querier, t domain.RecordType, id string) (*domain.Record, error) {
	row := q.QueryRowContext(ctx, s.q(
		`SELECT id, kind, doc FROM records WHERE kind = ? AND id = ?`), string(t), id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// findAssetByOldCode returns the first asset carrying an Old Asset Code.
func (s *Store) findAssetByOldCode(ctx context.Context, q querier, oldCode string) (*domain.Record, error) {
	row := q.QueryRowContext(ctx, s.q(
		`SELECT id, kind, doc FROM records WHERE kind = ? AND old_code = ?
		 ORDER BY id LIMIT 1`), string(domain.RecordAsset), oldCode)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// insertRecord stores a new record and assigns its id.
func (s *Store) insertRecord(ctx context.Context, q querier, rec *domain.Record) error {
	if rec.ID == "" {
		id, err := newObjectID()
		if err != nil {
			return err
		}
		rec.ID = id
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	_, err = q.ExecContext(ctx, s.q(
		`INSERT INTO records (id, kind, location, old_code, when_at, doc)
		 VALUES (?, ?, ?, ?, ?, ?)`),
		rec.ID, string(rec.Type), rec.Get(domain.FieldLocation), rec.Get(domain.FieldOldCode),
		rec.Get(domain.FieldWhen), string(doc),
	)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", rec.Type, err)
	}
	return nil
}

// saveRecord rewrites an existing record's document and index columns.
func (s *Store) saveRecord(ctx context.Context, q querier, rec domain.Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	res, err := q.ExecContext(ctx, s.q(
		`UPDATE records SET location = ?, old_code = ?, when_at = ?, doc = ?
		 WHERE kind = ? AND id = ?`),
		rec.Get(domain.FieldLocation), rec.Get(domain.FieldOldCode), rec.Get(domain.FieldWhen),
		string(doc), string(rec.Type), rec.ID,
	)
	if err != nil {
		return fmt.Errorf("updating %s: %w", rec.Type, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", rec.Type, rec.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) deleteRecord(ctx context.Context, q querier, t domain.RecordType, id string) error {
	_, err := q.ExecContext(ctx, s.q(
		`DELETE FROM records WHERE kind = ? AND id = ?`), string(t), id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", t, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (domain.Record, error) {
	var (
		id, kind, doc string
		rec           domain.Record
	)
	if err := row.Scan(&id, &kind, &doc); err != nil {
		if err == sql.ErrNoRows {
			return rec, err
		}
		return rec, fmt.Errorf("scanning record: %w", err)
	}
	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return rec, fmt.Errorf("decoding record %s: %w", id, err)
	}
	rec.ID = id
	rec.Type = domain.RecordType(kind)
	return rec, nil
}

// ParseLocations interprets the locations query parameter. Empty and "ALL"
// mean no filter.
func ParseLocations(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "ALL") {
		return nil
	}
	return strings.Split(raw, ",")
}
