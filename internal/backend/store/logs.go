package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// Audit actions
const (
	ActionAdd    = "add"
	ActionEdit   = "edit"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// LogEntry is one audit trail row.
type LogEntry struct {
	ID         string            `json:"id"`
	Action     string            `json:"Action"`
	Operator   string            `json:"operator"`
	Before     map[string]string `json:"Before"`
	After      map[string]string `json:"After"`
	Time       string            `json:"time"`
	TargetType string            `json:"targetType"`
	TargetID   string            `json:"targetId"`
}

// snapshot returns a record's fields without its id.
func snapshot(rec *domain.Record) map[string]string {
	out := map[string]string{}
	if rec == nil {
		return out
	}
	for k, v := range rec.Values {
		out[k] = v
	}
	return out
}

func (s *Store) writeLog(ctx context.Context, q querier, action, operator string, t domain.RecordType, id string, before, after *domain.Record) error {
	beforeDoc, err := json.Marshal(snapshot(before))
	if err != nil {
		return fmt.Errorf("encoding log: %w", err)
	}
	afterDoc, err := json.Marshal(snapshot(after))
	if err != nil {
		return fmt.Errorf("encoding log: %w", err)
	}

	// v7 ids sort in creation order
	id7, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating log id: %w", err)
	}

	_, err = q.ExecContext(ctx, s.q(
		`INSERT INTO logs (id, action, operator, target_type, target_id, before_doc, after_doc, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		id7.String(), action, operator, string(t), id,
		string(beforeDoc), string(afterDoc), s.Now().Format(LogTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	return nil
}

// ListLogs returns the audit trail of one record, oldest first. An empty id
// returns every entry of the type.
func (s *Store) ListLogs(ctx context.Context, t domain.RecordType, id string) ([]LogEntry, error) {
	query := `SELECT id, action, operator, target_type, target_id, before_doc, after_doc, at
		 FROM logs WHERE target_type = ?`
	args := []any{string(t)}
	if id != "" {
		query += ` AND target_id = ?`
		args = append(args, id)
	}
	query += ` ORDER BY at, id`

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var (
			e             LogEntry
			before, after string
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.Operator, &e.TargetType, &e.TargetID, &before, &after, &e.Time); err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}
		if err := json.Unmarshal([]byte(before), &e.Before); err != nil {
			return nil, fmt.Errorf("decoding log: %w", err)
		}
		if err := json.Unmarshal([]byte(after), &e.After); err != nil {
			return nil, fmt.Errorf("decoding log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
