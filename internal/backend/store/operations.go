package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// Tag given to newly registered assets.
const TagOnsite = "onsite"

// Fields dropped from asset updates.
const fieldNewAssetCode = "New Asset Code"

// AddRecord validates a create request and stores the resulting record.
// payload uses the add-form keys; operator is the caller's user name.
func (s *Store) AddRecord(ctx context.Context, t domain.RecordType, operator string, payload map[string]string) (domain.Record, error) {
	get := func(key string) string { return strings.TrimSpace(payload[key]) }

	var rec domain.Record
	switch t {
	case domain.RecordAsset:
		location, details := get(domain.FieldLocation), payload[domain.FieldDetails]
		if location == "" || strings.TrimSpace(details) == "" {
			return rec, badInput("Location and Details are required!")
		}
		areaCode := ""
		park, err := s.GetPark(ctx, location)
		if err != nil {
			return rec, err
		}
		if park != nil {
			areaCode = park.AreaCode
		}
		rec = domain.NewRecord(t, "", map[string]string{
			domain.FieldWhen:     s.Now().Format(WhenLayout),
			domain.FieldOldCode:  payload[domain.FieldOldCode],
			domain.FieldSN:       payload[domain.FieldSN],
			domain.FieldOperator: operator,
			domain.FieldDetails:  details,
			domain.FieldTag:      TagOnsite,
			domain.FieldLocation: location,
			domain.FieldAreaCode: areaCode,
		})

	case domain.RecordTransfer:
		oldCode, to := get(domain.FieldOldCode), get(domain.FieldTo)
		if oldCode == "" || to == "" {
			return rec, badInput("Old Asset Code and To are required!")
		}
		reason := payload[domain.FieldReason]
		if reason == "" {
			reason = domain.ReasonOperation
		}
		rec = domain.NewRecord(t, "", map[string]string{
			domain.FieldOldCode:  oldCode,
			domain.FieldBy:       payload[domain.FieldBy],
			domain.FieldTo:       to,
			domain.FieldReason:   reason,
			domain.FieldWhen:     s.whenFromDate(payload[domain.FormWhenDate]).Format(WhenLayout),
			domain.FieldOperator: operator,
			domain.FieldLocation: to,
		})

	case domain.RecordDisposal:
		location, oldCode, base := get(domain.FieldLocation), get(domain.FieldOldCode), get(domain.FormReasonBase)
		if location == "" || oldCode == "" || base == "" {
			return rec, badInput("Location, Old Asset Code, and reason are required!")
		}
		vendor := get(domain.FieldVendor)
		if domain.RequiresVendor(base) && vendor == "" {
			return rec, badInput("Vendor is required for selected reason!")
		}
		rec = domain.NewRecord(t, "", map[string]string{
			domain.FieldLocation: location,
			domain.FieldOldCode:  oldCode,
			domain.FieldSN:       payload[domain.FieldSN],
			domain.FieldDetails:  payload[domain.FieldDetails],
			domain.FieldReason:   domain.DisposalReason(base, vendor),
			domain.FieldWhen:     s.whenFromDate(payload[domain.FormWhenDate]).Format(WhenLayout),
			domain.FieldOperator: operator,
		})

	default:
		return rec, badInput(fmt.Sprintf("unknown record type %q", t))
	}

	err := s.inTx(ctx, "add", func(tx *sql.Tx) error {
		if err := s.insertRecord(ctx, tx, &rec); err != nil {
			return err
		}
		if t == domain.RecordTransfer {
			if err := s.moveAsset(ctx, tx, rec, operator); err != nil {
				return err
			}
		}
		return s.writeLog(ctx, tx, ActionAdd, operator, t, rec.ID, nil, &rec)
	})
	if err != nil {
		return domain.Record{}, err
	}
	return rec, nil
}

// UpdateRecord merges after into a record and returns the stored result.
func (s *Store) UpdateRecord(ctx context.Context, t domain.RecordType, operator, id string, after map[string]string) (domain.Record, error) {
	var updated domain.Record
	err := s.inTx(ctx, "update", func(tx *sql.Tx) error {
		before, err := s.getRecord(ctx, tx, t, id)
		if err != nil {
			return err
		}
		if before == nil {
			return fmt.Errorf("%s %s: %w", t, id, ErrNotFound)
		}

		changes := make(map[string]string, len(after)+1)
		for k, v := range after {
			if k != domain.FieldID {
				changes[k] = v
			}
		}

		action := ActionEdit
		switch t {
		case domain.RecordAsset:
			delete(changes, domain.FieldTag)
			delete(changes, fieldNewAssetCode)
		case domain.RecordTransfer:
			if when, ok := changes[domain.FieldWhen]; ok {
				changes[domain.FieldWhen] = s.whenFromDate(domain.DateOnly(when)).Format(WhenLayout)
			}
			action = ActionUpdate
		}
		changes[domain.FieldOperator] = operator

		updated = before.Clone()
		for k, v := range changes {
			updated.Values[k] = v
		}
		if err := s.saveRecord(ctx, tx, updated); err != nil {
			return err
		}

		if t == domain.RecordTransfer {
			if err := s.moveAsset(ctx, tx, updated, operator); err != nil {
				return err
			}
		}
		return s.writeLog(ctx, tx, action, operator, t, id, before, &updated)
	})
	if err != nil {
		return domain.Record{}, err
	}
	return updated, nil
}

// DeleteRecord removes a record and logs what it held.
func (s *Store) DeleteRecord(ctx context.Context, t domain.RecordType, operator, id string) error {
	return s.inTx(ctx, "delete", func(tx *sql.Tx) error {
		before, err := s.getRecord(ctx, tx, t, id)
		if err != nil {
			return err
		}
		if before == nil {
			return fmt.Errorf("%s %s: %w", t, id, ErrNotFound)
		}
		if err := s.deleteRecord(ctx, tx, t, id); err != nil {
			return err
		}
		return s.writeLog(ctx, tx, ActionDelete, operator, t, id, before, nil)
	})
}

// moveAsset applies a transfer to the asset sharing its Old Asset Code.
// A transfer for an unknown asset is still recorded.
func (s *Store) moveAsset(ctx context.Context, q querier, transfer domain.Record, operator string) error {
	oldCode := transfer.Get(domain.FieldOldCode)
	if oldCode == "" {
		return nil
	}
	asset, err := s.findAssetByOldCode(ctx, q, oldCode)
	if err != nil || asset == nil {
		return err
	}

	asset.Values[domain.FieldLocation] = transfer.Get(domain.FieldTo)
	asset.Values[domain.FieldWhen] = transfer.Get(domain.FieldWhen)
	asset.Values[domain.FieldOperator] = operator
	return s.saveRecord(ctx, q, *asset)
}

// whenFromDate turns a YYYY-MM-DD date into a timestamp at the configured
// offset past midnight. Empty or invalid dates fall back to now.
func (s *Store) whenFromDate(date string) time.Time {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.Now()
	}
	day, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return s.Now()
	}
	return day.Add(s.offset)
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
