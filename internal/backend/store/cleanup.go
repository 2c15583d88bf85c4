package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// legacyAssetFields are leftovers from an older record layout.
var legacyAssetFields = []string{"From", "To", fieldNewAssetCode, "receiver"}

// CleanupResult summarises a cleanup run.
type CleanupResult struct {
	Scanned    int
	Cleaned    int
	WhenFilled int
}

// CleanupAssets strips legacy fields from assets and backfills a missing
// When with the current time.
func (s *Store) CleanupAssets(ctx context.Context) (CleanupResult, error) {
	var res CleanupResult

	assets, err := s.ListRecords(ctx, domain.RecordAsset, nil)
	if err != nil {
		return res, err
	}
	res.Scanned = len(assets)

	now := s.Now().Format(WhenLayout)
	err = s.inTx(ctx, "cleanup", func(tx *sql.Tx) error {
		for _, asset := range assets {
			changed := false
			for _, field := range legacyAssetFields {
				if _, ok := asset.Values[field]; ok {
					delete(asset.Values, field)
					changed = true
				}
			}
			if asset.Get(domain.FieldWhen) == "" {
				asset.Values[domain.FieldWhen] = now
				res.WhenFilled++
				changed = true
			}
			if !changed {
				continue
			}
			if err := s.saveRecord(ctx, tx, asset); err != nil {
				return fmt.Errorf("cleaning asset %s: %w", asset.ID, err)
			}
			res.Cleaned++
		}
		return nil
	})
	if err != nil {
		return CleanupResult{}, err
	}
	return res, nil
}
