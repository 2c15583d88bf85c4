package services

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/ports"
)

// RecordFetcher retrieves record lists and tracks which request is current
type RecordFetcher struct {
	api    ports.RecordAPI
	latest atomic.Uint64
}

// NewRecordFetcher creates a new fetcher
func NewRecordFetcher(api ports.RecordAPI) *RecordFetcher {
	return &RecordFetcher{api: api}
}

// FetchRequest is a sequence-tagged fetch ticket
type FetchRequest struct {
	Seq         uint64
	Type        domain.RecordType
	LocationIDs []string
}

// FetchResult is the outcome of running a FetchRequest
type FetchResult struct {
	FetchRequest
	Records []domain.Record
	Err     error
}

// Fetch returns the records of a type for the given parks.
// An empty park set yields an empty list without a request.
func (f *RecordFetcher) Fetch(ctx context.Context, t domain.RecordType, locationIDs []string) ([]domain.Record, error) {
	if len(locationIDs) == 0 {
		return []domain.Record{}, nil
	}

	records, err := f.api.List(ctx, t, locationIDs)
	if err != nil {
		return nil, &FetchError{Type: t, Err: err}
	}
	for i := range records {
		records[i].Type = t
	}
	return records, nil
}

// Issue registers a new fetch; every earlier request becomes stale
func (f *RecordFetcher) Issue(t domain.RecordType, locationIDs []string) FetchRequest {
	return FetchRequest{
		Seq:         f.latest.Add(1),
		Type:        t,
		LocationIDs: slices.Clone(locationIDs),
	}
}

// Run performs the request. It touches no view state and is safe to call from a goroutine.
func (f *RecordFetcher) Run(ctx context.Context, req FetchRequest) FetchResult {
	records, err := f.Fetch(ctx, req.Type, req.LocationIDs)
	if err != nil {
		slog.Debug("fetch failed", "type", req.Type, "seq", req.Seq, "error", err)
	}
	return FetchResult{FetchRequest: req, Records: records, Err: err}
}

// IsCurrent reports whether res answers the most recently issued request
func (f *RecordFetcher) IsCurrent(res FetchResult) bool {
	return res.Seq == f.latest.Load()
}
