package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// SearchRow is a record tagged with its source type
type SearchRow struct {
	domain.Record
	Source     domain.RecordType
	IsDisposal bool
}

// Values returns the searchable values including the type label
func (r SearchRow) Values() []string {
	return append(r.SearchValues(), r.Source.Label())
}

// SearchColumns is the fixed column set of the cross-type table
var SearchColumns = []string{
	"Type",
	domain.FieldLocation,
	domain.FieldOldCode,
	domain.FieldSN,
	domain.FieldDetails,
	domain.FieldTag,
	domain.FieldBy,
	domain.FieldTo,
	domain.FieldReason,
	domain.FieldWhen,
	domain.FieldOperator,
}

// Cell returns the display value of a search column
func (r SearchRow) Cell(column string) string {
	if column == "Type" {
		return r.Source.Label()
	}
	return r.Get(column)
}

// SearchService aggregates all record types for a park selection
type SearchService struct {
	fetcher *RecordFetcher
}

// NewSearchService creates a new search service
func NewSearchService(fetcher *RecordFetcher) *SearchService {
	return &SearchService{fetcher: fetcher}
}

// SearchRequest represents a cross-type search
type SearchRequest struct {
	Query       string
	LocationIDs []string
}

// SearchResponse holds the combined and filtered rows
type SearchResponse struct {
	Rows  []SearchRow
	Total int // rows before filtering
}

// Execute loads all three record types concurrently and filters the union
func (s *SearchService) Execute(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	sets, err := s.LoadAll(ctx, req.LocationIDs)
	if err != nil {
		return nil, err
	}

	rows := CombineRecords(sets[domain.RecordAsset], sets[domain.RecordTransfer], sets[domain.RecordDisposal])
	return &SearchResponse{
		Rows:  FilterSearchRows(rows, req.Query),
		Total: len(rows),
	}, nil
}

// LoadAll fetches every record type for the parks in parallel
func (s *SearchService) LoadAll(ctx context.Context, locationIDs []string) (map[domain.RecordType][]domain.Record, error) {
	results := make([][]domain.Record, len(domain.RecordTypes))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range domain.RecordTypes {
		g.Go(func() error {
			records, err := s.fetcher.Fetch(gctx, t, locationIDs)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	sets := make(map[domain.RecordType][]domain.Record, len(results))
	for i, t := range domain.RecordTypes {
		sets[t] = results[i]
	}
	return sets, nil
}

// CombineRecords tags and concatenates assets, transfers and disposals
func CombineRecords(assets, transfers, disposals []domain.Record) []SearchRow {
	rows := make([]SearchRow, 0, len(assets)+len(transfers)+len(disposals))
	add := func(t domain.RecordType, records []domain.Record) {
		for _, r := range records {
			r.Type = t
			rows = append(rows, SearchRow{
				Record:     r,
				Source:     t,
				IsDisposal: t == domain.RecordDisposal || r.IsTaggedDisposal(),
			})
		}
	}
	add(domain.RecordAsset, assets)
	add(domain.RecordTransfer, transfers)
	add(domain.RecordDisposal, disposals)
	return rows
}

// FilterSearchRows applies the substring filter across the combined set
func FilterSearchRows(rows []SearchRow, query string) []SearchRow {
	if query == "" {
		return rows
	}
	out := make([]SearchRow, 0, len(rows))
	for _, r := range rows {
		if MatchesQuery(r.Values(), query) {
			out = append(out, r)
		}
	}
	return out
}
