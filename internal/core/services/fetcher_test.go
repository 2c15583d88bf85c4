package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
	"github.com/kamal-hamza/assetctl/internal/core/ports/mocks"
)

type messageErr struct{ msg string }

func (e messageErr) Error() string       { return "server: " + e.msg }
func (e messageErr) UserMessage() string { return e.msg }

func asset(id, location, oldCode string, extra ...string) domain.Record {
	values := map[string]string{
		domain.FieldLocation: location,
		domain.FieldOldCode:  oldCode,
	}
	for i := 0; i+1 < len(extra); i += 2 {
		values[extra[i]] = extra[i+1]
	}
	return domain.NewRecord(domain.RecordAsset, id, values)
}

func TestRecordFetcher_Fetch(t *testing.T) {
	tests := []struct {
		name          string
		locations     []string
		setupMocks    func(*mocks.MockBackend)
		expectedCount int
		expectedCalls int
		expectError   bool
	}{
		{
			name:      "empty selection makes no request",
			locations: nil,
			setupMocks: func(b *mocks.MockBackend) {
				b.Seed(domain.RecordAsset, asset("1", "NP360", "A-1"))
			},
			expectedCount: 0,
			expectedCalls: 0,
		},
		{
			name:      "restricted to requested parks",
			locations: []string{"NP360"},
			setupMocks: func(b *mocks.MockBackend) {
				b.Seed(domain.RecordAsset,
					asset("1", "NP360", "A-1"),
					asset("2", "TEST", "A-2"),
					asset("3", "NP360", "A-3"),
				)
			},
			expectedCount: 2,
			expectedCalls: 1,
		},
		{
			name:      "backend failure",
			locations: []string{"NP360"},
			setupMocks: func(b *mocks.MockBackend) {
				b.Errors["list"] = errors.New("connection refused")
			},
			expectedCalls: 1,
			expectError:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := mocks.NewMockBackend()
			tt.setupMocks(backend)
			fetcher := NewRecordFetcher(backend)

			records, err := fetcher.Fetch(context.Background(), domain.RecordAsset, tt.locations)

			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				var fetchErr *FetchError
				if !errors.As(err, &fetchErr) {
					t.Fatalf("expected FetchError, got %T", err)
				}
				if fetchErr.Type != domain.RecordAsset {
					t.Errorf("expected error keyed to asset, got %s", fetchErr.Type)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(records) != tt.expectedCount {
				t.Errorf("expected %d records, got %d", tt.expectedCount, len(records))
			}
			if backend.ListCalls != tt.expectedCalls {
				t.Errorf("expected %d list calls, got %d", tt.expectedCalls, backend.ListCalls)
			}
		})
	}
}

func TestRecordFetcher_PreservesServerOrder(t *testing.T) {
	backend := mocks.NewMockBackend()
	backend.Seed(domain.RecordTransfer,
		domain.NewRecord("", "c", map[string]string{domain.FieldLocation: "NP360"}),
		domain.NewRecord("", "a", map[string]string{domain.FieldLocation: "NP360"}),
		domain.NewRecord("", "b", map[string]string{domain.FieldLocation: "NP360"}),
	)
	fetcher := NewRecordFetcher(backend)

	records, err := fetcher.Fetch(context.Background(), domain.RecordTransfer, []string{"NP360"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
		if r.Type != domain.RecordTransfer {
			t.Errorf("expected record type to be set, got %q", r.Type)
		}
	}
	if strings.Join(ids, ",") != "c,a,b" {
		t.Errorf("expected server order c,a,b, got %v", ids)
	}
}

func TestRecordFetcher_DiscardsStaleResults(t *testing.T) {
	backend := mocks.NewMockBackend()
	backend.Seed(domain.RecordAsset, asset("1", "NP360", "A-1"))
	fetcher := NewRecordFetcher(backend)
	ctx := context.Background()

	first := fetcher.Issue(domain.RecordAsset, []string{"NP360"})
	second := fetcher.Issue(domain.RecordTransfer, []string{"NP360"})

	// The second answer arrives first, then the stale one
	newer := fetcher.Run(ctx, second)
	older := fetcher.Run(ctx, first)

	if !fetcher.IsCurrent(newer) {
		t.Error("expected the latest request to be current")
	}
	if fetcher.IsCurrent(older) {
		t.Error("expected the superseded request to be stale")
	}
	if second.Seq <= first.Seq {
		t.Errorf("expected increasing sequence numbers, got %d then %d", first.Seq, second.Seq)
	}
}

func TestFetchError_UserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      *FetchError
		expected string
	}{
		{
			name:     "generic message names the tab",
			err:      &FetchError{Type: domain.RecordAsset, Err: errors.New("timeout")},
			expected: "Failed to fetch details data.",
		},
		{
			name:     "generic message for transfers",
			err:      &FetchError{Type: domain.RecordTransfer, Err: errors.New("timeout")},
			expected: "Failed to fetch transfer data.",
		},
		{
			name:     "server message wins",
			err:      &FetchError{Type: domain.RecordDisposal, Err: messageErr{"Token is invalid!"}},
			expected: "Token is invalid!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.UserMessage(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
