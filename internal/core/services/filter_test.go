package services

import (
	"testing"
	"time"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

func TestFilterRecords(t *testing.T) {
	records := []domain.Record{
		asset("65f000000000000000000001", "NP360", "A-100", domain.FieldDetails, "Forklift"),
		asset("65f000000000000000000002", "TEST", "B-200", domain.FieldDetails, "Warehouse12 shelf"),
		asset("65f000000000000000000003", "NP360", "C-300", domain.FieldSN, "SN-HOUSE"),
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{"empty query keeps all", "", []string{"A-100", "B-200", "C-300"}},
		{"case-insensitive", "house", []string{"B-200", "C-300"}},
		{"matches location", "np360", []string{"A-100", "C-300"}},
		{"matches id", "000000000003", []string{"C-300"}},
		{"no match", "zzz", nil},
		{"whitespace is significant", " forklift", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterRecords(records, tt.query)
			var codes []string
			for _, r := range got {
				codes = append(codes, r.Get(domain.FieldOldCode))
			}
			if !equalStrings(codes, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, codes)
			}
		})
	}

	if len(records) != 3 {
		t.Error("FilterRecords must not modify its input")
	}
}

func TestFilterByID(t *testing.T) {
	records := []domain.Record{
		asset("65f000000000000000000001", "NP360", "A-100"),
		asset("65f000000000000000000002", "NP360", "B-200"),
	}

	if got := FilterByID(records, "65f000000000000000000002"); len(got) != 1 || got[0].Get(domain.FieldOldCode) != "B-200" {
		t.Errorf("expected exact id match, got %v", got)
	}
	if got := FilterByID(records, "65f0000000000000000000"); len(got) != 0 {
		t.Errorf("prefix must not match, got %v", got)
	}
}

func TestHighlight(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		query   string
		matched bool
		span    Match
		render  string
	}{
		{
			name:    "case-insensitive span",
			text:    "Warehouse12",
			query:   "HOUSE",
			matched: true,
			span:    Match{Start: 4, End: 9},
			render:  "Ware[house]12",
		},
		{
			name:   "empty query leaves text unmarked",
			text:   "Warehouse12",
			query:  "",
			render: "Warehouse12",
		},
		{
			name:   "no match",
			text:   "Warehouse12",
			query:  "dock",
			render: "Warehouse12",
		},
		{
			name:    "first occurrence only",
			text:    "abcabc",
			query:   "bc",
			matched: true,
			span:    Match{Start: 1, End: 3},
			render:  "a[bc]abc",
		},
		{
			name:    "multibyte text uses rune offsets",
			text:    "Café Été",
			query:   "été",
			matched: true,
			span:    Match{Start: 5, End: 8},
			render:  "Café [Été]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Highlight(tt.text, tt.query)
			if h.Matched != tt.matched {
				t.Fatalf("expected matched=%v, got %v", tt.matched, h.Matched)
			}
			if h.Span != tt.span {
				t.Errorf("expected span %v, got %v", tt.span, h.Span)
			}
			got := h.Render(func(s string) string { return "[" + s + "]" })
			if got != tt.render {
				t.Errorf("expected %q, got %q", tt.render, got)
			}
		})
	}
}

func TestScanner_Feed(t *testing.T) {
	scanner, err := NewScanner(0, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	scanner.Feed('A', start)
	scanner.Feed('B', start.Add(50*time.Millisecond))
	if got := scanner.Feed('C', start.Add(100*time.Millisecond)); got != "ABC" {
		t.Fatalf("expected burst to accumulate, got %q", got)
	}
	if got := scanner.Feed('D', start.Add(1100*time.Millisecond)); got != "D" {
		t.Errorf("expected a pause to start a new token, got %q", got)
	}
	if got := scanner.Feed('E', start.Add(1800*time.Millisecond)); got != "DE" {
		t.Errorf("a gap equal to the threshold continues the token, got %q", got)
	}
}

func TestScanner_ExactID(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		token   string
		wantID  bool
	}{
		{"object id", "", "65f1a2b3c4d5e6f708192a3b", true},
		{"too short", "", "65f1a2b3c4d5", false},
		{"not hex", "", "65f1a2b3c4d5e6f708192a3z", false},
		{"custom pattern", `^AS-\d{6}$`, "AS-004211", true},
		{"custom pattern mismatch", `^AS-\d{6}$`, "65f1a2b3c4d5e6f708192a3b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner, err := NewScanner(DefaultScanGap, tt.pattern)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			scanner.Set(tt.token, time.Now())
			id, ok := scanner.ExactID()
			if ok != tt.wantID {
				t.Fatalf("expected id=%v, got %v (%q)", tt.wantID, ok, id)
			}
			if ok && id != tt.token {
				t.Errorf("expected %q, got %q", tt.token, id)
			}
		})
	}

	if _, err := NewScanner(0, "("); err == nil {
		t.Error("expected error for an invalid pattern")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
