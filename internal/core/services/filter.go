package services

import (
	"unicode"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// MatchesQuery reports whether any value contains query, ignoring case.
// An empty query matches everything.
func MatchesQuery(values []string, query string) bool {
	if query == "" {
		return true
	}
	for _, v := range values {
		if _, _, ok := indexFold(v, query); ok {
			return true
		}
	}
	return false
}

// FilterRecords keeps rows with any field containing query. The input is not modified.
func FilterRecords(records []domain.Record, query string) []domain.Record {
	if query == "" {
		return records
	}
	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if MatchesQuery(r.SearchValues(), query) {
			out = append(out, r)
		}
	}
	return out
}

// FilterByID keeps the row whose identifier equals id exactly
func FilterByID(records []domain.Record, id string) []domain.Record {
	var out []domain.Record
	for _, r := range records {
		if r.ID == id {
			out = append(out, r)
		}
	}
	return out
}

// Match is a rune span [Start, End) of highlighted text
type Match struct {
	Start int
	End   int
}

// Highlighted is text split around its first match
type Highlighted struct {
	Before  string
	Match   string
	After   string
	Matched bool
	Span    Match
}

// Highlight marks the first case-insensitive occurrence of query in text.
// An empty query leaves the text unmarked.
func Highlight(text, query string) Highlighted {
	if query == "" {
		return Highlighted{Before: text}
	}
	start, end, ok := indexFold(text, query)
	if !ok {
		return Highlighted{Before: text}
	}
	runes := []rune(text)
	return Highlighted{
		Before:  string(runes[:start]),
		Match:   string(runes[start:end]),
		After:   string(runes[end:]),
		Matched: true,
		Span:    Match{Start: start, End: end},
	}
}

// Render joins the parts, passing the match through mark
func (h Highlighted) Render(mark func(string) string) string {
	if !h.Matched {
		return h.Before
	}
	return h.Before + mark(h.Match) + h.After
}

// indexFold finds needle in haystack ignoring case, returning rune offsets
func indexFold(haystack, needle string) (int, int, bool) {
	h := foldRunes(haystack)
	n := foldRunes(needle)
	if len(n) == 0 || len(n) > len(h) {
		return 0, 0, false
	}
	for i := 0; i+len(n) <= len(h); i++ {
		match := true
		for j := range n {
			if h[i+j] != n[j] {
				match = false
				break
			}
		}
		if match {
			return i, i + len(n), true
		}
	}
	return 0, 0, false
}

func foldRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}
