package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// Tab is one of the three record tabs
type Tab string

const (
	TabDetails  Tab = "details"
	TabTransfer Tab = "transfer"
	TabDisposal Tab = "disposal"
)

// Tabs lists the tabs in display order
var Tabs = []Tab{TabDetails, TabTransfer, TabDisposal}

// ParseTab accepts a tab name or record type spelling
func ParseTab(s string) (Tab, error) {
	t, err := domain.ParseRecordType(s)
	if err != nil {
		return "", fmt.Errorf("unknown tab %q", s)
	}
	return TabFor(t), nil
}

// TabFor maps a record type to its tab
func TabFor(t domain.RecordType) Tab {
	switch t {
	case domain.RecordTransfer:
		return TabTransfer
	case domain.RecordDisposal:
		return TabDisposal
	}
	return TabDetails
}

// RecordType returns the record type shown on the tab
func (t Tab) RecordType() domain.RecordType {
	switch t {
	case TabTransfer:
		return domain.RecordTransfer
	case TabDisposal:
		return domain.RecordDisposal
	}
	return domain.RecordAsset
}

// Schema returns the fixed column set of the tab
func (t Tab) Schema() domain.Schema {
	return domain.SchemaFor(t.RecordType())
}

// Query parameter names
const (
	ParamQuery        = "q"
	ParamTab          = "tab"
	ParamHighlightOld = "highlightOld"
)

// DeepLink is the view state encoded in a query string
type DeepLink struct {
	Query        string
	Tab          Tab // empty when not forced
	HighlightOld string
}

// ParseDeepLink reads q, tab and highlightOld from a raw query string.
// A leading "?" is allowed. Unknown tabs are ignored.
func ParseDeepLink(raw string) (DeepLink, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return DeepLink{}, fmt.Errorf("invalid link %q: %w", raw, err)
	}

	link := DeepLink{
		Query:        values.Get(ParamQuery),
		HighlightOld: values.Get(ParamHighlightOld),
	}
	if tab := values.Get(ParamTab); tab != "" {
		if t, err := ParseTab(tab); err == nil {
			link.Tab = t
		}
	}
	return link, nil
}

// Encode renders the link as a query string
func (l DeepLink) Encode() string {
	values := url.Values{}
	if l.Query != "" {
		values.Set(ParamQuery, l.Query)
	}
	if l.Tab != "" {
		values.Set(ParamTab, string(l.Tab))
	}
	if l.HighlightOld != "" {
		values.Set(ParamHighlightOld, l.HighlightOld)
	}
	return values.Encode()
}

// DisposalLink is the jump from a flagged asset to its disposal record
func DisposalLink(oldCode string) DeepLink {
	return DeepLink{Tab: TabDisposal, HighlightOld: oldCode}
}

// RowFlag describes how a row is emphasised
type RowFlag int

const (
	FlagNone RowFlag = iota
	// FlagDisposed marks a non-disposal row whose tag is "disposal"
	FlagDisposed
	// FlagTarget marks the deep-link target on the disposal tab
	FlagTarget
)

// FlagRow decides the emphasis of a row on a tab
func FlagRow(tab Tab, r domain.Record, highlightOld string) RowFlag {
	if tab == TabDisposal {
		if highlightOld != "" && r.Get(domain.FieldOldCode) == highlightOld {
			return FlagTarget
		}
		return FlagNone
	}
	if r.IsTaggedDisposal() {
		return FlagDisposed
	}
	return FlagNone
}
