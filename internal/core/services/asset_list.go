package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// AssetList is the state of the tabbed record view. It performs no IO:
// methods that need the network return a request for the caller to run
// and an Apply method to feed the result back.
type AssetList struct {
	fetcher *RecordFetcher
	scanner *Scanner

	Tab      Tab
	Parks    []domain.Park
	Records  []domain.Record
	Loading  bool
	FetchErr string

	Rows       RowState
	RowErr     string
	Committing bool

	Query        string
	ScanEnabled  bool
	ScanFilterID string
	HighlightOld string

	Forms map[Tab]*AddWorkflow
}

// NewAssetList creates the view on the details tab with no parks selected
func NewAssetList(fetcher *RecordFetcher, scanner *Scanner, now func() time.Time) *AssetList {
	forms := make(map[Tab]*AddWorkflow, len(Tabs))
	for _, tab := range Tabs {
		forms[tab] = NewAddWorkflow(tab.RecordType(), now)
	}
	return &AssetList{
		fetcher: fetcher,
		scanner: scanner,
		Tab:     TabDetails,
		Forms:   forms,
	}
}

// ParkIDs returns the ids of the selected parks
func (l *AssetList) ParkIDs() []string {
	return domain.ParkIDs(l.Parks)
}

// SetParks changes the location selection and refetches
func (l *AssetList) SetParks(parks []domain.Park) (FetchRequest, bool) {
	l.Parks = slices.Clone(parks)
	l.cancelRow()
	l.Form().ApplyDefaults(l.ParkIDs())
	return l.Refresh()
}

// SetTab activates a tab and refetches
func (l *AssetList) SetTab(tab Tab) (FetchRequest, bool) {
	l.Tab = tab
	l.cancelRow()
	l.Form().ApplyDefaults(l.ParkIDs())
	return l.Refresh()
}

// ApplyDeepLink opens the tab named by the link. The highlight target only
// survives on the disposal tab.
func (l *AssetList) ApplyDeepLink(link DeepLink) (FetchRequest, bool) {
	if link.Tab == TabDisposal {
		l.HighlightOld = link.HighlightOld
	} else {
		l.HighlightOld = ""
	}
	if link.Tab != "" {
		return l.SetTab(link.Tab)
	}
	return l.Refresh()
}

// Refresh issues a fetch for the active tab. With no parks selected the
// list is cleared and no request is needed; any in-flight fetch still
// becomes stale.
func (l *AssetList) Refresh() (FetchRequest, bool) {
	req := l.fetcher.Issue(l.Tab.RecordType(), l.ParkIDs())
	l.FetchErr = ""
	if len(req.LocationIDs) == 0 {
		l.Records = []domain.Record{}
		l.Loading = false
		return req, false
	}
	l.Loading = true
	return req, true
}

// ApplyFetch stores a fetch result unless a newer request was issued since
func (l *AssetList) ApplyFetch(res FetchResult) bool {
	if !l.fetcher.IsCurrent(res) {
		return false
	}
	l.Loading = false
	if res.Err != nil {
		l.Records = nil
		l.FetchErr = DisplayMessage(res.Err, fmt.Sprintf("Failed to fetch %s data.", l.Tab))
		return true
	}
	l.Records = res.Records
	if l.Rows.Phase != PhaseIdle && l.find(l.Rows.RowID) < 0 {
		l.cancelRow()
	}
	return true
}

// Visible returns the rows after the search or scan filter
func (l *AssetList) Visible() []domain.Record {
	if l.ScanEnabled {
		if l.ScanFilterID != "" {
			return FilterByID(l.Records, l.ScanFilterID)
		}
		return l.Records
	}
	return FilterRecords(l.Records, l.Query)
}

// HighlightQuery is the text to mark in cells, empty in scan mode
func (l *AssetList) HighlightQuery() string {
	if l.ScanEnabled {
		return ""
	}
	return l.Query
}

// SetQuery replaces the search text typed outside scan mode
func (l *AssetList) SetQuery(q string) {
	l.Query = q
}

// ScanKey feeds one scanner keystroke
func (l *AssetList) ScanKey(r rune, at time.Time) {
	l.Query = l.scanner.Feed(r, at)
	if id, ok := l.scanner.ExactID(); ok {
		l.ScanFilterID = id
	}
}

// ScanBackspace removes the last scanned rune
func (l *AssetList) ScanBackspace(at time.Time) {
	l.Query = l.scanner.Backspace(at)
}

// ToggleScan switches scan mode; leaving it clears the id filter
func (l *AssetList) ToggleScan() {
	l.ScanEnabled = !l.ScanEnabled
	l.scanner.Set(l.Query, time.Time{})
	if !l.ScanEnabled {
		l.ScanFilterID = ""
	}
}

// SubmitSearch handles Enter in the search box. In scan mode the text is
// pinned as the id filter; otherwise it returns the cross-type search link.
func (l *AssetList) SubmitSearch() (DeepLink, bool) {
	if l.ScanEnabled {
		l.ScanFilterID = strings.TrimSpace(l.Query)
		return DeepLink{}, false
	}
	return DeepLink{Query: l.Query}, true
}

// ClearSearch empties the query and id filter
func (l *AssetList) ClearSearch() {
	l.Query = ""
	l.ScanFilterID = ""
	l.scanner.Reset()
}

// FlagRow returns the emphasis of a row on the active tab
func (l *AssetList) FlagRow(r domain.Record) RowFlag {
	return FlagRow(l.Tab, r, l.HighlightOld)
}

func (l *AssetList) find(rowID string) int {
	return slices.IndexFunc(l.Records, func(r domain.Record) bool { return r.ID == rowID })
}

// Row returns a loaded record by id
func (l *AssetList) Row(rowID string) (domain.Record, bool) {
	i := l.find(rowID)
	if i < 0 {
		return domain.Record{}, false
	}
	return l.Records[i], true
}

// StartEdit opens an edit session on a row; ignored while a commit is in flight
func (l *AssetList) StartEdit(rowID string) error {
	if l.Committing {
		return nil
	}
	row, ok := l.Row(rowID)
	if !ok {
		return fmt.Errorf("row %s is not loaded", rowID)
	}
	l.Rows = l.Rows.StartEdit(row)
	l.RowErr = ""
	return nil
}

// StartDelete asks for delete confirmation of a row; ignored while a commit is in flight
func (l *AssetList) StartDelete(rowID string) error {
	if l.Committing {
		return nil
	}
	row, ok := l.Row(rowID)
	if !ok {
		return fmt.Errorf("row %s is not loaded", rowID)
	}
	l.Rows = l.Rows.StartDelete(row)
	l.RowErr = ""
	return nil
}

// SetDraft edits one field of the active draft
func (l *AssetList) SetDraft(field, value string) error {
	next, err := l.Rows.SetField(field, value, l.ParkIDs())
	if err != nil {
		return err
	}
	l.Rows = next
	return nil
}

// CancelRow abandons the active session
func (l *AssetList) CancelRow() {
	if l.Committing {
		return
	}
	l.cancelRow()
}

func (l *AssetList) cancelRow() {
	l.Rows = l.Rows.Cancel()
	l.RowErr = ""
}

// ConfirmRow advances the active session. The first confirmation of an edit
// only changes phase; a confirmation awaiting commit returns the mutation to send.
func (l *AssetList) ConfirmRow() (RowCommit, bool, error) {
	if l.Committing {
		return RowCommit{}, false, nil
	}
	if l.Rows.Phase == PhaseEditing {
		next, err := l.Rows.Confirm()
		if err != nil {
			return RowCommit{}, false, err
		}
		l.Rows = next
		return RowCommit{}, false, nil
	}
	commit, err := l.Rows.Commit()
	if err != nil {
		return RowCommit{}, false, err
	}
	l.Committing = true
	return commit, true, nil
}

// ApplyCommit records the outcome of a row mutation. Failure keeps the
// session for retry; success returns to idle and refetches.
func (l *AssetList) ApplyCommit(c RowCommit, err error) (FetchRequest, bool) {
	l.Committing = false
	if err != nil {
		l.RowErr = c.FailureMessage(err)
		return FetchRequest{}, false
	}
	l.cancelRow()
	return l.Refresh()
}

// Form returns the add workflow of the active tab
func (l *AssetList) Form() *AddWorkflow {
	return l.Forms[l.Tab]
}

// OpenForm shows the add form of the active tab with defaults applied
func (l *AssetList) OpenForm() *AddWorkflow {
	w := l.Form()
	w.ApplyDefaults(l.ParkIDs())
	w.Show()
	return w
}

// ApplyAdd records the outcome of a create request and prepends the
// created item when it belongs to the list on screen
func (l *AssetList) ApplyAdd(req AddRequest, item *domain.Record, err error) {
	w := l.Forms[TabFor(req.Type)]
	w.Finish(err)
	if err != nil || item == nil {
		return
	}
	if req.Type == l.Tab.RecordType() {
		l.Records = append([]domain.Record{*item}, l.Records...)
	}
}
