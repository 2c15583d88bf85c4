package services

import (
	"testing"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

func TestParseDeepLink(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected DeepLink
	}{
		{
			name:     "disposal jump",
			raw:      "?tab=disposal&highlightOld=A-2",
			expected: DeepLink{Tab: TabDisposal, HighlightOld: "A-2"},
		},
		{
			name:     "search query",
			raw:      "q=pump%20room",
			expected: DeepLink{Query: "pump room"},
		},
		{
			name:     "record type spelling",
			raw:      "tab=transfers",
			expected: DeepLink{Tab: TabTransfer},
		},
		{
			name:     "unknown tab ignored",
			raw:      "tab=archive&q=x",
			expected: DeepLink{Query: "x"},
		},
		{
			name:     "empty",
			raw:      "",
			expected: DeepLink{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDeepLink(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, got)
			}
		})
	}

	if _, err := ParseDeepLink("q=%zz"); err == nil {
		t.Error("expected error for malformed escape")
	}
}

func TestDisposalLink_RoundTrip(t *testing.T) {
	link := DisposalLink("A-2 / east")
	parsed, err := ParseDeepLink(link.Encode())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != link {
		t.Errorf("expected %+v, got %+v", link, parsed)
	}
}

func TestFlagRow(t *testing.T) {
	tagged := asset("a2", "NP360", "A-2", domain.FieldTag, "disposal")
	plain := asset("a1", "NP360", "A-1", domain.FieldTag, "onsite")
	disposal := domain.NewRecord(domain.RecordDisposal, "d1", map[string]string{domain.FieldOldCode: "A-2"})
	other := domain.NewRecord(domain.RecordDisposal, "d2", map[string]string{domain.FieldOldCode: "A-9"})

	tests := []struct {
		name      string
		tab       Tab
		row       domain.Record
		highlight string
		expected  RowFlag
	}{
		{"tagged asset on details", TabDetails, tagged, "", FlagDisposed},
		{"plain asset on details", TabDetails, plain, "", FlagNone},
		{"deep-link target", TabDisposal, disposal, "A-2", FlagTarget},
		{"other disposal row", TabDisposal, other, "A-2", FlagNone},
		{"no target", TabDisposal, disposal, "", FlagNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FlagRow(tt.tab, tt.row, tt.highlight); got != tt.expected {
				t.Errorf("expected flag %d, got %d", tt.expected, got)
			}
		})
	}
}

func selectionFixture() *ParkSelection {
	user := domain.User{UserID: "amy", ParkIDs: []string{"NP1", "NP2", "SP1"}}
	parks := []domain.Park{
		{ParkID: "NP1", Name: "North 1", AreaCode: "N"},
		{ParkID: "NP2", Name: "North 2", AreaCode: "N"},
		{ParkID: "NP3", Name: "North 3", AreaCode: "N"},
		{ParkID: "SP1", Name: "South 1", AreaCode: "S"},
		{ParkID: "WP1", Name: "West 1", AreaCode: "W"},
	}
	areas := []domain.Area{
		{AreaID: "1", Code: "N", Name: "North"},
		{AreaID: "2", Code: "S", Name: "South"},
		{AreaID: "3", Code: "W", Name: "West"},
	}
	return NewParkSelection(user, parks, areas)
}

func TestParkSelection_Initial(t *testing.T) {
	s := selectionFixture()

	if got := domain.ParkIDs(s.UserParks()); !equalStrings(got, []string{"NP1", "NP2", "SP1"}) {
		t.Errorf("expected only granted parks, got %v", got)
	}
	var codes []string
	for _, a := range s.Areas() {
		codes = append(codes, a.Code)
	}
	if !equalStrings(codes, []string{"N", "S"}) {
		t.Errorf("expected areas holding granted parks, got %v", codes)
	}
	if !equalStrings(s.SelectedIDs(), []string{"NP1", "NP2", "SP1"}) {
		t.Errorf("expected everything selected initially, got %v", s.SelectedIDs())
	}
	if s.Area() != nil {
		t.Error("expected no area filter initially")
	}
}

func TestParkSelection_AreaWorkflow(t *testing.T) {
	s := selectionFixture()

	if err := s.ChooseArea("N"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalStrings(s.SelectedIDs(), []string{"NP1", "NP2"}) {
		t.Errorf("expected area parks selected, got %v", s.SelectedIDs())
	}
	if !s.IsAllInAreaSelected() {
		t.Error("expected whole area selected")
	}

	if err := s.PickPark("NP2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalStrings(s.SelectedIDs(), []string{"NP2"}) {
		t.Errorf("expected single park, got %v", s.SelectedIDs())
	}
	if s.IsAllInAreaSelected() {
		t.Error("area should no longer be fully selected")
	}

	s.SelectAllInArea()
	if !equalStrings(s.SelectedIDs(), []string{"NP1", "NP2"}) {
		t.Errorf("expected area reselected, got %v", s.SelectedIDs())
	}

	if err := s.ChooseArea("W"); err == nil {
		t.Error("expected error for an area without granted parks")
	}
	if err := s.PickPark("NP3"); err == nil {
		t.Error("expected error for an ungranted park")
	}

	if err := s.ChooseArea(""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.SelectedIDs()) != 3 {
		t.Errorf("expected all parks for all areas, got %v", s.SelectedIDs())
	}
}

func TestParkSelection_Select(t *testing.T) {
	s := selectionFixture()

	rejected := s.Select([]string{"SP1", "WP1", "NP1"})
	if !equalStrings(rejected, []string{"WP1"}) {
		t.Errorf("expected WP1 rejected, got %v", rejected)
	}
	if !equalStrings(s.SelectedIDs(), []string{"NP1", "SP1"}) {
		t.Errorf("expected selection in user-park order, got %v", s.SelectedIDs())
	}
	if !s.IsSelected("SP1") || s.IsSelected("NP2") {
		t.Error("IsSelected disagrees with the selection")
	}
}
