package services

import (
	"fmt"
	"slices"

	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// ParkSelection tracks the area filter and chosen parks of a user
type ParkSelection struct {
	userParks []domain.Park
	areas     []domain.Area
	area      *domain.Area
	selected  map[string]bool
}

// NewParkSelection restricts parks to the user's grants and selects all of them
func NewParkSelection(user domain.User, parks []domain.Park, areas []domain.Area) *ParkSelection {
	var userParks []domain.Park
	for _, p := range parks {
		if user.CanAccess(p.ParkID) {
			userParks = append(userParks, p)
		}
	}

	codes := make(map[string]bool)
	for _, p := range userParks {
		codes[p.AreaCode] = true
	}
	var available []domain.Area
	for _, a := range areas {
		if codes[a.Code] {
			available = append(available, a)
		}
	}

	s := &ParkSelection{userParks: userParks, areas: available}
	s.ChooseArea("")
	return s
}

// UserParks returns the parks the user may select
func (s *ParkSelection) UserParks() []domain.Park {
	return s.userParks
}

// Areas returns the areas holding at least one user park
func (s *ParkSelection) Areas() []domain.Area {
	return s.areas
}

// Area returns the chosen area, nil meaning all
func (s *ParkSelection) Area() *domain.Area {
	return s.area
}

// VisibleParks returns the parks of the chosen area, or all user parks
func (s *ParkSelection) VisibleParks() []domain.Park {
	if s.area == nil {
		return s.userParks
	}
	return s.parksInArea(s.area.Code)
}

func (s *ParkSelection) parksInArea(code string) []domain.Park {
	var parks []domain.Park
	for _, p := range s.userParks {
		if p.AreaCode == code {
			parks = append(parks, p)
		}
	}
	return parks
}

// ChooseArea switches the area filter and selects its parks.
// An empty code means all areas.
func (s *ParkSelection) ChooseArea(code string) error {
	if code == "" {
		s.area = nil
		s.selectParks(s.userParks)
		return nil
	}
	for i := range s.areas {
		if s.areas[i].Code == code || s.areas[i].AreaID == code {
			a := s.areas[i]
			s.area = &a
			s.selectParks(s.parksInArea(a.Code))
			return nil
		}
	}
	return fmt.Errorf("area %q is not available", code)
}

// PickPark selects exactly one park
func (s *ParkSelection) PickPark(parkID string) error {
	for _, p := range s.userParks {
		if p.ParkID == parkID {
			s.selected = map[string]bool{parkID: true}
			return nil
		}
	}
	return fmt.Errorf("park %q is not granted to this user", parkID)
}

// SelectAllInArea reselects every park of the chosen area
func (s *ParkSelection) SelectAllInArea() {
	if s.area == nil {
		return
	}
	s.selectParks(s.parksInArea(s.area.Code))
}

// IsAllInAreaSelected reports whether every park of the chosen area is selected
func (s *ParkSelection) IsAllInAreaSelected() bool {
	if s.area == nil {
		return false
	}
	parks := s.parksInArea(s.area.Code)
	if len(parks) == 0 {
		return false
	}
	for _, p := range parks {
		if !s.selected[p.ParkID] {
			return false
		}
	}
	return true
}

// Select replaces the selection with ids, ignoring parks the user cannot access.
// It returns the ids that were rejected.
func (s *ParkSelection) Select(ids []string) []string {
	var keep []domain.Park
	var rejected []string
	for _, id := range ids {
		idx := slices.IndexFunc(s.userParks, func(p domain.Park) bool { return p.ParkID == id })
		if idx < 0 {
			rejected = append(rejected, id)
			continue
		}
		keep = append(keep, s.userParks[idx])
	}
	s.selectParks(keep)
	return rejected
}

// IsSelected reports whether a park is selected
func (s *ParkSelection) IsSelected(parkID string) bool {
	return s.selected[parkID]
}

// SelectedParks returns the selected parks in user-park order
func (s *ParkSelection) SelectedParks() []domain.Park {
	var parks []domain.Park
	for _, p := range s.userParks {
		if s.selected[p.ParkID] {
			parks = append(parks, p)
		}
	}
	return parks
}

// SelectedIDs returns the selected park ids in user-park order
func (s *ParkSelection) SelectedIDs() []string {
	return domain.ParkIDs(s.SelectedParks())
}

func (s *ParkSelection) selectParks(parks []domain.Park) {
	s.selected = make(map[string]bool, len(parks))
	for _, p := range parks {
		s.selected[p.ParkID] = true
	}
}
