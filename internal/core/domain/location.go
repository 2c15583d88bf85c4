package domain

import "strings"

// Park is a physical site owning assets
type Park struct {
	ParkID   string `json:"parkId"`
	Name     string `json:"name"`
	AreaCode string `json:"areaCode"`
}

// Label returns "ID - Name" or just the id when unnamed
func (p Park) Label() string {
	if p.Name == "" || p.Name == p.ParkID {
		return p.ParkID
	}
	return p.ParkID + " - " + p.Name
}

// Area groups parks
type Area struct {
	AreaID string `json:"areaId"`
	Code   string `json:"code"`
	Name   string `json:"name"`
}

// User is the authenticated operator
type User struct {
	UserID    string   `json:"userId"`
	UserName  string   `json:"userName"`
	UserGroup string   `json:"userGroup"`
	ParkIDs   []string `json:"parkIds"`
	Parks     []Park   `json:"parks,omitempty"`
}

// CanAccess reports whether the user is granted a park
func (u User) CanAccess(parkID string) bool {
	for _, id := range u.ParkIDs {
		if id == parkID {
			return true
		}
	}
	return false
}

// ParkIDs extracts the ids of parks in order
func ParkIDs(parks []Park) []string {
	ids := make([]string, len(parks))
	for i, p := range parks {
		ids[i] = p.ParkID
	}
	return ids
}

// JoinIDs renders an id set as CSV
func JoinIDs(ids []string) string {
	return strings.Join(ids, ",")
}

// SplitIDs parses a CSV id set, dropping blanks
func SplitIDs(csv string) []string {
	var ids []string
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
