package services

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Scanner defaults
const (
	DefaultScanGap       = 700 * time.Millisecond
	DefaultScanIDPattern = `^[0-9a-fA-F]{24}$`
)

// Scanner assembles barcode-scanner keystroke bursts into tokens.
// A pause longer than Gap starts a new token.
type Scanner struct {
	gap     time.Duration
	pattern *regexp.Regexp
	token   []rune
	last    time.Time
}

// NewScanner creates a scanner; zero gap or empty pattern fall back to the defaults
func NewScanner(gap time.Duration, idPattern string) (*Scanner, error) {
	if gap <= 0 {
		gap = DefaultScanGap
	}
	if idPattern == "" {
		idPattern = DefaultScanIDPattern
	}
	re, err := regexp.Compile(idPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid scan id pattern %q: %w", idPattern, err)
	}
	return &Scanner{gap: gap, pattern: re}, nil
}

// Feed appends r typed at the given time and returns the current token
func (s *Scanner) Feed(r rune, at time.Time) string {
	if s.last.IsZero() || at.Sub(s.last) > s.gap {
		s.token = s.token[:0]
	}
	s.token = append(s.token, r)
	s.last = at
	return string(s.token)
}

// Backspace drops the last rune of the token
func (s *Scanner) Backspace(at time.Time) string {
	if len(s.token) > 0 {
		s.token = s.token[:len(s.token)-1]
	}
	s.last = at
	return string(s.token)
}

// Token returns the accumulated token
func (s *Scanner) Token() string {
	return string(s.token)
}

// Set replaces the token, e.g. when the search box is edited directly
func (s *Scanner) Set(token string, at time.Time) {
	s.token = []rune(token)
	s.last = at
}

// Reset clears the token and timing
func (s *Scanner) Reset() {
	s.token = nil
	s.last = time.Time{}
}

// IsID reports whether token looks like a record identifier
func (s *Scanner) IsID(token string) bool {
	return s.pattern.MatchString(strings.TrimSpace(token))
}

// ExactID returns the token as an identifier filter when it matches the pattern
func (s *Scanner) ExactID() (string, bool) {
	tok := strings.TrimSpace(s.Token())
	if s.IsID(tok) {
		return tok, true
	}
	return "", false
}
