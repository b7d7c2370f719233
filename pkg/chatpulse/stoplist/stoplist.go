package stoplist

import (
	"sort"
	"strings"

	"github.com/kljensen/snowball/english"
)

// Manager holds the stopword set consulted by the noise filter.
// A Manager is not safe for concurrent mutation; consumers that run
// concurrently take a Clone at construction time.
type Manager struct {
	stops    map[string]struct{}
	snowball bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithSnowball makes IsStop also consult the Snowball English stop list.
func WithSnowball() Option {
	return func(m *Manager) { m.snowball = true }
}

// NewManager creates a new stoplist manager. Terms are lowercased.
func NewManager(initialStops []string, opts ...Option) *Manager {
	stops := make(map[string]struct{}, len(initialStops))
	for _, s := range initialStops {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		stops[s] = struct{}{}
	}
	m := &Manager{stops: stops}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// English returns a manager seeded with the standard English list.
func English(opts ...Option) *Manager {
	return NewManager(EnglishTerms(), opts...)
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	if _, ok := m.stops[token]; ok {
		return true
	}
	return m.snowball && english.IsStopWord(token)
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return
	}
	m.stops[token] = struct{}{}
}

// Remove removes a token from the stoplist.
// Tokens covered by the Snowball list stay stopwords while WithSnowball is set.
func (m *Manager) Remove(token string) {
	delete(m.stops, strings.ToLower(token))
}

// All returns the explicit stopwords in sorted order.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Len reports the number of explicit stopwords.
func (m *Manager) Len() int {
	return len(m.stops)
}

// Snowball reports whether the Snowball list is consulted.
func (m *Manager) Snowball() bool {
	return m.snowball
}

// Clone returns an independent copy.
func (m *Manager) Clone() *Manager {
	stops := make(map[string]struct{}, len(m.stops))
	for s := range m.stops {
		stops[s] = struct{}{}
	}
	return &Manager{stops: stops, snowball: m.snowball}
}
