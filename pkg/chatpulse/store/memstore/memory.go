// Package memstore is an in-memory store.Store for tests and short-lived runs.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu       sync.RWMutex
	closed   bool
	nextID   int64
	messages []store.Message
	external map[string]int64 // external id → message id
	stats    map[statsKey]store.ServerStats
	reports  map[string]store.Report
}

type statsKey struct {
	server string
	day    string
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextID:   1,
		external: make(map[string]int64),
		stats:    make(map[statsKey]store.ServerStats),
		reports:  make(map[string]store.Report),
	}
}

// Close implements store.Store. Later calls fail with ErrStoreUnavailable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// AddMessage implements store.Store.
func (s *Store) AddMessage(ctx context.Context, m store.Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, internalerr.ErrStoreUnavailable
	}
	if m.ExternalID != "" {
		if _, ok := s.external[m.ExternalID]; ok {
			return 0, fmt.Errorf("message %s: %w", m.ExternalID, internalerr.ErrDuplicate)
		}
	}

	m.ID = s.nextID
	s.nextID++
	m.Timestamp = m.Timestamp.UTC()
	s.messages = append(s.messages, m)
	if m.ExternalID != "" {
		s.external[m.ExternalID] = m.ID
	}
	return m.ID, nil
}

// MessagesSince implements store.Store.
func (s *Store) MessagesSince(ctx context.Context, serverID string, since time.Time) ([]store.Message, error) {
	return s.filterMessages(serverID, func(ts time.Time) bool {
		return !ts.Before(since)
	})
}

// MessagesBetween implements store.Store.
func (s *Store) MessagesBetween(ctx context.Context, serverID string, from, to time.Time) ([]store.Message, error) {
	return s.filterMessages(serverID, func(ts time.Time) bool {
		return !ts.Before(from) && ts.Before(to)
	})
}

func (s *Store) filterMessages(serverID string, keep func(time.Time) bool) ([]store.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}

	var out []store.Message
	for _, m := range s.messages {
		if m.ServerID == serverID && keep(m.Timestamp) {
			out = append(out, m)
		}
	}
	// insertion order already breaks timestamp ties by id
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// DeleteMessagesBefore implements store.Store.
func (s *Store) DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, internalerr.ErrStoreUnavailable
	}

	kept := s.messages[:0]
	var removed int64
	for _, m := range s.messages {
		if m.Timestamp.Before(cutoff) {
			delete(s.external, m.ExternalID)
			removed++
			continue
		}
		kept = append(kept, m)
	}
	s.messages = kept
	return removed, nil
}

// Servers implements store.Store.
func (s *Store) Servers(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}

	seen := make(map[string]struct{})
	for _, m := range s.messages {
		seen[m.ServerID] = struct{}{}
	}
	for k := range s.stats {
		seen[k.server] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// UpsertServerStats implements store.Store.
func (s *Store) UpsertServerStats(ctx context.Context, st store.ServerStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return internalerr.ErrStoreUnavailable
	}
	st.Date = store.DayOf(st.Date)
	s.stats[statsKey{server: st.ServerID, day: st.Date.Format(time.DateOnly)}] = st
	return nil
}

// GetServerStats implements store.Store.
func (s *Store) GetServerStats(ctx context.Context, serverID string, from, to time.Time) ([]store.ServerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}

	from, to = store.DayOf(from), store.DayOf(to)
	var out []store.ServerStats
	for k, st := range s.stats {
		if k.server != serverID {
			continue
		}
		if st.Date.Before(from) || !st.Date.Before(to) {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// SaveReport implements store.Store.
func (s *Store) SaveReport(ctx context.Context, r store.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return internalerr.ErrStoreUnavailable
	}
	if r.ID == "" {
		return internalerr.InvalidInput("report id is empty")
	}
	r.Payload = append([]byte(nil), r.Payload...)
	s.reports[r.ID] = r
	return nil
}

// GetReport implements store.Store.
func (s *Store) GetReport(ctx context.Context, id string) (store.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return store.Report{}, internalerr.ErrStoreUnavailable
	}
	r, ok := s.reports[id]
	if !ok {
		return store.Report{}, fmt.Errorf("report %s: %w", id, internalerr.ErrNotFound)
	}
	return copyReport(r), nil
}

// ListReports implements store.Store.
func (s *Store) ListReports(ctx context.Context, serverID string, limit int) ([]store.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = store.DefaultReportLimit
	}

	var out []store.Report
	for _, r := range s.reports {
		if serverID == "" || r.ServerID == serverID {
			out = append(out, copyReport(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].GeneratedAt.Equal(out[j].GeneratedAt) {
			return out[i].GeneratedAt.After(out[j].GeneratedAt)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyReport(r store.Report) store.Report {
	r.Payload = append([]byte(nil), r.Payload...)
	return r
}

var _ store.Store = (*Store)(nil)
