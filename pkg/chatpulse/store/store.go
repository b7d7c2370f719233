// Package store defines persistence for chat messages, daily server
// statistics and generated reports.
package store

import (
	"context"
	"time"
)

// Store is the main interface for persisting and querying chatpulse data.
// Implementations must be safe for concurrent use.
type Store interface {
	Close() error

	// Messages
	AddMessage(ctx context.Context, m Message) (int64, error)
	MessagesSince(ctx context.Context, serverID string, since time.Time) ([]Message, error)
	MessagesBetween(ctx context.Context, serverID string, from, to time.Time) ([]Message, error)
	DeleteMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Servers(ctx context.Context) ([]string, error)

	// Daily stats
	UpsertServerStats(ctx context.Context, s ServerStats) error
	GetServerStats(ctx context.Context, serverID string, from, to time.Time) ([]ServerStats, error)

	// Reports
	SaveReport(ctx context.Context, r Report) error
	GetReport(ctx context.Context, id string) (Report, error)
	ListReports(ctx context.Context, serverID string, limit int) ([]Report, error)
}

// Message is a stored chat message. ExternalID is the id assigned by the
// chat platform and is unique across the store; ID is assigned on insert.
type Message struct {
	ID            int64
	ExternalID    string
	ServerID      string
	ChannelID     string
	AuthorID      string
	Content       string
	ReactionCount int
	Timestamp     time.Time
}

// ServerStats is one day of activity for a server. Date is midnight UTC.
type ServerStats struct {
	ServerID      string
	Date          time.Time
	TotalMessages int64
	ActiveUsers   int64
}

// Report is an encoded weekly report.
type Report struct {
	ID          string
	ServerID    string
	WeekStart   time.Time
	GeneratedAt time.Time
	Format      string // "json" or "msgpack"
	Payload     []byte
}

// DefaultReportLimit bounds ListReports when the caller passes limit <= 0.
const DefaultReportLimit = 20

// DayOf truncates t to midnight UTC, the key ServerStats rows use.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
