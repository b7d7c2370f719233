// Package report assembles weekly activity reports for a server and
// encodes them for storage.
package report

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/chatpulse/pkg/chatpulse/analytics"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store"
	"github.com/cognicore/chatpulse/pkg/chatpulse/topics"
)

// Days is the number of calendar days a weekly report covers, ending with
// the day it is generated.
const Days = 7

// WeeklyReport summarizes one server's last seven days.
type WeeklyReport struct {
	ID                 string                  `json:"id" msgpack:"id"`
	ServerID           string                  `json:"server_id" msgpack:"server_id"`
	WeekStart          time.Time               `json:"week_start" msgpack:"week_start"`
	GeneratedAt        time.Time               `json:"generated_at" msgpack:"generated_at"`
	TotalMessages      int64                   `json:"total_messages" msgpack:"total_messages"`
	TopTopics          []topics.Topic          `json:"top_topics" msgpack:"top_topics"`
	ActiveMembers      []analytics.MemberCount `json:"active_members" msgpack:"active_members"`
	InfluentialMembers []analytics.MemberScore `json:"influential_members" msgpack:"influential_members"`
	DailyVolume        []analytics.DayVolume   `json:"daily_volume" msgpack:"daily_volume"`
}

// Builder constructs weekly reports. It is safe for concurrent use.
type Builder struct {
	extractor   *topics.Extractor
	topN        int
	memberLimit int
	loc         *time.Location

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Option configures a Builder.
type Option func(*Builder)

// WithTopN sets how many topics a report lists.
func WithTopN(n int) Option {
	return func(b *Builder) { b.topN = n }
}

// WithMemberLimit sets how many members each ranking lists.
func WithMemberLimit(n int) Option {
	return func(b *Builder) { b.memberLimit = n }
}

// WithLocation sets the zone used to bucket daily volume.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}

// New creates a report builder around extractor.
func New(extractor *topics.Extractor, opts ...Option) *Builder {
	b := &Builder{
		extractor:   extractor,
		topN:        topics.DefaultTopN,
		memberLimit: analytics.DefaultActiveMembers,
		loc:         time.UTC,
		entropy:     ulid.Monotonic(rand.Reader, 0),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NewID returns a fresh, monotonically increasing ULID.
func (b *Builder) NewID(at time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), b.entropy).String()
}

// WeekStart is midnight of the first day covered by a report generated at now.
func (b *Builder) WeekStart(now time.Time) time.Time {
	return analytics.StartOfDay(now, b.loc).AddDate(0, 0, -(Days - 1))
}

// Build creates a report from the server's messages since WeekStart(now).
// Messages are taken as given; the caller selects the window.
func (b *Builder) Build(serverID string, msgs []store.Message, now time.Time) (WeeklyReport, error) {
	texts := make([]string, len(msgs))
	an := analytics.NewAnalyzer(b.loc)
	for i, m := range msgs {
		texts[i] = m.Content
		an.Process(analytics.Message{
			AuthorID:      m.AuthorID,
			ReactionCount: m.ReactionCount,
			Timestamp:     m.Timestamp,
		})
	}

	top, err := b.extractor.Extract(texts, b.topN)
	if err != nil {
		return WeeklyReport{}, err
	}

	stats := an.Snapshot()
	weekStart := b.WeekStart(now)
	return WeeklyReport{
		ID:                 b.NewID(now),
		ServerID:           serverID,
		WeekStart:          weekStart,
		GeneratedAt:        now,
		TotalMessages:      stats.TotalMessages,
		TopTopics:          top,
		ActiveMembers:      stats.ActiveMembers(b.memberLimit),
		InfluentialMembers: stats.InfluentialMembers(b.memberLimit),
		DailyVolume:        stats.DailyVolume(weekStart, Days),
	}, nil
}
