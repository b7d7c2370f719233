// Package chatpulse ties message storage, topic extraction and weekly
// reporting into one engine.
package chatpulse

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cognicore/chatpulse/pkg/chatpulse/analytics"
	"github.com/cognicore/chatpulse/pkg/chatpulse/ingest"
	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/maintenance"
	"github.com/cognicore/chatpulse/pkg/chatpulse/report"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store"
	"github.com/cognicore/chatpulse/pkg/chatpulse/topics"
)

// Engine is the main chatpulse facade
type Engine struct {
	store     store.Store
	extractor *topics.Extractor
	builder   *report.Builder
	format    report.Format
	loc       *time.Location
	logger    *log.Logger
	now       func() time.Time
}

// Options configures an Engine instance. Only Store is required.
type Options struct {
	Store     store.Store
	Extractor *topics.Extractor
	Builder   *report.Builder
	Format    report.Format
	Location  *time.Location // day buckets for activity queries; UTC when nil
	Logger    *log.Logger
	Now       func() time.Time
}

// New creates an Engine with the given dependencies
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, internalerr.InvalidConfig("engine: store is required")
	}

	e := &Engine{
		store:     opts.Store,
		extractor: opts.Extractor,
		builder:   opts.Builder,
		format:    opts.Format,
		loc:       opts.Location,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if e.extractor == nil {
		ex, err := topics.NewExtractor(nil, topics.DefaultOptions())
		if err != nil {
			return nil, err
		}
		e.extractor = ex
	}
	if e.builder == nil {
		e.builder = report.New(e.extractor, report.WithLocation(e.loc))
	}
	if e.format == "" {
		e.format = report.FormatJSON
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Close cleanly shuts down the Engine and its store
func (e *Engine) Close() error {
	return e.store.Close()
}

// RecordMessage validates and stores one message. A message whose
// ExternalID was already recorded fails with internalerr.ErrDuplicate.
func (e *Engine) RecordMessage(ctx context.Context, m ingest.Message) (int64, error) {
	if err := m.Validate(); err != nil {
		return 0, err
	}

	id, err := e.store.AddMessage(ctx, store.Message{
		ExternalID:    m.ExternalID,
		ServerID:      m.ServerID,
		ChannelID:     m.ChannelID,
		AuthorID:      m.AuthorID,
		Content:       m.Content,
		ReactionCount: m.ReactionCount,
		Timestamp:     m.Timestamp,
	})
	if err != nil {
		return 0, err
	}
	e.logger.Debug("recorded message", "server", m.ServerID, "id", id, "external_id", m.ExternalID)
	return id, nil
}

// Topics ranks the server's topics over messages since the given time.
func (e *Engine) Topics(ctx context.Context, serverID string, since time.Time, topN int) ([]topics.Topic, error) {
	msgs, err := e.messagesSince(ctx, serverID, since)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Content
	}
	top, err := e.extractor.Extract(texts, topN)
	if err != nil {
		return nil, fmt.Errorf("extract topics for %s: %w", serverID, err)
	}
	e.logger.Debug("extracted topics", "server", serverID, "messages", len(msgs), "topics", len(top))
	return top, nil
}

// Activity aggregates member and volume statistics since the given time.
func (e *Engine) Activity(ctx context.Context, serverID string, since time.Time) (analytics.Stats, error) {
	msgs, err := e.messagesSince(ctx, serverID, since)
	if err != nil {
		return analytics.Stats{}, err
	}

	an := analytics.NewAnalyzer(e.loc)
	for _, m := range msgs {
		an.Process(analytics.Message{AuthorID: m.AuthorID, ReactionCount: m.ReactionCount, Timestamp: m.Timestamp})
	}
	return an.Snapshot(), nil
}

// UpdateDailyStats recomputes and stores the stats row for the calendar day
// containing day in the engine's Location, the same buckets Activity and
// WeeklyReport use. The stored Date carries that day's year, month and day.
func (e *Engine) UpdateDailyStats(ctx context.Context, serverID string, day time.Time) (store.ServerStats, error) {
	if serverID == "" {
		return store.ServerStats{}, internalerr.InvalidInput("server id is empty")
	}

	start := analytics.StartOfDay(day, e.loc)
	msgs, err := e.store.MessagesBetween(ctx, serverID, start, start.AddDate(0, 0, 1))
	if err != nil {
		return store.ServerStats{}, fmt.Errorf("load messages for %s: %w", serverID, err)
	}

	authors := make(map[string]struct{})
	for _, m := range msgs {
		authors[m.AuthorID] = struct{}{}
	}
	stats := store.ServerStats{
		ServerID:      serverID,
		Date:          store.DayOf(start),
		TotalMessages: int64(len(msgs)),
		ActiveUsers:   int64(len(authors)),
	}
	if err := e.store.UpsertServerStats(ctx, stats); err != nil {
		return store.ServerStats{}, fmt.Errorf("save stats for %s: %w", serverID, err)
	}

	e.logger.Info("updated daily stats",
		"server", serverID,
		"date", start.Format(time.DateOnly),
		"messages", stats.TotalMessages,
		"active_users", stats.ActiveUsers)
	return stats, nil
}

// WeeklyReport builds the server's report for the week ending now, then
// encodes and persists it.
func (e *Engine) WeeklyReport(ctx context.Context, serverID string) (report.WeeklyReport, error) {
	now := e.now()
	msgs, err := e.messagesSince(ctx, serverID, e.builder.WeekStart(now))
	if err != nil {
		return report.WeeklyReport{}, err
	}

	r, err := e.builder.Build(serverID, msgs, now)
	if err != nil {
		return report.WeeklyReport{}, fmt.Errorf("build report for %s: %w", serverID, err)
	}

	rec, err := report.ToRecord(r, e.format)
	if err != nil {
		return report.WeeklyReport{}, fmt.Errorf("encode report %s: %w", r.ID, err)
	}
	if err := e.store.SaveReport(ctx, rec); err != nil {
		return report.WeeklyReport{}, fmt.Errorf("save report %s: %w", r.ID, err)
	}

	e.logger.Info("generated weekly report",
		"server", serverID,
		"id", r.ID,
		"messages", r.TotalMessages,
		"format", e.format,
		"bytes", len(rec.Payload))
	return r, nil
}

// Report loads and decodes a stored report.
func (e *Engine) Report(ctx context.Context, id string) (report.WeeklyReport, error) {
	rec, err := e.store.GetReport(ctx, id)
	if err != nil {
		return report.WeeklyReport{}, err
	}
	return report.FromRecord(rec)
}

// Reports lists the newest stored reports for a server.
func (e *Engine) Reports(ctx context.Context, serverID string, limit int) ([]store.Report, error) {
	return e.store.ListReports(ctx, serverID, limit)
}

// Messages returns the server's stored messages since the given time, oldest first.
func (e *Engine) Messages(ctx context.Context, serverID string, since time.Time) ([]store.Message, error) {
	return e.messagesSince(ctx, serverID, since)
}

// Prune deletes messages older than retention, rolling their days up into
// daily stats first when rollUp is set.
func (e *Engine) Prune(ctx context.Context, retention time.Duration, rollUp bool) (maintenance.Result, error) {
	p := &maintenance.Pruner{Store: e.store, Retention: retention, RollUp: rollUp, Location: e.loc}
	res, err := p.Prune(ctx, e.now())
	if err != nil {
		return res, err
	}
	e.logger.Debug("pruned store", "cutoff", res.Cutoff.Format(time.DateOnly), "deleted", res.Deleted, "stats_written", res.StatsWritten)
	return res, nil
}

// Servers lists every known server.
func (e *Engine) Servers(ctx context.Context) ([]string, error) {
	return e.store.Servers(ctx)
}

func (e *Engine) messagesSince(ctx context.Context, serverID string, since time.Time) ([]store.Message, error) {
	if serverID == "" {
		return nil, internalerr.InvalidInput("server id is empty")
	}
	msgs, err := e.store.MessagesSince(ctx, serverID, since)
	if err != nil {
		return nil, fmt.Errorf("load messages for %s: %w", serverID, err)
	}
	return msgs, nil
}
