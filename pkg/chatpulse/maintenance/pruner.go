// Package maintenance holds retention jobs for the message store.
package maintenance

import (
	"context"
	"fmt"
	"time"

	"github.com/cognicore/chatpulse/pkg/chatpulse/analytics"
	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store"
)

// epoch is the lower bound used when scanning messages about to be pruned.
var epoch = time.Unix(0, 0).UTC()

// Pruner deletes messages older than Retention. With RollUp set, the daily
// stats of every pruned day are written first so volume history survives.
// Days are calendar days in Location, UTC when nil.
type Pruner struct {
	Store     store.Store
	Retention time.Duration
	RollUp    bool
	Location  *time.Location
}

// Result summarizes a prune run.
type Result struct {
	Cutoff       time.Time
	Deleted      int64
	StatsWritten int
}

// Cutoff is midnight, in Location, of the oldest day that is kept.
func (p *Pruner) Cutoff(now time.Time) time.Time {
	return analytics.StartOfDay(now.Add(-p.Retention), p.Location)
}

// Prune removes everything before Cutoff(now).
func (p *Pruner) Prune(ctx context.Context, now time.Time) (Result, error) {
	var res Result
	if p.Store == nil {
		return res, internalerr.InvalidConfig("pruner: store is nil")
	}
	if p.Retention <= 0 {
		return res, internalerr.InvalidConfig("pruner: retention must be positive, got %s", p.Retention)
	}
	res.Cutoff = p.Cutoff(now)

	if p.RollUp {
		n, err := p.rollUp(ctx, res.Cutoff)
		res.StatsWritten = n
		if err != nil {
			return res, err
		}
	}

	deleted, err := p.Store.DeleteMessagesBefore(ctx, res.Cutoff)
	if err != nil {
		return res, fmt.Errorf("delete messages: %w", err)
	}
	res.Deleted = deleted
	return res, nil
}

func (p *Pruner) rollUp(ctx context.Context, cutoff time.Time) (int, error) {
	servers, err := p.Store.Servers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list servers: %w", err)
	}

	written := 0
	for _, server := range servers {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		msgs, err := p.Store.MessagesBetween(ctx, server, epoch, cutoff)
		if err != nil {
			return written, fmt.Errorf("load %s messages: %w", server, err)
		}
		if len(msgs) == 0 {
			continue
		}

		an := analytics.NewAnalyzer(p.Location)
		for _, m := range msgs {
			an.Process(analytics.Message{AuthorID: m.AuthorID, ReactionCount: m.ReactionCount, Timestamp: m.Timestamp})
		}
		stats := an.Snapshot()
		for key, total := range stats.DayMessages {
			day, err := time.Parse(time.DateOnly, key)
			if err != nil {
				return written, err
			}
			err = p.Store.UpsertServerStats(ctx, store.ServerStats{
				ServerID:      server,
				Date:          day,
				TotalMessages: total,
				ActiveUsers:   stats.DayAuthors[key],
			})
			if err != nil {
				return written, fmt.Errorf("write %s stats: %w", server, err)
			}
			written++
		}
	}
	return written, nil
}
