// Package stopwords suggests server-specific noise words ("lol", "yeah")
// from message statistics.
package stopwords

import (
	"context"
	"math"
	"sort"

	"github.com/cognicore/chatpulse/pkg/chatpulse/ingest"
	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/stoplist"
	"github.com/cognicore/chatpulse/pkg/chatpulse/store"
)

// Stats describes how a token is spread over a message window.
type Stats struct {
	Token          string
	DF             int64   // messages containing the token
	DFPercent      float64 // DF as a share of all messages, 0-100
	ChannelEntropy float64 // normalized spread over channels, 0-1; 0 with one channel
	Channels       int
}

// Thresholds defines criteria for stopword identification
type Thresholds struct {
	DFPercent      float64 // minimum share of messages
	ChannelEntropy float64 // minimum spread; ignored when only one channel is seen
	MinMessages    int     // windows smaller than this produce no suggestions
}

// DefaultThresholds returns the thresholds used when none are set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DFPercent:      20,
		ChannelEntropy: 0.7,
		MinMessages:    50,
	}
}

// Candidate is a suggested stopword.
type Candidate struct {
	Token string
	Stats Stats
	Score float64 // confidence, 0-1
}

// StatsProvider exposes the aggregated metrics required for stopword tuning.
type StatsProvider interface {
	StopwordStats(ctx context.Context) ([]Stats, int, error)
}

// Reviewer optionally performs an extra approval step.
type Reviewer interface {
	Approve(ctx context.Context, cand Candidate) (bool, error)
}

// AutoTuner produces ranked stopword suggestions from message statistics.
type AutoTuner struct {
	Provider   StatsProvider
	Manager    *stoplist.Manager
	Thresholds Thresholds
	Reviewer   Reviewer // optional
}

// Run collects stats, produces candidates, optionally routes them through the reviewer,
// and returns approved suggestions ordered by score.
func (t *AutoTuner) Run(ctx context.Context) ([]Candidate, error) {
	if t.Provider == nil {
		return nil, internalerr.InvalidConfig("stopwords autotune: nil stats provider")
	}
	if t.Manager == nil {
		return nil, internalerr.InvalidConfig("stopwords autotune: nil manager")
	}

	stats, messages, err := t.Provider.StopwordStats(ctx)
	if err != nil {
		return nil, err
	}

	th := t.thresholdsOrDefault()
	if messages < th.MinMessages {
		return nil, nil
	}
	candidates := Suggest(t.Manager, stats, th)
	if len(candidates) == 0 || t.Reviewer == nil {
		return candidates, nil
	}

	var approved []Candidate
	for _, cand := range candidates {
		ok, err := t.Reviewer.Approve(ctx, cand)
		if err != nil {
			return nil, err
		}
		if ok {
			approved = append(approved, cand)
		}
	}
	return approved, nil
}

func (t *AutoTuner) thresholdsOrDefault() Thresholds {
	if t.Thresholds == (Thresholds{}) {
		return DefaultThresholds()
	}
	return t.Thresholds
}

// Suggest filters stats down to tokens that look like noise and are not
// already stopwords.
func Suggest(m *stoplist.Manager, stats []Stats, th Thresholds) []Candidate {
	var candidates []Candidate
	for _, s := range stats {
		if m.IsStop(s.Token) {
			continue
		}
		if s.DFPercent < th.DFPercent {
			continue
		}
		spread := 1.0
		if s.Channels > 1 {
			if s.ChannelEntropy < th.ChannelEntropy {
				continue
			}
			spread = s.ChannelEntropy
		}
		candidates = append(candidates, Candidate{
			Token: s.Token,
			Stats: s,
			Score: (s.DFPercent/100 + spread) / 2,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Token < candidates[j].Token
	})
	return candidates
}

// MessageStats computes Stats from stored messages. Tokens are produced by
// Pipeline, so its filter decides what counts.
type MessageStats struct {
	Pipeline *ingest.Pipeline
	Messages []store.Message
}

// StopwordStats implements StatsProvider.
func (p MessageStats) StopwordStats(ctx context.Context) ([]Stats, int, error) {
	if p.Pipeline == nil {
		return nil, 0, internalerr.InvalidConfig("stopwords stats: nil pipeline")
	}

	type tokenStat struct {
		df       int64
		channels map[string]int64
	}
	byToken := make(map[string]*tokenStat)
	channels := make(map[string]struct{})

	for _, m := range p.Messages {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		channels[m.ChannelID] = struct{}{}

		seen := make(map[string]struct{})
		for _, tok := range p.Pipeline.Process(m.Content).Kept {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}

			ts := byToken[tok]
			if ts == nil {
				ts = &tokenStat{channels: make(map[string]int64)}
				byToken[tok] = ts
			}
			ts.df++
			ts.channels[m.ChannelID]++
		}
	}

	total := len(p.Messages)
	out := make([]Stats, 0, len(byToken))
	for tok, ts := range byToken {
		s := Stats{
			Token:    tok,
			DF:       ts.df,
			Channels: len(channels),
		}
		if total > 0 {
			s.DFPercent = 100 * float64(ts.df) / float64(total)
		}
		s.ChannelEntropy = normalizedEntropy(ts.channels, len(channels))
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Token < out[j].Token })
	return out, total, nil
}

// normalizedEntropy is the Shannon entropy of counts divided by log(n).
func normalizedEntropy(counts map[string]int64, n int) float64 {
	if n < 2 {
		return 0
	}
	var sum int64
	for _, c := range counts {
		sum += c
	}
	if sum == 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		p := float64(c) / float64(sum)
		h -= p * math.Log(p)
	}
	return h / math.Log(float64(n))
}
