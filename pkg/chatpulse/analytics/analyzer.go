// Package analytics aggregates message activity: who posts most, whose
// messages draw reactions, and how daily volume moves.
package analytics

import (
	"sort"
	"time"
)

// Default list sizes for member rankings.
const (
	DefaultActiveMembers      = 10
	DefaultInfluentialMembers = 10
)

// reactionWeight is how much one reaction counts relative to the message itself.
const reactionWeight = 3

// Message is the slice of a stored message the analyzer needs.
type Message struct {
	AuthorID      string
	ReactionCount int
	Timestamp     time.Time
}

// Analyzer aggregates per-author and per-day message stats.
type Analyzer struct {
	loc           *time.Location
	totalMessages int64
	authors       []string       // first-seen order
	authorIdx     map[string]int // author → index into authors
	messages      []int64        // per author
	influence     []int64        // per author
	days          map[string]*dayStat
}

type dayStat struct {
	messages int64
	authors  map[string]struct{}
}

// NewAnalyzer creates an empty analyzer that buckets days in loc (UTC when nil).
func NewAnalyzer(loc *time.Location) *Analyzer {
	if loc == nil {
		loc = time.UTC
	}
	return &Analyzer{
		loc:       loc,
		authorIdx: make(map[string]int),
		days:      make(map[string]*dayStat),
	}
}

// Process consumes one message.
func (a *Analyzer) Process(m Message) {
	a.totalMessages++

	i, ok := a.authorIdx[m.AuthorID]
	if !ok {
		i = len(a.authors)
		a.authorIdx[m.AuthorID] = i
		a.authors = append(a.authors, m.AuthorID)
		a.messages = append(a.messages, 0)
		a.influence = append(a.influence, 0)
	}
	a.messages[i]++
	reactions := m.ReactionCount
	if reactions < 0 {
		reactions = 0
	}
	a.influence[i] += int64(reactionWeight*reactions + 1)

	if m.Timestamp.IsZero() {
		return
	}
	key := dayKey(m.Timestamp, a.loc)
	d := a.days[key]
	if d == nil {
		d = &dayStat{authors: make(map[string]struct{})}
		a.days[key] = d
	}
	d.messages++
	d.authors[m.AuthorID] = struct{}{}
}

// Stats exposes the aggregated counts.
type Stats struct {
	TotalMessages int64
	Authors       []string         // first-seen order
	Messages      map[string]int64 // author → message count
	Influence     map[string]int64 // author → Σ(3·reactions + 1)
	DayMessages   map[string]int64 // YYYY-MM-DD → messages
	DayAuthors    map[string]int64 // YYYY-MM-DD → distinct authors
	Location      *time.Location
}

// Snapshot returns a copy of the accumulated statistics.
func (a *Analyzer) Snapshot() Stats {
	s := Stats{
		TotalMessages: a.totalMessages,
		Authors:       make([]string, len(a.authors)),
		Messages:      make(map[string]int64, len(a.authors)),
		Influence:     make(map[string]int64, len(a.authors)),
		DayMessages:   make(map[string]int64, len(a.days)),
		DayAuthors:    make(map[string]int64, len(a.days)),
		Location:      a.loc,
	}
	copy(s.Authors, a.authors)
	for i, author := range a.authors {
		s.Messages[author] = a.messages[i]
		s.Influence[author] = a.influence[i]
	}
	for key, d := range a.days {
		s.DayMessages[key] = d.messages
		s.DayAuthors[key] = int64(len(d.authors))
	}
	return s
}

// MemberCount is an author with their message count.
type MemberCount struct {
	AuthorID string `json:"author_id" msgpack:"author_id"`
	Messages int64  `json:"messages" msgpack:"messages"`
}

// MemberScore is an author with their influence score.
type MemberScore struct {
	AuthorID string `json:"author_id" msgpack:"author_id"`
	Score    int64  `json:"score" msgpack:"score"`
}

// ActiveMembers ranks authors by message count. Ties keep first-seen order.
func (s Stats) ActiveMembers(limit int) []MemberCount {
	if limit <= 0 {
		return []MemberCount{}
	}
	out := make([]MemberCount, 0, len(s.Authors))
	for _, author := range s.Authors {
		out = append(out, MemberCount{AuthorID: author, Messages: s.Messages[author]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Messages > out[j].Messages
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// InfluentialMembers ranks authors by Σ(3·reactions + 1) over their messages.
// Ties keep first-seen order.
func (s Stats) InfluentialMembers(limit int) []MemberScore {
	if limit <= 0 {
		return []MemberScore{}
	}
	out := make([]MemberScore, 0, len(s.Authors))
	for _, author := range s.Authors {
		out = append(out, MemberScore{AuthorID: author, Score: s.Influence[author]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ActiveMembers is a convenience wrapper over a fresh Analyzer.
func ActiveMembers(msgs []Message, limit int) []MemberCount {
	return analyze(msgs, nil).ActiveMembers(limit)
}

// InfluentialMembers is a convenience wrapper over a fresh Analyzer.
func InfluentialMembers(msgs []Message, limit int) []MemberScore {
	return analyze(msgs, nil).InfluentialMembers(limit)
}

func analyze(msgs []Message, loc *time.Location) Stats {
	a := NewAnalyzer(loc)
	for _, m := range msgs {
		a.Process(m)
	}
	return a.Snapshot()
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}
