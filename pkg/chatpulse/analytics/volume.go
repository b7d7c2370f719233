package analytics

import (
	"time"
)

// DayVolume is one day of activity compared with the day before.
type DayVolume struct {
	Day         time.Time `json:"day" msgpack:"day"`
	Messages    int64     `json:"messages" msgpack:"messages"`
	ActiveUsers int64     `json:"active_users" msgpack:"active_users"`
	Delta       int64     `json:"delta" msgpack:"delta"`
	ChangePct   float64   `json:"change_pct" msgpack:"change_pct"` // 0 when the previous day had no messages
}

// StartOfDay truncates t to midnight in loc (UTC when nil).
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DailyVolume returns one entry per calendar day starting at from's day.
// The first entry is compared against the day before from.
func (s Stats) DailyVolume(from time.Time, days int) []DayVolume {
	if days <= 0 {
		return []DayVolume{}
	}
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}

	day := StartOfDay(from, loc)
	prev := s.DayMessages[day.AddDate(0, 0, -1).Format(time.DateOnly)]

	out := make([]DayVolume, 0, days)
	for i := 0; i < days; i++ {
		key := day.Format(time.DateOnly)
		n := s.DayMessages[key]
		v := DayVolume{
			Day:         day,
			Messages:    n,
			ActiveUsers: s.DayAuthors[key],
			Delta:       n - prev,
		}
		if prev > 0 {
			v.ChangePct = 100 * float64(n-prev) / float64(prev)
		}
		out = append(out, v)

		prev = n
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// DailyVolume is a convenience wrapper over a fresh Analyzer.
func DailyVolume(msgs []Message, from time.Time, days int, loc *time.Location) []DayVolume {
	return analyze(msgs, loc).DailyVolume(from, days)
}
