package topics

import "sort"

// Topic is a ranked term: a single token or a space-joined bigram.
type Topic struct {
	Term   string `json:"term" msgpack:"term"`
	Count  int    `json:"count" msgpack:"count"`
	Phrase bool   `json:"phrase,omitempty" msgpack:"phrase,omitempty"`
}

type entry struct {
	term   string
	phrase bool
	count  int
}

// Merge combines the tables so that each bigram absorbs its frequency from
// its constituent tokens, then ranks the positive entries.
//
// Every bigram (a, b) with frequency f enters at f and debits f from a and
// from b. A token that takes part in several bigrams is debited once per
// bigram and can go negative; such entries are dropped along with zeros.
// Ties keep table order: tokens first, then bigrams, each by first occurrence.
func Merge(c *Counts) []Topic {
	combined := make([]entry, 0, len(c.unigrams.keys)+len(c.bigrams.keys))
	tokenAt := make(map[string]int, len(c.unigrams.keys))
	for i, tok := range c.unigrams.keys {
		tokenAt[tok] = len(combined)
		combined = append(combined, entry{term: tok, count: c.unigrams.counts[i]})
	}

	for i, bg := range c.bigrams.keys {
		f := c.bigrams.counts[i]
		combined = append(combined, entry{term: bg.String(), phrase: true, count: f})
		if j, ok := tokenAt[bg.A]; ok {
			combined[j].count -= f
		}
		if j, ok := tokenAt[bg.B]; ok {
			combined[j].count -= f
		}
	}

	ranked := make([]Topic, 0, len(combined))
	for _, e := range combined {
		if e.count <= 0 {
			continue
		}
		ranked = append(ranked, Topic{Term: e.term, Count: e.count, Phrase: e.phrase})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// Top truncates a ranked list to n entries. n <= 0 yields an empty list.
func Top(ranked []Topic, n int) []Topic {
	if n <= 0 {
		return []Topic{}
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// ToMap converts a ranked list into a term → frequency mapping.
func ToMap(ranked []Topic) map[string]int {
	out := make(map[string]int, len(ranked))
	for _, t := range ranked {
		out[t.Term] = t.Count
	}
	return out
}
