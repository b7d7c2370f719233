package topics

import "github.com/cognicore/chatpulse/pkg/chatpulse/ingest"

// Bigram is an ordered pair of adjacent surviving tokens within one message.
type Bigram struct {
	A, B string
}

// String renders the bigram as its two tokens joined by a single space.
func (b Bigram) String() string {
	return b.A + " " + b.B
}

// counter is a frequency table that remembers first-insertion order.
type counter[K comparable] struct {
	keys   []K
	index  map[K]int
	counts []int
}

func newCounter[K comparable]() counter[K] {
	return counter[K]{index: make(map[K]int)}
}

func (c *counter[K]) inc(k K) {
	if i, ok := c.index[k]; ok {
		c.counts[i]++
		return
	}
	c.index[k] = len(c.keys)
	c.keys = append(c.keys, k)
	c.counts = append(c.counts, 1)
}

func (c *counter[K]) get(k K) int {
	if i, ok := c.index[k]; ok {
		return c.counts[i]
	}
	return 0
}

// Counts holds the unigram and bigram frequency tables for a message window.
// Iteration order is first-encountered order.
type Counts struct {
	messages  int
	unigrams  counter[string]
	bigrams   counter[Bigram]
	adjacency Adjacency
}

// NewCounts creates empty tables using the given bigram adjacency rule.
func NewCounts(adjacency Adjacency) *Counts {
	return &Counts{
		unigrams:  newCounter[string](),
		bigrams:   newCounter[Bigram](),
		adjacency: adjacency,
	}
}

// Add accumulates one processed message. Bigrams never span messages.
func (c *Counts) Add(p ingest.Processed) {
	c.messages++

	for _, tok := range p.Kept {
		c.unigrams.inc(tok)
	}

	for i := 0; i+1 < len(p.Kept); i++ {
		if c.adjacency == AdjacencyRaw && p.RawIndex[i+1] != p.RawIndex[i]+1 {
			continue
		}
		c.bigrams.inc(Bigram{A: p.Kept[i], B: p.Kept[i+1]})
	}
}

// Messages returns the number of messages added
func (c *Counts) Messages() int {
	return c.messages
}

// Unigram returns the raw frequency of a token
func (c *Counts) Unigram(tok string) int {
	return c.unigrams.get(tok)
}

// Bigram returns the raw frequency of the ordered pair (a, b)
func (c *Counts) Bigram(a, b string) int {
	return c.bigrams.get(Bigram{A: a, B: b})
}

// Tokens returns the distinct tokens in first-encountered order.
func (c *Counts) Tokens() []string {
	out := make([]string, len(c.unigrams.keys))
	copy(out, c.unigrams.keys)
	return out
}

// Bigrams returns the distinct bigrams in first-encountered order.
func (c *Counts) Bigrams() []Bigram {
	out := make([]Bigram, len(c.bigrams.keys))
	copy(out, c.bigrams.keys)
	return out
}

// UniqueTokens returns the number of distinct tokens
func (c *Counts) UniqueTokens() int {
	return len(c.unigrams.keys)
}

// UniqueBigrams returns the number of distinct bigrams
func (c *Counts) UniqueBigrams() int {
	return len(c.bigrams.keys)
}
