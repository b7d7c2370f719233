// Package topics turns a window of chat messages into a ranked list of
// salient terms, letting frequent bigrams displace their constituent words.
package topics

import (
	"strings"
	"unicode/utf8"

	"github.com/cognicore/chatpulse/pkg/chatpulse/ingest"
	"github.com/cognicore/chatpulse/pkg/chatpulse/internalerr"
	"github.com/cognicore/chatpulse/pkg/chatpulse/stoplist"
)

// DefaultTopN is the number of topics returned when callers have no preference.
const DefaultTopN = 5

// Defaults for the noise filter.
const (
	DefaultMinLength     = 3
	DefaultCommandPrefix = "!"
)

// Adjacency selects which tokens count as neighbours for bigrams.
type Adjacency int

const (
	// AdjacencyFiltered pairs tokens that are adjacent once noise is removed.
	AdjacencyFiltered Adjacency = iota
	// AdjacencyRaw pairs surviving tokens only if nothing sat between them
	// in the original text.
	AdjacencyRaw
)

func (a Adjacency) String() string {
	switch a {
	case AdjacencyFiltered:
		return "filtered"
	case AdjacencyRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// ParseAdjacency parses "filtered" (or "") and "raw".
func ParseAdjacency(s string) (Adjacency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "filtered":
		return AdjacencyFiltered, nil
	case "raw":
		return AdjacencyRaw, nil
	default:
		return 0, internalerr.InvalidConfig("unknown bigram adjacency %q", s)
	}
}

// Options configures an Extractor.
type Options struct {
	MinLength     int       // tokens with rune length <= MinLength are dropped
	CommandPrefix string    // a single rune; empty disables command filtering
	Adjacency     Adjacency // bigram adjacency rule
}

// DefaultOptions returns the standard filter settings.
func DefaultOptions() Options {
	return Options{
		MinLength:     DefaultMinLength,
		CommandPrefix: DefaultCommandPrefix,
		Adjacency:     AdjacencyFiltered,
	}
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.MinLength < 0 {
		return internalerr.InvalidConfig("min length %d is negative", o.MinLength)
	}
	if o.CommandPrefix != "" && utf8.RuneCountInString(o.CommandPrefix) != 1 {
		return internalerr.InvalidConfig("command prefix %q must be a single character", o.CommandPrefix)
	}
	if o.Adjacency != AdjacencyFiltered && o.Adjacency != AdjacencyRaw {
		return internalerr.InvalidConfig("unknown bigram adjacency %d", int(o.Adjacency))
	}
	return nil
}

// Extractor computes ranked topics from message texts. It holds no mutable
// state and is safe for concurrent use.
type Extractor struct {
	pipeline  *ingest.Pipeline
	adjacency Adjacency
}

// NewExtractor creates an extractor. The stoplist is copied, so later changes
// to stops do not affect the extractor. A nil stoplist uses the English list.
func NewExtractor(stops *stoplist.Manager, opts Options) (*Extractor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if stops == nil {
		stops = stoplist.English()
	} else {
		stops = stops.Clone()
	}

	return &Extractor{
		pipeline: ingest.NewPipeline(
			ingest.NewTokenizer(opts.CommandPrefix),
			ingest.NewFilter(stops, opts.MinLength, opts.CommandPrefix),
		),
		adjacency: opts.Adjacency,
	}, nil
}

// Counts builds the raw unigram and bigram tables for the messages.
// A nil slice yields empty tables.
func (e *Extractor) Counts(messages []string) (*Counts, error) {
	if err := validateMessages(messages); err != nil {
		return nil, err
	}

	counts := NewCounts(e.adjacency)
	for _, msg := range messages {
		counts.Add(e.pipeline.Process(msg))
	}
	return counts, nil
}

// Extract returns up to topN topics ranked by adjusted frequency.
// An empty window or topN <= 0 yields an empty list. A nil messages slice is
// an empty window, not an error; only messages that are not valid UTF-8 fail
// with internalerr.ErrInvalidInput.
func (e *Extractor) Extract(messages []string, topN int) ([]Topic, error) {
	if topN <= 0 {
		if err := validateMessages(messages); err != nil {
			return nil, err
		}
		return []Topic{}, nil
	}

	counts, err := e.Counts(messages)
	if err != nil {
		return nil, err
	}
	return Top(Merge(counts), topN), nil
}

func validateMessages(messages []string) error {
	for i, msg := range messages {
		if !utf8.ValidString(msg) {
			return internalerr.InvalidInput("message %d is not valid UTF-8", i)
		}
	}
	return nil
}
