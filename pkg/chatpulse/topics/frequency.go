package topics

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"

	"github.com/cognicore/chatpulse/pkg/chatpulse/stoplist"
)

// FrequencyOptions configures Frequency.
type FrequencyOptions struct {
	MinLength     int
	CommandPrefix string
	Stem          bool // reduce words with the Snowball English stemmer
}

// DefaultFrequencyOptions mirrors the extractor's filter with stemming on.
func DefaultFrequencyOptions() FrequencyOptions {
	return FrequencyOptions{
		MinLength:     DefaultMinLength,
		CommandPrefix: DefaultCommandPrefix,
		Stem:          true,
	}
}

// Frequency ranks plain word frequencies without bigram merging. Words are
// whitespace-split, lowercased and trimmed of surrounding punctuation.
func Frequency(messages []string, topN int, stops *stoplist.Manager, opts FrequencyOptions) ([]Topic, error) {
	if err := validateMessages(messages); err != nil {
		return nil, err
	}
	if topN <= 0 {
		return []Topic{}, nil
	}
	if stops == nil {
		stops = stoplist.English()
	}

	words := newCounter[string]()
	for _, msg := range messages {
		for _, w := range strings.Fields(strings.ToLower(msg)) {
			if opts.CommandPrefix != "" && strings.HasPrefix(w, opts.CommandPrefix) {
				continue
			}
			w = strings.TrimFunc(w, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsNumber(r)
			})
			if utf8.RuneCountInString(w) <= opts.MinLength || stops.IsStop(w) {
				continue
			}
			if opts.Stem {
				w = english.Stem(w, true)
			}
			words.inc(w)
		}
	}

	ranked := make([]Topic, len(words.keys))
	for i, w := range words.keys {
		ranked[i] = Topic{Term: w, Count: words.counts[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return Top(ranked, topN), nil
}
