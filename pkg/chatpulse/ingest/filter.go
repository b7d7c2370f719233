package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/cognicore/chatpulse/pkg/chatpulse/stoplist"
)

// Filter drops tokens that carry no topical signal: stopwords, short tokens
// and bot commands.
type Filter struct {
	stops         *stoplist.Manager
	minLength     int
	commandPrefix string
}

// NewFilter creates a filter. Tokens whose rune length is <= minLength are
// dropped. A nil stoplist filters no words.
func NewFilter(stops *stoplist.Manager, minLength int, commandPrefix string) *Filter {
	if stops == nil {
		stops = stoplist.NewManager(nil)
	}
	return &Filter{
		stops:         stops,
		minLength:     minLength,
		commandPrefix: commandPrefix,
	}
}

// Keep reports whether tok survives filtering.
func (f *Filter) Keep(tok string) bool {
	if tok == "" {
		return false
	}
	if f.commandPrefix != "" && strings.HasPrefix(tok, f.commandPrefix) {
		return false
	}
	if utf8.RuneCountInString(tok) <= f.minLength {
		return false
	}
	return !f.stops.IsStop(tok)
}

// Apply returns the surviving tokens in their original order.
func (f *Filter) Apply(tokens []string) []string {
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if f.Keep(tok) {
			kept = append(kept, tok)
		}
	}
	return kept
}
