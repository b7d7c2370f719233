package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Tokenizer splits message text into normalized word tokens.
type Tokenizer struct {
	prefix    rune
	hasPrefix bool
}

// NewTokenizer creates a tokenizer. A whitespace-delimited word starting with
// commandPrefix, possibly behind opening punctuation such as "(" or a quote,
// is kept whole (prefix included) so the filter can recognise bot commands.
// An empty commandPrefix disables that behaviour.
func NewTokenizer(commandPrefix string) *Tokenizer {
	t := &Tokenizer{}
	if commandPrefix != "" {
		t.prefix, _ = utf8.DecodeRuneInString(commandPrefix)
		t.hasPrefix = true
	}
	return t
}

// Tokenize lowercases text and splits it into runs of letters and digits,
// together with any combining marks that follow a letter or digit.
// Punctuation, symbols and emoji never appear in the output. Order is preserved.
func (t *Tokenizer) Tokenize(text string) []string {
	text = strings.ToLower(norm.NFC.String(text))

	var tokens []string
	for _, word := range strings.Fields(text) {
		if cmd, ok := t.command(word); ok {
			tokens = append(tokens, cmd)
			continue
		}
		tokens = splitAlnum(word, tokens)
	}
	return tokens
}

// command extracts the command word from word, dropping punctuation around it.
// It reports false unless the prefix is followed by at least one letter or digit.
func (t *Tokenizer) command(word string) (string, bool) {
	if !t.hasPrefix {
		return "", false
	}
	word = strings.TrimLeftFunc(word, func(r rune) bool {
		return r != t.prefix && (unicode.IsPunct(r) || unicode.IsSymbol(r))
	})
	r, size := utf8.DecodeRuneInString(word)
	if r != t.prefix || strings.IndexFunc(word[size:], isAlnum) < 0 {
		return "", false
	}
	return strings.TrimRightFunc(word, func(r rune) bool {
		return !isAlnum(r) && !unicode.IsMark(r)
	}), true
}

func splitAlnum(word string, tokens []string) []string {
	var current strings.Builder
	for _, r := range word {
		// Combining marks (Devanagari vowel signs, viramas) continue a word.
		if isAlnum(r) || (current.Len() > 0 && unicode.IsMark(r)) {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	// Don't forget the last token
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
