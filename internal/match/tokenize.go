// Package match finds spoken class names in transcribed text.
package match

import (
	"fmt"
	"strings"
	"unicode"
)

// Tokenizer splits a piece of text into words.
type Tokenizer interface {
	Tokenize(text string) []string
}

// TokenizerFunc adapts a plain function to the Tokenizer interface.
type TokenizerFunc func(string) []string

// Tokenize calls f(text).
func (f TokenizerFunc) Tokenize(text string) []string { return f(text) }

// Whitespace splits text on runs of Unicode whitespace only, so punctuation
// stays attached to the neighbouring word ("cup." is one token).
var Whitespace Tokenizer = TokenizerFunc(strings.Fields)

// Word splits text into linguistic word tokens: punctuation becomes its own
// token and English contractions are split off ("don't" -> "do", "n't").
var Word Tokenizer = TokenizerFunc(wordTokenize)

// NewTokenizer returns the tokenizer registered under name.
func NewTokenizer(name string) (Tokenizer, error) {
	switch name {
	case "word", "":
		return Word, nil
	case "whitespace":
		return Whitespace, nil
	default:
		return nil, fmt.Errorf("match: unknown tokenizer %q (supported: word, whitespace)", name)
	}
}

// contractions are split off the end of a word, longest first.
var contractions = []string{"n't", "'ll", "'re", "'ve", "'s", "'m", "'d"}

func wordTokenize(text string) []string {
	var tokens []string
	for _, field := range strings.Fields(text) {
		tokens = append(tokens, splitField(field)...)
	}
	return tokens
}

// splitField breaks one whitespace-delimited field into leading punctuation,
// the word body, a trailing contraction, and trailing punctuation.
func splitField(field string) []string {
	runes := []rune(field)

	start := 0
	var lead []string
	for start < len(runes) && isSplitPunct(runes[start]) {
		lead = append(lead, string(runes[start]))
		start++
	}

	end := len(runes)
	var trail []string
	for end > start && isSplitPunct(runes[end-1]) {
		trail = append([]string{string(runes[end-1])}, trail...)
		end--
	}

	tokens := lead
	if body := string(runes[start:end]); body != "" {
		tokens = append(tokens, splitContraction(body)...)
	}
	return append(tokens, trail...)
}

func splitContraction(word string) []string {
	normalized := strings.ReplaceAll(word, "’", "'")
	lower := strings.ToLower(normalized)
	for _, c := range contractions {
		if len(lower) > len(c) && strings.HasSuffix(lower, c) {
			cut := len(normalized) - len(c)
			return []string{normalized[:cut], normalized[cut:]}
		}
	}
	return []string{word}
}

// isSplitPunct reports whether r is separated from words. Hyphens and
// apostrophes inside a word are kept so "hair-drier" stays whole.
func isSplitPunct(r rune) bool {
	if r == '-' || r == '\'' || r == '’' {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
