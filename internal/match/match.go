package match

import (
	"fmt"
	"strings"

	"github.com/chaz8081/saywatch/internal/config"
)

// Vocabulary resolves a word to a class index.
type Vocabulary interface {
	Lookup(name string) (int, bool)
}

// Strategy decides which match wins when several words are class names.
type Strategy string

const (
	// First stops at the first class name in document order.
	First Strategy = "first"
	// Last lets every word overwrite the result: Found reports whether the
	// final word examined is a class name and Index keeps the most recent hit.
	Last Strategy = "last"
)

// Result is the class match state. Index is meaningful only when Found is
// true, except under Last where it keeps the most recent hit.
type Result struct {
	Index int
	Found bool
	Word  string
}

// Matcher finds class names in transcribed segments.
type Matcher struct {
	tokenizer     Tokenizer
	strategy      Strategy
	caseSensitive bool
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithTokenizer sets the tokenizer. The default is Word.
func WithTokenizer(t Tokenizer) Option {
	return func(m *Matcher) { m.tokenizer = t }
}

// WithStrategy sets the strategy. The default is First.
func WithStrategy(s Strategy) Option {
	return func(m *Matcher) { m.strategy = s }
}

// WithCaseFolding makes matching case-insensitive. Class names are expected
// in lower case, as YOLO models ship them.
func WithCaseFolding() Option {
	return func(m *Matcher) { m.caseSensitive = false }
}

// New creates a Matcher. Without options it is case-sensitive, uses the Word
// tokenizer and the First strategy.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		tokenizer:     Word,
		strategy:      First,
		caseSensitive: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ParseStrategy validates a strategy name.
func ParseStrategy(name string) (Strategy, error) {
	switch Strategy(name) {
	case First, Last:
		return Strategy(name), nil
	case "":
		return First, nil
	default:
		return "", fmt.Errorf("match: unknown strategy %q (supported: first, last)", name)
	}
}

// FromConfig builds a Matcher from the match section of the config.
func FromConfig(cfg *config.MatchConfig) (*Matcher, error) {
	tok, err := NewTokenizer(cfg.Tokenizer)
	if err != nil {
		return nil, err
	}
	strategy, err := ParseStrategy(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithTokenizer(tok), WithStrategy(strategy)}
	if !cfg.CaseSensitive {
		opts = append(opts, WithCaseFolding())
	}
	return New(opts...), nil
}

// Match scans the segment texts in order and reports the class named in them.
func (m *Matcher) Match(texts []string, vocab Vocabulary) Result {
	var res Result
	for _, text := range texts {
		for _, word := range m.tokenizer.Tokenize(text) {
			if !m.caseSensitive {
				word = strings.ToLower(word)
			}
			idx, ok := vocab.Lookup(word)
			if ok {
				res = Result{Index: idx, Found: true, Word: word}
				if m.strategy == First {
					return res
				}
				continue
			}
			res.Found = false
		}
	}
	return res
}

// Words returns every token of texts that names a class, in document order.
func (m *Matcher) Words(texts []string, vocab Vocabulary) []Result {
	var hits []Result
	for _, text := range texts {
		for _, word := range m.tokenizer.Tokenize(text) {
			if !m.caseSensitive {
				word = strings.ToLower(word)
			}
			if idx, ok := vocab.Lookup(word); ok {
				hits = append(hits, Result{Index: idx, Found: true, Word: word})
			}
		}
	}
	return hits
}
