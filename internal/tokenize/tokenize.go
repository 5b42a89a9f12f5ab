// Package tokenize splits Finnish web text into sentences and tokens.
package tokenize

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnsupportedTokenizer is returned for a tokenizer name that New does not know.
var ErrUnsupportedTokenizer = errors.New("unsupported tokenizer")

// WordTokenizer splits a sentence into tokens.
type WordTokenizer interface {
	Tokenize(text string) []string
}

// SentenceTokenizer splits a document into sentences.
type SentenceTokenizer interface {
	Tokenize(text string) []string
}

// Tokenizer exposes both levels of tokenization. Implementations must be
// safe for concurrent use.
type Tokenizer interface {
	Words(text string) []string
	Sentences(text string) []string
}

// Adapter combines a word and a sentence tokenizer.
type Adapter struct {
	Word     WordTokenizer
	Sentence SentenceTokenizer
}

func (a Adapter) Words(text string) []string {
	return a.Word.Tokenize(text)
}

func (a Adapter) Sentences(text string) []string {
	return a.Sentence.Tokenize(text)
}

var registry = map[string]func() Tokenizer{
	"tweet": func() Tokenizer {
		return Adapter{
			Word: NewTweetTokenizer(
				WithStripHandles(true),
				WithReduceLen(true),
				WithPreserveCase(true),
			),
			Sentence: NewFinnishSentenceTokenizer(),
		}
	},
}

// New returns the tokenizer registered under name. Matching ignores case
// and surrounding whitespace.
func New(name string) (Tokenizer, error) {
	build, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q, supported: %s", ErrUnsupportedTokenizer, name, strings.Join(Supported(), ", "))
	}
	return build(), nil
}

// Supported lists the registered tokenizer names.
func Supported() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
