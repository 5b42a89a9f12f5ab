// Package sentences turns feed records into clean corpus sentences.
package sentences

import (
	"regexp"
	"strings"

	"github.com/knowledge-engine/fwe/internal/feed"
	"github.com/knowledge-engine/fwe/internal/filter"
	"github.com/knowledge-engine/fwe/internal/tokenize"
)

// URLPlaceholder replaces every URL before word tokenization.
const URLPlaceholder = "<URL>"

// DefaultMinSentLen is the minimum number of kept tokens per sentence.
const DefaultMinSentLen = 5

var urlRE = regexp.MustCompile(`[\pL\pN_]+://[^\s\p{Zs}\x{85}\x{2028}\x{2029}]*`)

// Extractor applies sentence splitting, URL substitution, word tokenization
// and token filtering. It holds no mutable state and is safe for concurrent
// use when its tokenizer is.
type Extractor struct {
	tok        tokenize.Tokenizer
	minSentLen int
	keep       func(string) bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinSentLen sets the minimum kept token count of an emitted sentence.
func WithMinSentLen(n int) Option {
	return func(e *Extractor) { e.minSentLen = n }
}

// WithFilter replaces the token filter.
func WithFilter(keep func(string) bool) Option {
	return func(e *Extractor) { e.keep = keep }
}

// New creates an Extractor around tok.
func New(tok tokenize.Tokenizer, opts ...Option) *Extractor {
	e := &Extractor{
		tok:        tok,
		minSentLen: DefaultMinSentLen,
		keep:       filter.Keep,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MinSentLen returns the configured minimum sentence length.
func (e *Extractor) MinSentLen() int {
	return e.minSentLen
}

// Sentence cleans a single sentence. It reports false when too few tokens
// survive filtering.
func (e *Extractor) Sentence(text string) (string, bool) {
	text = urlRE.ReplaceAllLiteralString(text, URLPlaceholder)

	var kept []string
	for _, token := range e.tok.Words(text) {
		if e.keep(token) {
			kept = append(kept, token)
		}
	}
	if len(kept) < e.minSentLen || len(kept) == 0 {
		return "", false
	}
	return strings.Join(kept, " "), true
}

// Document splits a text fragment into sentences and cleans each of them.
func (e *Extractor) Document(doc string) []string {
	var out []string
	for _, sent := range e.tok.Sentences(doc) {
		if clean, ok := e.Sentence(sent); ok {
			out = append(out, clean)
		}
	}
	return out
}

// Extract cleans every content fragment of records, in order.
func (e *Extractor) Extract(records []feed.Record) []string {
	var out []string
	for _, rec := range records {
		for _, doc := range rec.Content {
			out = append(out, e.Document(doc)...)
		}
	}
	return out
}

// ExtractLines decodes raw feed lines and extracts their sentences. A
// malformed line fails the whole batch with a *feed.LineError.
func (e *Extractor) ExtractLines(lines []feed.Line) ([]string, error) {
	records, err := feed.DecodeLines(lines)
	if err != nil {
		return nil, err
	}
	return e.Extract(records), nil
}
