// Package filter decides which tokens survive into the training corpus.
//
// The rule is a heuristic, not a language check. A token is kept when word
// runes (letters, numbers, underscore) make up more than 75% of it, or when
// it carries exactly one other rune that is not ASCII punctuation, which
// keeps lone emoji and symbols. Known misses: hyphenated or dotted
// compounds at or below the 75% mark are dropped ("e-k-p"), a lone em-dash
// is kept because it is not ASCII punctuation, the "<URL>" placeholder is
// dropped, and a token of two identical emoji is dropped.
package filter

import (
	"strings"
	"unicode"
)

// NormalRatio is the share of word runes above which a token is kept.
const NormalRatio = 0.75

// Punctuation is the ASCII punctuation set that never counts as a symbol.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// IsWordRune reports whether r counts as part of a word.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// Keep reports whether token should stay in its sentence.
func Keep(token string) bool {
	total, normal := 0, 0
	var other []rune
	for _, r := range token {
		total++
		if IsWordRune(r) || unicode.IsSpace(r) {
			normal++
			continue
		}
		other = append(other, r)
	}
	if total == 0 {
		return false
	}

	if normal > 0 && float64(normal)/float64(total) > NormalRatio {
		return true
	}

	return len(other) == 1 && !strings.ContainsRune(Punctuation, other[0])
}
