package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	closingMarks = `"'”’»)]}`
	openingMarks = `"'“‘«([{-–—`
)

// Abbreviations whose trailing period does not end a sentence.
var finnishAbbreviations = []string{
	"alk", "ao", "ap", "as", "dipl", "dos", "ed", "eKr", "em", "engl", "esim",
	"ekr", "fil", "hra", "huom", "ilm", "ip", "ins", "jkr", "jälk", "kd", "kk",
	"klo", "ko", "kpl", "ks", "lat", "lk", "ma", "ti", "ke", "to", "pe", "la",
	"su", "milj", "mk", "ml", "mm", "mrd", "nk", "nro", "ns", "nti", "op", "os",
	"ott", "po", "prof", "puh", "pvm", "rak", "ruots", "rva", "sd", "sis", "so",
	"srk", "st", "synt", "tjsp", "toim", "tri", "ts", "va", "vas", "vrt", "vs",
	"vt", "yht", "yl", "yo", "tammik", "helmik", "maalisk", "huhtik", "toukok",
	"kesäk", "heinäk", "elok", "syysk", "lokak", "marrask", "jouluk",
}

// Abbreviations that commonly close a sentence; they end one when the next
// word is capitalised.
var finnishEnders = []string{"jne", "yms", "ym", "tms", "ymv", "etc", "ym.m"}

// FinnishSentenceTokenizer finds sentence boundaries in Finnish text.
//
// A boundary is a whitespace-separated word ending in sentence punctuation,
// optionally followed by closing quotes or brackets. Question and
// exclamation marks always end a sentence; a period does unless the word is
// an abbreviation or an initial. Ordinals ("24.") and ellipses end a
// sentence only before a capitalised word.
type FinnishSentenceTokenizer struct {
	abbreviations map[string]bool
	enders        map[string]bool
}

// NewFinnishSentenceTokenizer creates a tokenizer with the built-in
// abbreviation lists.
func NewFinnishSentenceTokenizer() *FinnishSentenceTokenizer {
	s := &FinnishSentenceTokenizer{
		abbreviations: make(map[string]bool, len(finnishAbbreviations)),
		enders:        make(map[string]bool, len(finnishEnders)),
	}
	for _, a := range finnishAbbreviations {
		s.abbreviations[strings.ToLower(a)] = true
	}
	for _, e := range finnishEnders {
		s.enders[e] = true
	}
	return s
}

type span struct {
	start, end int
}

// Tokenize splits text into sentences. Sentences keep their inner
// whitespace and punctuation.
func (s *FinnishSentenceTokenizer) Tokenize(text string) []string {
	words := fields(text)
	var sentences []string
	start := -1
	for i, w := range words {
		if start < 0 {
			start = w.start
		}
		last := i == len(words)-1
		next := ""
		if !last {
			next = text[words[i+1].start:words[i+1].end]
		}
		if last || s.breaksAfter(text[w.start:w.end], next) {
			sentences = append(sentences, text[start:w.end])
			start = -1
		}
	}
	return sentences
}

func (s *FinnishSentenceTokenizer) breaksAfter(word, next string) bool {
	core := strings.TrimRight(word, closingMarks)
	if core == "" {
		return false
	}

	r, _ := utf8.DecodeLastRuneInString(core)
	switch r {
	case '!', '?':
		return true
	case '…':
		return startsUpper(next)
	case '.':
	default:
		return false
	}

	if strings.HasSuffix(core, "..") {
		return startsUpper(next)
	}

	stem := strings.TrimLeft(strings.TrimSuffix(core, "."), openingMarks)
	lower := strings.ToLower(stem)
	switch {
	case stem == "":
		return true
	case s.enders[lower]:
		return startsUpper(next)
	case s.abbreviations[lower]:
		return false
	case utf8.RuneCountInString(stem) == 1 && unicode.IsLetter([]rune(stem)[0]):
		return false
	case isNumeral(stem), strings.Contains(stem, "."):
		return startsUpper(next)
	}
	return true
}

func fields(text string) []span {
	var out []span
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, span{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, span{start, len(text)})
	}
	return out
}

func startsUpper(word string) bool {
	for _, r := range strings.TrimLeft(word, openingMarks) {
		return unicode.IsUpper(r)
	}
	return false
}

func isNumeral(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
