package tokenize

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Token patterns, tried in order at every position. Word classes are
// spelled out with Unicode properties since \w in RE2 is ASCII only.
const (
	emailPattern = `[\pL\pN_.+\-]+@[\pL\pN_\-]+\.(?:[\pL\pN_\-]\.?)+[\pL\pN_\-]`

	urlPattern = `(?:https?:(?:/{1,3}|[a-z0-9%])|[a-z0-9.\-]+[.][a-z]{2,13}/)` +
		`(?:[^\s()<>{}\[\]]+|\([^\s()]*?\([^\s()]+\)[^\s()]*?\)|\([^\s]+?\))+` +
		`(?:\([^\s()]*?\([^\s()]+\)[^\s()]*?\)|\([^\s]+?\)|[^\s` + "`" + `!()\[\]{};:'".,<>?«»“”‘’])`

	// Captured so the tokenizer can enforce a Unicode-aware word boundary.
	nakedDomainPattern = `([a-z0-9]+(?:[.\-][a-z0-9]+)*[.][a-z]{2,13}\b/?)`

	phonePattern = `(?:\+?[01][ *\-.)]*)?(?:\(?\d{3}[ *\-.)]*)?\d{3}[ *\-.)]*\d{4}`

	emoticonPattern = `[<>]?[:;=8][\-o*']?[)\](\[dDpP/:}{@|\\]` +
		`|[)\](\[dDpP/:}{@|\\][\-o*']?[:;=8][<>]?` +
		`|</?3`

	htmlTagPattern  = `<[^>\s]+>`
	arrowPattern    = `[\-]+>|<[\-]+`
	usernamePattern = `@[\pL\pN_]+`
	hashtagPattern  = `#+[\pL\pN_]+[\pL\pN_'\-]*[\pL\pN_]+`

	wordPattern = `\pL(?:\pL|['\-_])+\pL` +
		`|[+\-]?\p{Nd}+[,/.:\-]\p{Nd}+[+\-]?` +
		`|[\pL\pN_]+` +
		`|\.(?:\s*\.)+` +
		`|\S`
)

const (
	handleGuards  = "!@#$%&*"
	maxHandleSize = 15
	maxRun        = 3
)

var (
	tokenRE    = regexp.MustCompile(alternation(true))
	noDomainRE = regexp.MustCompile(`^(?:` + alternation(false) + `)`)
	emoticonRE = regexp.MustCompile(emoticonPattern)
)

func alternation(withDomains bool) string {
	parts := []string{emailPattern, urlPattern}
	if withDomains {
		parts = append(parts, nakedDomainPattern)
	}
	parts = append(parts, phonePattern, emoticonPattern, htmlTagPattern,
		arrowPattern, usernamePattern, hashtagPattern, wordPattern)
	for i, p := range parts {
		if p != nakedDomainPattern {
			parts[i] = "(?:" + p + ")"
		}
	}
	return "(?i)" + strings.Join(parts, "|")
}

// TweetTokenizer is a casual-text tokenizer in the style of the NLTK
// TweetTokenizer. Emoji, emoticons and punctuation come out as their own
// tokens so that later filtering can classify them.
type TweetTokenizer struct {
	stripHandles bool
	reduceLen    bool
	preserveCase bool
}

// TweetOption configures a TweetTokenizer.
type TweetOption func(*TweetTokenizer)

// WithStripHandles removes @user mentions before tokenizing.
func WithStripHandles(v bool) TweetOption {
	return func(t *TweetTokenizer) { t.stripHandles = v }
}

// WithReduceLen collapses any rune repeated more than three times to three.
func WithReduceLen(v bool) TweetOption {
	return func(t *TweetTokenizer) { t.reduceLen = v }
}

// WithPreserveCase keeps the original case; otherwise tokens other than
// emoticons are lowercased.
func WithPreserveCase(v bool) TweetOption {
	return func(t *TweetTokenizer) { t.preserveCase = v }
}

// NewTweetTokenizer creates a tokenizer. Defaults: case preserved,
// handles and lengthening left alone.
func NewTweetTokenizer(opts ...TweetOption) *TweetTokenizer {
	t := &TweetTokenizer{preserveCase: true}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Tokenize splits text into tokens.
func (t *TweetTokenizer) Tokenize(text string) []string {
	text = html.UnescapeString(text)
	text = norm.NFC.String(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, text)

	if t.stripHandles {
		text = removeHandles(text)
	}
	if t.reduceLen {
		text = squeezeRuns(text, func(rune) bool { return true })
	}
	text = squeezeRuns(text, isHangRune)

	tokens := scan(text)
	if !t.preserveCase {
		for i, tok := range tokens {
			if !emoticonRE.MatchString(tok) {
				tokens[i] = strings.ToLower(tok)
			}
		}
	}
	return tokens
}

func scan(text string) []string {
	var tokens []string
	pos := 0
	for pos < len(text) {
		loc := tokenRE.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]

		// A domain glued to a non-ASCII letter ("yle.fissä") is not a domain.
		if loc[2] >= 0 && end < len(text) && startsWithWordRune(text[end:]) {
			if alt := noDomainRE.FindStringIndex(text[start:]); alt != nil {
				end = start + alt[1]
			}
		}

		tokens = append(tokens, text[start:end])
		pos = end
	}
	return tokens
}

func startsWithWordRune(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// removeHandles replaces @user mentions of up to 15 handle runes with a
// space. A mention must not follow a handle rune or one of !@#$%&* and must
// not run into another @.
func removeHandles(text string) string {
	if !strings.ContainsRune(text, '@') {
		return text
	}

	rs := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(rs); {
		if rs[i] == '@' && (i == 0 || !isHandleGuard(rs[i-1])) {
			k := 0
			for i+1+k < len(rs) && isHandleRune(rs[i+1+k]) {
				k++
			}
			next := i + 1 + k
			m := 0
			switch {
			case k > maxHandleSize:
				m = maxHandleSize
			case k > 0 && (next >= len(rs) || rs[next] != '@'):
				m = k
			}
			if m > 0 {
				b.WriteRune(' ')
				i += 1 + m
				continue
			}
		}
		b.WriteRune(rs[i])
		i++
	}
	return b.String()
}

func isHandleRune(r rune) bool {
	return r < unicode.MaxASCII && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}

func isHandleGuard(r rune) bool {
	return isHandleRune(r) || strings.ContainsRune(handleGuards, r)
}

// isHangRune matches runes other than ASCII letters and digits.
func isHangRune(r rune) bool {
	return !(r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)))
}

// squeezeRuns shortens runs of one rune matched by pred to maxRun.
func squeezeRuns(text string, pred func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(text))
	var prev rune = -1
	run := 0
	for _, r := range text {
		if r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run > maxRun && pred(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
