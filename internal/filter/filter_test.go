package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeep(t *testing.T) {
	tests := []struct {
		token string
		keep  bool
	}{
		{"Tämä", true},
		{"sanoja", true},
		{"2019", true},
		{"snake_case", true},
		{"auto-onnettomuus", true},
		{"don't", true},
		{"3,5", false},
		{"e-k-p", false},
		{".", false},
		{"-", false},
		{",", false},
		{"...", false},
		{"<URL>", false},
		{"{color:red}", false},
		{"😀", true},
		{"€", true},
		{"—", true},
		{"😀😀", false},
		{"#", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.keep, Keep(tt.token))
		})
	}
}

func TestKeepRatioBoundary(t *testing.T) {
	// 3 word runes out of 4 is exactly 0.75 and not above it.
	assert.False(t, Keep("ab-c"))
	// 4 out of 5 is above the threshold.
	assert.True(t, Keep("abc-d"))
}

func TestKeepAllMostlyWordTokens(t *testing.T) {
	for _, token := range []string{"kissa", "Kissa.", "koira!", "Helsinki:", "yö", "ÅÄÖ", "١٢٣"} {
		assert.True(t, Keep(token), token)
	}
}

func TestSinglePunctuationIsDropped(t *testing.T) {
	for _, r := range Punctuation {
		if r == '_' {
			// underscore is a word rune
			assert.True(t, Keep("_"))
			continue
		}
		assert.False(t, Keep(string(r)), string(r))
	}
}
