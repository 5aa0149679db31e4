package kwip

import (
	"strings"
	"unicode"
)

// stopWords is the English stop word set applied by the analyzer.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
	"but": true, "by": true, "for": true, "if": true, "in": true, "into": true, "is": true,
	"it": true, "no": true, "not": true, "of": true, "on": true, "or": true, "such": true,
	"that": true, "the": true, "their": true, "then": true, "there": true, "these": true,
	"they": true, "this": true, "to": true, "was": true, "will": true, "with": true,
}

// Token is one analysed term and its ordinal position in the phrase.
type Token struct {
	Term     string
	Position int
}

// Analyze splits phrase into lower-cased runs of letters and digits and drops
// stop words. Positions count every run, stop words included.
func Analyze(phrase string) []Token {
	var tokens []Token
	position := 0
	fields := strings.FieldsFunc(phrase, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, field := range fields {
		term := strings.ToLower(field)
		if !stopWords[term] {
			tokens = append(tokens, Token{Term: term, Position: position})
		}
		position++
	}
	return tokens
}
