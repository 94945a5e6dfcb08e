package bm25

import (
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/character"
)

// separators are the code punctuation characters that end a token, in
// addition to whitespace. Underscore is not a separator, so snake_case
// identifiers stay whole.
const separators = ".,;:!?()[]{}<>\"'`=+-*/\\|&^%$#@~"

func isTokenRune(r rune) bool {
	return !unicode.IsSpace(r) && !strings.ContainsRune(separators, r)
}

var (
	tokenizer   = character.NewCharacterTokenizer(isTokenRune)
	lowerFilter = lowercase.NewLowerCaseFilter()
)

// Tokenize lower-cases text and splits it on whitespace and code
// punctuation. Empty tokens are never returned.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var stream analysis.TokenStream = tokenizer.Tokenize([]byte(text))
	stream = lowerFilter.Filter(stream)

	tokens := make([]string, 0, len(stream))
	for _, tok := range stream {
		if len(tok.Term) == 0 {
			continue
		}
		tokens = append(tokens, string(tok.Term))
	}
	return tokens
}
