// Package textproc turns free-form return reasons into the token string the
// vectorizer was fitted on.
package textproc

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aaaton/golem/v4"
	"github.com/aaaton/golem/v4/dicts/en"
	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Punctuation is the ASCII punctuation set stripped before tokenizing.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// minTokenLen is the shortest token kept, in runes.
const minTokenLen = 3

// Lemmatizer reduces a word to its dictionary base form
type Lemmatizer interface {
	Lemma(word string) string
}

// Normalizer is safe for concurrent use once built.
type Normalizer struct {
	stopwords  map[string]struct{}
	lemmatizer Lemmatizer
}

// New builds a Normalizer with the given stopword set and lemmatizer.
// A nil lemmatizer keeps tokens unchanged.
func New(stopwords map[string]struct{}, lemmatizer Lemmatizer) *Normalizer {
	if stopwords == nil {
		stopwords = map[string]struct{}{}
	}
	return &Normalizer{
		stopwords:  stopwords,
		lemmatizer: lemmatizer,
	}
}

// NewEnglish builds a Normalizer with the English stopwords and dictionary lemmatizer.
func NewEnglish() (*Normalizer, error) {
	lem, err := golem.New(en.New())
	if err != nil {
		return nil, fmt.Errorf("failed to load english lemmatizer: %w", err)
	}
	return New(Stopwords(), lem), nil
}

// Normalize lowercases text, strips digits and punctuation, tokenizes,
// drops stopwords and tokens shorter than three runes, lemmatizes the
// survivors and joins them with single spaces.
func (n *Normalizer) Normalize(text string) string {
	// a Caser carries transform state and cannot be shared
	text = cases.Lower(language.English).String(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || strings.ContainsRune(Punctuation, r) {
			return -1
		}
		return r
	}, text)

	tokens := Tokenize(text)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, stop := n.stopwords[tok]; stop {
			continue
		}
		if utf8.RuneCountInString(tok) < minTokenLen {
			continue
		}
		if n.lemmatizer != nil {
			tok = n.lemmatizer.Lemma(tok)
		}
		out = append(out, tok)
	}
	return strings.Join(out, " ")
}

// Tokenize splits text on Unicode word boundaries and keeps segments that
// contain at least one letter or number.
func Tokenize(text string) []string {
	var tokens []string
	seg := words.FromString(text)
	for seg.Next() {
		tok := seg.Value()
		if strings.IndexFunc(tok, isWordRune) < 0 {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r)
}
