package category

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lowerCaser = cases.Lower(language.Spanish)

// lower composes combining marks first so "n" + U+0303 reads as one letter.
func lower(s string) string {
	return lowerCaser.String(norm.NFC.String(s))
}

// Classifier maps text to a category by keyword scoring. It is safe for
// concurrent use.
type Classifier struct {
	stopWords map[string]struct{}
}

// NewClassifier builds a classifier for "spanish" (default) or "english"
// stop-words.
func NewClassifier(lang string) *Classifier {
	return &Classifier{stopWords: stopWordSet(lang)}
}

// Tokens lowercases, tokenizes and filters text to alphabetic non stop-words.
func (c *Classifier) Tokens(text string) []string {
	fields := strings.FieldsFunc(lower(text), func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if !isAlpha(f) {
			continue
		}
		if _, stop := c.stopWords[f]; stop {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Scores returns the per-category score in table order.
func (c *Classifier) Scores(table *Table, text string) []int {
	tokens := c.Tokens(text)
	scores := make([]int, len(table.categories))
	for i, cat := range table.categories {
		for _, tok := range tokens {
			for _, stem := range cat.Keywords {
				if strings.Contains(tok, stem) {
					scores[i]++
					break
				}
			}
		}
	}
	return scores
}

// Classify returns the category with the strictly highest score. Ties go to
// the first declared category; all-zero scores give DefaultCategory.
func (c *Classifier) Classify(table *Table, text string) string {
	scores := c.Scores(table, text)
	best, bestScore := -1, 0
	for i, s := range scores {
		if s > bestScore {
			best, bestScore = i, s
		}
	}
	if best < 0 {
		return DefaultCategory
	}
	return table.categories[best].Name
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
