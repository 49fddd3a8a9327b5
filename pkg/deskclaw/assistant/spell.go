// Package assistant – spell.go implements word-by-word spelling
// correction over the vocabulary the router cares about. Correction never
// reorders or drops words; a word with no suggestion passes through
// unchanged, so unusual names and symbols survive intact.
package assistant

import (
	"strings"
	"unicode"

	"github.com/sajari/fuzzy"
)

// defaultVocabulary seeds the model with conversational words beyond the
// keyword phrases so common typos near them are fixed too.
var defaultVocabulary = []string{
	"what", "whats", "the", "is", "in", "for", "to", "me", "my", "a", "an",
	"please", "today", "tomorrow", "now", "about", "with", "and", "of",
	"tell", "show", "give", "get", "how", "when", "where", "which", "who",
	"set", "add", "delete", "remove", "list", "plan", "make", "send",
	"price", "email", "website", "browser", "chat", "speech", "details",
	"days", "day", "hours", "minutes",
}

// Corrector fixes per-word spelling using a fuzzy language model.
type Corrector struct {
	model *fuzzy.Model
}

// NewCorrector builds a corrector trained on the keyword phrases and the
// default vocabulary.
func NewCorrector() *Corrector {
	model := fuzzy.NewModel()
	model.SetThreshold(1)
	// Depth 1 keeps correction conservative; distance-2 suggestions turn
	// ordinary words into keyword lookalikes ("story" -> "stock").
	model.SetDepth(1)

	var corpus []string
	for phrase := range keywordToIntent {
		corpus = append(corpus, strings.Fields(phrase)...)
	}
	corpus = append(corpus, defaultVocabulary...)
	model.Train(corpus)

	return &Corrector{model: model}
}

// Train adds words to the vocabulary, e.g. city names from preferences.
func (c *Corrector) Train(words []string) {
	c.model.Train(words)
}

// Correct fixes spelling word by word. Words containing digits or other
// non-letter runes are never touched.
func (c *Corrector) Correct(text string) string {
	words := strings.Fields(text)
	for i, word := range words {
		if !isPlainWord(word) {
			continue
		}
		lower := strings.ToLower(word)
		suggestion := c.model.SpellCheck(lower)
		if suggestion == "" || suggestion == lower {
			continue
		}
		words[i] = matchCase(word, suggestion)
	}
	return strings.Join(words, " ")
}

func isPlainWord(word string) bool {
	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(word) > 0
}

// matchCase re-applies a leading capital from the original word.
func matchCase(original, corrected string) string {
	if original == "" || corrected == "" {
		return corrected
	}
	if unicode.IsUpper([]rune(original)[0]) {
		runes := []rune(corrected)
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	}
	return corrected
}
