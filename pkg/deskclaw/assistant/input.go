// Package assistant – input.go implements input sanitization. Dangerous
// markup blocks are removed wholesale, remaining tags are stripped,
// residual special characters are HTML-escaped and the result trimmed.
// Input that sanitizes to nothing is rejected, not treated as empty text.
package assistant

import (
	"errors"
	"html"
	"regexp"
	"strings"
)

// ErrEmptyAfterSanitize marks input that was nothing but disallowed
// markup. Distinct from a blank message, which never reaches the pipeline.
var ErrEmptyAfterSanitize = errors.New("message blocked because it contained unsafe or disallowed content")

var (
	dangerousBlockRe = regexp.MustCompile(`(?is)<(script|iframe|style|object|embed)\b[^>]*>.*?</\s*(?:script|iframe|style|object|embed)\s*>`)
	anyTagRe         = regexp.MustCompile(`<[^>]*>`)
)

// Sanitize cleans raw user input. Returns ErrEmptyAfterSanitize when
// nothing survives cleaning.
func Sanitize(raw string) (string, error) {
	text := dangerousBlockRe.ReplaceAllString(raw, "")
	text = anyTagRe.ReplaceAllString(text, "")
	text = html.EscapeString(text)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyAfterSanitize
	}
	return text, nil
}
