// Package utils provides shared utilities for text and logging.
package utils

import (
	"regexp"
	"strings"
)

// Truncate returns s truncated to maxLen characters, with "..." appended if
// truncated. Truncation counts runes, not bytes, so a multibyte character is
// never split. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// CollapseNewlines replaces every run of newline characters in s with a single
// space, so multi-line snippets fit on one line.
func CollapseNewlines(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == '\n' || r == '\r'
	}), " ")
}

// Emphasis marker pairs in the order they must be removed: double markers
// before single ones, so "**bold**" is not half-stripped by the single-star rule.
var emphasisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\*\*([^*]+)\*\*`),
	regexp.MustCompile(`__([^_]+)__`),
	regexp.MustCompile(`\*([^*]+)\*`),
	regexp.MustCompile(`_([^_]+)_`),
}

// StripEmphasis removes paired markdown emphasis markers (**bold**, *italic*,
// __bold__, _italic_) from s, keeping the enclosed text. Unpaired markers are
// left alone.
func StripEmphasis(s string) string {
	for _, re := range emphasisPatterns {
		s = re.ReplaceAllString(s, "$1")
	}
	return s
}
