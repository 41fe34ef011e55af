// Package markup converts the lightweight inline markers used in question
// text into HTML tags. Existing HTML passes through untouched.
package markup

import (
	"regexp"
	"strings"
)

var (
	strikeRe     = regexp.MustCompile(`~~([^~]+)~~`)
	highlightRe  = regexp.MustCompile(`==([^=]+)==`)
	boldStarRe   = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	boldUnderRe  = regexp.MustCompile(`__([^_]+)__`)
	italicMarker = []byte{'*', '_'}
)

// Format applies, in order: ~~strike~~, ==highlight==, **bold** and
// __bold__, then *italic* and _italic_. A single marker only counts as
// italic when it is not part of a doubled marker.
func Format(text string) string {
	if text == "" {
		return text
	}
	text = strikeRe.ReplaceAllString(text, "<s>$1</s>")
	text = highlightRe.ReplaceAllString(text, "<mark>$1</mark>")
	text = boldStarRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = boldUnderRe.ReplaceAllString(text, "<strong>$1</strong>")
	for _, m := range italicMarker {
		text = italic(text, m)
	}
	return text
}

// italic wraps m-delimited spans in <em>. An opening marker must not touch
// another m on either side, the span must be non-empty and m-free, and the
// closing marker must not be followed by m.
func italic(s string, m byte) string {
	if strings.IndexByte(s, m) < 0 {
		return s
	}
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != m || !opens(s, i, m) {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := strings.IndexByte(s[i+1:], m)
		if j < 0 {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := i + 1 + j
		if end+1 < len(s) && s[end+1] == m {
			b.WriteByte(s[i])
			i++
			continue
		}
		b.WriteString("<em>")
		b.WriteString(s[i+1 : end])
		b.WriteString("</em>")
		i = end + 1
	}
	return b.String()
}

func opens(s string, i int, m byte) bool {
	if i > 0 && s[i-1] == m {
		return false
	}
	return i+1 < len(s) && s[i+1] != m
}
