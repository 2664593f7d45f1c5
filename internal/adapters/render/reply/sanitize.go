package reply

import (
	"regexp"
	"strings"

	"github.com/rivo/uniseg"
)

const ellipsis = "…"

var (
	whitespace = regexp.MustCompile(`[\s\p{Z}]+`)
	// Control and format characters, plus runs of three or more combining
	// marks used to stack glyphs across lines.
	unsafeRunes = regexp.MustCompile(`\p{C}|\p{M}{3,}`)
)

// Sanitize makes remote text safe for a single chat line: whitespace is
// collapsed, control characters and combining-mark abuse are removed and the
// result is cut to at most maxBytes.
func Sanitize(text string, maxBytes int) string {
	text = whitespace.ReplaceAllString(text, " ")
	text = unsafeRunes.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	return Truncate(text, maxBytes)
}

// Truncate cuts text on a grapheme boundary so the result, including the
// trailing ellipsis, fits in maxBytes.
func Truncate(text string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(text) <= maxBytes {
		return text
	}

	budget := maxBytes - len(ellipsis)
	if budget <= 0 {
		return ""
	}

	end := 0
	state := -1
	rest := text
	for len(rest) > 0 {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if end+len(cluster) > budget {
			break
		}
		end += len(cluster)
	}
	return strings.TrimRight(text[:end], " ") + ellipsis
}
