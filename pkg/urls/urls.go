// Package urls finds web addresses embedded in free-form chat text.
package urls

import (
	"regexp"
	"strings"
)

var candidate = regexp.MustCompile(`https?://\S+`)

const allowed = "-._~:/?#[]@!$&'()*+,;="

// Extract returns every http(s) URL found in text, in order of appearance,
// with duplicates preserved. Each match is cut at the first character that is
// not a URL character, so trailing CJK text or emoji do not leak into the URL.
// It returns an empty slice when nothing matches.
func Extract(text string) []string {
	matches := candidate.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, clean(m))
	}
	return out
}

// First returns the first URL in text, if any.
func First(text string) (string, bool) {
	found := Extract(text)
	if len(found) == 0 {
		return "", false
	}
	return found[0], true
}

func clean(raw string) string {
	for i, r := range raw {
		if i == 0 {
			continue
		}
		if !isURLRune(r) {
			return raw[:i]
		}
	}
	return raw
}

func isURLRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	}
	return r < 0x80 && strings.ContainsRune(allowed, r)
}
