// Package hashtag provides hashtag token extraction from post content.
package hashtag

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxTagLength is the maximum length of a normalized hashtag token.
// Longer tokens are truncated before deduplication.
const MaxTagLength = 64

// tagPattern matches a '#' followed by one or more word characters. A bare
// '#' is not a token; the token ends at the first non-word character.
var tagPattern = regexp.MustCompile(`#([A-Za-z0-9_]+)`)

// Extract scans text left to right and returns the distinct normalized
// hashtag tokens in first-seen order. Tokens are lowercased before
// deduplication, so "#Go" and "#go" yield a single "go". Text with no
// hashtags yields nil. Extract is pure and performs no I/O.
func Extract(text string) []string {
	if !strings.ContainsRune(text, '#') {
		return nil
	}

	matches := tagPattern.FindAllStringSubmatch(text, -1)
	if matches == nil {
		return nil
	}

	var tags []string
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		tag := Normalize(m[1])
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// Normalize lowercases a raw tag and truncates it to MaxTagLength runes.
// The same normalization is applied on the write path and the query path so
// lookups always hit the stored form. Query input may carry multibyte
// characters, so truncation counts runes, never splitting one mid-byte.
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimPrefix(tag, "#"))
	if utf8.RuneCountInString(tag) > MaxTagLength {
		tag = string([]rune(tag)[:MaxTagLength])
	}
	return tag
}
