package hashtag

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "no hashtags",
			text:     "hello world",
			expected: nil,
		},
		{
			name:     "empty text",
			text:     "",
			expected: nil,
		},
		{
			name:     "single hashtag",
			text:     "hello #kiro world",
			expected: []string{"kiro"},
		},
		{
			name:     "multiple hashtags preserve order",
			text:     "#go is better than #rust for #go",
			expected: []string{"go", "rust"},
		},
		{
			name:     "case insensitive dedup",
			text:     "#Rust #rust #RUST",
			expected: []string{"rust"},
		},
		{
			name:     "bare hash is not a token",
			text:     "just a # sign and #! punctuation",
			expected: nil,
		},
		{
			name:     "token ends at non-word character",
			text:     "shipping #v2_release-candidate today",
			expected: []string{"v2_release"},
		},
		{
			name:     "adjacent tokens",
			text:     "#a#b",
			expected: []string{"a", "b"},
		},
		{
			name:     "hashtag at end of sentence",
			text:     "loving #golang.",
			expected: []string{"golang"},
		},
		{
			name:     "digits and underscores",
			text:     "#web3 #snake_case #_leading",
			expected: []string{"web3", "snake_case", "_leading"},
		},
		{
			name:     "unicode terminates token",
			text:     "#café time",
			expected: []string{"caf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Extract(tt.text)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("Extract(%q) = %v, want %v", tt.text, result, tt.expected)
			}
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	text := "#One #two #THREE #two #one"
	first := Extract(text)
	second := Extract(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("Extract not deterministic: %v vs %v", first, second)
	}
	if !reflect.DeepEqual(first, []string{"one", "two", "three"}) {
		t.Errorf("Extract(%q) = %v, want [one two three]", text, first)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		tag      string
		expected string
	}{
		{"lowercases", "GoLang", "golang"},
		{"strips leading hash", "#golang", "golang"},
		{"already normalized", "golang", "golang"},
		{"truncates long tag", strings.Repeat("a", 100), strings.Repeat("a", MaxTagLength)},
		{"truncates multibyte tag by runes", strings.Repeat("é", 100), strings.Repeat("é", MaxTagLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.tag); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.tag, got, tt.expected)
			}
		})
	}
}
