// Package textutil provides the text normalization, readability, and
// similarity primitives shared by the processing services.
package textutil

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	speakerLabelRegex = regexp.MustCompile(`(?m)^[\w\s]+:\s*`)
	bracketRegex      = regexp.MustCompile(`\[.*?\]`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
)

// CleanText normalizes transcript text: strips speaker labels and bracketed
// annotations ("[MUSIC]", "[LAUGHTER]"), collapses whitespace, and replaces
// curly quotes and unicode dashes with ASCII equivalents.
func CleanText(text string) string {
	text = speakerLabelRegex.ReplaceAllString(text, "")
	text = bracketRegex.ReplaceAllString(text, "")

	text = whitespaceRegex.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	replacer := strings.NewReplacer(
		"’", "'", // Right single quotation mark
		"“", `"`, // Left double quotation mark
		"”", `"`, // Right double quotation mark
		"–", "-", // En dash
		"—", "--", // Em dash
	)
	return replacer.Replace(text)
}

// WordCount returns the number of whitespace-delimited words
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// FormatTimestamp converts milliseconds to MM:SS format
func FormatTimestamp(milliseconds int64) string {
	totalSeconds := milliseconds / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// ReadingMinutes estimates reading time in minutes at the given words per
// minute rate, never less than 1.
func ReadingMinutes(text string, wpm int) int {
	if wpm <= 0 {
		wpm = 200
	}
	minutes := WordCount(text) / wpm
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

var sentenceSplitRegex = regexp.MustCompile(`[.!?]+\s+`)

// SplitSentences splits text on terminal punctuation followed by whitespace,
// dropping empty results.
func SplitSentences(text string) []string {
	parts := sentenceSplitRegex.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}
