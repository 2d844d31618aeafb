package textutil

import (
	"strings"
)

var commonEnglishWords = map[string]struct{}{
	"the": {}, "be": {}, "to": {}, "of": {}, "and": {},
	"a": {}, "in": {}, "that": {}, "have": {}, "it": {},
}

// DetectLanguage performs a lightweight English detection by counting
// function-word hits. Returns the language code and a confidence in [0,1].
// Empty text yields ("en", 0.5).
func DetectLanguage(text string) (string, float64) {
	words := map[string]struct{}{}
	for _, word := range strings.Fields(strings.ToLower(text)) {
		words[word] = struct{}{}
	}

	if len(words) == 0 {
		return "en", 0.5
	}

	matches := 0
	for word := range words {
		if _, ok := commonEnglishWords[word]; ok {
			matches++
		}
	}

	denom := float64(len(words)) * 0.1
	if denom < 1 {
		denom = 1
	}
	confidence := float64(matches) / denom
	if confidence > 1.0 {
		confidence = 1.0
	}
	return "en", confidence
}
