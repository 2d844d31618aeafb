package textutil

import (
	"regexp"
	"strings"
)

var sentenceBoundaryRegex = regexp.MustCompile(`[.!?]+`)

// FleschKincaidGrade calculates a simplified readability grade level:
// 0.39*ASL + 11.8*ASW - 15.59, clamped to [0, 20], where ASL is the average
// sentence length and ASW the average syllables per word.
// Empty text yields the neutral grade 10.0.
func FleschKincaidGrade(text string) float64 {
	parts := sentenceBoundaryRegex.Split(text, -1)
	sentenceCount := 0
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			sentenceCount++
		}
	}
	if sentenceCount == 0 {
		return 10.0
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return 10.0
	}

	totalSyllables := 0
	for _, word := range words {
		totalSyllables += countSyllables(word)
	}

	avgSentenceLength := float64(len(words)) / float64(sentenceCount)
	avgSyllablesPerWord := float64(totalSyllables) / float64(len(words))

	grade := 0.39*avgSentenceLength + 11.8*avgSyllablesPerWord - 15.59
	if grade < 0 {
		return 0
	}
	if grade > 20 {
		return 20
	}
	return grade
}

// countSyllables estimates syllables by counting vowel groups, with a
// silent-e adjustment. Never returns less than 1.
func countSyllables(word string) int {
	word = strings.ToLower(strings.Trim(word, ".,!?;:"))
	if word == "" {
		return 1
	}

	count := 0
	prevWasVowel := false
	for _, r := range word {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevWasVowel {
			count++
		}
		prevWasVowel = isVowel
	}

	if strings.HasSuffix(word, "e") {
		count--
	}

	if count < 1 {
		return 1
	}
	return count
}
