package textutil

import (
	"strings"
	"unicode"
)

var termStopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "are": {}, "was": {}, "were": {}, "be": {},
	"been": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "will": {}, "would": {}, "could": {}, "should": {}, "may": {},
	"might": {}, "this": {}, "that": {}, "these": {}, "those": {},
}

const maxTechnicalTerms = 20

// TechnicalTerms identifies likely technical or domain-specific terms:
// capitalized runs are grouped into phrases, lowercase words longer than
// four characters count individually, common function words are filtered.
// Returns at most 20 terms in first-encountered order, deduplicated.
func TechnicalTerms(text string) []string {
	words := strings.Fields(text)

	var terms []string
	seen := map[string]struct{}{}
	appendTerm := func(term string) {
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	var currentPhrase []string
	flushPhrase := func() {
		if len(currentPhrase) == 0 {
			return
		}
		phrase := strings.Join(currentPhrase, " ")
		if _, common := termStopWords[strings.ToLower(phrase)]; !common {
			appendTerm(phrase)
		}
		currentPhrase = nil
	}

	for _, word := range words {
		cleanWord := strings.Trim(word, `.,!?;:()[]{}"'`)
		if cleanWord == "" {
			continue
		}

		if isCapitalized(cleanWord) {
			currentPhrase = append(currentPhrase, cleanWord)
			continue
		}

		flushPhrase()

		if len(cleanWord) > 4 {
			if _, common := termStopWords[strings.ToLower(cleanWord)]; !common {
				appendTerm(cleanWord)
			}
		}
	}
	flushPhrase()

	if len(terms) > maxTechnicalTerms {
		terms = terms[:maxTechnicalTerms]
	}
	return terms
}

func isCapitalized(word string) bool {
	for _, r := range word {
		return unicode.IsUpper(r)
	}
	return false
}
