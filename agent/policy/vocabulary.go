package policy

import (
	"strings"

	"github.com/elliotchance/pie/v2"
)

// Vocabulary is a fixed keyword set matched case-insensitively as substrings.
type Vocabulary []string

var (
	FinancialVocabulary     = Vocabulary{"cost", "price", "profit", "salary", "money"}
	CommunicationVocabulary = Vocabulary{"email", "mail", "inbox", "send", "read"}
	StrategyVocabulary      = Vocabulary{"optimize", "advice", "suggest", "improve", "why", "strategy", "fix"}
)

// Matches reports whether text contains any keyword of the vocabulary.
func (v Vocabulary) Matches(text string) bool {
	lowered := strings.ToLower(text)
	return pie.Any(v, func(keyword string) bool {
		return strings.Contains(lowered, keyword)
	})
}

// Hits returns the keywords found in text, in vocabulary order.
func (v Vocabulary) Hits(text string) []string {
	lowered := strings.ToLower(text)
	return pie.Filter(v, func(keyword string) bool {
		return strings.Contains(lowered, keyword)
	})
}
