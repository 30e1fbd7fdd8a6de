package policy

import (
	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

type intentRule struct {
	vocabulary Vocabulary
	intent     contractx.Intent
}

// Rules are evaluated in order; the first match wins.
var intentRules = []intentRule{
	{vocabulary: CommunicationVocabulary, intent: contractx.IntentCommunication},
}

const defaultIntent = contractx.IntentAnalytics

// Classify maps every query onto exactly one intent.
func Classify(query string) contractx.Intent {
	for _, rule := range intentRules {
		if rule.vocabulary.Matches(query) {
			return rule.intent
		}
	}
	return defaultIntent
}

// WantsStrategy reports whether the raw user query asks for recommendations.
func WantsStrategy(query string) bool {
	return StrategyVocabulary.Matches(query)
}
