package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/retrieval.txt
	retrievalRaw string

	//go:embed template/strategy.txt
	strategyRaw string

	//go:embed template/followup.txt
	followupRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Retrieval string
	Strategy  string
	Followup  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Retrieval: strings.TrimSpace(retrievalRaw),
		Strategy:  strings.TrimSpace(strategyRaw),
		Followup:  strings.TrimSpace(followupRaw),
	}
}
