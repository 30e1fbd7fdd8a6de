package warehouse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/elliotchance/pie/v2"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

var (
	identPattern = regexp.MustCompile(`[a-z_][a-z0-9_]*`)
	// quoted literals are removed before keyword checks so values like 'Updated' pass.
	literalPattern = regexp.MustCompile(`'(?:[^']|'')*'`)

	forbiddenKeywords = []string{
		"insert", "update", "delete", "drop", "alter", "create", "truncate", "replace",
		"merge", "grant", "revoke", "attach", "detach", "pragma", "vacuum", "copy", "call",
	}
)

// Guard normalizes a generated statement and rejects anything that is not a
// single read-only query.
func Guard(query string) (string, error) {
	q := strings.TrimSpace(query)
	q = strings.TrimSpace(strings.TrimRight(q, "; \n\t"))
	if q == "" {
		return "", fmt.Errorf("%w: empty statement", contractx.ErrUnsafeQuery)
	}

	scrubbed := strings.ToLower(literalPattern.ReplaceAllString(q, "''"))
	if strings.Contains(scrubbed, ";") {
		return "", fmt.Errorf("%w: multiple statements are not allowed", contractx.ErrUnsafeQuery)
	}
	if strings.Contains(scrubbed, "--") || strings.Contains(scrubbed, "/*") {
		return "", fmt.Errorf("%w: comments are not allowed", contractx.ErrUnsafeQuery)
	}

	tokens := identPattern.FindAllString(scrubbed, -1)
	if len(tokens) == 0 || (tokens[0] != "select" && tokens[0] != "with") {
		return "", fmt.Errorf("%w: only SELECT statements are allowed", contractx.ErrUnsafeQuery)
	}
	if hits := pie.Filter(tokens, func(tok string) bool { return pie.Contains(forbiddenKeywords, tok) }); len(hits) > 0 {
		return "", fmt.Errorf("%w: keyword %s is not allowed", contractx.ErrUnsafeQuery, strings.ToUpper(hits[0]))
	}

	return q, nil
}
