package policy

import (
	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
)

// AccessDeniedSummary is returned verbatim when the gate refuses a query.
const AccessDeniedSummary = "Access denied: your role is not permitted to view financial information. " +
	"Please contact a Logistics Manager for cost, pricing, or salary data."

// Allowed is the request-level access gate. Only Guests asking about
// financial topics are refused here; column-level limits for other roles are
// applied by the data tools.
func Allowed(role contractx.Role, query string) bool {
	if role != contractx.RoleGuest {
		return true
	}
	return !FinancialVocabulary.Matches(query)
}
