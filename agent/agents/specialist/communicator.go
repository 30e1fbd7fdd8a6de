package specialist

import (
	"context"
	"fmt"
	"slices"
	"strings"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/agent/policy"
)

// InboxDigest is the simulated unread mail shown for inbox requests.
const InboxDigest = "You have 3 unread messages:\n" +
	"1. Tech Corp: asking for an updated ETA on shipment #10 to Paris.\n" +
	"2. Fleet Maintenance: vehicle #4 (Light Van) service is overdue.\n" +
	"3. Future Automation: shipment #50 Tokyo to Seoul flagged as delayed."

var (
	readVocabulary = policy.Vocabulary{"inbox", "read"}

	inboxFollowups = []string{
		"Reply to Tech Corp with the latest ETA",
		"Which vehicles are due for maintenance?",
		"Why is shipment 50 delayed?",
	}
	sendFollowups = []string{
		"Check my inbox",
		"Show me delayed shipments",
		"Send the delay report to the operations team",
	}
)

// communicatorImpl simulates mail actions. Nothing leaves the process.
type communicatorImpl struct{}

func newCommunicator() *communicatorImpl {
	return &communicatorImpl{}
}

func (c *communicatorImpl) Handle(ctx context.Context, query string) (contractx.CommunicationResponse, error) {
	if err := ctx.Err(); err != nil {
		return contractx.CommunicationResponse{}, err
	}

	query = strings.TrimSpace(query)
	if readVocabulary.Matches(query) {
		return contractx.CommunicationResponse{
			Summary:   InboxDigest,
			Followups: slices.Clone(inboxFollowups),
		}, nil
	}

	return contractx.CommunicationResponse{
		Summary:   fmt.Sprintf("Email sent (simulated). Request: %q", query),
		Followups: slices.Clone(sendFollowups),
	}, nil
}
