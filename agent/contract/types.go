package contract

import (
	"fmt"
	"strings"
	"time"
)

type AgentType string

const (
	AgentTypeRetrieval     AgentType = "retrieval"
	AgentTypeStrategy      AgentType = "strategy"
	AgentTypeFollowup      AgentType = "followup"
	AgentTypeCommunication AgentType = "communication"
)

type Role string

const (
	RoleManager  Role = "Logistics Manager"
	RoleOperator Role = "Fleet Operator"
	RoleGuest    Role = "Guest"
)

// ParseRole maps the API role label onto a Role. An empty label is Guest.
func ParseRole(raw string) (Role, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return RoleGuest, nil
	}
	for _, r := range []Role{RoleManager, RoleOperator, RoleGuest} {
		if strings.EqualFold(trimmed, string(r)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, trimmed)
}

// CanSeeFinancials reports whether the role may query financial columns.
func (r Role) CanSeeFinancials() bool {
	return r == RoleManager
}

type Intent string

const (
	IntentCommunication Intent = "communication"
	IntentAnalytics     Intent = "analytics"
)

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

type Turn struct {
	Speaker Speaker `json:"speaker"`
	Text    string  `json:"text"`
}

type QueryRequest struct {
	Query   string `json:"query"`
	Role    Role   `json:"role"`
	History []Turn `json:"history,omitempty"`
}

type RetrievalRequest struct {
	Query   string `json:"query"`
	Role    Role   `json:"role"`
	History []Turn `json:"history,omitempty"`
	// Now anchors relative dates such as "due tomorrow". Zero means the wall clock.
	Now time.Time `json:"-"`
}

type RetrievalResult struct {
	Facts string `json:"facts"`
	Trace string `json:"trace"`
}

type StrategyRequest struct {
	Facts   string `json:"facts"`
	History []Turn `json:"history,omitempty"`
}

type CommunicationResponse struct {
	Summary   string   `json:"summary"`
	Followups []string `json:"followups"`
}

type FollowupRequest struct {
	ResponseText string `json:"response_text"`
	History      []Turn `json:"history,omitempty"`
}

type FollowupSource string

const (
	FollowupsGenerated FollowupSource = "generated"
	FollowupsFallback  FollowupSource = "fallback"
)

// Followups is the result of follow-up generation. Questions always holds
// exactly three entries; Err is set only for the fallback variant.
type Followups struct {
	Questions []string
	Source    FollowupSource
	Err       error
}

func (f Followups) IsFallback() bool {
	return f.Source == FollowupsFallback
}

type QueryResult struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
	// Truncated is set when the row cap cut the result short.
	Truncated bool `json:"truncated,omitempty"`
}

// Path is the terminal branch an orchestration took.
type Path string

const (
	PathDenied          Path = "denied"
	PathCommunication   Path = "communication"
	PathAnalytics       Path = "analytics"
	PathRetrievalFailed Path = "retrieval_failed"
	PathSystemError     Path = "system_error"
)

type OrchestrationResult struct {
	Summary   string   `json:"summary"`
	Trace     string   `json:"sql"`
	Error     string   `json:"error,omitempty"`
	Followups []string `json:"followups"`

	Path   Path   `json:"-"`
	Intent Intent `json:"-"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// QueryResponse is the wire shape of submit_query. Error is null on success.
type QueryResponse struct {
	Summary   string   `json:"summary"`
	SQL       string   `json:"sql"`
	Error     *string  `json:"error"`
	Followups []string `json:"followups"`
}

func (r OrchestrationResult) Response() QueryResponse {
	resp := QueryResponse{
		Summary:   r.Summary,
		SQL:       r.Trace,
		Followups: r.Followups,
	}
	if resp.Followups == nil {
		resp.Followups = []string{}
	}
	if r.Error != "" {
		msg := r.Error
		resp.Error = &msg
	}
	return resp
}
