package contract

import "context"

type Retriever interface {
	Retrieve(ctx context.Context, req RetrievalRequest) (RetrievalResult, error)
}

type Strategist interface {
	Advise(ctx context.Context, req StrategyRequest) (string, error)
}

type Communicator interface {
	Handle(ctx context.Context, query string) (CommunicationResponse, error)
}

// FollowupSuggester never fails outward; a failed generation comes back as a
// fallback Followups value.
type FollowupSuggester interface {
	Suggest(ctx context.Context, req FollowupRequest) Followups
}

type Registry interface {
	Retriever() Retriever
	Strategist() Strategist
	Communicator() Communicator
	Followups() FollowupSuggester
}

// DataSource is the schema-introspectable store the retrieval tools run against.
type DataSource interface {
	Dialect() string
	TableNames(ctx context.Context) ([]string, error)
	DescribeTables(ctx context.Context, tables []string, withSamples bool) (string, error)
	Query(ctx context.Context, query string) (QueryResult, error)
}

// Recorder receives orchestration outcomes for metrics.
type Recorder interface {
	ObservePath(path Path, seconds float64)
	ObserveDegraded(stage string)
}
