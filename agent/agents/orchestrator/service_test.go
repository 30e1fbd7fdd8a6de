package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	nodex "github.com/tanpawarit/logistics-control-tower/agent/nodes"
	"github.com/tanpawarit/logistics-control-tower/agent/policy"
)

type fakeRetriever struct {
	mu    sync.Mutex
	resp  contractx.RetrievalResult
	err   error
	panic bool
	calls []contractx.RetrievalRequest
}

func (f *fakeRetriever) Retrieve(ctx context.Context, req contractx.RetrievalRequest) (contractx.RetrievalResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.panic {
		panic("nil map write")
	}
	if f.err != nil {
		return contractx.RetrievalResult{}, f.err
	}
	return f.resp, nil
}

func (f *fakeRetriever) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeStrategist struct {
	advice string
	err    error
	calls  int
	facts  string
}

func (f *fakeStrategist) Advise(ctx context.Context, req contractx.StrategyRequest) (string, error) {
	f.calls++
	f.facts = req.Facts
	if f.err != nil {
		return "", f.err
	}
	return f.advice, nil
}

type fakeCommunicator struct {
	calls int
}

func (f *fakeCommunicator) Handle(ctx context.Context, query string) (contractx.CommunicationResponse, error) {
	f.calls++
	return contractx.CommunicationResponse{
		Summary:   "INBOX DIGEST",
		Followups: []string{"Reply to Tech Corp"},
	}, nil
}

type fakeFollowups struct {
	mu    sync.Mutex
	out   contractx.Followups
	calls int
	seen  string
}

func (f *fakeFollowups) Suggest(ctx context.Context, req contractx.FollowupRequest) contractx.Followups {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.seen = req.ResponseText
	return f.out
}

type fakeRegistry struct {
	retriever    *fakeRetriever
	strategist   *fakeStrategist
	communicator *fakeCommunicator
	followups    *fakeFollowups
}

func (r *fakeRegistry) Retriever() contractx.Retriever       { return r.retriever }
func (r *fakeRegistry) Strategist() contractx.Strategist     { return r.strategist }
func (r *fakeRegistry) Communicator() contractx.Communicator { return r.communicator }
func (r *fakeRegistry) Followups() contractx.FollowupSuggester {
	return r.followups
}

type fakeRecorder struct {
	mu       sync.Mutex
	paths    []contractx.Path
	degraded []string
}

func (f *fakeRecorder) ObservePath(p contractx.Path, _ float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, p)
}

func (f *fakeRecorder) ObserveDegraded(stage string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.degraded = append(f.degraded, stage)
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		retriever: &fakeRetriever{resp: contractx.RetrievalResult{
			Facts: "Shipments 14 and 50 are delayed.",
			Trace: "SELECT id FROM shipments WHERE status = 'Delayed';",
		}},
		strategist:   &fakeStrategist{advice: "1. Reroute shipment 50."},
		communicator: &fakeCommunicator{},
		followups: &fakeFollowups{out: contractx.Followups{
			Questions: []string{"A?", "B?", "C?"},
			Source:    contractx.FollowupsGenerated,
		}},
	}
}

func newTestOrchestrator(t *testing.T, reg *fakeRegistry, rec *fakeRecorder) *Orchestrator {
	t.Helper()

	o, err := New(reg, Config{Timeout: 5 * time.Second},
		WithRecorder(rec),
		WithClock(func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func TestSubmitAnalyticsWithoutStrategy(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	rec := &fakeRecorder{}
	o := newTestOrchestrator(t, reg, rec)

	out, err := o.Submit(context.Background(), contractx.QueryRequest{
		Query: "Show me delayed shipments",
		Role:  contractx.RoleOperator,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if out.Path != contractx.PathAnalytics {
		t.Fatalf("unexpected path: %s", out.Path)
	}
	if out.Summary != "Shipments 14 and 50 are delayed." {
		t.Fatalf("unexpected summary: %q", out.Summary)
	}
	if strings.Contains(out.Summary, nodex.StrategistHeading) {
		t.Fatalf("strategy section must be absent: %q", out.Summary)
	}
	if reg.strategist.calls != 0 {
		t.Fatalf("strategist must not run, calls=%d", reg.strategist.calls)
	}
	if len(out.Followups) != 3 {
		t.Fatalf("expected 3 followups, got %v", out.Followups)
	}
	if out.Error != "" {
		t.Fatalf("unexpected error: %s", out.Error)
	}
	if out.Trace != "SELECT id FROM shipments WHERE status = 'Delayed';" {
		t.Fatalf("unexpected trace: %q", out.Trace)
	}
	if reg.followups.seen != out.Summary {
		t.Fatalf("followups must see the final summary, got %q", reg.followups.seen)
	}
	if len(rec.paths) != 1 || rec.paths[0] != contractx.PathAnalytics {
		t.Fatalf("unexpected recorded paths: %v", rec.paths)
	}
}

func TestSubmitGuestFinancialDenied(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	o := newTestOrchestrator(t, reg, &fakeRecorder{})

	for _, query := range []string{"What is my salary?", "total COST per route", "Email me the price list"} {
		out, err := o.Submit(context.Background(), contractx.QueryRequest{Query: query, Role: contractx.RoleGuest})
		if err != nil {
			t.Fatalf("Submit(%q) error = %v", query, err)
		}
		if out.Summary != policy.AccessDeniedSummary {
			t.Fatalf("Submit(%q) summary = %q", query, out.Summary)
		}
		if out.Error != "" {
			t.Fatalf("Submit(%q) error field = %q", query, out.Error)
		}
		if out.Followups == nil || len(out.Followups) != 0 {
			t.Fatalf("Submit(%q) followups = %#v", query, out.Followups)
		}
		if out.Path != contractx.PathDenied {
			t.Fatalf("Submit(%q) path = %s", query, out.Path)
		}
	}

	if reg.retriever.callCount() != 0 || reg.communicator.calls != 0 {
		t.Fatal("denied requests must not reach any agent")
	}
}

func TestSubmitEmptyRoleIsGuest(t *testing.T) {
	t.Parallel()

	o := newTestOrchestrator(t, newFakeRegistry(), &fakeRecorder{})
	out, err := o.Submit(context.Background(), contractx.QueryRequest{Query: "how much money did we make"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Path != contractx.PathDenied {
		t.Fatalf("empty role must be treated as Guest, path=%s", out.Path)
	}
}

func TestSubmitCommunication(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	o := newTestOrchestrator(t, reg, &fakeRecorder{})

	for _, role := range []contractx.Role{contractx.RoleManager, contractx.RoleOperator, contractx.RoleGuest} {
		out, err := o.Submit(context.Background(), contractx.QueryRequest{Query: "Check my inbox", Role: role})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if out.Path != contractx.PathCommunication || out.Summary != "INBOX DIGEST" {
			t.Fatalf("unexpected communication result for %s: %+v", role, out)
		}
		if len(out.Followups) != 1 {
			t.Fatalf("communication must supply its own followups: %v", out.Followups)
		}
	}

	if reg.retriever.callCount() != 0 {
		t.Fatal("communication queries must never invoke retrieval")
	}
	if reg.followups.calls != 0 {
		t.Fatal("communication path skips followup generation")
	}
}

func TestSubmitStrategySections(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	o := newTestOrchestrator(t, reg, &fakeRecorder{})

	out, err := o.Submit(context.Background(), contractx.QueryRequest{
		Query: "Why are shipments delayed and how do we fix it?",
		Role:  contractx.RoleManager,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	want := nodex.AnalystHeading + "\nShipments 14 and 50 are delayed.\n\n" + nodex.StrategistHeading + "\n1. Reroute shipment 50."
	if out.Summary != want {
		t.Fatalf("unexpected summary:\n%s\nwant:\n%s", out.Summary, want)
	}
	if reg.strategist.facts != "Shipments 14 and 50 are delayed." {
		t.Fatalf("strategist must receive the facts, got %q", reg.strategist.facts)
	}
	analyst := strings.Index(out.Summary, nodex.AnalystHeading)
	strategist := strings.Index(out.Summary, nodex.StrategistHeading)
	if analyst < 0 || strategist < analyst {
		t.Fatalf("facts section must precede strategy section: %q", out.Summary)
	}
}

func TestSubmitStrategyFailureDegrades(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	reg.strategist.err = fmt.Errorf("%w: upstream timeout", contractx.ErrStrategy)
	rec := &fakeRecorder{}
	o := newTestOrchestrator(t, reg, rec)

	out, err := o.Submit(context.Background(), contractx.QueryRequest{
		Query: "How can we optimize routes?",
		Role:  contractx.RoleManager,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Summary != "Shipments 14 and 50 are delayed." {
		t.Fatalf("strategy failure must degrade to facts only: %q", out.Summary)
	}
	if out.Error != "" {
		t.Fatalf("strategy failure must not surface: %q", out.Error)
	}
	if len(out.Followups) != 3 {
		t.Fatalf("followups must still run: %v", out.Followups)
	}
	if len(rec.degraded) != 1 || rec.degraded[0] != "strategy" {
		t.Fatalf("unexpected degraded stages: %v", rec.degraded)
	}
}

func TestSubmitRetrievalFailure(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	reg.retriever.err = fmt.Errorf("%w: %w", contractx.ErrRetrieval, contractx.ErrEmptyResult)
	o := newTestOrchestrator(t, reg, &fakeRecorder{})

	out, err := o.Submit(context.Background(), contractx.QueryRequest{
		Query: "How do we fix shipments from Atlantis?",
		Role:  contractx.RoleManager,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Path != contractx.PathRetrievalFailed {
		t.Fatalf("unexpected path: %s", out.Path)
	}
	if out.Error == "" || !strings.Contains(out.Error, "query returned no rows") {
		t.Fatalf("retrieval error must be surfaced: %q", out.Error)
	}
	if !strings.HasPrefix(out.Summary, "Unable to retrieve logistics data") {
		t.Fatalf("unexpected summary: %q", out.Summary)
	}
	if out.Followups == nil || len(out.Followups) != 0 {
		t.Fatalf("followups must be empty: %#v", out.Followups)
	}
	if reg.strategist.calls != 0 || reg.followups.calls != 0 {
		t.Fatal("strategy and followups must not run after a retrieval failure")
	}
}

func TestSubmitUnexpectedRetrieverErrorIsRetrievalError(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	reg.retriever.err = errors.New("connection refused")
	o := newTestOrchestrator(t, reg, &fakeRecorder{})

	out, err := o.Submit(context.Background(), contractx.QueryRequest{Query: "list vehicles", Role: contractx.RoleOperator})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Path != contractx.PathRetrievalFailed || !strings.Contains(out.Error, "connection refused") {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestSubmitPanicIsSystemError(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	reg.retriever.panic = true
	rec := &fakeRecorder{}
	o := newTestOrchestrator(t, reg, rec)

	out, err := o.Submit(context.Background(), contractx.QueryRequest{Query: "list vehicles", Role: contractx.RoleOperator})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Summary != SystemErrorSummary {
		t.Fatalf("unexpected summary: %q", out.Summary)
	}
	if out.Error == "" {
		t.Fatal("system errors must carry the underlying message")
	}
	if out.Followups == nil || len(out.Followups) != 0 {
		t.Fatalf("followups must be empty: %#v", out.Followups)
	}
	if len(rec.paths) != 1 || rec.paths[0] != contractx.PathSystemError {
		t.Fatalf("unexpected recorded paths: %v", rec.paths)
	}
}

func TestSubmitFollowupFallbackIsRecorded(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	reg.followups.out = contractx.Followups{
		Questions: []string{"X?", "Y?", "Z?"},
		Source:    contractx.FollowupsFallback,
		Err:       contractx.ErrFollowup,
	}
	rec := &fakeRecorder{}
	o := newTestOrchestrator(t, reg, rec)

	out, err := o.Submit(context.Background(), contractx.QueryRequest{Query: "list vehicles", Role: contractx.RoleManager})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if out.Error != "" || len(out.Followups) != 3 {
		t.Fatalf("fallback followups must not fail the request: %+v", out)
	}
	if len(rec.degraded) != 1 || rec.degraded[0] != "followup" {
		t.Fatalf("unexpected degraded stages: %v", rec.degraded)
	}
}

func TestSubmitHistoryIsForwarded(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	o := newTestOrchestrator(t, reg, &fakeRecorder{})

	history := []contractx.Turn{
		{Speaker: contractx.SpeakerUser, Text: "Show me delayed shipments"},
		{Speaker: contractx.SpeakerAssistant, Text: "Shipments 14 and 50."},
	}
	if _, err := o.Submit(context.Background(), contractx.QueryRequest{
		Query:   "Which of those is high priority?",
		Role:    contractx.RoleManager,
		History: history,
	}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if len(reg.retriever.calls) != 1 || len(reg.retriever.calls[0].History) != 2 {
		t.Fatalf("history must reach retrieval: %+v", reg.retriever.calls)
	}
	if want := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC); !reg.retriever.calls[0].Now.Equal(want) {
		t.Fatalf("retrieval must see the orchestrator clock, got %v", reg.retriever.calls[0].Now)
	}
}

func TestSubmitRejectsMalformedInput(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	o := newTestOrchestrator(t, reg, &fakeRecorder{})

	if _, err := o.Submit(context.Background(), contractx.QueryRequest{Query: "   ", Role: contractx.RoleManager}); !errors.Is(err, contractx.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
	if _, err := o.Submit(context.Background(), contractx.QueryRequest{Query: "list vehicles", Role: "Admin"}); !errors.Is(err, contractx.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := o.Submit(context.Background(), contractx.QueryRequest{
		Query:   "list vehicles",
		History: []contractx.Turn{{Speaker: "system", Text: "x"}},
	}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if reg.retriever.callCount() != 0 {
		t.Fatal("malformed input must be rejected before orchestration")
	}
}

func TestSubmitConcurrentRequests(t *testing.T) {
	t.Parallel()

	reg := newFakeRegistry()
	reg.strategist = &fakeStrategist{advice: "advice"}
	o := newTestOrchestrator(t, reg, &fakeRecorder{})

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := o.Submit(context.Background(), contractx.QueryRequest{
				Query: fmt.Sprintf("list vehicles batch %d", i),
				Role:  contractx.RoleOperator,
			})
			if err != nil {
				errs <- err
				return
			}
			if out.Path != contractx.PathAnalytics {
				errs <- fmt.Errorf("request %d took path %s", i, out.Path)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if reg.retriever.callCount() != 16 {
		t.Fatalf("expected 16 retrievals, got %d", reg.retriever.callCount())
	}
}

func TestNewRequiresRegistry(t *testing.T) {
	t.Parallel()

	if _, err := New(nil, Config{}); err == nil {
		t.Fatal("expected error for nil registry")
	}
}
