package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	"github.com/tanpawarit/logistics-control-tower/pkg/warehouse"
)

type fakeOrchestrator struct {
	mu       sync.Mutex
	out      contractx.OrchestrationResult
	err      error
	requests []contractx.QueryRequest
	deadline bool
}

func (f *fakeOrchestrator) Submit(ctx context.Context, req contractx.QueryRequest) (contractx.OrchestrationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	_, f.deadline = ctx.Deadline()
	return f.out, f.err
}

type fakeCatalog struct {
	err error
}

func (f *fakeCatalog) DescribeTables(context.Context, []string, bool) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "CREATE TABLE shipments (id INTEGER)", nil
}

func (f *fakeCatalog) Sample(_ context.Context, n int) (warehouse.SampleSet, error) {
	if f.err != nil {
		return warehouse.SampleSet{}, f.err
	}
	return warehouse.SampleSet{
		Shipments: []warehouse.Shipment{{ID: 10, Origin: "London", Cost: 1200.5, Revenue: 1800}},
		Vehicles:  []warehouse.Vehicle{},
		Drivers:   []warehouse.Driver{},
	}, nil
}

func testConfig() Config {
	return Config{
		Addr:           ":0",
		RequestTimeout: time.Minute,
		AllowedOrigins: []string{"*"},
		SampleRows:     5,
	}
}

func newTestServer(t *testing.T, cfg Config, orch *fakeOrchestrator, catalog *fakeCatalog, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s, err := New(cfg, orch, catalog, opts...)
	require.NoError(t, err)
	return s
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestQuerySuccess(t *testing.T) {
	orch := &fakeOrchestrator{out: contractx.OrchestrationResult{
		Summary:   "Two shipments are delayed.",
		Trace:     "SELECT 1;",
		Followups: []string{"A?", "B?", "C?"},
	}}
	s := newTestServer(t, testConfig(), orch, &fakeCatalog{})

	w := do(s, http.MethodPost, "/query", `{"query":"Show me delayed shipments","role":"Fleet Operator","history":"User: hi\nAssistant: hello"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Two shipments are delayed.", body["summary"])
	assert.Equal(t, "SELECT 1;", body["sql"])
	assert.Contains(t, body, "error")
	assert.Nil(t, body["error"])
	assert.Len(t, body["followups"], 3)

	require.Len(t, orch.requests, 1)
	assert.Equal(t, contractx.RoleOperator, orch.requests[0].Role)
	assert.Len(t, orch.requests[0].History, 2)
	assert.True(t, orch.deadline, "request timeout must reach the orchestrator")
}

func TestQueryErrorFieldAndEmptyFollowups(t *testing.T) {
	orch := &fakeOrchestrator{out: contractx.OrchestrationResult{
		Summary: "Unable to retrieve logistics data: boom",
		Trace:   "ERROR",
		Error:   "boom",
	}}
	s := newTestServer(t, testConfig(), orch, &fakeCatalog{})

	w := do(s, http.MethodPost, "/query", `{"query":"list vehicles","role":"Logistics Manager"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"summary":"Unable to retrieve logistics data: boom","sql":"ERROR","error":"boom","followups":[]}`, w.Body.String())
}

func TestQueryRejectsMalformedInput(t *testing.T) {
	orch := &fakeOrchestrator{}
	s := newTestServer(t, testConfig(), orch, &fakeCatalog{})

	cases := map[string]string{
		"missing query": `{"role":"Guest"}`,
		"blank query":   `{"query":"   "}`,
		"bad json":      `{"query":`,
		"unknown role":  `{"query":"list vehicles","role":"Admin"}`,
	}
	for name, body := range cases {
		w := do(s, http.MethodPost, "/query", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}
	assert.Empty(t, orch.requests)
}

func TestQueryValidationErrorFromOrchestrator(t *testing.T) {
	orch := &fakeOrchestrator{err: errors.Join(contractx.ErrValidation, errors.New("bad speaker"))}
	s := newTestServer(t, testConfig(), orch, &fakeCatalog{})

	w := do(s, http.MethodPost, "/query", `{"query":"list vehicles"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	orch.err = errors.New("unexpected")
	w = do(s, http.MethodPost, "/query", `{"query":"list vehicles"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	healthy := true
	s := newTestServer(t, testConfig(), &fakeOrchestrator{}, &fakeCatalog{},
		WithReadiness(func() map[string]error {
			if healthy {
				return map[string]error{"warehouse": nil}
			}
			return map[string]error{"warehouse": nil, "openrouter": errors.New("401 unauthorized")}
		}),
	)

	w := do(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = do(s, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready","checks":{"warehouse":"ok"}}`, w.Body.String())

	healthy = false
	w = do(s, http.MethodGet, "/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unavailable","checks":{"warehouse":"ok","openrouter":"401 unauthorized"}}`, w.Body.String())
}

func TestSampleAndSchema(t *testing.T) {
	catalog := &fakeCatalog{}
	s := newTestServer(t, testConfig(), &fakeOrchestrator{}, catalog)

	w := do(s, http.MethodGet, "/sample", "")
	require.Equal(t, http.StatusOK, w.Code)
	var set map[string][]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &set))
	assert.Len(t, set["shipments"], 1)
	assert.Contains(t, set, "vehicles")
	assert.Contains(t, set, "drivers")
	assert.NotContains(t, set["shipments"][0], "cost")
	assert.NotContains(t, set["shipments"][0], "revenue")

	w = do(s, http.MethodGet, "/schema", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"schema":"CREATE TABLE shipments (id INTEGER)"}`, w.Body.String())

	catalog.err = errors.New("db down")
	w = do(s, http.MethodGet, "/sample", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestCORSPreflight(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedOrigins = []string{"https://tower.example.com"}
	s := newTestServer(t, cfg, &fakeOrchestrator{}, &fakeCatalog{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/query", http.NoBody)
	req.Header.Set("Origin", "https://tower.example.com")
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://tower.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set("Origin", "https://evil.example.com")
	s.Handler().ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = "1-M"
	s := newTestServer(t, cfg, &fakeOrchestrator{}, &fakeCatalog{})

	require.Equal(t, http.StatusOK, do(s, http.MethodGet, "/schema", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(s, http.MethodGet, "/schema", "").Code)
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/health", "").Code, "health is not rate limited")
}

func TestInvalidRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = "lots"
	_, err := New(cfg, &fakeOrchestrator{}, &fakeCatalog{})
	require.Error(t, err)
}

func TestRequestIDIsPropagated(t *testing.T) {
	s := newTestServer(t, testConfig(), &fakeOrchestrator{}, &fakeCatalog{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set(RequestIDHeader, "req-123")
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Addr = "127.0.0.1:0"
	s := newTestServer(t, cfg, &fakeOrchestrator{}, &fakeCatalog{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
