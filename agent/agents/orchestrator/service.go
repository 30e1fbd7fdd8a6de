package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/oops"

	contractx "github.com/tanpawarit/logistics-control-tower/agent/contract"
	nodex "github.com/tanpawarit/logistics-control-tower/agent/nodes"
)

// SystemErrorSummary is returned when orchestration fails unexpectedly.
const SystemErrorSummary = "The control tower hit an internal error while processing your request. Please try again shortly."

type Config struct {
	// Timeout bounds a whole orchestration. Zero leaves it to the caller.
	Timeout time.Duration `envconfig:"TIMEOUT" default:"60s"`
}

type Orchestrator struct {
	agents   contractx.Registry
	recorder contractx.Recorder

	graphRunner compose.Runnable[*nodex.GraphState, nodex.GraphOutput]

	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

type Option func(*Orchestrator)

func WithRecorder(r contractx.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func New(agents contractx.Registry, cfg Config, opts ...Option) (*Orchestrator, error) {
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}

	o := &Orchestrator{
		agents:   agents,
		recorder: noopRecorder{},
		timeout:  cfg.Timeout,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}

	graphRunner, err := o.compileSubmitQueryGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Submit answers one query. Malformed input is returned as an error; every
// other outcome, internal failures included, comes back as a result.
func (o *Orchestrator) Submit(ctx context.Context, req contractx.QueryRequest) (contractx.OrchestrationResult, error) {
	requestID := requestIDFrom(ctx)
	if requestID == "" {
		requestID = o.newID()
	}

	state, err := nodex.ValidateRequest(requestID, req, o.now())
	if err != nil {
		return contractx.OrchestrationResult{}, err
	}

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	logger := zerolog.Ctx(ctx).With().Str("request_id", requestID).Logger()
	ctx = logger.WithContext(ctx)

	start := time.Now()
	var (
		out       nodex.GraphOutput
		invokeErr error
	)
	runErr := oops.Recoverf(func() {
		out, invokeErr = o.graphRunner.Invoke(ctx, state)
	}, "orchestrate query")
	if runErr == nil {
		runErr = invokeErr
	}

	if runErr != nil {
		out = o.systemError(ctx, state, runErr)
	}

	o.recorder.ObservePath(out.Path, time.Since(start).Seconds())
	logger.Info().
		Str("role", string(state.Role)).
		Str("path", string(out.Path)).
		Bool("has_error", out.Error != "").
		Dur("took", time.Since(start)).
		Msg("query orchestrated")

	return out, nil
}

func (o *Orchestrator) systemError(ctx context.Context, state *nodex.GraphState, cause error) nodex.GraphOutput {
	err := oops.
		In("orchestrator").
		Trace(state.RequestID).
		With("role", string(state.Role)).
		With("intent", string(state.Intent)).
		Wrapf(cause, "submit query")

	event := zerolog.Ctx(ctx).Error().Err(err).Str("query", state.Query)
	if oopsErr, ok := oops.AsOops(err); ok {
		event = event.Str("stacktrace", oopsErr.Stacktrace())
	}
	event.Msg("orchestration failed")

	return nodex.GraphOutput{
		Summary:   SystemErrorSummary,
		Trace:     nodex.RetrievalFailedTrace,
		Error:     unwrapMessage(cause),
		Followups: []string{},
		Path:      contractx.PathSystemError,
		Intent:    state.Intent,
	}
}

func unwrapMessage(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if inner := oopsErr.Unwrap(); inner != nil {
			return inner.Error()
		}
	}
	return err.Error()
}

type requestIDKey struct{}

// WithRequestID stores an inbound request id so audit lines share it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type noopRecorder struct{}

func (noopRecorder) ObservePath(contractx.Path, float64) {}

func (noopRecorder) ObserveDegraded(string) {}
