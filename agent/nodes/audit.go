package orchestratornode

import (
	"context"

	"github.com/rs/zerolog"
)

func audit(ctx context.Context, in *GraphState, stage string) *zerolog.Event {
	return zerolog.Ctx(ctx).Info().
		Str("request_id", in.RequestID).
		Str("role", string(in.Role)).
		Str("query", in.Query).
		Str("stage", stage)
}
