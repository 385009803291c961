package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/codes"
)

// Stage wraps fn in a span named name, recording the error (if any) on the
// span before returning it. The engine wraps each whole Index or Update
// call in one Stage; the steps inside a cycle (detect, extract, mutate,
// commit) get no spans of their own.
func (p *Provider) Stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := p.Tracer().Start(ctx, name)
	defer span.End()

	if err := fn(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
