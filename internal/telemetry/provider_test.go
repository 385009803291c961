package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledProviderNoOpsTracerAndShutdown(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, p.Tracer())
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestEnabledProviderRecordsSpansAndShutsDown(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, ServiceName: "test"})
	require.NoError(t, err)

	ctx, span := p.Tracer().Start(context.Background(), "unit-test-span")
	span.End()
	_ = ctx

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestStagePropagatesErrorAndRecordsIt(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, ServiceName: "test"})
	require.NoError(t, err)
	defer p.Shutdown(context.Background())

	wantErr := errors.New("boom")
	gotErr := p.Stage(context.Background(), "failing-stage", func(context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, gotErr, wantErr)

	gotErr = p.Stage(context.Background(), "ok-stage", func(context.Context) error { return nil })
	assert.NoError(t, gotErr)
}
