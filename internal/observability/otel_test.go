package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pilotscope/internal/config"
	"pilotscope/internal/logger"
)

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), logger.Nop(), config.TracingConfig{}, "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
	assert.NotNil(t, Tracer())
}

func TestInitTracingStdout(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), logger.Nop(), config.TracingConfig{Enabled: true, SampleRatio: 2}, "test")
	require.NoError(t, err)
	_, span := Tracer().Start(context.Background(), "smoke")
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}
