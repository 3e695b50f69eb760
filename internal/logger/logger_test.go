package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerSanitizesAndRedacts(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core).With("request_id", "req-1")

	log.Warn("provider failed",
		"industry", "retail\nFAKE LOG LINE",
		"hmac_secret", "s3cr3t",
		"x_signature", "abcdef",
		"error", errors.New("bad\tthing"),
		"attempt", 2,
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()

	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "retail FAKE LOG LINE", fields["industry"])
	assert.Equal(t, "[REDACTED]", fields["hmac_secret"])
	assert.Equal(t, "[REDACTED]", fields["x_signature"])
	assert.Equal(t, "bad thing", fields["error"])
	assert.EqualValues(t, 2, fields["attempt"])
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"prod", "dev", ""} {
		l, err := New(mode)
		require.NoError(t, err)
		require.NotNil(t, l.SugaredLogger)
	}
}
