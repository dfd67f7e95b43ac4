package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDisabled(t *testing.T) {
	require.NoError(t, Init(Config{Enabled: false}))
	assert.NoError(t, Shutdown(context.Background()))
}

func TestInitWithStdoutExporter(t *testing.T) {
	cfg := Config{
		Enabled:        true,
		OTLPEndpoint:   "",
		ServiceName:    "crosslens-test",
		ServiceVersion: "0.0.1",
		Environment:    "test",
	}
	require.NoError(t, Init(cfg))
	assert.NoError(t, Shutdown(context.Background()))
}
