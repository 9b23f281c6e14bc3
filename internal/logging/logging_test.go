package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToPrimaryAndExtraSinks(t *testing.T) {
	var primary, extra bytes.Buffer
	log := New(Config{Level: "debug", Format: "text", Output: &primary}, &extra)

	log.Info(context.Background(), "trace loaded", Int("total_steps", 12), Err(errors.New("boom")))

	assert.Contains(t, primary.String(), "trace loaded")
	assert.Contains(t, primary.String(), "total_steps=12")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(extra.Bytes(), &rec))
	assert.Equal(t, "trace loaded", rec["msg"])
	assert.Equal(t, float64(12), rec["total_steps"])
	assert.Equal(t, "boom", rec["error"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json", Output: &buf})

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestWithTraceLoggerReusesSolveID(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Output: &buf})

	ctx, log := WithTraceLogger(context.Background(), base)
	id := SolveIDFromContext(ctx)
	require.NotEmpty(t, id)

	ctx2, _ := WithTraceLogger(ctx, base)
	assert.Equal(t, id, SolveIDFromContext(ctx2))

	log.Info(ctx, "requesting solve")
	assert.True(t, strings.Contains(buf.String(), id), "log line should carry solve_id")
}

func TestLoggerContextRoundTrip(t *testing.T) {
	assert.Nil(t, LoggerFromContext(context.Background()))

	ctx := ContextWithLogger(context.Background(), nil)
	assert.NotNil(t, LoggerFromContext(ctx))
}
