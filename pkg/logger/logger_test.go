package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONOutsideDevelopment(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("allocation-service", "production", &buf)

	log.WithComponent("planner").WithActor(7, 1).Info().Msg("plan built")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "allocation-service", entry["service"])
	assert.Equal(t, "planner", entry["component"])
	assert.Equal(t, "7", entry["actor_id"])
	assert.Equal(t, "1", entry["scope_id"])
	assert.Equal(t, "plan built", entry["message"])
}

func TestNewWithWriter_ProductionSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("allocation-service", "production", &buf)

	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestNewWithWriter_TestEnvironmentIsSilent(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("allocation-service", "test", &buf)

	log.Error().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("allocation-service", "staging", &buf).WithRequestID("req-1")

	log.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
}
