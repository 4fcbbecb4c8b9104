package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("clinic-service", "production", &buf).
		WithComponent("billing").
		WithRequestID("req-1").
		WithUserID(7)

	log.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "clinic-service", entry["service"])
	assert.Equal(t, "billing", entry["component"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.EqualValues(t, 7, entry["user_id"])
	assert.Equal(t, "hello", entry["message"])
}

func TestLogger_ProductionSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("clinic-service", "production", &buf)

	log.Debug().Msg("noisy")
	assert.Empty(t, buf.String())
}
