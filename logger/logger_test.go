package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapter_WithField(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel).WithField("job", "setting up github")

	l.Info("step started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "step started", entry["message"])
	assert.Equal(t, "setting up github", entry["job"])
	assert.Contains(t, entry, "time")
}

func TestZerologAdapter_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.WarnLevel)

	l.Debug("hidden")
	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNullLogger(t *testing.T) {
	l := NewNullLogger()
	l.Info("nothing")
	assert.IsType(t, NullLogger{}, l.WithField("k", "v"))
}
