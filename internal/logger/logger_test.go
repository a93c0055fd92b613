package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := initTo(&buf, "warn", false)
	require.NoError(t, err)

	l.Info().Msg("hidden")
	l.Warn().Str("name", "home.example.com").Msg("shown")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "shown", line["message"])
	assert.Equal(t, "home.example.com", line["name"])
}

func TestInitPretty(t *testing.T) {
	var buf bytes.Buffer
	l, err := initTo(&buf, "debug", true)
	require.NoError(t, err)
	l.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestInitBadLevel(t *testing.T) {
	_, err := initTo(&bytes.Buffer{}, "loud", false)
	assert.Error(t, err)
}
