package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: "warn", Format: "json", Prefix: "api"})

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("quote lookup failed", "symbol", "NFLX")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "quote lookup failed", line["msg"])
	assert.Equal(t, "NFLX", line["symbol"])
	assert.Equal(t, "api", line["prefix"])
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: "chatty"})
	log.Debug("no")
	assert.Zero(t, buf.Len())
	log.Info("yes")
	assert.Contains(t, buf.String(), "yes")
}
