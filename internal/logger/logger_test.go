package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer: &buf,
		Format: "json",
		Level:  slog.LevelInfo,
	})

	log.Info("server started", "port", "4000")

	out := buf.String()
	assert.Contains(t, out, `"msg":"server started"`)
	assert.Contains(t, out, `"port":"4000"`)
}

func TestNew_ProductionDefaultsToJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Environment: "production",
	})

	log.Info("hello")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), "production logs should be JSON")
}

func TestNew_DevelopmentDefaultsToPretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer:      &buf,
		Environment: "development",
	})

	log.Info("hello")
	assert.False(t, strings.HasPrefix(buf.String(), "{"), "development logs should be pretty")
	assert.Contains(t, buf.String(), "hello")
}

func TestPrettyHandler_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer: &buf,
		Format: "pretty",
		Level:  slog.LevelWarn,
	})

	log.Debug("should not appear")
	log.Info("should not appear either")
	log.Warn("warning is visible")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "warning is visible")
}

func TestPrettyHandler_Attrs(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{
		Writer: &buf,
		Format: "pretty",
	})

	child := log.With("component", "store")
	child.Info("opened", "path", "/tmp/db")

	out := buf.String()
	require.Contains(t, out, "component=store")
	assert.Contains(t, out, "path=/tmp/db")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}
