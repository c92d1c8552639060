// ABOUTME: Tests for the fitlife-api command helpers
// ABOUTME: Logger formatting, level parsing and the health probe

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Vladimir-28/FitLife/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "parseLevel(%q)", in)
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggingConfig{Level: "warn", Format: "json"})

	logger.Info("hidden")
	logger.With("component", "api").Warn("shown", "status", 500)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "api", rec["component"])
	assert.EqualValues(t, 500, rec["status"])
}

func TestColorHandler(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	logger := newLogger(&buf, config.LoggingConfig{Level: "debug", Format: "text"})

	logger.With("component", "store").WithGroup("req").Debug("query done", "rows", 3, "sql", "SELECT 1")

	out := buf.String()
	assert.Contains(t, out, "DBG query done")
	assert.Contains(t, out, "component=store")
	assert.Contains(t, out, "req.rows=3")
	assert.Contains(t, out, `req.sql="SELECT 1"`)
}

func TestProbe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health/ready" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	body, err := probe(context.Background(), srv.URL+"/health")
	require.NoError(t, err)
	assert.Equal(t, "OK", body)

	_, err = probe(context.Background(), srv.URL+"/health/ready")
	assert.ErrorContains(t, err, "status 503")
	assert.ErrorContains(t, err, "database unavailable")
}

func TestHashPasswordCmd(t *testing.T) {
	cmd := &HashPasswordCmd{Password: "secret1", Cost: bcrypt.MinCost}
	assert.NoError(t, cmd.Run(nil))

	cmd = &HashPasswordCmd{Password: "secret1", Cost: 99}
	assert.Error(t, cmd.Run(nil))

	cmd = &HashPasswordCmd{}
	assert.Error(t, cmd.Run(nil))
}
