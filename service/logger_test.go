package service

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(Config{LogLevel: "info", LogFormat: "json"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("visible", zap.Int("status", 200))
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "output: %s", buf.String())
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "sandbox-api", entry["service"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T`, entry["ts"])
}

func TestNewLoggerConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(Config{LogLevel: "debug", LogFormat: "console"}, zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("starting")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "starting")
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := newLogger(Config{LogLevel: "chatty"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}
