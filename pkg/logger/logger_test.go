package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnswerPath/social-autopilot-sub000/pkg/logger"
)

func TestNew_JSONWithServiceAttr(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Level: "info", Format: "json"},
		logger.WithOutput(&buf),
		logger.WithService("autopilot"),
	)
	require.NoError(t, err)

	log.Info("queue swept", "processed", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "queue swept", record["msg"])
	assert.Equal(t, "autopilot", record["service"])
	assert.Equal(t, float64(3), record["processed"])
}

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Level: "warn", Format: "text"}, logger.WithOutput(&buf))
	require.NoError(t, err)

	log.Info("ignored")
	log.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "ignored")
	assert.Contains(t, out, "kept")
}

func TestNew_TextFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logger.New(logger.Config{Format: "text"}, logger.WithOutput(&buf))
	require.NoError(t, err)

	log.Info("hello")
	assert.True(t, strings.Contains(buf.String(), "msg=hello"))
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := logger.New(logger.Config{Level: "loud"})
	assert.Error(t, err)

	_, err = logger.New(logger.Config{Format: "yaml"})
	assert.Error(t, err)
}
