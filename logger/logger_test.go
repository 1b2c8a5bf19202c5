package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Out: &buf})
	l.Info().Msg("hidden")
	l.Warn().Str("component", "test").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"component":"test"`)
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"unknown", zerolog.InfoLevel},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, ParseLevel(tc.level), tc.level)
	}
}

func TestSetGlobal(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	prev := log.Logger
	defer func() { log.Logger = prev }()

	var buf bytes.Buffer
	SetGlobal(New(Config{Level: "info", Pretty: true, Out: &buf}))
	log.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
}
