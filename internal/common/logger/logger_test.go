package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentTagsEvents(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf).With().Str("service", "test").Logger()

	l := Component("resolver")
	l.Info().Str("endpoint", "http://a").Msg("resolved")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "resolver", entry["component"])
	assert.Equal(t, "test", entry["service"])
	assert.Equal(t, "http://a", entry["endpoint"])
}

func TestInitHonoursDebug(t *testing.T) {
	saved := log.Logger
	defer func() { log.Logger = saved }()

	Init("test", false)
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())

	Init("test", true)
	assert.Equal(t, zerolog.DebugLevel, log.Logger.GetLevel())
}
