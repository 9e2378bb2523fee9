package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, ErrorLevel, ParseLevel("error"))
	assert.Equal(t, InfoLevel, ParseLevel("verbose"))
}

func TestConfigureWritesJSONAndFile(t *testing.T) {
	defer Configure(Config{Level: InfoLevel, Pretty: true})

	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "chat.log")

	log, closer := Configure(Config{Level: WarnLevel, Output: &buf, File: path, MaxSizeMB: 1})

	log.Info().Msg("dropped")
	hub := Component("hub")
	hub.Warn().Str("groupId", "g1").Msg("kept")
	require.NoError(t, closer.Close())

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"component":"hub"`)
	assert.Contains(t, buf.String(), `"groupId":"g1"`)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "kept")
}
