package bootstrap

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigAndSetupLoggerToWritesToGivenOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jwt:
  secret: test-secret
logging:
  level: info
  format: json
`), 0o600))

	var out bytes.Buffer
	cfg, lgr, closer, err := LoadConfigAndSetupLoggerTo(path, &out)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, "test-secret", cfg.JWT.Secret)
	assert.Contains(t, out.String(), "Logger configured")

	out.Reset()
	lgr.Warn().Msg("send failed")
	assert.Contains(t, out.String(), `"message":"send failed"`)
}
