package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ";", cfg.Data.Delimiter)
	assert.Equal(t, ';', cfg.Data.DelimiterRune())
	assert.True(t, cfg.Votes.Enabled)
	assert.Equal(t, ":8080", cfg.Server.Addr())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
server:
  port: 9000
  read_timeout: 5s
logging:
  level: debug
  format: text
data:
  path: export.xlsx
  delimiter: ","
security:
  allowed_origins: [https://a.example, https://b.example]
`)
	t.Setenv("SOCKEN_SERVER_PORT", "9100")
	t.Setenv("SOCKEN_VOTES_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env wins over file")
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout, "default kept")
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "xlsx", cfg.Data.ResolvedFormat())
	assert.Equal(t, ',', cfg.Data.DelimiterRune())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
	assert.False(t, cfg.Votes.Enabled)
}

func TestLoadEnvList(t *testing.T) {
	t.Setenv("SOCKEN_SECURITY_ALLOWED_ORIGINS", "https://x.example,https://y.example")
	t.Setenv("SOCKEN_DATA_PATH", "/srv/antworten.csv")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "/srv/antworten.csv", cfg.Data.Path)
	assert.Equal(t, "csv", cfg.Data.ResolvedFormat())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "unknown field", content: "server:\n  prot: 1\n"},
		{name: "bad level", content: "logging:\n  level: loud\n"},
		{name: "bad port", env: map[string]string{"SOCKEN_SERVER_PORT": "0"}},
		{name: "port not a number", env: map[string]string{"SOCKEN_SERVER_PORT": "eighty"}},
		{name: "long delimiter", content: "data:\n  delimiter: \";;\"\n"},
		{name: "bad data format", content: "data:\n  format: ods\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.content != "" {
				path = writeFile(t, tt.content)
			}
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
}
