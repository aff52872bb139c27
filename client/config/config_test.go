package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const validYAML = `
solarwinds:
  host: orion.example.com
  username: admin
  password: secret
  custom_property: Monitored
  insecure_tls: false
thousandeyes:
  email: ops@example.com
  token: token123
`

func TestLoadYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "solareyes.yaml", validYAML))
	require.NoError(t, err)

	assert.Equal(t, "orion.example.com", cfg.SolarWinds.Host)
	assert.Equal(t, "admin", cfg.SolarWinds.Username)
	assert.Equal(t, "ops@example.com", cfg.ThousandEyes.Email)
	assert.Equal(t, "Monitored", cfg.SolarWinds.CustomProperty)
	assert.False(t, cfg.SolarWinds.InsecureTLS)

	// defaults
	assert.Equal(t, "https://api.thousandeyes.com/v6", cfg.ThousandEyes.URL)
	assert.Equal(t, "SE_", cfg.Test.Prefix)
	assert.Equal(t, "TCP", cfg.Test.Protocol)
	assert.Equal(t, 80, cfg.Test.Port)
	assert.Equal(t, 300, cfg.Test.Interval)
	assert.False(t, cfg.Test.Alerts)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SOLAREYES_TEST_PREFIX", "PROD_")
	t.Setenv("SOLAREYES_SOLARWINDS_PASSWORD", "fromenv")
	t.Setenv("SOLAREYES_SOLARWINDS_CUSTOM_PROPERTY", "Monitored")
	t.Setenv("SOLAREYES_THOUSANDEYES_TOKEN", "fromenv123")

	cfg, err := Load(writeFile(t, "solareyes.yaml", validYAML))
	require.NoError(t, err)

	assert.Equal(t, "PROD_", cfg.Test.Prefix)
	assert.Equal(t, "fromenv", cfg.SolarWinds.Password)
	assert.Equal(t, "Monitored", cfg.SolarWinds.CustomProperty)
	assert.Equal(t, "fromenv123", cfg.ThousandEyes.Token)
}

func TestLoadIgnoresUnrelatedPrefixedEnv(t *testing.T) {
	// the config file flag and the logger share the env prefix
	t.Setenv("SOLAREYES_CONFIG", "/etc/solareyes.yaml")
	t.Setenv("SOLAREYES_LOG_LEVEL", "debug")

	cfg, err := Load(writeFile(t, "solareyes.yaml", validYAML))
	require.NoError(t, err)
	assert.Equal(t, "orion.example.com", cfg.SolarWinds.Host)
}

func TestLoadEnvOnly(t *testing.T) {
	t.Setenv("SOLAREYES_SOLARWINDS_HOST", "orion.example.com")
	t.Setenv("SOLAREYES_SOLARWINDS_USERNAME", "admin")
	t.Setenv("SOLAREYES_SOLARWINDS_PASSWORD", "secret")
	t.Setenv("SOLAREYES_THOUSANDEYES_EMAIL", "ops@example.com")
	t.Setenv("SOLAREYES_THOUSANDEYES_TOKEN", "token123")

	// the file doesn't exist; environment carries everything
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "orion.example.com", cfg.SolarWinds.Host)

	// defaults
	assert.Equal(t, "TE_Monitor", cfg.SolarWinds.CustomProperty)
	assert.True(t, cfg.SolarWinds.InsecureTLS)
}

func TestValidateCollectsEverything(t *testing.T) {
	cfg := &Settings{}
	cfg.Test.Port = 0
	cfg.Test.Interval = 0

	err := cfg.Validate()
	require.Error(t, err)

	for _, want := range []string{
		"solarwinds.host",
		"solarwinds.username",
		"solarwinds.password",
		"thousandeyes.email",
		"thousandeyes.token",
		"test.prefix",
		"test.port",
		"test.interval",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeFile(t, "solareyes.yaml", "solarwinds:\n  host: orion.example.com\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid configuration")
}
