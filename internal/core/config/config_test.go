package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

const base = `
app:
  name: ecosol-test
auth:
  secret: 0123456789abcdef0123
db:
  driver: postgres
  dsn: postgres://localhost/ecosol
redis:
  addr: 127.0.0.1:6390
`

func TestLoadDefaults(t *testing.T) {
	c, err := Load(writeYAML(t, base))
	require.NoError(t, err)

	assert.Equal(t, "ecosol-test", c.App.Name)
	assert.Equal(t, 8080, c.App.HTTP.Port)
	assert.Equal(t, time.Hour, c.Auth.AccessTTL())
	assert.Equal(t, 5*time.Minute, c.Auth.RefreshWindow())
	assert.Equal(t, 30*time.Minute, c.Auth.ResetTTL())
	assert.Equal(t, "127.0.0.1:6390", c.Redis.Addr)
	assert.Equal(t, time.Minute, c.Cache.CategoryTTL())
	assert.EqualValues(t, 4, c.Mail.Workers)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_DB_DRIVER", "mysql")
	t.Setenv("APP_APP_HTTP_PORT", "9090")

	c, err := Load(writeYAML(t, base))
	require.NoError(t, err)
	assert.Equal(t, "mysql", c.DB.Driver)
	assert.Equal(t, 9090, c.App.HTTP.Port)
}

func TestLoadRejectsShortSecret(t *testing.T) {
	_, err := Load(writeYAML(t, `
auth:
  secret: short
db:
  dsn: x
`))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadCORSAndLimits(t *testing.T) {
	c, err := Load(writeYAML(t, `
app:
  corsOrigins:
    - https://ecosol.example
auth:
  secret: 0123456789abcdef0123
db:
  dsn: postgres://localhost/ecosol
limits:
  rps: 5
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://ecosol.example"}, c.App.CORSOrigins)
	assert.EqualValues(t, 5, c.Limits.RPS)
	assert.EqualValues(t, 200, c.Limits.GlobalRPS)
	assert.Equal(t, 400, c.Limits.GlobalBurst)
}
