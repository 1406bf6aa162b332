package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: http://api.test\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://api.test", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "0.08", cfg.Cart.TaxRate)
	assert.Equal(t, "/", cfg.Bridge.DefaultURL)
	assert.Equal(t, 8080, cfg.Kiosk.Port)
	assert.Equal(t, []string{"stdout"}, cfg.Log.OutputPaths)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: http://api.test\n  tenant: demo\n")
	t.Setenv("TABLEORDER_API_TENANT", "bistro")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bistro", cfg.API.Tenant)
}

func TestLoad_MissingAPI(t *testing.T) {
	path := writeConfig(t, "kiosk:\n  port: 9000\n")

	_, err := Load(path)
	require.ErrorContains(t, err, "api.base_url")
}

func TestLoad_UnknownBackend(t *testing.T) {
	path := writeConfig(t, "api:\n  base_url: http://api.test\nstore:\n  backend: sqlite\n")

	_, err := Load(path)
	require.ErrorContains(t, err, "unknown store backend")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "failed to read config file")
}

func TestMySQLDSN(t *testing.T) {
	c := MySQLConfig{Host: "db", Port: 3306, Username: "u", Password: "p", Database: "orders"}
	assert.Equal(t, "u:p@tcp(db:3306)/orders?charset=utf8mb4&parseTime=True&loc=Local", c.DSN())
}
