package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DriverDiskv, cfg.Storage.Driver)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, 30*24, cfg.Auth.SessionTTLHours)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
storage:
  driver: memory
auth:
  session_ttl_hours: 48
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "data", cfg.Storage.DataDir)
	assert.Equal(t, 48, cfg.Auth.SessionTTLHours)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600))

	t.Setenv("RHYTHMAI_ADDR", ":7070")
	t.Setenv("RHYTHMAI_STORAGE_DRIVER", "memory")
	t.Setenv("RHYTHMAI_SESSION_TTL_HOURS", "12")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 12, cfg.Auth.SessionTTLHours)
}

func TestLoad_Validation(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("storage:\n  driver: etcd\n"), 0o600))
	_, err := Load(bad)
	assert.Error(t, err)

	pg := filepath.Join(dir, "pg.yml")
	require.NoError(t, os.WriteFile(pg, []byte("storage:\n  driver: postgres\n"), 0o600))
	_, err = Load(pg)
	assert.Error(t, err)

	malformed := filepath.Join(dir, "malformed.yml")
	require.NoError(t, os.WriteFile(malformed, []byte("server: [\n"), 0o600))
	_, err = Load(malformed)
	assert.Error(t, err)
}
