package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[network]
tick_rate = "100ms"

[scene]
group_load_range = 120.0
group_unload_range = 180.0
`))
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.Network.TickRate)
	assert.Equal(t, 120.0, cfg.Scene.GroupLoadRange)
	assert.Equal(t, "0.0.0.0:22102", cfg.Network.BindAddress)
	assert.Equal(t, uint32(3), cfg.Scene.DefaultSceneID)
	assert.Equal(t, "utf-8", cfg.Client.Charset)
	assert.Empty(t, cfg.Database.DSN)
	assert.False(t, cfg.Nats.Enabled)
	assert.Equal(t, 60, cfg.PacketsPerSecond())
	assert.NotZero(t, cfg.Server.StartTime)
}

func TestParseRejectsInvertedRanges(t *testing.T) {
	_, err := Parse([]byte(`
[scene]
group_load_range = 300.0
group_unload_range = 100.0
`))
	assert.Error(t, err)
}

func TestParseRequiresListener(t *testing.T) {
	_, err := Parse([]byte(`
[network]
bind_address = ""
http_bind_address = ""
`))
	assert.Error(t, err)
}

func TestRateLimitDisabled(t *testing.T) {
	cfg, err := Parse([]byte("[rate_limit]\nenabled = false\n"))
	require.NoError(t, err)
	assert.Zero(t, cfg.PacketsPerSecond())
}

func TestLoadAndPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nname = \"test\"\n"), 0o644))

	t.Setenv(EnvPath, path)
	assert.Equal(t, path, Path())

	cfg, err := Load(Path())
	require.NoError(t, err)
	assert.Equal(t, "test", cfg.Server.Name)

	t.Setenv(EnvPath, "")
	assert.Equal(t, DefaultPath, Path())

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
