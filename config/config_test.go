package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clearport.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
private_key = "0xkey"

[node]
url = "wss://file.example/ws"
asset_token = "0xToken"
timeout_seconds = 30

[http]
listen = ":9999"
`), 0o600))

	t.Setenv("CLEARPORT_NODE_URL", "wss://env.example/ws")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Env wins over the file.
	assert.Equal(t, "wss://env.example/ws", cfg.Node.URL)
	assert.Equal(t, "0xToken", cfg.Node.AssetToken)
	assert.Equal(t, ":9999", cfg.HTTP.Listen)
	assert.Equal(t, 30, cfg.Node.TimeoutSec)
	assert.Equal(t, "0xkey", cfg.PrivateKey)
}

func TestLoadRequiresNodeURL(t *testing.T) {
	t.Setenv("CLEARPORT_NODE_URL", "")
	t.Setenv("CLEARPORT_ASSET_TOKEN", "")

	_, err := Load("")
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CLEARPORT_NODE_URL", "wss://node.example/ws")
	t.Setenv("CLEARPORT_ASSET_TOKEN", "0xToken")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "clearport", cfg.Node.AppName)
	assert.Equal(t, ":8080", cfg.HTTP.Listen)
}
