// Package config loads the service configuration from an optional TOML file
// with environment overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full service configuration.
type Config struct {
	Node  Node  `toml:"node"`
	HTTP  HTTP  `toml:"http"`
	Redis Redis `toml:"redis"`

	// PrivateKey is the default signing key, hex-encoded. Usually supplied via
	// CLEARPORT_PRIVATE_KEY rather than the file.
	PrivateKey string `toml:"private_key"`
}

// Node configures the settlement node connection.
type Node struct {
	URL         string `toml:"url"`
	AssetToken  string `toml:"asset_token"`
	AppName     string `toml:"app_name"`
	Application string `toml:"application"`
	Scope       string `toml:"scope"`
	TimeoutSec  int    `toml:"timeout_seconds"`
}

// HTTP configures the API listener.
type HTTP struct {
	Listen string `toml:"listen"`
}

// Redis configures the store and event stream backend.
type Redis struct {
	URL string `toml:"url"`
}

// Timeout returns the configured transfer deadline, zero when unset.
func (n Node) Timeout() time.Duration {
	return time.Duration(n.TimeoutSec) * time.Second
}

// Load reads the TOML file at path when it exists, then applies environment
// overrides. An empty path skips the file entirely.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Node: Node{
			AppName: "clearport",
			Scope:   "app.create",
		},
		HTTP:  HTTP{Listen: ":8080"},
		Redis: Redis{URL: "redis://localhost:6379/0"},
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg.Node.URL, "CLEARPORT_NODE_URL")
	applyEnv(&cfg.Node.AssetToken, "CLEARPORT_ASSET_TOKEN")
	applyEnv(&cfg.Node.AppName, "CLEARPORT_APP_NAME")
	applyEnv(&cfg.Node.Application, "CLEARPORT_APPLICATION")
	applyEnv(&cfg.Node.Scope, "CLEARPORT_SCOPE")
	applyEnv(&cfg.HTTP.Listen, "CLEARPORT_LISTEN")
	applyEnv(&cfg.Redis.URL, "REDIS_URL")
	applyEnv(&cfg.PrivateKey, "CLEARPORT_PRIVATE_KEY")

	if cfg.Node.URL == "" {
		return nil, fmt.Errorf("settlement node url is required (node.url or CLEARPORT_NODE_URL)")
	}
	if cfg.Node.AssetToken == "" {
		return nil, fmt.Errorf("asset token address is required (node.asset_token or CLEARPORT_ASSET_TOKEN)")
	}

	return cfg, nil
}

func applyEnv(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
