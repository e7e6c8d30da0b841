package config

// Package config provides a reusable loader for Pulse configuration files
// and environment variables. It is versioned so that applications can depend
// on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"pulsecore/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config is the unified runtime configuration for a Pulse core instance. It
// mirrors the structure of the YAML files under cmd/config.
type Config struct {
	Mesh struct {
		Enabled        bool     `mapstructure:"enabled" json:"enabled"`
		ListenAddr     string   `mapstructure:"listen_addr" json:"listen_addr"`
		DiscoveryTag   string   `mapstructure:"discovery_tag" json:"discovery_tag"`
		BootstrapPeers []string `mapstructure:"bootstrap_peers" json:"bootstrap_peers"`
	} `mapstructure:"mesh" json:"mesh"`

	Nostr struct {
		Enabled     bool     `mapstructure:"enabled" json:"enabled"`
		RelayURLs   []string `mapstructure:"relay_urls" json:"relay_urls"`
		PublishRate int      `mapstructure:"relay_publish_rate_per_sec" json:"relay_publish_rate_per_sec"`
	} `mapstructure:"nostr" json:"nostr"`

	Routing struct {
		PreferredTransport string `mapstructure:"preferred_transport" json:"preferred_transport"`
		MaxHops            int    `mapstructure:"max_hops" json:"max_hops"`
		EnableRelaying     bool   `mapstructure:"enable_relaying" json:"enable_relaying"`
		AckRetryMax        int    `mapstructure:"ack_retry_max" json:"ack_retry_max"`
		AckRetryTimeoutMS  int    `mapstructure:"ack_retry_timeout_ms" json:"ack_retry_timeout_ms"`
		DedupRotationMS    int    `mapstructure:"dedup_rotation_ms" json:"dedup_rotation_ms"`
	} `mapstructure:"routing" json:"routing"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// Defaults mirrors the defaults called out in the configuration surface:
// max_hops=7, ack_retry_max=3, ack_retry_timeout_ms=30000,
// relay_publish_rate_per_sec=60, dedup_rotation_ms=300000.
func Defaults() Config {
	var c Config
	c.Mesh.Enabled = true
	c.Mesh.ListenAddr = "/ip4/0.0.0.0/tcp/0"
	c.Mesh.DiscoveryTag = "pulse-mesh"
	c.Nostr.Enabled = true
	c.Nostr.RelayURLs = []string{
		"wss://relay.damus.io", "wss://nos.lol", "wss://relay.nostr.band", "wss://nostr.wine",
	}
	c.Nostr.PublishRate = 60
	c.Routing.PreferredTransport = "hybrid"
	c.Routing.MaxHops = 7
	c.Routing.EnableRelaying = true
	c.Routing.AckRetryMax = 3
	c.Routing.AckRetryTimeoutMS = 30_000
	c.Routing.DedupRotationMS = 300_000
	c.Logging.Level = "info"
	return c
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	AppConfig = Defaults()

	viper.SetConfigName("default")
	viper.AddConfigPath("cmd/config")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, utils.Wrap(err, "load config")
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up from .env

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the PULSE_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("PULSE_ENV", ""))
}
