// Package config loads and validates the gocertd configuration from TOML
// files and GOCERTD_ environment variables.
package config

// Config is the complete gocertd configuration.
type Config struct {
	Server  ServerConfig  `toml:"server" mapstructure:"server"`
	Storage StorageConfig `toml:"storage" mapstructure:"storage"`
	History HistoryConfig `toml:"history" mapstructure:"history"`
	Events  EventsConfig  `toml:"events" mapstructure:"events"`
	Ledger  LedgerConfig  `toml:"ledger" mapstructure:"ledger"`

	configPath string `toml:"-" mapstructure:"-"`
}

// ServerConfig holds the listen addresses for the JSON-RPC and WebSocket
// servers. An empty WSAddr disables the WebSocket event stream.
type ServerConfig struct {
	RPCAddr string `toml:"rpc_addr" mapstructure:"rpc_addr"`
	WSAddr  string `toml:"ws_addr" mapstructure:"ws_addr"`
}

// StorageConfig selects the key-value backend for record persistence. Backend
// "memory" keeps the ledger purely in memory and loses it on restart.
type StorageConfig struct {
	Backend     string `toml:"backend" mapstructure:"backend"`
	Path        string `toml:"path" mapstructure:"path"`
	Compression string `toml:"compression" mapstructure:"compression"`
}

// HistoryConfig selects the SQL trade-history store.
type HistoryConfig struct {
	Enabled   bool   `toml:"enabled" mapstructure:"enabled"`
	Driver    string `toml:"driver" mapstructure:"driver"`
	DSN       string `toml:"dsn" mapstructure:"dsn"`
	CacheSize int    `toml:"cache_size" mapstructure:"cache_size"`
}

// EventsConfig tunes event delivery.
type EventsConfig struct {
	QueueLimit int `toml:"queue_limit" mapstructure:"queue_limit"`
}

// LedgerConfig holds ledger-level settings. AdminAccount names the single
// account allowed to run privileged transactions; when empty, privileged
// transactions are rejected for everyone.
type LedgerConfig struct {
	AdminAccount string `toml:"admin_account" mapstructure:"admin_account"`
}

// GetConfigPath returns the path the configuration was loaded from, or ""
// when built from defaults only.
func (c *Config) GetConfigPath() string {
	return c.configPath
}
