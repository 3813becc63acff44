package config

import "github.com/spf13/viper"

// setDefaults seeds viper with the default configuration. Every key a config
// file can set has a default here.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.rpc_addr", "127.0.0.1:5005")
	v.SetDefault("server.ws_addr", "127.0.0.1:6006")

	v.SetDefault("storage.backend", "pebble")
	v.SetDefault("storage.path", "data/records")
	v.SetDefault("storage.compression", "lz4")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.dsn", "data/history.db")
	v.SetDefault("history.cache_size", 1024)

	v.SetDefault("events.queue_limit", 256)

	v.SetDefault("ledger.admin_account", "")
}
