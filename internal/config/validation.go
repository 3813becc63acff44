package config

import "fmt"

var validBackends = map[string]bool{
	"pebble":  true,
	"bbolt":   true,
	"leveldb": true,
	"memory":  true,
}

var validCompression = map[string]bool{
	"none": true,
	"lz4":  true,
}

var validHistoryDrivers = map[string]bool{
	"sqlite":   true,
	"postgres": true,
}

// Validate checks the configuration for values that would fail at runtime.
func Validate(cfg *Config) error {
	if cfg.Server.RPCAddr == "" {
		return fmt.Errorf("server.rpc_addr must not be empty")
	}

	if !validBackends[cfg.Storage.Backend] {
		return fmt.Errorf("unknown storage.backend %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend != "memory" && cfg.Storage.Path == "" {
		return fmt.Errorf("storage.path must be set for backend %q", cfg.Storage.Backend)
	}
	if !validCompression[cfg.Storage.Compression] {
		return fmt.Errorf("unknown storage.compression %q", cfg.Storage.Compression)
	}

	if cfg.History.Enabled {
		if !validHistoryDrivers[cfg.History.Driver] {
			return fmt.Errorf("unknown history.driver %q", cfg.History.Driver)
		}
		if cfg.History.DSN == "" {
			return fmt.Errorf("history.dsn must be set when history is enabled")
		}
	}

	if cfg.Events.QueueLimit < 1 {
		return fmt.Errorf("events.queue_limit must be at least 1")
	}
	return nil
}
