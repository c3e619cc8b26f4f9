// Package config loads the bookclub client configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/bookclub/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//
// Command-line flags are applied by the caller after Load and win over the
// file.
//
// # Formats
//
// Files ending in .yaml or .yml are parsed as YAML; everything else is TOML.
// Both use the same keys:
//
//	address = "http://localhost:8000/"
//	user = "ann"
//	timeout = "10s"
//	codec_pool_size = 10
//	workers = 16
//	refresh_interval = "30s"
//	log_file = "~/.local/state/bookclub/bookclub.log"
//	metrics_listen = "127.0.0.1:9464"
//
// # Default Values
//
//   - Config file: ~/.config/bookclub/config.toml
//   - API address: http://localhost:8000/
//   - Request timeout: 10s
//   - Codec pool: 10 handles
//   - Async workers: 16
//   - Background refresh: off
//   - Log file: ~/.local/state/bookclub/bookclub.log
//   - Metrics endpoint: off
//
// Durations use Go syntax ("1m30s"). Tilde expansion applies to the config
// path and log_file.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors other than a
// missing file, and malformed files or durations. Missing files are not an
// error.
package config
