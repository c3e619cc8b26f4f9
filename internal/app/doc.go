// Package app provides the orchestration layer for the bookclub browser.
//
// # Overview
//
// This package is the composition root. It loads configuration, builds the
// single Runtime (codec pool, worker pool, client, browser and store),
// connects to the API root and hands everything to the UI.
//
// # Startup
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       │
//	       ├─────> config.Load()       Read bookclub config (TOML or YAML)
//	       ├─────> prefs.Load()        Theme and remembered user
//	       ├─────> openLog()           slog text handler on the log file
//	       ├─────> NewRuntime()        Validate records, build pools and client
//	       ├─────> serveMetrics()      Optional Prometheus endpoint
//	       ├─────> Runtime.Connect()   Fetch root, bind sections (fails fast)
//	       ├─────> StartRefresher()    Optional background reloads
//	       └─────> ui.Run()            Start TUI (blocks)
//
// Flags win over the config file. When neither names a user, the user
// remembered in prefs is used.
//
// # Refresher
//
// With refresh_interval set, a goroutine reloads every section into the
// state.Store. Consecutive failures double the wait up to 30 seconds; one
// successful load resets it. The refresher never retries a single request;
// it only paces the next round.
//
// # Error Handling
//
// Fatal errors (returned from Run):
//   - Configuration file invalid
//   - Record metadata declarations invalid
//   - Base address malformed
//   - API root missing or without collection controls
//
// Recoverable errors (logged, browsing continues):
//   - Collection loads failing during refresh
//   - Metrics endpoint failing to bind
package app
