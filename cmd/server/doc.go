// Package main is the entry point for the FrameLens inspector backend.
//
// The server inspects pages on behalf of the DevTools panel: it crawls a
// page and its iframes, classifies every frame and serves tooltips and
// cookie tables over HTTP and a WebSocket overlay stream.
//
// Configuration:
//   - Environment variables (PORT, FETCH_*, INSPECT_*, STORE_*, ...)
//   - FRAMELENS_CONFIG names an optional YAML or TOML file overlaying them
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown within SHUTDOWN_TIMEOUT
package main
