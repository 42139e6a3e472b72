// Package logging provides slog loggers with per-module levels.
//
// Records go to stdout when it is a terminal, pipe or file, and to the
// systemd journal when journald is reachable. Both are used when both exist.
//
// Initialize once at startup, then ask for a logger per module:
//
//	logging.Initialize(logging.Config{
//		Level:   "info",
//		Format:  "text",
//		Modules: map[string]string{"gateway": "debug"},
//	})
//	logger := logging.GetLogger("gateway")
//	logger.Info("Controller connected", "peer", addr)
//
// Module levels are read from the [logging] table of the config file, where
// every key other than level and format names a module:
//
//	[logging]
//	level = "info"
//	format = "json"
//	gateway = "debug"
//	streaming = "warn"
//
// In the journal, attributes become upper-cased fields:
//
//	journalctl -t videohubd MODULE=gateway
package logging
