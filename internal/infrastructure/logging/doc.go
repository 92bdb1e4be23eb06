// Package logging provides structured logging for midiplexer.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and the same level filtering.
//
// Logging is configured in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Unmapped controller signals are logged at debug, dispatch failures
// (unknown tracks, unknown commands) at warn. Neither stops a worker.
package logging
