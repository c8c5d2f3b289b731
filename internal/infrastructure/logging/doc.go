// Package logging provides structured logging for the telemetry service.
//
// It wraps log/slog so that every component writes records with the same
// default fields (service, version) and honours the configured level.
//
// Configuration:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Usage:
//
//	logger := logging.New(cfg.Logging, version)
//	logger.Info("starting service", "port", 8080)
//	logger.With("component", "ingest").Warn("dropped message", "topic", topic)
//
// Never log secrets, tokens or password hashes.
package logging
