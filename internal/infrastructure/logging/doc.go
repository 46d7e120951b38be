// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for humans
//
// Subsystems take a named child logger, so kernel lines carry
// "logger":"kernel" and transport lines "logger":"http" or "logger":"grpc".
//
// Example Usage:
//
//	logger, err := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	k := kernel.NewManager(logger.Logger)
//	logger.Component("http").Info("Listening", zap.String("addr", addr))
package logging
