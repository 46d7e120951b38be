// Package config provides 12-factor configuration for the Aurora control plane.
//
// Values are layered: Default(), then an optional YAML file (AURORA_CONFIG),
// then environment variables. Only variables that are set override earlier
// layers.
//
// Configuration Sections:
//   - Server: HTTP listener (host, port, connection cap)
//   - GRPC: gRPC listener
//   - Kernel: auto-init at startup, metric sampling and stream intervals
//   - Events: NATS event publishing
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting
//
// Environment Variables:
//   - PORT, HOST, HTTP_MAX_CONNS, GRPC_ADDR, GRPC_ENABLED
//   - KERNEL_AUTO_INIT, KERNEL_SAMPLE_INTERVAL, KERNEL_STREAM_INTERVAL
//   - EVENTS_ENABLED, NATS_URL, EVENTS_SUBJECT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
