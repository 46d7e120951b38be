// Package main is the entry point for the Aurora kernel control plane.
//
// The server owns one kernel manager and exposes it over:
//
//	HTTP  /kernel, /threads, /ipc   JSON REST API (gin)
//	WS    /stream                   status frames and kernel events
//	gRPC  aurora.kernel.v1          KernelService
//	      /metrics                  Prometheus exposition
//
// Configuration:
//   - Defaults, then an optional YAML file (-config or AURORA_CONFIG)
//   - Environment variables, optionally from a .env file
//   - CLI flags (override everything)
//
// Usage:
//
//	./server -port 8000 -grpc :50051
//
//	# Development mode (console logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
