/*
Package monitoring provides Prometheus metrics for the Aurora control plane.

# Overview

Each Metrics value owns a private registry, so a process can run more than
one kernel manager (tests do) without duplicate registration panics.

# Metrics

- Kernel operations by result code, and their latency
- Thread registry size and creation total
- Observed IPC messages by direction
- Lifecycle gauge and sampled uptime
- HTTP, gRPC and WebSocket transport counters

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	grpc.NewServer(grpc.ChainUnaryInterceptor(monitoring.UnaryServerInterceptor(metrics)))
*/
package monitoring
