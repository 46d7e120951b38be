// Package server wires the kernel control plane into a process: config,
// logging, metrics, tracing, the kernel manager, event publishing, the
// status sampler, and the HTTP and gRPC listeners.
package server
