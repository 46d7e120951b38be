// Package tracing provides lightweight request tracing for the HTTP and
// gRPC boundaries.
//
// Spans are identified by prefixed ULIDs and propagated through the
// X-Trace-ID / X-Span-ID headers (x-trace-id / x-span-id gRPC metadata). A
// single collector goroutine logs finished spans, so a slow log sink never
// blocks a kernel call; when the queue is full the span is dropped.
package tracing
