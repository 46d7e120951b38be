// Package grpc groups the gRPC boundary of the kernel control plane.
//
// The kernel subpackage serves aurora.kernel.v1.KernelService and provides
// a breaker-guarded client for it. Requests and responses are
// google.protobuf.Struct values, so no generated code is needed; the
// contract is described in proto/kernel/kernel.proto.
//
// Example Usage:
//
//	import "github.com/GriffinCanCode/AuroraOS/backend/internal/grpc/kernel"
//	client, err := kernel.New("localhost:50051")
//	id, err := client.CreateThread(ctx, "worker")
package grpc
