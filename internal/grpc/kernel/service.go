package kernel

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "aurora.kernel.v1.KernelService"

// Method names.
const (
	MethodVersion       = "Version"
	MethodInit          = "Init"
	MethodShutdown      = "Shutdown"
	MethodStatus        = "Status"
	MethodCreateThread  = "CreateThread"
	MethodDestroyThread = "DestroyThread"
	MethodThreadCount   = "ThreadCount"
	MethodListThreads   = "ListThreads"
	MethodSend          = "Send"
	MethodReceive       = "Receive"
	MethodDemoCall      = "DemoCall"
)

// KernelServiceServer is the server API for KernelService.
type KernelServiceServer interface {
	Version(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Init(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Shutdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateThread(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DestroyThread(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ThreadCount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListThreads(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Send(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Receive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DemoCall(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(KernelServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(KernelServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(KernelServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes KernelService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KernelServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodVersion, KernelServiceServer.Version),
		unaryHandler(MethodInit, KernelServiceServer.Init),
		unaryHandler(MethodShutdown, KernelServiceServer.Shutdown),
		unaryHandler(MethodStatus, KernelServiceServer.Status),
		unaryHandler(MethodCreateThread, KernelServiceServer.CreateThread),
		unaryHandler(MethodDestroyThread, KernelServiceServer.DestroyThread),
		unaryHandler(MethodThreadCount, KernelServiceServer.ThreadCount),
		unaryHandler(MethodListThreads, KernelServiceServer.ListThreads),
		unaryHandler(MethodSend, KernelServiceServer.Send),
		unaryHandler(MethodReceive, KernelServiceServer.Receive),
		unaryHandler(MethodDemoCall, KernelServiceServer.DemoCall),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "kernel/kernel.proto",
}

// RegisterKernelServiceServer registers srv on s.
func RegisterKernelServiceServer(s grpc.ServiceRegistrar, srv KernelServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the invocation path of a KernelService method.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}
