package kernel

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	core "github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
)

// DefaultCallCapacity is used by DemoCall when the request has no capacity.
const DefaultCallCapacity = 256

// Server implements KernelServiceServer over a kernel manager.
type Server struct {
	kernel *core.Manager
	logger *zap.Logger
}

var _ KernelServiceServer = (*Server)(nil)

// NewServer creates a gRPC server for m.
func NewServer(m *core.Manager, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{kernel: m, logger: logger.Named("grpc")}
}

func (s *Server) Version(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(map[string]any{fieldVersion: core.VersionString()})
}

func (s *Server) Init(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	if err := s.kernel.Init(); err != nil {
		return nil, toStatus(err)
	}
	return s.reply(nil)
}

func (s *Server) Shutdown(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	if err := s.kernel.Shutdown(); err != nil {
		return nil, toStatus(err)
	}
	return s.reply(nil)
}

func (s *Server) Status(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	st, err := s.kernel.Status()
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(map[string]any{fieldStatus: statusToMap(st)})
}

func (s *Server) CreateThread(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	name, _, err := stringValue(in, fieldName)
	if err != nil {
		return nil, invalid("create_thread", err)
	}
	id, err := s.kernel.CreateThread(name)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(map[string]any{fieldThreadID: uint32(id)})
}

func (s *Server) DestroyThread(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, ok, err := uint32Field(in, fieldThreadID)
	if err != nil {
		return nil, invalid("destroy_thread", err)
	}
	if !ok {
		return nil, toStatus(core.NewError("destroy_thread", core.CodeInvalidParam, "thread_id is required"))
	}
	if err := s.kernel.DestroyThread(core.ThreadID(id)); err != nil {
		return nil, toStatus(err)
	}
	return s.reply(nil)
}

func (s *Server) ThreadCount(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(map[string]any{fieldCount: s.kernel.ActiveThreadCount()})
}

func (s *Server) ListThreads(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	threads, err := s.kernel.Threads()
	if err != nil {
		return nil, toStatus(err)
	}
	list := make([]any, 0, len(threads))
	for _, t := range threads {
		list = append(list, threadToMap(t))
	}
	return s.reply(map[string]any{fieldThreads: list})
}

// Send treats a request without a message as the absent-message case.
func (s *Server) Send(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	target, _, err := uint32Field(in, fieldTarget)
	if err != nil {
		return nil, invalid("send", err)
	}

	var msg *core.Message
	raw, ok, err := structValue(in, fieldMessage)
	if err != nil {
		return nil, invalid("send", err)
	}
	if ok {
		m, err := messageFromStruct(raw)
		if err != nil {
			return nil, invalid("send", err)
		}
		msg = &m
	}

	if err := s.kernel.Send(core.ThreadID(target), msg); err != nil {
		return nil, toStatus(err)
	}
	return s.reply(nil)
}

func (s *Server) Receive(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	sender, msg, err := s.kernel.Receive()
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(map[string]any{
		fieldSender:  uint32(sender),
		fieldMessage: messageToMap(msg),
	})
}

func (s *Server) DemoCall(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	input, ok, err := stringValue(in, fieldInput)
	if err != nil {
		return nil, invalid("demo_call", err)
	}
	if !ok {
		return nil, toStatus(core.NewError("demo_call", core.CodeInvalidParam, "input is required"))
	}
	capacity := DefaultCallCapacity
	c, ok, err := uint32Field(in, fieldCapacity)
	if err != nil {
		return nil, invalid("demo_call", err)
	}
	if ok {
		capacity = int(c)
	}

	out, err := s.kernel.DemoCall(input, capacity)
	if err != nil {
		return nil, toStatus(err)
	}
	return s.reply(map[string]any{fieldOutput: out})
}

// invalid reports a malformed request field as an invalid parameter.
func invalid(op string, err error) error {
	return toStatus(core.NewError(op, core.CodeInvalidParam, "%v", err))
}

func (s *Server) reply(fields map[string]any) (*structpb.Struct, error) {
	if fields == nil {
		return &structpb.Struct{}, nil
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		s.logger.Error("Failed to encode reply", zap.Error(err))
		return nil, toStatus(core.NewError("", core.CodeUnknown, "encode reply: %v", err))
	}
	return out, nil
}
