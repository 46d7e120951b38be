package kernel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/structpb"

	core "github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/resilience"
)

// DefaultTimeout bounds calls whose context has no deadline.
const DefaultTimeout = 5 * time.Second

// Client wraps a gRPC connection to KernelService with a circuit breaker.
// Kernel failures come back as *kernel.Error; transport failures do not
// and are the only errors that count against the breaker.
type Client struct {
	conn    *grpc.ClientConn
	addr    string
	breaker *resilience.Breaker
	timeout time.Duration
}

// New creates a client for addr. Extra options are appended to the
// defaults, so callers can add interceptors or a custom dialer.
func New(addr string, extra ...grpc.DialOption) (*Client, error) {
	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                60 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: false,
		}),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(1024*1024),
			grpc.MaxCallSendMsgSize(1024*1024),
		),
	}
	opts = append(opts, extra...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kernel: %w", err)
	}

	breaker := resilience.New("kernel-grpc", resilience.Settings{
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5 ||
				(counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.5)
		},
		IsSuccessful: isKernelResult,
	})

	return &Client{
		conn:    conn,
		addr:    addr,
		breaker: breaker,
		timeout: DefaultTimeout,
	}, nil
}

// Close closes the connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.invoke(ctx, "version", MethodVersion, nil)
	if err != nil {
		return "", err
	}
	return stringField(out, fieldVersion), nil
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.invoke(ctx, "init", MethodInit, nil)
	return err
}

func (c *Client) Shutdown(ctx context.Context) error {
	_, err := c.invoke(ctx, "shutdown", MethodShutdown, nil)
	return err
}

func (c *Client) Status(ctx context.Context) (core.Status, error) {
	out, err := c.invoke(ctx, "status", MethodStatus, nil)
	if err != nil {
		return core.Status{}, err
	}
	return statusFromStruct(out.GetFields()[fieldStatus].GetStructValue()), nil
}

func (c *Client) CreateThread(ctx context.Context, name string) (core.ThreadID, error) {
	out, err := c.invoke(ctx, "create_thread", MethodCreateThread, map[string]any{fieldName: name})
	if err != nil {
		return 0, err
	}
	return core.ThreadID(numberField(out, fieldThreadID)), nil
}

func (c *Client) DestroyThread(ctx context.Context, id core.ThreadID) error {
	_, err := c.invoke(ctx, "destroy_thread", MethodDestroyThread, map[string]any{fieldThreadID: uint32(id)})
	return err
}

func (c *Client) ThreadCount(ctx context.Context) (uint32, error) {
	out, err := c.invoke(ctx, "thread_count", MethodThreadCount, nil)
	if err != nil {
		return 0, err
	}
	return uint32(numberField(out, fieldCount)), nil
}

func (c *Client) ListThreads(ctx context.Context) ([]core.Thread, error) {
	out, err := c.invoke(ctx, "list_threads", MethodListThreads, nil)
	if err != nil {
		return nil, err
	}
	values := out.GetFields()[fieldThreads].GetListValue().GetValues()
	threads := make([]core.Thread, 0, len(values))
	for _, v := range values {
		threads = append(threads, threadFromStruct(v.GetStructValue()))
	}
	return threads, nil
}

// Send omits the message field when msg is nil; the server rejects that as
// an invalid parameter.
func (c *Client) Send(ctx context.Context, target core.ThreadID, msg *core.Message) error {
	in := map[string]any{fieldTarget: uint32(target)}
	if msg != nil {
		in[fieldMessage] = messageToMap(*msg)
	}
	_, err := c.invoke(ctx, "send", MethodSend, in)
	return err
}

func (c *Client) Receive(ctx context.Context) (core.ThreadID, core.Message, error) {
	out, err := c.invoke(ctx, "receive", MethodReceive, nil)
	if err != nil {
		return 0, core.Message{}, err
	}
	msg, err := messageFromStruct(out.GetFields()[fieldMessage].GetStructValue())
	if err != nil {
		return 0, core.Message{}, fmt.Errorf("kernel receive: %w", err)
	}
	return core.ThreadID(numberField(out, fieldSender)), msg, nil
}

func (c *Client) DemoCall(ctx context.Context, input string, capacity int) (string, error) {
	out, err := c.invoke(ctx, "demo_call", MethodDemoCall, map[string]any{
		fieldInput:    input,
		fieldCapacity: capacity,
	})
	if err != nil {
		return "", err
	}
	return stringField(out, fieldOutput), nil
}

func (c *Client) invoke(ctx context.Context, op, method string, fields map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("kernel %s: encode request: %w", op, err)
	}

	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := resilience.Call(c.breaker, func() (*structpb.Struct, error) {
		resp := new(structpb.Struct)
		if err := c.conn.Invoke(ctx, FullMethod(method), req, resp); err != nil {
			return nil, fromStatus(op, err)
		}
		return resp, nil
	})
	if errors.Is(err, resilience.ErrCircuitOpen) || errors.Is(err, resilience.ErrTooManyRequests) {
		return nil, fmt.Errorf("kernel service unavailable at %s: %w", c.addr, err)
	}
	return out, err
}

func isKernelResult(err error) bool {
	var kerr *core.Error
	return err == nil || errors.As(err, &kerr)
}
