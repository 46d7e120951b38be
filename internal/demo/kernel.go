// Package demo drives a kernel through the end-to-end smoke sequence and
// defines the transport-neutral Kernel interface that auroractl talks to.
package demo

import (
	"context"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
)

// Kernel is the control-plane surface shared by the in-process manager and
// the HTTP and gRPC clients. Errors carry kernel result codes, so
// kernel.CodeOf works on every implementation.
type Kernel interface {
	Version(ctx context.Context) (string, error)
	Init(ctx context.Context) error
	Shutdown(ctx context.Context) error
	Status(ctx context.Context) (kernel.Status, error)
	CreateThread(ctx context.Context, name string) (kernel.ThreadID, error)
	DestroyThread(ctx context.Context, id kernel.ThreadID) error
	ThreadCount(ctx context.Context) (uint32, error)
	ListThreads(ctx context.Context) ([]kernel.Thread, error)
	Send(ctx context.Context, target kernel.ThreadID, msg *kernel.Message) error
	Receive(ctx context.Context) (kernel.ThreadID, kernel.Message, error)
	DemoCall(ctx context.Context, input string, capacity int) (string, error)
}

// Local adapts a *kernel.Manager to Kernel.
type Local struct {
	M *kernel.Manager
}

// NewLocal wraps m.
func NewLocal(m *kernel.Manager) *Local {
	return &Local{M: m}
}

func (l *Local) Version(ctx context.Context) (string, error) {
	return kernel.VersionString(), ctx.Err()
}

func (l *Local) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.M.Init()
}

func (l *Local) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.M.Shutdown()
}

func (l *Local) Status(ctx context.Context) (kernel.Status, error) {
	if err := ctx.Err(); err != nil {
		return kernel.Status{}, err
	}
	return l.M.Status()
}

func (l *Local) CreateThread(ctx context.Context, name string) (kernel.ThreadID, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return l.M.CreateThread(name)
}

func (l *Local) DestroyThread(ctx context.Context, id kernel.ThreadID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.M.DestroyThread(id)
}

func (l *Local) ThreadCount(ctx context.Context) (uint32, error) {
	return l.M.ActiveThreadCount(), ctx.Err()
}

func (l *Local) ListThreads(ctx context.Context) ([]kernel.Thread, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.M.Threads()
}

func (l *Local) Send(ctx context.Context, target kernel.ThreadID, msg *kernel.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.M.Send(target, msg)
}

func (l *Local) Receive(ctx context.Context) (kernel.ThreadID, kernel.Message, error) {
	if err := ctx.Err(); err != nil {
		return 0, kernel.Message{}, err
	}
	return l.M.Receive()
}

func (l *Local) DemoCall(ctx context.Context, input string, capacity int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return l.M.DemoCall(input, capacity)
}
