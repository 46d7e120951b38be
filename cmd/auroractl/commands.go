package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/demo"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
)

// env is bound into every command's Run method.
type env struct {
	ctx    context.Context
	kernel demo.Kernel
	out    io.Writer
}

type VersionCmd struct{}

func (c *VersionCmd) Run(e *env) error {
	v, err := e.kernel.Version(e.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Aurora Kernel Version: %s\n", v)
	return nil
}

type DemoCmd struct{}

func (c *DemoCmd) Run(e *env) error {
	return demo.Run(e.ctx, e.kernel, e.out)
}

type StatusCmd struct{}

func (c *StatusCmd) Run(e *env) error {
	st, err := e.kernel.Status(e.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Initialized:    %t\n", st.Initialized)
	fmt.Fprintf(e.out, "Version:        %s\n", st.Version)
	fmt.Fprintf(e.out, "Uptime:         %d ms\n", st.UptimeMs)
	fmt.Fprintf(e.out, "Active Threads: %d\n", st.ActiveThreads)
	return nil
}

type InitCmd struct{}

func (c *InitCmd) Run(e *env) error {
	if err := e.kernel.Init(e.ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Kernel initialized")
	return nil
}

type ShutdownCmd struct{}

func (c *ShutdownCmd) Run(e *env) error {
	if err := e.kernel.Shutdown(e.ctx); err != nil {
		return err
	}
	fmt.Fprintln(e.out, "Kernel shut down")
	return nil
}

type ThreadCmd struct {
	Create  ThreadCreateCmd  `cmd:"" help:"Create a thread."`
	Destroy ThreadDestroyCmd `cmd:"" help:"Destroy a thread by id."`
	Count   ThreadCountCmd   `cmd:"" help:"Print the number of threads."`
	List    ThreadListCmd    `cmd:"" help:"List threads in creation order."`
}

type ThreadCreateCmd struct {
	Name string `arg:"" optional:"" help:"Thread name (at most 63 bytes)."`
}

func (c *ThreadCreateCmd) Run(e *env) error {
	id, err := e.kernel.CreateThread(e.ctx, c.Name)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Created thread %d\n", id)
	return nil
}

type ThreadDestroyCmd struct {
	ID uint32 `arg:"" help:"Thread id."`
}

func (c *ThreadDestroyCmd) Run(e *env) error {
	if err := e.kernel.DestroyThread(e.ctx, kernel.ThreadID(c.ID)); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Destroyed thread %d\n", c.ID)
	return nil
}

type ThreadCountCmd struct{}

func (c *ThreadCountCmd) Run(e *env) error {
	n, err := e.kernel.ThreadCount(e.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, n)
	return nil
}

type ThreadListCmd struct{}

func (c *ThreadListCmd) Run(e *env) error {
	threads, err := e.kernel.ListThreads(e.ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCREATED")
	for _, t := range threads {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", t.ID, t.Name, t.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

type SendCmd struct {
	Target    uint32 `arg:"" help:"Target thread id."`
	Data      string `arg:"" help:"Message payload (at most 255 bytes)."`
	ID        uint32 `name:"id" default:"1" help:"Message id."`
	Timestamp uint64 `help:"Message timestamp; defaults to now in ms."`
}

func (c *SendCmd) Run(e *env) error {
	ts := c.Timestamp
	if ts == 0 {
		ts = uint64(time.Now().UnixMilli())
	}
	msg := kernel.NewMessage(c.ID, ts, []byte(c.Data))
	if err := e.kernel.Send(e.ctx, kernel.ThreadID(c.Target), &msg); err != nil {
		return err
	}
	fmt.Fprintf(e.out, "Sent message %d (%d bytes) to thread %d\n", msg.ID, msg.Size(), c.Target)
	return nil
}

type ReceiveCmd struct{}

func (c *ReceiveCmd) Run(e *env) error {
	sender, msg, err := e.kernel.Receive(e.ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "From: Thread %d\n", sender)
	fmt.Fprintf(e.out, "Message %d: %s\n", msg.ID, msg.Payload)
	return nil
}

type CallCmd struct {
	Input    string `arg:"" help:"Text to echo."`
	Capacity int    `default:"256" help:"Output buffer capacity in bytes."`
}

func (c *CallCmd) Run(e *env) error {
	out, err := e.kernel.DemoCall(e.ctx, c.Input, c.Capacity)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, out)
	return nil
}
