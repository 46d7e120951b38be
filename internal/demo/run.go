package demo

import (
	"context"
	"fmt"
	"io"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
)

// Inputs used by Run.
const (
	CallInput    = "Hello Aurora!"
	CallCapacity = 256
	MessageID    = 42
	MessageTime  = 1234567890
	MessageText  = "Test message"
)

// Run executes the smoke sequence against k and writes a report to out.
// The first failing step prints a FAIL line and ends the run with its error.
func Run(ctx context.Context, k Kernel, out io.Writer) error {
	r := &runner{out: out}

	r.println("=== Aurora Kernel Test ===")
	r.println("")

	version, err := k.Version(ctx)
	if err != nil {
		return r.fail("Version query failed", err)
	}
	r.printf("Aurora Kernel Version: %s\n\n", version)

	r.println("Test 1: Initializing kernel...")
	if err := k.Init(ctx); err != nil {
		return r.fail("Kernel initialization failed", err)
	}
	r.pass("Kernel initialized successfully")
	r.println("")

	r.println("Test 2: Getting kernel status...")
	st, err := k.Status(ctx)
	if err != nil {
		return r.fail("Failed to get kernel status", err)
	}
	r.pass("Status retrieved successfully")
	r.printf("  - Initialized: %s\n", yesNo(st.Initialized))
	r.printf("  - Version: %s\n", st.Version)
	r.printf("  - Uptime: %d ms\n", st.UptimeMs)
	r.printf("  - Active Threads: %d\n\n", st.ActiveThreads)

	r.println("Test 3: Creating threads...")
	var ids [2]kernel.ThreadID
	for i := range ids {
		id, err := k.CreateThread(ctx, fmt.Sprintf("test_thread_%d", i+1))
		if err != nil {
			return r.fail(fmt.Sprintf("Failed to create thread %d", i+1), err)
		}
		ids[i] = id
		r.pass(fmt.Sprintf("Created thread %d with ID %d", i+1, id))
	}
	r.println("")

	r.println("Test 4: Checking thread count...")
	count, err := k.ThreadCount(ctx)
	if err != nil {
		return r.fail("Failed to get thread count", err)
	}
	if count != uint32(len(ids)) {
		return r.fail(fmt.Sprintf("Expected %d threads, got %d", len(ids), count), nil)
	}
	r.pass(fmt.Sprintf("Thread count is correct: %d", count))
	r.println("")

	r.println("Test 5: Testing demo kernel call...")
	reply, err := k.DemoCall(ctx, CallInput, CallCapacity)
	if err != nil {
		return r.fail("Demo kernel call failed", err)
	}
	r.pass("Demo call succeeded")
	r.printf("  Output: %s\n\n", reply)

	r.println("Test 6: Testing IPC send...")
	msg := kernel.NewMessage(MessageID, MessageTime, []byte(MessageText))
	if err := k.Send(ctx, ids[0], &msg); err != nil {
		return r.fail("IPC send failed", err)
	}
	r.pass("IPC message sent successfully")
	r.println("")

	r.println("Test 7: Testing IPC receive...")
	sender, received, err := k.Receive(ctx)
	if err != nil {
		return r.fail("IPC receive failed", err)
	}
	r.pass("IPC message received successfully")
	r.printf("  From: Thread %d\n", sender)
	r.printf("  Message: %s\n\n", received.Payload)

	r.println("Test 8: Destroying threads...")
	for i, id := range ids {
		if err := k.DestroyThread(ctx, id); err != nil {
			return r.fail(fmt.Sprintf("Failed to destroy thread %d", i+1), err)
		}
		r.pass(fmt.Sprintf("Destroyed thread %d", i+1))
	}
	r.println("")

	r.println("Test 9: Shutting down kernel...")
	if err := k.Shutdown(ctx); err != nil {
		return r.fail("Kernel shutdown failed", err)
	}
	r.pass("Kernel shut down successfully")
	r.println("")

	r.println("=== All Tests Passed! ===")
	return nil
}

type runner struct {
	out io.Writer
}

func (r *runner) println(s string) {
	fmt.Fprintln(r.out, s)
}

func (r *runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *runner) pass(msg string) {
	fmt.Fprintf(r.out, "PASS: %s\n", msg)
}

func (r *runner) fail(msg string, err error) error {
	if err == nil {
		fmt.Fprintf(r.out, "FAIL: %s\n", msg)
		return fmt.Errorf("demo: %s", msg)
	}
	fmt.Fprintf(r.out, "FAIL: %s with error %d (%v)\n", msg, kernel.CodeOf(err), err)
	return fmt.Errorf("demo: %s: %w", msg, err)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
