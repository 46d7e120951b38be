// Command auroractl drives the Aurora kernel: it runs the smoke-test
// sequence and issues one-shot kernel operations over a chosen transport.
//
// Usage:
//
//	auroractl demo                          # in-process kernel
//	auroractl --transport http status       # against a running server
//	auroractl --transport grpc thread create worker
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	apihttp "github.com/GriffinCanCode/AuroraOS/backend/internal/api/http"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/demo"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
	kernelrpc "github.com/GriffinCanCode/AuroraOS/backend/internal/grpc/kernel"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/tracing"
)

// Globals are flags shared by every command.
type Globals struct {
	Transport string        `short:"t" enum:"local,grpc,http" default:"local" env:"AURORA_TRANSPORT" help:"Kernel transport (${enum})."`
	HTTPAddr  string        `name:"http-addr" default:"http://127.0.0.1:8000" env:"AURORA_HTTP_ADDR" help:"Base URL of the HTTP API."`
	GRPCAddr  string        `name:"grpc-addr" default:"127.0.0.1:50051" env:"AURORA_GRPC_ADDR" help:"Address of the gRPC service."`
	Timeout   time.Duration `default:"10s" help:"Per-call timeout for remote transports."`
	Wait      bool          `help:"Wait for the HTTP server to become ready before running."`
	Verbose   bool          `short:"v" help:"Enable debug logging on stderr."`
}

// CLI is the auroractl command tree.
type CLI struct {
	Globals

	Version  VersionCmd  `cmd:"" help:"Print the kernel version."`
	Demo     DemoCmd     `cmd:"" help:"Run the kernel smoke-test sequence."`
	Status   StatusCmd   `cmd:"" help:"Print kernel status."`
	Init     InitCmd     `cmd:"" help:"Initialize the kernel."`
	Shutdown ShutdownCmd `cmd:"" help:"Shut the kernel down."`
	Thread   ThreadCmd   `cmd:"" help:"Manage threads."`
	Send     SendCmd     `cmd:"" help:"Send an IPC message to a thread."`
	Receive  ReceiveCmd  `cmd:"" help:"Receive an IPC message."`
	Call     CallCmd     `cmd:"" help:"Run the demo kernel call."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("auroractl"),
		kong.Description("Control plane client for the Aurora microkernel."),
		kong.UsageOnError(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, kctx, &cli.Globals, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "auroractl: %v (code %d)\n", err, kernel.CodeOf(err))
		stop()
		os.Exit(1)
	}
}

// run connects to the kernel and dispatches the parsed command.
func run(ctx context.Context, kctx *kong.Context, g *Globals, out io.Writer) error {
	logger, err := newLogger(g.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	k, closeFn, err := connect(ctx, g, logger.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	return kctx.Run(&env{ctx: ctx, kernel: k, out: out})
}

func newLogger(verbose bool) (*logging.Logger, error) {
	cfg := logging.DevelopmentConfig()
	cfg.Level = "warn"
	if verbose {
		cfg.Level = "debug"
	}
	cfg.OutputPaths = []string{"stderr"}
	return logging.New(cfg)
}

// connect returns a Kernel for the selected transport and a func that
// releases it.
func connect(ctx context.Context, g *Globals, logger *zap.Logger) (demo.Kernel, func() error, error) {
	nop := func() error { return nil }

	switch g.Transport {
	case "http":
		client := apihttp.NewClient(g.HTTPAddr, g.Timeout)
		if g.Wait {
			if err := client.WaitReady(ctx); err != nil {
				return nil, nop, err
			}
		}
		return client, nop, nil
	case "grpc":
		// Spans are logged at debug level, so -v shows each call's trace id.
		tracer := tracing.New("auroractl", logger)
		client, err := kernelrpc.New(g.GRPCAddr,
			grpc.WithUnaryInterceptor(tracing.UnaryClientInterceptor(tracer)))
		if err != nil {
			tracer.Close()
			return nil, nop, err
		}
		return client, func() error {
			defer tracer.Close()
			return client.Close()
		}, nil
	default:
		return demo.NewLocal(kernel.NewManager(logger)), nop, nil
	}
}
