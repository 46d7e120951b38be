package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "aurora server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}

	configPath := flag.String("config", os.Getenv(config.FileEnv), "YAML config file")
	port := flag.String("port", "", "HTTP port (overrides config)")
	grpcAddr := flag.String("grpc", "", "gRPC listen address (overrides config)")
	noGRPC := flag.Bool("no-grpc", false, "Disable the gRPC listener")
	dev := flag.Bool("dev", false, "Development logging (console encoder, debug level)")
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		return err
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *grpcAddr != "" {
		cfg.GRPC.Address = *grpcAddr
	}
	if *noGRPC {
		cfg.GRPC.Enabled = false
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.FromLevel(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting aurora kernel control plane",
		zap.String("http", cfg.Addr()),
		zap.Bool("grpc", cfg.GRPC.Enabled),
		zap.String("grpc_addr", cfg.GRPC.Address),
		zap.Bool("auto_init", cfg.Kernel.AutoInit),
	)

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
