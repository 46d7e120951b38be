package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	apihttp "github.com/GriffinCanCode/AuroraOS/backend/internal/api/http"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/api/middleware"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/api/ws"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
	kernelrpc "github.com/GriffinCanCode/AuroraOS/backend/internal/grpc/kernel"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/events"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/scheduler"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/tracing"
)

const shutdownTimeout = 10 * time.Second

// streamPath is served without compression so the WebSocket upgrade can
// hijack the connection.
const streamPath = "/stream"

// Server wraps the HTTP and gRPC listeners and their dependencies
type Server struct {
	config    *config.Config
	logger    *logging.Logger
	metrics   *monitoring.Metrics
	tracer    *tracing.Tracer
	kernel    *kernel.Manager
	hub       *events.Hub
	nats      *events.NATSPublisher
	scheduler *scheduler.Scheduler
	router    *gin.Engine
	handler   http.Handler
	grpc      *grpc.Server
}

// New wires a server from cfg. Nothing listens until Run or Serve.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing Aurora kernel control plane",
		zap.String("version", kernel.VersionString()),
		zap.String("http_addr", cfg.Addr()),
		zap.Bool("grpc_enabled", cfg.GRPC.Enabled),
		zap.String("grpc_addr", cfg.GRPC.Address),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("aurora-kernel", logger.Logger)

	hub := events.NewHub(32)
	publishers := events.Multi{hub}
	var natsPub *events.NATSPublisher
	if cfg.Events.Enabled {
		p, err := events.Connect(cfg.Events.NATSURL, cfg.Events.Subject, logger.Logger)
		if err != nil {
			logger.Warn("Kernel events will not be published to NATS", zap.Error(err))
		} else {
			natsPub = p
			publishers = append(publishers, p)
		}
	}

	manager := kernel.NewManager(logger.Logger).
		WithMetrics(metrics).
		WithPublisher(publishers)

	if cfg.Kernel.AutoInit {
		if err := manager.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize kernel: %w", err)
		}
	}

	sched, err := scheduler.New(logger.Logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		kernel:    manager,
		hub:       hub,
		nats:      natsPub,
		scheduler: sched,
	}

	if _, err := sched.Every("kernel-sampler", cfg.Kernel.SampleInterval, s.sample); err != nil {
		return nil, err
	}

	s.router = s.buildRouter()
	s.handler = s.buildHandler()
	if cfg.GRPC.Enabled {
		s.grpc = s.buildGRPC()
	}

	return s, nil
}

func (s *Server) buildRouter() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(middleware.RequestLogger(s.logger.Component("access")))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(s.config.Server.CORSOrigins...))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
			zap.Bool("global", s.config.RateLimit.Global),
		)
		limits := middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}
		if s.config.RateLimit.Global {
			router.Use(middleware.GlobalRateLimit(limits))
		} else {
			router.Use(middleware.RateLimit(limits))
		}
	}

	handlers := apihttp.NewHandlers(s.kernel, s.metrics, s.logger.Logger)
	handlers.Register(router)

	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	stream := ws.NewHandler(s.kernel, s.hub, s.metrics, s.logger.Logger, s.config.Kernel.StreamInterval)
	router.GET(streamPath, stream.HandleConnection)

	return router
}

func (s *Server) buildHandler() http.Handler {
	compressed := gzhttp.GzipHandler(s.router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == streamPath {
			s.router.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}

func (s *Server) buildGRPC() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			tracing.UnaryServerInterceptor(s.tracer),
			monitoring.UnaryServerInterceptor(s.metrics),
		),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             30 * time.Second,
			PermitWithoutStream: false,
		}),
	)
	kernelrpc.RegisterKernelServiceServer(srv, kernelrpc.NewServer(s.kernel, s.logger.Logger))
	return srv
}

// sample copies kernel state into the gauges.
func (s *Server) sample() {
	s.metrics.SetKernelInitialized(s.kernel.Initialized())
	s.metrics.SetKernelUptime(s.kernel.Uptime())
	s.metrics.SetThreadsActive(int(s.kernel.ActiveThreadCount()))
}

// Kernel returns the server's kernel manager.
func (s *Server) Kernel() *kernel.Manager {
	return s.kernel
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured addresses and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	httpLis, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}

	var grpcLis net.Listener
	if s.grpc != nil {
		grpcLis, err = net.Listen("tcp", s.config.GRPC.Address)
		if err != nil {
			_ = httpLis.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.config.GRPC.Address, err)
		}
	}

	return s.Serve(ctx, httpLis, grpcLis)
}

// Serve serves on the given listeners until ctx is done or a listener
// fails, then shuts everything down. grpcLis may be nil.
func (s *Server) Serve(ctx context.Context, httpLis, grpcLis net.Listener) error {
	if n := s.config.Server.MaxConnections; n > 0 {
		httpLis = netutil.LimitListener(httpLis, n)
	}

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", httpLis.Addr().String()))
		if err := httpSrv.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if s.grpc != nil && grpcLis != nil {
		go func() {
			s.logger.Info("gRPC server listening", zap.String("addr", grpcLis.Addr().String()))
			if err := s.grpc.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	s.scheduler.Start()

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down servers...")
	case serveErr = <-errCh:
		s.logger.Error("Server failed", zap.Error(serveErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}

	return errors.Join(serveErr, s.Close())
}

// Close releases background resources. The kernel is not shut down: its
// state dies with the process.
func (s *Server) Close() error {
	var errs []error
	if err := s.scheduler.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.tracer.Close()
	s.logger.Info("Server stopped")
	_ = s.logger.Sync()
	return errors.Join(errs...)
}
