package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/GriffinCanCode/AuroraOS/backend/internal/api/http"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
	kernelrpc "github.com/GriffinCanCode/AuroraOS/backend/internal/grpc/kernel"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/logging"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.GRPC.Enabled = false
	cfg.RateLimit.Enabled = false
	cfg.Kernel.SampleInterval = time.Hour
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(cfg, logging.NewNop())
	require.NoError(t, err)
	return s
}

func TestAutoInit(t *testing.T) {
	s := newTestServer(t, testConfig())
	defer s.Close()
	assert.True(t, s.Kernel().Initialized())

	cfg := testConfig()
	cfg.Kernel.AutoInit = false
	s2 := newTestServer(t, cfg)
	defer s2.Close()
	assert.False(t, s2.Kernel().Initialized())
}

func TestRoutesAreMounted(t *testing.T) {
	s := newTestServer(t, testConfig())
	defer s.Close()

	for _, path := range []string{"/", "/health", "/kernel/version", "/kernel/status", "/threads", "/metrics"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kernel/status", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, rec.Header().Get("X-Trace-ID"))
}

func TestMetricsExposeKernelSeries(t *testing.T) {
	s := newTestServer(t, testConfig())
	defer s.Close()
	_, err := s.Kernel().CreateThread("worker")
	require.NoError(t, err)

	s.sample()
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.ThreadsActive))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.KernelInitialized))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "aurora_kernel_operations_total")
}

func TestRateLimitEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, Enabled: true}
	s := newTestServer(t, cfg)
	defer s.Close()

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/kernel/version", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitScope(t *testing.T) {
	fromIP := func(s *Server, ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/kernel/version", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	for _, tt := range []struct {
		name   string
		global bool
		second int
	}{
		{"per client", false, http.StatusOK},
		{"global", true, http.StatusTooManyRequests},
	} {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 1, Burst: 1, Enabled: true, Global: tt.global}
			s := newTestServer(t, cfg)
			defer s.Close()

			assert.Equal(t, http.StatusOK, fromIP(s, "10.0.0.1"))
			assert.Equal(t, tt.second, fromIP(s, "10.0.0.2"))
		})
	}
}

func TestServeHTTPAndGRPC(t *testing.T) {
	cfg := testConfig()
	cfg.GRPC.Enabled = true
	cfg.Kernel.AutoInit = false
	s := newTestServer(t, cfg)

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, httpLis, grpcLis) }()

	httpClient := apihttp.NewClient("http://"+httpLis.Addr().String(), 5*time.Second)
	require.NoError(t, httpClient.WaitReady(context.Background()))
	require.NoError(t, httpClient.Init(context.Background()))

	grpcClient, err := kernelrpc.New(grpcLis.Addr().String())
	require.NoError(t, err)
	defer grpcClient.Close()

	err = grpcClient.Init(context.Background())
	assert.ErrorIs(t, err, kernel.ErrAlreadyInitialized)

	id, err := grpcClient.CreateThread(context.Background(), "shared")
	require.NoError(t, err)
	threads, err := httpClient.ListThreads(context.Background())
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, id, threads[0].ID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}
