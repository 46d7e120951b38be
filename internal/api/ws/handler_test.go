package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/events"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/monitoring"
)

type fixture struct {
	kernel  *kernel.Manager
	metrics *monitoring.Metrics
	conn    *websocket.Conn
}

func newFixture(t *testing.T, interval time.Duration) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := events.NewHub(16)
	metrics := monitoring.NewMetrics()
	m := kernel.NewManager(zap.NewNop()).WithPublisher(hub).WithMetrics(metrics)

	r := gin.New()
	r.GET("/stream", NewHandler(m, hub, metrics, zap.NewNop(), interval).HandleConnection)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &fixture{kernel: m, metrics: metrics, conn: conn}
}

func (f *fixture) send(t *testing.T, msg string) {
	t.Helper()
	require.NoError(t, f.conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

// readUntil returns the next frame of type typ, skipping periodic frames.
func (f *fixture) readUntil(t *testing.T, typ string) map[string]any {
	t.Helper()
	require.NoError(t, f.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		_, data, err := f.conn.ReadMessage()
		require.NoError(t, err)

		var frame map[string]any
		require.NoError(t, sonic.Unmarshal(data, &frame))
		if frame["type"] == typ {
			return frame
		}
	}
}

func TestConnectSendsWelcomeAndStatus(t *testing.T) {
	f := newFixture(t, time.Hour)

	welcome := f.readUntil(t, TypeSystem)
	assert.NotEmpty(t, welcome["connection_id"])

	status := f.readUntil(t, TypeStatus)
	assert.Equal(t, false, status["initialized"])
	assert.EqualValues(t, kernel.CodeNotInitialized, status["code"])
	assert.NotContains(t, status, "status")

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.WSConnections) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestStatusTicksBeforeInitAreNotCounted(t *testing.T) {
	f := newFixture(t, 10*time.Millisecond)
	for i := 0; i < 3; i++ {
		status := f.readUntil(t, TypeStatus)
		assert.EqualValues(t, kernel.CodeNotInitialized, status["code"])
	}
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.KernelOps.WithLabelValues("status", "not_initialized")))

	require.NoError(t, f.kernel.Init())
	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(f.metrics.KernelOps.WithLabelValues("status", "ok")) > 0
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.KernelOps.WithLabelValues("status", "not_initialized")))
}

func TestPingAndStatusRequests(t *testing.T) {
	f := newFixture(t, time.Hour)
	f.readUntil(t, TypeStatus)

	f.send(t, `{"type":"ping"}`)
	f.readUntil(t, TypePong)

	require.NoError(t, f.kernel.Init())
	f.send(t, `{"type":"status"}`)
	status := f.readUntil(t, TypeStatus)
	assert.Equal(t, true, status["initialized"])
	assert.EqualValues(t, 0, status["code"])
	inner := status["status"].(map[string]any)
	assert.EqualValues(t, 0, inner["active_threads"])
}

func TestUnknownMessageType(t *testing.T) {
	f := newFixture(t, time.Hour)

	f.send(t, `{"type":"reboot"}`)
	frame := f.readUntil(t, TypeError)
	assert.Contains(t, frame["message"], "reboot")

	f.send(t, `not json`)
	f.readUntil(t, TypeError)
}

func TestPeriodicStatusAndEvents(t *testing.T) {
	f := newFixture(t, 20*time.Millisecond)
	f.readUntil(t, TypeStatus)

	require.NoError(t, f.kernel.Init())
	_, err := f.kernel.CreateThread("worker")
	require.NoError(t, err)

	for {
		frame := f.readUntil(t, TypeEvent)
		ev := frame["event"].(map[string]any)
		if ev["type"] == string(kernel.EventThreadCreated) {
			assert.Equal(t, "worker", ev["name"])
			break
		}
	}

	status := f.readUntil(t, TypeStatus)
	assert.Equal(t, true, status["initialized"])
}
