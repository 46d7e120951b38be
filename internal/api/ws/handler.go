package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/events"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/monitoring"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the UI shell connects from a local origin
	},
}

// Handler streams kernel status and events to WebSocket clients.
type Handler struct {
	kernel   *kernel.Manager
	hub      *events.Hub
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	interval time.Duration
}

// NewHandler creates a handler that pushes a status frame every interval.
// hub and metrics may be nil.
func NewHandler(k *kernel.Manager, hub *events.Hub, metrics *monitoring.Metrics, logger *zap.Logger, interval time.Duration) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Handler{
		kernel:   k,
		hub:      hub,
		metrics:  metrics,
		logger:   logger.Named("ws"),
		interval: interval,
	}
}

// HandleConnection upgrades the request and serves the stream until the
// client goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	s := &session{
		id:     uuid.NewString(),
		conn:   conn,
		h:      h,
		out:    make(chan any, sendBuffer),
		done:   make(chan struct{}),
		logger: h.logger,
	}
	s.logger = h.logger.With(zap.String("connection_id", s.id))

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	var feed <-chan kernel.Event
	subscribers := 0
	if h.hub != nil {
		ch, cancel := h.hub.Subscribe()
		defer cancel()
		feed = ch
		subscribers = h.hub.Subscribers()
	}
	s.logger.Debug("WebSocket connected",
		zap.String("remote", c.ClientIP()),
		zap.Int("subscribers", subscribers),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop(feed)
	}()

	s.enqueue(SystemFrame{Type: TypeSystem, Message: "Connected to Aurora kernel", ConnectionID: s.id})
	s.enqueue(h.statusFrame())
	s.readLoop()

	s.stop()
	wg.Wait()
	_ = conn.Close()
	s.logger.Debug("WebSocket disconnected")
}

func (h *Handler) statusFrame() StatusFrame {
	frame := StatusFrame{Type: TypeStatus, Timestamp: time.Now().UnixMilli()}
	// Periodic frames are not client operations; keep them out of the
	// kernel operation counters while the kernel is down.
	if !h.kernel.Initialized() {
		frame.Code = int32(kernel.CodeNotInitialized)
		return frame
	}
	st, err := h.kernel.Status()
	if err != nil {
		frame.Code = int32(kernel.CodeOf(err))
		return frame
	}
	frame.Initialized = st.Initialized
	frame.Status = &st
	return frame
}

type session struct {
	id     string
	conn   *websocket.Conn
	h      *Handler
	out    chan any
	done   chan struct{}
	once   sync.Once
	logger *zap.Logger
}

func (s *session) stop() {
	s.once.Do(func() { close(s.done) })
}

// enqueue hands a frame to the writer. Frames are dropped once the session
// is stopping.
func (s *session) enqueue(frame any) {
	select {
	case s.out <- frame:
	case <-s.done:
	}
}

func (s *session) readLoop() {
	s.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		s.record("in", "message")

		var msg ClientMessage
		if err := sonic.Unmarshal(data, &msg); err != nil {
			s.enqueue(ErrorFrame{Type: TypeError, Message: "invalid message: " + err.Error()})
			continue
		}

		switch msg.Type {
		case TypePing:
			s.enqueue(SystemFrame{Type: TypePong})
		case TypeStatus:
			s.enqueue(s.h.statusFrame())
		default:
			s.enqueue(ErrorFrame{Type: TypeError, Message: "unknown message type: " + msg.Type})
		}
	}
}

func (s *session) writeLoop(feed <-chan kernel.Event) {
	ticker := time.NewTicker(s.h.interval)
	defer ticker.Stop()

	for {
		var frame any
		select {
		case <-s.done:
			return
		case frame = <-s.out:
		case <-ticker.C:
			frame = s.h.statusFrame()
		case ev, ok := <-feed:
			if !ok {
				feed = nil
				continue
			}
			frame = EventFrame{Type: TypeEvent, Event: ev}
		}

		if err := s.write(frame); err != nil {
			s.logger.Debug("WebSocket write failed", zap.Error(err))
			s.stop()
			_ = s.conn.Close()
			return
		}
	}
}

func (s *session) write(frame any) error {
	data, err := sonic.Marshal(frame)
	if err != nil {
		return err
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	s.record("out", frameType(frame))
	return nil
}

func (s *session) record(direction, msgType string) {
	if s.h.metrics != nil {
		s.h.metrics.RecordWSMessage(direction, msgType)
	}
}
