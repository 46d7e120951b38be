package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/domain/kernel"
	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/monitoring"
)

// DefaultCallCapacity is used by POST /kernel/demo when capacity is omitted.
const DefaultCallCapacity = 256

// Handlers contains all HTTP handlers
type Handlers struct {
	kernel  *kernel.Manager
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(k *kernel.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		kernel:  k,
		metrics: metrics,
		logger:  logger.Named("http"),
	}
}

// Root handles the liveness probe
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Aurora Kernel Control Plane",
		"version": kernel.VersionString(),
	})
}

// Health reports kernel state without requiring initialization
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"kernel": gin.H{
			"initialized":    h.kernel.Initialized(),
			"active_threads": h.kernel.ActiveThreadCount(),
			"uptime_ms":      h.kernel.Uptime().Milliseconds(),
		},
	})
}

// Version returns the kernel version string
func (h *Handlers) Version(c *gin.Context) {
	v := kernel.CurrentVersion()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"version": v.String(),
		"major":   v.Major,
		"minor":   v.Minor,
		"patch":   v.Patch,
	})
}

// Init initializes the kernel
func (h *Handlers) Init(c *gin.Context) {
	if err := h.kernel.Init(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Kernel initialized",
	})
}

// Shutdown shuts the kernel down and clears the thread registry
func (h *Handlers) Shutdown(c *gin.Context) {
	if err := h.kernel.Shutdown(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Kernel shut down",
	})
}

// Status returns a status snapshot
func (h *Handlers) Status(c *gin.Context) {
	st, err := h.kernel.Status()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"status":  st,
	})
}

// ListThreads returns the thread registry in creation order
func (h *Handlers) ListThreads(c *gin.Context) {
	threads, err := h.kernel.Threads()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"threads": threads,
		"count":   len(threads),
	})
}

// ThreadCount returns the number of registered threads. Valid in any state.
func (h *Handlers) ThreadCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   h.kernel.ActiveThreadCount(),
	})
}

// CreateThread registers a new thread
func (h *Handlers) CreateThread(c *gin.Context) {
	var req CreateThreadRequest
	// An empty body means an unnamed thread.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, invalidRequest("create_thread", err))
			return
		}
	}

	id, err := h.kernel.CreateThread(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":   true,
		"thread_id": id,
	})
}

// DestroyThread removes a thread by id
func (h *Handlers) DestroyThread(c *gin.Context) {
	raw, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		respondError(c, kernel.NewError("destroy_thread", kernel.CodeInvalidParam, "invalid thread id %q", c.Param("id")))
		return
	}

	if err := h.kernel.DestroyThread(kernel.ThreadID(raw)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"thread_id": raw,
	})
}

// Send delivers a message to a thread
func (h *Handlers) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidRequest("send", err))
		return
	}

	msg := req.Message.Message()
	if err := h.kernel.Send(kernel.ThreadID(req.Target), &msg); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"target":  req.Target,
		"msg_id":  msg.ID,
		"size":    msg.Size(),
	})
}

// Receive returns the kernel's demo message
func (h *Handlers) Receive(c *gin.Context) {
	sender, msg, err := h.kernel.Receive()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"sender":  sender,
		"message": NewMessageDTO(msg),
	})
}

// DemoCall runs the kernel's echo call
func (h *Handlers) DemoCall(c *gin.Context) {
	var req DemoCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, invalidRequest("demo_call", err))
		return
	}

	capacity := DefaultCallCapacity
	if req.Capacity != nil {
		capacity = *req.Capacity
	}

	out, err := h.kernel.DemoCall(*req.Input, capacity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"output":  out,
	})
}

// MetricsSnapshot returns the JSON view of the process metrics
func (h *Handlers) MetricsSnapshot(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "metrics disabled",
		})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
