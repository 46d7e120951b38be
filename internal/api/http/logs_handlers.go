package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ShellLogEntry is a log line forwarded by the UI shell.
type ShellLogEntry struct {
	Level     string         `json:"level"`
	Message   string         `json:"message" binding:"required"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
}

// ShellLogBatch is the body of POST /logs.
type ShellLogBatch struct {
	Source  string          `json:"source"`
	Entries []ShellLogEntry `json:"entries" binding:"required,min=1,dive"`
}

// StreamLogs records UI shell log lines through the server logger so the
// shell and the kernel share one log stream.
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req ShellLogBatch
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid log request: " + err.Error(),
		})
		return
	}

	source := req.Source
	if source == "" {
		source = "shell"
	}
	logger := h.logger.Named(source)
	for _, entry := range req.Entries {
		logShellEntry(logger, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"entries_received": len(req.Entries),
		"timestamp":        time.Now().Unix(),
	})
}

func logShellEntry(logger *zap.Logger, entry ShellLogEntry) {
	fields := make([]zap.Field, 0, len(entry.Context)+1)
	if entry.Timestamp != "" {
		fields = append(fields, zap.String("shell_timestamp", entry.Timestamp))
	}
	for key, value := range entry.Context {
		switch v := value.(type) {
		case string:
			fields = append(fields, zap.String(key, v))
		case float64:
			fields = append(fields, zap.Float64(key, v))
		case bool:
			fields = append(fields, zap.Bool(key, v))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}

	switch entry.Level {
	case "error":
		logger.Error(entry.Message, fields...)
	case "warn", "warning":
		logger.Warn(entry.Message, fields...)
	case "debug", "verbose":
		logger.Debug(entry.Message, fields...)
	default:
		logger.Info(entry.Message, fields...)
	}
}
