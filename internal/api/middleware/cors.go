package middleware

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AuroraOS/backend/internal/infrastructure/tracing"
)

// CORS lets the UI shell call the kernel API from origins and read the
// request and trace id headers. With no origins every origin is allowed.
func CORS(origins ...string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions}
	cfg.AddAllowHeaders("Accept", "Accept-Encoding", "Cache-Control",
		RequestIDHeader, tracing.TraceHeader, tracing.SpanHeader)
	cfg.AddExposeHeaders(RequestIDHeader, tracing.TraceHeader, tracing.SpanHeader)
	return cors.New(cfg)
}
