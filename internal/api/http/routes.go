package http

import "github.com/gin-gonic/gin"

// Register mounts the kernel API on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	k := r.Group("/kernel")
	{
		k.GET("/version", h.Version)
		k.POST("/init", h.Init)
		k.POST("/shutdown", h.Shutdown)
		k.GET("/status", h.Status)
		k.POST("/demo", h.DemoCall)
	}

	t := r.Group("/threads")
	{
		t.GET("", h.ListThreads)
		t.GET("/count", h.ThreadCount)
		t.POST("", h.CreateThread)
		t.DELETE("/:id", h.DestroyThread)
	}

	ipc := r.Group("/ipc")
	{
		ipc.POST("/send", h.Send)
		ipc.POST("/receive", h.Receive)
	}

	r.POST("/logs", h.StreamLogs)
	r.GET("/metrics/json", h.MetricsSnapshot)
}
