package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/kernel"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/domain/session"
	"github.com/GriffinCanCode/AtlasOS/backend/internal/infrastructure/monitoring"
)

// Version is reported by the root banner
const Version = "1.0.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	kernel      *kernel.Kernel
	broadcaster *session.Broadcaster
	stream      gin.HandlerFunc
	metrics     *monitoring.Metrics
	logger      *zap.Logger
}

// NewHandlers creates a new handler set. stream serves WebSocket
// upgrades that arrive on the root path.
func NewHandlers(
	k *kernel.Kernel,
	broadcaster *session.Broadcaster,
	stream gin.HandlerFunc,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		kernel:      k,
		broadcaster: broadcaster,
		stream:      stream,
		metrics:     metrics,
		logger:      logger,
	}
}

// Root serves the banner, or the snapshot stream for upgrade requests
func (h *Handlers) Root(c *gin.Context) {
	if h.stream != nil && websocket.IsWebSocketUpgrade(c.Request) {
		h.stream(c)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "AtlasOS Microkernel",
		"version": Version,
		"stream":  "/stream",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	stats := h.kernel.Scheduler.Stats()

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"uptime":    int64(h.kernel.Uptime().Seconds()),
		"processes": stats.TotalProcesses,
		"ready":     stats.ReadyQueue,
		"observers": h.broadcaster.ObserverCount(),
	})
}

// Status returns the kernel status summary
func (h *Handlers) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.broadcaster.Status())
}

// State returns a full snapshot
func (h *Handlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.broadcaster.Snapshot())
}

// Metrics returns tracked counters as JSON
func (h *Handlers) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}
