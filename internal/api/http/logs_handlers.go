package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const maxLimit = 1000

// limitParam reads ?limit=, falling back to def. Zero means everything.
func limitParam(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 0 and 1000"})
		return 0, false
	}
	return n, true
}

// GetEvents returns recent operator events
func (h *Handlers) GetEvents(c *gin.Context) {
	limit, ok := limitParam(c, 20)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": h.kernel.Recovery.RecentEvents(limit)})
}

// GetMessages returns recent IPC messages
func (h *Handlers) GetMessages(c *gin.Context) {
	limit, ok := limitParam(c, 10)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": h.kernel.IPC.Recent(limit)})
}

// GetArtifacts returns recently captured artifacts
func (h *Handlers) GetArtifacts(c *gin.Context) {
	limit, ok := limitParam(c, 6)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifacts": h.kernel.Hardware.RecentArtifacts(limit)})
}
