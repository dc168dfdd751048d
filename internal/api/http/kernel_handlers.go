package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListProcesses returns the process table, ready queue and scheduler stats
func (h *Handlers) ListProcesses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"processes":   h.kernel.Scheduler.All(),
		"ready_queue": h.kernel.Scheduler.ReadyQueue(),
		"stats":       h.kernel.Scheduler.Stats(),
	})
}

// ScheduleNext reports the process at the head of the ready queue
func (h *Handlers) ScheduleNext(c *gin.Context) {
	next, ok := h.kernel.Scheduler.Schedule()
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"next_pid": nil,
			"message":  "No processes available to schedule",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"next_pid": next.PID,
		"process":  next,
	})
}
