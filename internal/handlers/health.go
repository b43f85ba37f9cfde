package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/eventease-dev/eventease/internal/monitors"
	"github.com/gin-gonic/gin"
)

const readinessTimeout = 5 * time.Second

func (h *Handler) HealthCheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   "EventEase is running",
		"timestamp": h.now().Format(time.RFC3339),
	})
}

func (h *Handler) ReadinessCheck(ctx *gin.Context) {
	probeCtx, cancel := context.WithTimeout(ctx.Request.Context(), readinessTimeout)
	defer cancel()

	results, ready := monitors.RunProbes(probeCtx, h.Probes)

	status := http.StatusOK
	state := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		state = "unavailable"
	}

	ctx.JSON(status, gin.H{
		"status": state,
		"checks": results,
	})
}
