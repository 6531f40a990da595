package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type healthResponse struct {
	Status      string `json:"status"`
	Records     string `json:"records"`
	Cache       string `json:"cache"`
	Environment string `json:"environment"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	recordsStatus := "ok"
	if err := h.backend.Ping(ctx); err != nil {
		recordsStatus = "error"
		status = http.StatusServiceUnavailable
		h.log.Error().Err(err).Msg("record backend ping failed")
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "ok"
		if err := h.cache.Ping(ctx).Err(); err != nil {
			cacheStatus = "error"
			h.log.Error().Err(err).Msg("redis ping failed")
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, healthResponse{
		Status:      overall,
		Records:     recordsStatus,
		Cache:       cacheStatus,
		Environment: h.cfg.Environment,
	})
}
