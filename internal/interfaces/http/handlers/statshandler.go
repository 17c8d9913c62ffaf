package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/keygate-io/keygate/internal/infrastructure/repository"
	"github.com/keygate-io/keygate/internal/shared/logger"
	"github.com/keygate-io/keygate/internal/shared/utils"
)

// StatsHandler serves the dev API request statistics endpoint.
type StatsHandler struct {
	stats  *repository.StatsRepositoryImpl
	logger logger.Interface
}

// NewStatsHandler creates a new stats handler instance
func NewStatsHandler(stats *repository.StatsRepositoryImpl, logger logger.Interface) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// Get handles GET /api/dev/stats
func (h *StatsHandler) Get(c *gin.Context) {
	stats, err := h.stats.Get(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Stats successfully fetched", gin.H{
		"total_successful": stats.TotalSuccessful,
		"total_rejected":   stats.TotalRejected,
		"total_requests":   stats.TotalSuccessful + stats.TotalRejected,
	})
}
