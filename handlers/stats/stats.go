package stats

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnhub-api/services"
	"github.com/sahilchouksey/learnhub-api/utils/response"
	"gorm.io/gorm"
)

// StatsHandler serves course-level statistics
type StatsHandler struct {
	db       *gorm.DB
	progress *services.ProgressService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(db *gorm.DB, progress *services.ProgressService) *StatsHandler {
	return &StatsHandler{
		db:       db,
		progress: progress,
	}
}

// GetCourseStats handles GET /api/v1/courses/:id/stats. Reads may be served
// from a short-TTL cache and can be slightly stale.
func (h *StatsHandler) GetCourseStats(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	stats, err := h.progress.GetCourseStats(c.Context(), uint(courseID))
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.Success(c, stats)
}

// Reconcile handles POST /api/v1/courses/:id/stats/reconcile (admin).
// Recomputes the denormalized counters from scans and overwrites the cache.
func (h *StatsHandler) Reconcile(c *fiber.Ctx) error {
	courseID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid course id")
	}

	stats, err := h.progress.ReconcileCourseCounters(c.Context(), uint(courseID))
	if err != nil {
		return response.DomainError(c, services.ErrorCode(err), err.Error())
	}

	return response.SuccessWithMessage(c, "Counters reconciled", stats)
}
