package handler

import (
	"starmatch/internal/domain"
	"starmatch/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthHandler reports whether the handoff cache is reachable.
type HealthHandler struct {
	cache domain.Cache
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(cache domain.Cache) *HealthHandler {
	return &HealthHandler{cache: cache}
}

// Check handles GET /healthz
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	if err := h.cache.Ping(c.UserContext()); err != nil {
		logger.Get().Warn("Health check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "degraded",
			"cache":  err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
