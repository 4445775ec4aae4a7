package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/http/middleware"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/config"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB, cfg *config.Config) *HealthHandler {
	return &HealthHandler{db: db, cfg: cfg}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	body := fiber.Map{
		"status":  "running",
		"message": "Customer Payment Portal API is running",
		"mode":    h.cfg.AppMode,
	}
	if h.cfg.IsDev() {
		body["docs"] = "/swagger/index.html"
	}
	return c.JSON(body)
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API and database health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	status, dbStatus, code := "ok", "healthy", fiber.StatusOK
	if err := config.HealthCheck(h.db); err != nil {
		status, dbStatus, code = "degraded", "unhealthy", fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{
			"api":      "healthy",
			"database": dbStatus,
		},
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Description Returns API v1 information
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Customer Payment Portal API v1",
		"version": "1.0.0",
	})
}

// CSRFToken returns the CSRF token issued by the CSRF middleware
// @Summary Get CSRF token
// @Description Issues a CSRF token and sets the csrf_ cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /csrf-token [get]
func (h *HealthHandler) CSRFToken(c *fiber.Ctx) error {
	return response.Success(c, "CSRF token issued", fiber.Map{
		"csrfToken": middleware.CSRFToken(c),
	})
}
