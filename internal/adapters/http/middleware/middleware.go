package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/config"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
)

// HeaderCSRF is the request header carrying the CSRF token
const HeaderCSRF = "X-CSRF-Token"

// Setup configures the global middlewares for the application
func Setup(app *fiber.App, cfg *config.Config) {
	// Recover middleware - catches panics
	app.Use(recover.New())

	// Gzip Compression middleware
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Security Headers middleware (Helmet)
	app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "same-origin",
		PermissionPolicy:          "geolocation=(), microphone=(), camera=()",
		HSTSMaxAge:                31536000,
		HSTSPreloadEnabled:        true,
		ContentSecurityPolicy:     "default-src 'self'; frame-ancestors 'none'",
	}))

	// Logger middleware
	if cfg.IsDev() {
		app.Use(logger.New(logger.Config{
			Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
		}))
	} else {
		app.Use(logger.New(logger.Config{
			Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	// CORS middleware; credentials are needed for the refresh and CSRF cookies
	// so origins are always listed explicitly.
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.GetAllowedOrigins(),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization," + HeaderCSRF,
		ExposeHeaders:    fiber.HeaderRetryAfter,
		AllowCredentials: true,
	}))
}

// ErrorHandler renders errors that escaped a handler in the standard envelope
func ErrorHandler(log *slog.Logger) fiber.ErrorHandler {
	if log == nil {
		log = slog.Default()
	}
	return func(c *fiber.Ctx, err error) error {
		var e *fiber.Error
		if errors.As(err, &e) {
			code := response.CodeInternal
			switch e.Code {
			case fiber.StatusNotFound:
				code = response.CodeNotFound
			case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
				code = response.CodeValidation
			case fiber.StatusMethodNotAllowed, fiber.StatusRequestEntityTooLarge:
				code = response.CodeValidation
			}
			return response.Error(c, e.Code, code, e.Message)
		}

		log.Error("unhandled error", "method", c.Method(), "path", c.Path(), "error", err)
		return response.InternalServerError(c, "Internal Server Error")
	}
}

// NoCacheHeaders sets no-cache headers
func NoCacheHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Set("Pragma", "no-cache")
		c.Set("Expires", "0")
		return c.Next()
	}
}
