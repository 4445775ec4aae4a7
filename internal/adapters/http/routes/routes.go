package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/http/handlers"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/http/middleware"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/kv"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/config"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/audit"
)

// Deps holds everything the router wires together
type Deps struct {
	Config   *config.Config
	Store    kv.Store
	Audit    *audit.Logger
	Verifier middleware.TokenVerifier
	Lockout  middleware.LockoutChecker

	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Payments     *handlers.PaymentHandler
	Transactions *handlers.TransactionHandler
	Admin        *handlers.AdminHandler
}

// guards are built once and shared by every mount so limiter windows and
// CSRF tokens do not depend on the path prefix
type guards struct {
	loginLimit   fiber.Handler
	apiLimit     fiber.Handler
	paymentLimit fiber.Handler
	lockout      fiber.Handler
	csrf         fiber.Handler
	sanitize     fiber.Handler
	auth         fiber.Handler
}

func newGuards(d Deps) guards {
	rl := d.Config.RateLimit
	return guards{
		loginLimit:   middleware.RateLimiter(middleware.LoginRateLimit(rl.LoginMax, rl.LoginWindow), d.Store, d.Audit),
		apiLimit:     middleware.RateLimiter(middleware.APIRateLimit(rl.APIMax, rl.APIWindow), d.Store, d.Audit),
		paymentLimit: middleware.RateLimiter(middleware.PaymentRateLimit(rl.PaymentMax, rl.PaymentWindow), d.Store, d.Audit),
		lockout:      middleware.LockoutGuard(d.Lockout, d.Audit),
		csrf: middleware.CSRF(middleware.CSRFConfig{
			Storage: d.Store,
			Secure:  d.Config.IsProd() || d.Config.Cookie.Secure,
			Domain:  d.Config.Cookie.Domain,
		}, d.Audit),
		sanitize: middleware.Sanitize(d.Audit),
		auth:     middleware.RequireAuth(d.Verifier),
	}
}

// Setup configures all routes for the application
func Setup(app *fiber.App, d Deps) {
	g := newGuards(d)

	app.Get("/", d.Health.Root)
	app.Get("/health", d.Health.HealthCheck)

	// Swagger documentation
	if d.Config.IsDev() {
		app.Get("/swagger/*", swagger.HandlerDefault)
	}

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", d.Health.APIInfo)
	mount(apiV1, d, g)

	// browser clients also call the unprefixed paths
	mount(app, d, g)
}

func mount(router fiber.Router, d Deps, g guards) {
	router.Get("/csrf-token", g.apiLimit, g.csrf, middleware.NoCacheHeaders(), d.Health.CSRFToken)

	setupAuthRoutes(router.Group("/auth"), d.Auth, g)

	// every group below shares the general API window
	payments := router.Group("/payments", g.apiLimit)
	payments.Post("/", g.paymentLimit, g.csrf, g.sanitize, g.auth, middleware.CustomerOnly(), d.Payments.Create)
	payments.Get("/", g.auth, middleware.CustomerOnly(), d.Payments.List)

	setupTransactionRoutes(router.Group("/transactions", g.apiLimit), d.Transactions, g)

	admin := router.Group("/admin", g.apiLimit)
	admin.Get("/locked-accounts", g.auth, middleware.AdminOnly(), d.Admin.ListLocked)
	admin.Post("/unlock-account/:userId", g.mutating(d.Admin.Unlock, middleware.AdminOnly())...)
	admin.Post("/unlock-by-account", g.mutating(d.Admin.UnlockByAccount, middleware.AdminOnly())...)
}

// mutating orders the guards of an authenticated state-changing route:
// CSRF, sanitize, token, then any role checks before h
func (g guards) mutating(h fiber.Handler, roles ...fiber.Handler) []fiber.Handler {
	chain := []fiber.Handler{g.csrf, g.sanitize, g.auth}
	chain = append(chain, roles...)
	return append(chain, h)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, h *handlers.AuthHandler, g guards) {
	// Public routes
	router.Post("/register", g.apiLimit, g.csrf, g.sanitize, h.Register)
	router.Post("/login", g.loginLimit, g.lockout, g.csrf, g.sanitize, h.Login)
	router.Post("/refresh", g.apiLimit, g.csrf, h.RefreshToken)
	router.Post("/logout", g.apiLimit, g.csrf, h.Logout)
	router.Post("/request-reset", g.apiLimit, g.csrf, g.sanitize, h.RequestReset)
	router.Post("/reset-password", g.apiLimit, g.csrf, g.sanitize, h.ResetPassword)

	// Protected routes
	router.Get("/me", g.apiLimit, g.auth, middleware.NoCacheHeaders(), h.Me)
	router.Post("/logout-all", g.apiLimit, g.csrf, g.sanitize, g.auth, h.LogoutAll)
	router.Post("/register-employee", g.apiLimit, g.csrf, g.sanitize, g.auth, middleware.AdminOnly(), h.RegisterEmployee)
}

// setupTransactionRoutes configures the employee verification routes
func setupTransactionRoutes(router fiber.Router, h *handlers.TransactionHandler, g guards) {
	staff := middleware.StaffOnly()
	router.Get("/pending", g.auth, staff, h.ListPending)
	router.Get("/verified", g.auth, staff, h.ListVerified)
	router.Post("/submit-to-swift", g.mutating(h.SubmitToSwift, staff)...)
	router.Get("/:id", g.auth, staff, h.Get)
	router.Patch("/:id/verify", g.mutating(h.Verify, staff)...)
	router.Patch("/:id/unverify", g.mutating(h.Unverify, staff)...)
}
