package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/config"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/domain"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/services"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
)

const refreshCookieName = "refresh_token"

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	Base
	authService  *services.AuthService
	resetService *services.ResetService
	cfg          *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, resetService *services.ResetService, cfg *config.Config, base Base) *AuthHandler {
	return &AuthHandler{
		Base:         base,
		authService:  authService,
		resetService: resetService,
		cfg:          cfg,
	}
}

// RegisterRequest represents registration request body
type RegisterRequest struct {
	FullName      string `json:"fullName" validate:"required,fullname"`
	IDNumber      string `json:"idNumber" validate:"required,idnumber"`
	AccountNumber string `json:"accountNumber" validate:"required,accountnumber"`
	Password      string `json:"password" validate:"required,max=128"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required"`
	Password      string `json:"password" validate:"required"`
}

// RequestResetRequest represents a password reset request
type RequestResetRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required"`
}

// ResetPasswordRequest represents a password reset completion
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=128"`
}

func (r *RegisterRequest) input() *services.RegisterInput {
	return &services.RegisterInput{
		FullName:      strings.TrimSpace(r.FullName),
		IDNumber:      strings.TrimSpace(r.IDNumber),
		AccountNumber: strings.TrimSpace(r.AccountNumber),
		Password:      r.Password,
	}
}

// validateRegister reports format and password problems together
func (h *AuthHandler) validateRegister(c *fiber.Ctx, req *RegisterRequest) error {
	problems := bindAndValidate(c, req)
	if problems == nil {
		return nil
	}
	if req.Password != "" {
		problems = append(problems, h.authService.PasswordProblems(req.Password)...)
	}
	return response.ValidationFailed(c, response.CodeValidation, "Validation failed", problems)
}

// Register handles customer registration
// @Summary Register new customer
// @Description Register a new customer account
// @Tags Auth
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := h.validateRegister(c, &req); err != nil {
		return err
	}

	account, err := h.authService.Register(c.UserContext(), req.input(), requestMeta(c))
	if err != nil {
		return h.writeError(c, err)
	}

	return response.Created(c, "Registration successful", fiber.Map{
		"user": account.ToResponse(),
	})
}

// RegisterEmployee handles employee registration by an admin
// @Summary Register employee
// @Description Admin creates an Employee account
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RegisterRequest true "Employee data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/register-employee [post]
func (h *AuthHandler) RegisterEmployee(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := h.validateRegister(c, &req); err != nil {
		return err
	}

	account, err := h.authService.RegisterEmployee(c.UserContext(), actor(c).ID, req.input(), requestMeta(c))
	if err != nil {
		return h.writeError(c, err)
	}

	return response.Created(c, "Employee registered successfully", fiber.Map{
		"user": account.ToResponse(),
	})
}

// Login handles user login
// @Summary Login
// @Description Authenticate with account number and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 423 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if problems := bindAndValidate(c, &req); problems != nil {
		return response.ValidationFailed(c, response.CodeValidation, "Validation failed", problems)
	}

	result, err := h.authService.Login(c.UserContext(), &services.LoginInput{
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		Password:      req.Password,
	}, requestMeta(c))
	if err != nil {
		return h.writeError(c, err)
	}

	h.setRefreshCookie(c, result.RefreshToken)

	return response.Success(c, "Login successful", fiber.Map{
		"accessToken": result.AccessToken,
		"expiresAt":   result.ExpiresAt.UTC(),
		"user":        result.Account.ToResponse(),
	})
}

// RefreshToken handles token refresh
// @Summary Refresh access token
// @Description Rotate the refresh token cookie and issue a new access token
// @Tags Auth
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	// Get refresh token from cookie
	refreshToken := c.Cookies(refreshCookieName)
	if refreshToken == "" {
		return response.Unauthorized(c, "Refresh token not found")
	}

	result, err := h.authService.Refresh(c.UserContext(), refreshToken, requestMeta(c))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTokenExpired):
			h.clearRefreshCookie(c)
			return response.Unauthorized(c, "Refresh token expired, please login again")
		case errors.Is(err, domain.ErrTokenRevoked):
			h.clearRefreshCookie(c)
			return response.Unauthorized(c, "Refresh token revoked, please login again")
		case errors.Is(err, domain.ErrTokenInvalid):
			h.clearRefreshCookie(c)
			return response.Unauthorized(c, "Invalid refresh token")
		default:
			return h.writeError(c, err)
		}
	}

	h.setRefreshCookie(c, result.RefreshToken)

	return response.Success(c, "Token refreshed successfully", fiber.Map{
		"accessToken": result.AccessToken,
		"expiresAt":   result.ExpiresAt.UTC(),
		"user":        result.Account.ToResponse(),
	})
}

// Logout handles user logout
// @Summary Logout
// @Description Revoke the refresh token and clear the cookie
// @Tags Auth
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), c.Cookies(refreshCookieName), requestMeta(c)); err != nil {
		return h.writeError(c, err)
	}

	h.clearRefreshCookie(c)

	return response.Success(c, "Logged out successfully", nil)
}

// LogoutAll handles logout from all devices
// @Summary Logout from all devices
// @Description Revoke all refresh tokens of the caller
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	revoked, err := h.authService.LogoutAll(c.UserContext(), actor(c).ID, requestMeta(c))
	if err != nil {
		return h.writeError(c, err)
	}

	h.clearRefreshCookie(c)

	return response.Success(c, "Logged out from all devices", fiber.Map{
		"revokedSessions": revoked,
	})
}

// Me returns the current user info
// @Summary Get current user
// @Description Get the authenticated caller's profile
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	account, err := h.authService.Me(c.UserContext(), actor(c).ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.Unauthorized(c, "Unauthorized")
		}
		return h.writeError(c, err)
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": account.ToResponse(),
	})
}

// RequestReset starts a password reset
// @Summary Request password reset
// @Description Always succeeds; a reset token is issued when the account exists
// @Tags Auth
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param body body RequestResetRequest true "Account number"
// @Success 200 {object} response.Response
// @Router /auth/request-reset [post]
func (h *AuthHandler) RequestReset(c *fiber.Ctx) error {
	var req RequestResetRequest
	if problems := bindAndValidate(c, &req); problems != nil {
		return response.ValidationFailed(c, response.CodeValidation, "Validation failed", problems)
	}

	token := h.resetService.RequestPasswordReset(c.UserContext(), req.AccountNumber, requestMeta(c))

	var data fiber.Map
	if h.Dev && token != "" {
		data = fiber.Map{"resetToken": token}
	}
	return response.Success(c, "If the account exists, a password reset has been initiated", data)
}

// ResetPassword completes a password reset
// @Summary Reset password
// @Description Redeem a reset token and set a new password
// @Tags Auth
// @Accept json
// @Produce json
// @Param X-CSRF-Token header string true "CSRF token"
// @Param body body ResetPasswordRequest true "Reset token and new password"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if problems := bindAndValidate(c, &req); problems != nil {
		return response.ValidationFailed(c, response.CodeValidation, "Validation failed", problems)
	}

	if err := h.resetService.ResetPassword(c.UserContext(), req.Token, req.NewPassword, requestMeta(c)); err != nil {
		return h.writeError(c, err)
	}

	return response.Success(c, "Password has been reset successfully", nil)
}

// refreshCookiePath scopes the cookie to the auth routes of the mount used
func refreshCookiePath(c *fiber.Ctx) string {
	if strings.HasPrefix(c.Path(), "/api/v1/") {
		return "/api/v1/auth"
	}
	return "/auth"
}

// setRefreshCookie sets the refresh token cookie
func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, refreshToken string) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     refreshCookiePath(c),
		MaxAge:   int(h.cfg.JWT.RefreshTTL / time.Second),
		Secure:   h.cfg.Cookie.Secure || h.cfg.IsProd(),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Domain:   h.cfg.Cookie.Domain,
	})
}

// clearRefreshCookie expires the refresh token cookie
func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     refreshCookiePath(c),
		MaxAge:   -1,
		Expires:  time.Now().Add(-1 * time.Hour),
		Secure:   h.cfg.Cookie.Secure || h.cfg.IsProd(),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
		Domain:   h.cfg.Cookie.Domain,
	})
}
