package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/adapters/persistence/models"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/services"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
)

// AdminHandler handles account lock management
type AdminHandler struct {
	Base
	lockoutService *services.LockoutService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(lockoutService *services.LockoutService, base Base) *AdminHandler {
	return &AdminHandler{Base: base, lockoutService: lockoutService}
}

// UnlockByAccountRequest addresses an account by number
type UnlockByAccountRequest struct {
	AccountNumber string `json:"accountNumber" validate:"required,accountnumber"`
}

// ListLocked lists locked accounts
// @Summary List locked accounts
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/locked-accounts [get]
func (h *AdminHandler) ListLocked(c *fiber.Ctx) error {
	accounts, err := h.lockoutService.ListLocked(c.UserContext())
	if err != nil {
		return h.writeError(c, err)
	}

	out := make([]*models.LockedAccountResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.ToLockedResponse())
	}
	return response.Success(c, "Locked accounts retrieved successfully", fiber.Map{
		"accounts": out,
		"count":    len(out),
	})
}

// Unlock unlocks an account by user id
// @Summary Unlock account
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/unlock-account/{userId} [post]
func (h *AdminHandler) Unlock(c *fiber.Ctx) error {
	account, err := h.lockoutService.Unlock(c.UserContext(), actor(c), c.Params("userId"), requestMeta(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return response.Success(c, "Account unlocked successfully", fiber.Map{"user": account.ToResponse()})
}

// UnlockByAccount unlocks an account by account number
// @Summary Unlock account by account number
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UnlockByAccountRequest true "Account number"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/unlock-by-account [post]
func (h *AdminHandler) UnlockByAccount(c *fiber.Ctx) error {
	var req UnlockByAccountRequest
	if problems := bindAndValidate(c, &req); problems != nil {
		return response.ValidationFailed(c, response.CodeValidation, "Validation failed", problems)
	}

	account, err := h.lockoutService.UnlockByAccountNumber(c.UserContext(), actor(c), req.AccountNumber, requestMeta(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return response.Success(c, "Account unlocked successfully", fiber.Map{"user": account.ToResponse()})
}
