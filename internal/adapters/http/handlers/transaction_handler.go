package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/services"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/pagination"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
)

// TransactionHandler handles the employee verification endpoints
type TransactionHandler struct {
	Base
	txService *services.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txService *services.TransactionService, base Base) *TransactionHandler {
	return &TransactionHandler{Base: base, txService: txService}
}

// SubmitRequest represents a batch submission
type SubmitRequest struct {
	TransactionIDs []string `json:"transactionIds" validate:"required,min=1,max=500,dive,uuid4"`
}

// ListPending lists transactions awaiting verification
// @Summary List pending transactions
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /transactions/pending [get]
func (h *TransactionHandler) ListPending(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	txs, total, err := h.txService.ListPending(c.UserContext(), actor(c), params)
	if err != nil {
		return h.writeError(c, err)
	}

	return response.Success(c, "Pending transactions retrieved successfully", fiber.Map{
		"transactions": txs,
		"meta":         pagination.GetMeta(params, total),
	})
}

// ListVerified lists transactions ready for submission
// @Summary List verified transactions
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /transactions/verified [get]
func (h *TransactionHandler) ListVerified(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	txs, total, err := h.txService.ListVerified(c.UserContext(), actor(c), params)
	if err != nil {
		return h.writeError(c, err)
	}

	return response.Success(c, "Verified transactions retrieved successfully", fiber.Map{
		"transactions": txs,
		"meta":         pagination.GetMeta(params, total),
	})
}

// Get returns one transaction
// @Summary Get transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	tx, err := h.txService.Get(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return h.writeError(c, err)
	}
	return response.Success(c, "Transaction retrieved successfully", fiber.Map{"transaction": tx})
}

// Verify marks a pending transaction verified
// @Summary Verify transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /transactions/{id}/verify [patch]
func (h *TransactionHandler) Verify(c *fiber.Ctx) error {
	tx, err := h.txService.Verify(c.UserContext(), actor(c), c.Params("id"), requestMeta(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return response.Success(c, "Transaction verified successfully", fiber.Map{"transaction": tx})
}

// Unverify moves a verified transaction back to pending
// @Summary Unverify transaction
// @Tags Transactions
// @Produce json
// @Security BearerAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /transactions/{id}/unverify [patch]
func (h *TransactionHandler) Unverify(c *fiber.Ctx) error {
	tx, err := h.txService.Unverify(c.UserContext(), actor(c), c.Params("id"), requestMeta(c))
	if err != nil {
		return h.writeError(c, err)
	}
	return response.Success(c, "Transaction unverified successfully", fiber.Map{"transaction": tx})
}

// SubmitToSwift submits a batch of verified transactions
// @Summary Submit verified transactions to SWIFT
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SubmitRequest true "Transaction ids"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /transactions/submit-to-swift [post]
func (h *TransactionHandler) SubmitToSwift(c *fiber.Ctx) error {
	var req SubmitRequest
	if problems := bindAndValidate(c, &req); problems != nil {
		return response.ValidationFailed(c, response.CodeValidation, "Validation failed", problems)
	}

	n, err := h.txService.SubmitToSwift(c.UserContext(), actor(c), req.TransactionIDs, requestMeta(c))
	if err != nil {
		return h.writeError(c, err)
	}

	return response.Success(c, "Transactions submitted to SWIFT", fiber.Map{
		"submittedCount": n,
	})
}
