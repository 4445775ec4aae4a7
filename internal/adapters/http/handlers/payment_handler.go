package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/core/services"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/pagination"
	"github.com/ST10261605/CustomerPaymentPortal-INSYPOEPart2/internal/pkg/response"
)

// PaymentHandler handles customer payment endpoints
type PaymentHandler struct {
	Base
	txService *services.TransactionService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(txService *services.TransactionService, base Base) *PaymentHandler {
	return &PaymentHandler{Base: base, txService: txService}
}

// CreatePaymentRequest represents a payment request body
type CreatePaymentRequest struct {
	Amount           decimal.Decimal `json:"amount" swaggertype:"number"`
	Currency         string          `json:"currency" validate:"omitempty,len=3"`
	RecipientName    string          `json:"recipientName" validate:"required,recipientname"`
	RecipientAccount string          `json:"recipientAccount" validate:"required,accountnumber"`
	SwiftCode        string          `json:"swiftCode" validate:"required"`
	Description      string          `json:"description" validate:"max=255"`
	Provider         string          `json:"provider" validate:"max=20"`
}

// Create handles payment creation
// @Summary Create payment
// @Description Submit a new international payment for verification
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePaymentRequest true "Payment details"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /payments [post]
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	var req CreatePaymentRequest
	if problems := bindAndValidate(c, &req); problems != nil {
		return response.ValidationFailed(c, response.CodeValidation, "Validation failed", problems)
	}

	tx, err := h.txService.CreatePayment(c.UserContext(), actor(c), &services.PaymentInput{
		Amount:           req.Amount,
		Currency:         req.Currency,
		RecipientName:    req.RecipientName,
		RecipientAccount: req.RecipientAccount,
		SwiftCode:        req.SwiftCode,
		Description:      req.Description,
		Provider:         req.Provider,
	}, requestMeta(c))
	if err != nil {
		return h.writeError(c, err)
	}

	return response.Created(c, "Payment submitted successfully", fiber.Map{
		"transactionId": tx.ID,
		"transaction":   tx,
	})
}

// List handles listing the caller's payments
// @Summary List my payments
// @Description List the caller's payments, newest first
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	txs, total, err := h.txService.ListMine(c.UserContext(), actor(c), params)
	if err != nil {
		return h.writeError(c, err)
	}

	return response.Success(c, "Payments retrieved successfully", fiber.Map{
		"payments": txs,
		"meta":     pagination.GetMeta(params, total),
	})
}
