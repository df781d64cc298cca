package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/invorya-billing/internal/application/billing"
	"github.com/jhoicas/invorya-billing/internal/application/dto"
)

// PaymentHandler maneja abonos y reembolsos contra facturas (protegido).
type PaymentHandler struct {
	paymentUC *billing.PaymentUseCase
	convertUC *billing.ConvertEstimateUseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(paymentUC *billing.PaymentUseCase, convertUC *billing.ConvertEstimateUseCase) *PaymentHandler {
	return &PaymentHandler{paymentUC: paymentUC, convertUC: convertUC}
}

// ApplyPayment registra un abono contra la factura.
// POST /api/invoices/:id/payments
func (h *PaymentHandler) ApplyPayment(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ApplyPaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.paymentUC.ApplyPayment(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return documentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// RefundPayment reembolsa un pago de la factura.
// POST /api/invoices/:id/payments/:paymentId/refund
func (h *PaymentHandler) RefundPayment(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	doc, err := h.paymentUC.RefundPayment(c.Context(), companyID, c.Params("id"), c.Params("paymentId"))
	if err != nil {
		return documentError(c, err)
	}
	return c.JSON(doc)
}

// Convert convierte un estimate aceptado en factura (una sola vez).
// POST /api/estimates/:id/convert
func (h *PaymentHandler) Convert(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	invoice, err := h.convertUC.Convert(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return documentError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(invoice)
}
