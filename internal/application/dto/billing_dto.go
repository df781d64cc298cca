package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItemRequest línea de un documento en creación o edición.
type LineItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate,omitempty"` // porcentaje por línea (facturas)
	Kind        string          `json:"kind"`               // service|part|labor|fee|discount
	ProductRef  string          `json:"product_ref,omitempty"`
}

// CreateDocumentRequest body para POST /api/documents.
// TaxRate solo aplica a estimates (modo document-rate); las facturas usan la
// tasa de cada línea.
type CreateDocumentRequest struct {
	Kind       string            `json:"kind"` // estimate | invoice
	CustomerID string            `json:"customer_id"`
	Currency   string            `json:"currency,omitempty"`
	TaxRate    decimal.Decimal   `json:"tax_rate,omitempty"`
	Items      []LineItemRequest `json:"items"`
}

// UpdateLineItemsRequest body para PUT /api/documents/:id/items (solo draft).
type UpdateLineItemsRequest struct {
	Items []LineItemRequest `json:"items"`
}

// TransitionRequest body para POST /api/documents/:id/transition.
type TransitionRequest struct {
	Target string `json:"target"`
}

// ApplyPaymentRequest body para POST /api/invoices/:id/payments.
type ApplyPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method,omitempty"`
}

// LineItemResponse línea en respuestas.
type LineItemResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Kind        string          `json:"kind"`
	ProductRef  string          `json:"product_ref,omitempty"`
}

// PaymentResponse pago en respuestas.
type PaymentResponse struct {
	ID         string          `json:"id"`
	DocumentID string          `json:"document_id"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	Status     string          `json:"status"` // completed | refunded
	PaidAt     time.Time       `json:"paid_at"`
	RefundedAt *time.Time      `json:"refunded_at,omitempty"`
}

// DocumentResponse documento completo para GET /api/documents/:id.
type DocumentResponse struct {
	ID            string             `json:"id"`
	CompanyID     string             `json:"company_id"`
	CustomerID    string             `json:"customer_id"`
	Kind          string             `json:"kind"`
	Status        string             `json:"status"`
	Number        string             `json:"number,omitempty"`
	Currency      string             `json:"currency"`
	TaxRate       decimal.Decimal    `json:"tax_rate"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	TaxAmount     decimal.Decimal    `json:"tax_amount"`
	Total         decimal.Decimal    `json:"total"`
	AmountPaid    decimal.Decimal    `json:"amount_paid"`
	AmountDue     decimal.Decimal    `json:"amount_due"`
	EstimateID    string             `json:"estimate_id,omitempty"`
	ConvertedToID string             `json:"converted_to_id,omitempty"`
	Overdue       bool               `json:"overdue"` // condición derivada, no estado
	ValidUntil    *time.Time         `json:"valid_until,omitempty"`
	DueDate       *time.Time         `json:"due_date,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Items         []LineItemResponse `json:"items"`
	Payments      []PaymentResponse  `json:"payments,omitempty"`
}

// DocumentListResponse listado paginado de documentos.
type DocumentListResponse struct {
	Documents []DocumentResponse `json:"documents"`
	Page      PageResponse       `json:"page"`
}
