package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de documento de facturación.
const (
	DocKindEstimate = "estimate"
	DocKindInvoice  = "invoice"
)

// DocumentStatus estado del ciclo de vida de un BillingDocument.
type DocumentStatus string

// Estados de un Estimate: draft → sent → viewed → {accepted, declined, expired}.
// La conversión a factura no cambia el estado: ConvertedToID es el marcador autoritativo.
const (
	StatusDraft    DocumentStatus = "draft"
	StatusSent     DocumentStatus = "sent"
	StatusViewed   DocumentStatus = "viewed"
	StatusAccepted DocumentStatus = "accepted"
	StatusDeclined DocumentStatus = "declined"
	StatusExpired  DocumentStatus = "expired"
)

// Estados adicionales de un Invoice: draft → sent → viewed → {partial, paid, overdue}.
// "overdue" no es terminal: la factura sigue aceptando pagos.
const (
	StatusPartial   DocumentStatus = "partial"
	StatusPaid      DocumentStatus = "paid"
	StatusOverdue   DocumentStatus = "overdue"
	StatusCancelled DocumentStatus = "cancelled"
	StatusRefunded  DocumentStatus = "refunded"
)

// BillingDocument es el agregado estimate/invoice: líneas, totales, estado y saldo.
// Los campos Subtotal/TaxAmount/Total y AmountPaid/AmountDue son derivados;
// nunca se editan a mano, se recalculan en cada operación.
type BillingDocument struct {
	ID         string
	CompanyID  string
	CustomerID string
	Kind       string // estimate | invoice
	Status     DocumentStatus
	Number     string // consecutivo asignado (facturas)
	Currency   string // código ISO, fijo desde la creación

	// TaxRate a nivel de documento: solo aplica a estimates (modo document-rate).
	// Las facturas usan la tasa de cada línea (modo per-item).
	TaxRate decimal.Decimal

	LineItems []LineItem

	Subtotal   decimal.Decimal
	TaxAmount  decimal.Decimal
	Total      decimal.Decimal
	AmountPaid decimal.Decimal
	AmountDue  decimal.Decimal

	// EstimateID: en una factura, el estimate del que proviene (si aplica).
	// ConvertedToID: en un estimate, la factura generada; se escribe una sola vez.
	EstimateID    string
	ConvertedToID string

	ValidUntil *time.Time // estimates: fecha límite de aceptación
	DueDate    *time.Time // invoices: fecha de vencimiento

	// Timestamps de transición, write-once: solo se escriben si están en nil.
	SentAt      *time.Time
	ViewedAt    *time.Time
	AcceptedAt  *time.Time
	DeclinedAt  *time.Time
	ExpiredAt   *time.Time
	PaidAt      *time.Time
	CancelledAt *time.Time
	RefundedAt  *time.Time

	Version   int64 // optimistic locking (CAS en UPDATE)
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEstimate indica si el documento es una cotización.
func (d *BillingDocument) IsEstimate() bool { return d.Kind == DocKindEstimate }

// IsInvoice indica si el documento es una factura.
func (d *BillingDocument) IsInvoice() bool { return d.Kind == DocKindInvoice }

// ValidDocKind verifica que el tipo de documento sea soportado.
func ValidDocKind(kind string) bool {
	return kind == DocKindEstimate || kind == DocKindInvoice
}

// IsOverdue indica si la factura está vencida: fecha de vencimiento pasada y saldo pendiente.
// Es una condición derivada, no un estado muerto: la factura sigue aceptando pagos.
func (d *BillingDocument) IsOverdue(now time.Time) bool {
	if !d.IsInvoice() || d.DueDate == nil {
		return false
	}
	return now.After(*d.DueDate) && d.AmountDue.GreaterThan(decimal.Zero)
}

// IsExpirable indica si el estimate puede marcarse como expirado por tiempo.
func (d *BillingDocument) IsExpirable(now time.Time) bool {
	if !d.IsEstimate() || d.ValidUntil == nil {
		return false
	}
	return now.After(*d.ValidUntil)
}
