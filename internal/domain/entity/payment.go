package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pago. Un pago nunca se edita: solo pasa de completed a refunded.
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
)

// Métodos de pago aceptados (informativos para el ledger).
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCheck    = "check"
	PaymentMethodOther    = "other"
)

// Payment registra un abono contra una factura. Solo existe contra invoices,
// nunca contra estimates.
type Payment struct {
	ID         string
	DocumentID string
	Amount     decimal.Decimal // siempre positivo; el reembolso cambia Status, no Amount
	Method     string
	Status     string // completed | refunded
	PaidAt     time.Time
	RefundedAt *time.Time
	CreatedAt  time.Time
}

// IsCompleted indica si el pago sigue vigente (cuenta para AmountPaid).
func (p *Payment) IsCompleted() bool { return p.Status == PaymentStatusCompleted }

// IsRefunded indica si el pago fue reembolsado.
func (p *Payment) IsRefunded() bool { return p.Status == PaymentStatusRefunded }
