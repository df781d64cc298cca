package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/invorya-billing/internal/domain"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Reconcile recalcula AmountPaid y AmountDue del documento a partir de sus pagos.
//
// Invariantes:
//   - AmountPaid = Σ pagos completed (los reembolsados suman y restan, neto cero).
//   - AmountDue = max(Total − AmountPaid, 0): el sobrepago solo aplana el saldo,
//     nunca lo vuelve negativo.
func Reconcile(doc *entity.BillingDocument, payments []*entity.Payment) {
	paid := decimal.Zero
	for _, p := range payments {
		if p.IsCompleted() {
			paid = paid.Add(p.Amount)
		}
	}
	doc.AmountPaid = paid
	due := doc.Total.Sub(paid)
	if due.LessThan(decimal.Zero) {
		due = decimal.Zero
	}
	doc.AmountDue = due
}

// ApplyPayment registra un abono contra la factura y recalcula saldo y estado.
//
// Precondiciones: el documento es una factura, su estado no es cancelled ni
// refunded, y el monto es positivo. El sobrepago se acepta deliberadamente:
// se registra completo y AmountDue queda en cero; el caller puede advertir al
// usuario pero el ledger no lo rechaza.
//
// Efecto: agrega un pago completed, recalcula AmountPaid/AmountDue y mueve el
// estado a paid (saldo cero) o partial (abono parcial). Devuelve el pago creado.
// Ante error no hay mutación alguna.
func ApplyPayment(doc *entity.BillingDocument, payments []*entity.Payment, amount decimal.Decimal, method string, now time.Time) (*entity.Payment, error) {
	if !doc.IsInvoice() {
		return nil, domain.ErrDocumentNotPayable
	}
	if doc.Status == entity.StatusCancelled || doc.Status == entity.StatusRefunded {
		return nil, domain.ErrDocumentNotPayable
	}
	if !amount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if method == "" {
		method = entity.PaymentMethodOther
	}

	payment := &entity.Payment{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		Amount:     amount,
		Method:     method,
		Status:     entity.PaymentStatusCompleted,
		PaidAt:     now,
		CreatedAt:  now,
	}

	Reconcile(doc, append(payments, payment))
	if doc.AmountDue.IsZero() {
		applyStatus(doc, entity.StatusPaid, now)
	} else if doc.AmountPaid.GreaterThan(decimal.Zero) {
		applyStatus(doc, entity.StatusPartial, now)
	}
	return payment, nil
}

// RefundPayment marca un pago como reembolsado y recalcula saldo y estado.
//
// Precondiciones: el pago existe, pertenece a esta factura y está completed.
// Un reembolso solo disminuye AmountPaid, por lo que después de un reembolso
// parcial el documento nunca puede quedar en paid.
//
// Efecto sobre el estado:
//   - todos los pagos reembolsados → vuelve a sent (sin pagar); si ya no queda
//     ningún pago vigente en una factura que estuvo paid, queda refunded.
//   - quedan pagos vigentes → partial.
func RefundPayment(doc *entity.BillingDocument, payments []*entity.Payment, paymentID string, now time.Time) error {
	var target *entity.Payment
	for _, p := range payments {
		if p.ID == paymentID && p.DocumentID == doc.ID {
			target = p
			break
		}
	}
	if target == nil {
		return domain.ErrPaymentNotFound
	}
	if target.IsRefunded() {
		return domain.ErrPaymentAlreadyRefunded
	}

	wasPaid := doc.Status == entity.StatusPaid
	target.Status = entity.PaymentStatusRefunded
	refundedAt := now
	target.RefundedAt = &refundedAt

	Reconcile(doc, payments)
	switch {
	case doc.AmountPaid.IsZero() && wasPaid:
		// Factura totalmente pagada cuyos pagos se reembolsaron todos: terminal.
		applyStatus(doc, entity.StatusRefunded, now)
	case doc.AmountPaid.IsZero():
		applyStatus(doc, entity.StatusSent, now)
	default:
		applyStatus(doc, entity.StatusPartial, now)
	}
	return nil
}
