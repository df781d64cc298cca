package billing

import (
	"context"

	"github.com/jhoicas/invorya-billing/internal/application/dto"
	domainbilling "github.com/jhoicas/invorya-billing/internal/domain/billing"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
	"github.com/jhoicas/invorya-billing/internal/domain/repository"
)

// PaymentUseCase ledger de pagos: abonos y reembolsos contra facturas.
// Cada operación corre en una transacción con el documento bloqueado por fila,
// de modo que dos abonos concurrentes sobre la misma factura se serializan y
// nunca entrelazan su read-modify-write de AmountPaid.
type PaymentUseCase struct {
	txRunner BillingTxRunner
	clock    Clock
}

// NewPaymentUseCase construye el caso de uso.
func NewPaymentUseCase(txRunner BillingTxRunner, clock Clock) *PaymentUseCase {
	return &PaymentUseCase{txRunner: txRunner, clock: clock}
}

// ApplyPayment registra un abono contra la factura. El sobrepago se acepta
// (se registra completo y el saldo queda en cero); la advertencia al usuario
// es asunto del caller, no del ledger.
func (uc *PaymentUseCase) ApplyPayment(ctx context.Context, companyID, invoiceID string, in dto.ApplyPaymentRequest) (*dto.DocumentResponse, error) {
	var doc *entity.BillingDocument
	var payments []*entity.Payment
	err := uc.txRunner.RunBilling(ctx, func(docRepo repository.DocumentRepository, payRepo repository.PaymentRepository, _ repository.SequenceRepository) error {
		var err error
		doc, err = lockedDocument(docRepo, companyID, invoiceID)
		if err != nil {
			return err
		}
		payments, err = payRepo.ListByDocument(invoiceID)
		if err != nil {
			return err
		}

		payment, err := domainbilling.ApplyPayment(doc, payments, in.Amount, in.Method, uc.clock.Now())
		if err != nil {
			return err
		}
		payments = append(payments, payment)

		if err := payRepo.Create(payment); err != nil {
			return err
		}
		return docRepo.Update(doc)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, payments, uc.clock.Now()), nil
}

// RefundPayment marca un pago como reembolsado y recalcula saldo y estado.
func (uc *PaymentUseCase) RefundPayment(ctx context.Context, companyID, invoiceID, paymentID string) (*dto.DocumentResponse, error) {
	var doc *entity.BillingDocument
	var payments []*entity.Payment
	err := uc.txRunner.RunBilling(ctx, func(docRepo repository.DocumentRepository, payRepo repository.PaymentRepository, _ repository.SequenceRepository) error {
		var err error
		doc, err = lockedDocument(docRepo, companyID, invoiceID)
		if err != nil {
			return err
		}
		payments, err = payRepo.ListByDocument(invoiceID)
		if err != nil {
			return err
		}

		now := uc.clock.Now()
		if err := domainbilling.RefundPayment(doc, payments, paymentID, now); err != nil {
			return err
		}

		if err := payRepo.MarkRefunded(paymentID, now); err != nil {
			return err
		}
		return docRepo.Update(doc)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, payments, uc.clock.Now()), nil
}
