package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/invorya-billing/internal/application/dto"
	"github.com/jhoicas/invorya-billing/internal/domain"
	domainbilling "github.com/jhoicas/invorya-billing/internal/domain/billing"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
	"github.com/jhoicas/invorya-billing/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// ConvertEstimateUseCase convierte un estimate aceptado en una factura nueva,
// exactamente una vez. Todo el efecto es atómico: consecutivo, factura nueva y
// marca de conversión viven en la misma transacción; si cualquier paso falla
// no queda factura a medio crear ni número consumido.
type ConvertEstimateUseCase struct {
	txRunner BillingTxRunner
	clock    Clock
	cfg      Config
}

// NewConvertEstimateUseCase construye el caso de uso.
func NewConvertEstimateUseCase(txRunner BillingTxRunner, clock Clock, cfg Config) *ConvertEstimateUseCase {
	return &ConvertEstimateUseCase{txRunner: txRunner, clock: clock, cfg: cfg}
}

// tolerancia de igualdad de totales tras redondear a 2 decimales.
var conversionTolerance = decimal.NewFromFloat(0.01)

// Convert convierte el estimate en factura.
//
// Precondiciones: estado accepted y ConvertedToID sin asignar. La idempotencia
// se garantiza dos veces: la lectura con lock de fila detecta la marca dentro
// de la transacción, y MarkConverted es un UPDATE condicional
// (WHERE converted_to_id IS NULL) que pierde exactamente uno de dos
// convertidores concurrentes.
//
// Las líneas se copian recalculando los totales en modo per-item (el modo de
// las facturas); la tasa efectiva de cada línea se rellena desde la tasa plana
// del estimate de forma que el total recalculado coincide con el del estimate
// (igualdad tras redondear a 2 decimales).
//
// El estado del estimate no cambia: queda en accepted, ConvertedToID es el
// marcador autoritativo de "ya convertido".
func (uc *ConvertEstimateUseCase) Convert(ctx context.Context, companyID, estimateID string) (*dto.DocumentResponse, error) {
	var invoice *entity.BillingDocument
	err := uc.txRunner.RunBilling(ctx, func(docRepo repository.DocumentRepository, _ repository.PaymentRepository, seqRepo repository.SequenceRepository) error {
		est, err := lockedDocument(docRepo, companyID, estimateID)
		if err != nil {
			return err
		}
		if !est.IsEstimate() {
			return domain.ErrInvalidInput
		}
		if est.Status != entity.StatusAccepted {
			return domain.ErrEstimateNotAccepted
		}
		if est.ConvertedToID != "" {
			return domain.ErrAlreadyConverted
		}

		number, err := seqRepo.NextInvoiceNumber(companyID)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrNumberingAllocation, err)
		}

		now := uc.clock.Now()
		items := domainbilling.BackfillItemTaxRates(est.LineItems, est.TaxRate)
		totals, err := domainbilling.ComputeTotals(items, domainbilling.TaxModePerItem, decimal.Zero)
		if err != nil {
			return err
		}
		if totals.Total.Sub(est.Total).Abs().GreaterThan(conversionTolerance) {
			return fmt.Errorf("%w: el total per-item %s no reproduce el total del estimate %s",
				domain.ErrConflict, totals.Total, est.Total)
		}

		dueDate := now.AddDate(0, 0, uc.cfg.DefaultTermsDays)
		invoice = &entity.BillingDocument{
			ID:         uuid.New().String(),
			CompanyID:  est.CompanyID,
			CustomerID: est.CustomerID,
			Kind:       entity.DocKindInvoice,
			Status:     entity.StatusDraft,
			Number:     number,
			Currency:   est.Currency,
			LineItems:  items,
			Subtotal:   totals.Subtotal,
			TaxAmount:  totals.TaxAmount,
			Total:      totals.Total,
			AmountPaid: decimal.Zero,
			AmountDue:  maxZero(totals.Total),
			EstimateID: est.ID,
			DueDate:    &dueDate,
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		for i := range invoice.LineItems {
			invoice.LineItems[i].ID = uuid.New().String()
			invoice.LineItems[i].DocumentID = invoice.ID
			invoice.LineItems[i].Position = i
		}

		// CAS antes de crear la factura: si otro convertidor ya fijó la marca,
		// abortamos sin haber insertado nada.
		won, err := docRepo.MarkConverted(est.ID, invoice.ID)
		if err != nil {
			return err
		}
		if !won {
			return domain.ErrAlreadyConverted
		}
		return docRepo.Create(invoice)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(invoice, nil, uc.clock.Now()), nil
}
