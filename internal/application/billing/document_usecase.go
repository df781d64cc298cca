package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/invorya-billing/internal/application/dto"
	"github.com/jhoicas/invorya-billing/internal/domain"
	domainbilling "github.com/jhoicas/invorya-billing/internal/domain/billing"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
	"github.com/jhoicas/invorya-billing/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// DocumentUseCase ciclo de vida del documento: creación en draft, edición de
// líneas, transiciones de estado, consulta y borrado.
type DocumentUseCase struct {
	txRunner BillingTxRunner
	docRepo  repository.DocumentRepository
	payRepo  repository.PaymentRepository
	clock    Clock
	cfg      Config
}

// NewDocumentUseCase construye el caso de uso.
func NewDocumentUseCase(txRunner BillingTxRunner, docRepo repository.DocumentRepository, payRepo repository.PaymentRepository, clock Clock, cfg Config) *DocumentUseCase {
	return &DocumentUseCase{txRunner: txRunner, docRepo: docRepo, payRepo: payRepo, clock: clock, cfg: cfg}
}

// CreateDraft crea un documento en draft con sus líneas y totales calculados.
func (uc *DocumentUseCase) CreateDraft(ctx context.Context, companyID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	if companyID == "" || !entity.ValidDocKind(in.Kind) {
		return nil, domain.ErrInvalidInput
	}
	if in.Kind == entity.DocKindInvoice && !in.TaxRate.IsZero() {
		// Una factura usa tasas por línea; una tasa de documento aquí indica
		// que el caller mezcló los dos modos.
		return nil, domain.ErrInvalidInput
	}

	now := uc.clock.Now()
	items := toLineItems(in.Items)
	totals, err := domainbilling.ComputeTotals(items, domainbilling.TaxModeFor(in.Kind), in.TaxRate)
	if err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		currency = uc.cfg.DefaultCurrency
	}

	doc := &entity.BillingDocument{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		CustomerID: in.CustomerID,
		Kind:       in.Kind,
		Status:     entity.StatusDraft,
		Currency:   currency,
		TaxRate:    in.TaxRate,
		LineItems:  items,
		Subtotal:   totals.Subtotal,
		TaxAmount:  totals.TaxAmount,
		Total:      totals.Total,
		AmountPaid: decimal.Zero,
		AmountDue:  maxZero(totals.Total),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i := range doc.LineItems {
		doc.LineItems[i].ID = uuid.New().String()
		doc.LineItems[i].DocumentID = doc.ID
		doc.LineItems[i].Position = i
	}
	switch in.Kind {
	case entity.DocKindEstimate:
		if uc.cfg.EstimateValidDays > 0 {
			vu := now.AddDate(0, 0, uc.cfg.EstimateValidDays)
			doc.ValidUntil = &vu
		}
	case entity.DocKindInvoice:
		if uc.cfg.DefaultTermsDays > 0 {
			dd := now.AddDate(0, 0, uc.cfg.DefaultTermsDays)
			doc.DueDate = &dd
		}
	}

	err = uc.txRunner.RunBilling(ctx, func(docRepo repository.DocumentRepository, _ repository.PaymentRepository, _ repository.SequenceRepository) error {
		return docRepo.Create(doc)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, nil, uc.clock.Now()), nil
}

// UpdateLineItems reemplaza las líneas de un documento en draft y recalcula
// los totales. Fuera de draft retorna ErrNotEditable.
func (uc *DocumentUseCase) UpdateLineItems(ctx context.Context, companyID, docID string, in dto.UpdateLineItemsRequest) (*dto.DocumentResponse, error) {
	var doc *entity.BillingDocument
	err := uc.txRunner.RunBilling(ctx, func(docRepo repository.DocumentRepository, _ repository.PaymentRepository, _ repository.SequenceRepository) error {
		var err error
		doc, err = lockedDocument(docRepo, companyID, docID)
		if err != nil {
			return err
		}
		if !domainbilling.CanEditLineItems(doc) {
			return domain.ErrNotEditable
		}

		items := toLineItems(in.Items)
		totals, err := domainbilling.ComputeTotals(items, domainbilling.TaxModeFor(doc.Kind), doc.TaxRate)
		if err != nil {
			return err
		}
		for i := range items {
			items[i].ID = uuid.New().String()
			items[i].DocumentID = doc.ID
			items[i].Position = i
		}

		doc.LineItems = items
		doc.Subtotal = totals.Subtotal
		doc.TaxAmount = totals.TaxAmount
		doc.Total = totals.Total
		doc.AmountDue = maxZero(doc.Total.Sub(doc.AmountPaid))
		doc.UpdatedAt = uc.clock.Now()

		if err := docRepo.ReplaceLineItems(doc.ID, items); err != nil {
			return err
		}
		return docRepo.Update(doc)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, nil, uc.clock.Now()), nil
}

// Transition aplica una transición de estado sobre el documento.
// Las entradas a partial/paid/refunded por pagos son cosa del ledger; esta
// operación cubre las transiciones explícitas (enviar, marcar vista, aceptar,
// rechazar, expirar, vencer, cancelar).
func (uc *DocumentUseCase) Transition(ctx context.Context, companyID, docID, target string) (*dto.DocumentResponse, error) {
	to := entity.DocumentStatus(target)
	var doc *entity.BillingDocument
	err := uc.txRunner.RunBilling(ctx, func(docRepo repository.DocumentRepository, _ repository.PaymentRepository, _ repository.SequenceRepository) error {
		var err error
		doc, err = lockedDocument(docRepo, companyID, docID)
		if err != nil {
			return err
		}
		if err := domainbilling.Transition(doc, to, uc.clock.Now()); err != nil {
			return err
		}
		return docRepo.Update(doc)
	})
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, nil, uc.clock.Now()), nil
}

// Get obtiene un documento con líneas y pagos.
func (uc *DocumentUseCase) Get(ctx context.Context, companyID, docID string) (*dto.DocumentResponse, error) {
	doc, err := uc.docRepo.GetByID(docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	payments, err := uc.payRepo.ListByDocument(docID)
	if err != nil {
		return nil, err
	}
	return toDocumentResponse(doc, payments, uc.clock.Now()), nil
}

// List lista documentos de la empresa con filtros y paginación.
func (uc *DocumentUseCase) List(ctx context.Context, companyID string, f repository.DocumentFilter, page dto.PageRequest) (*dto.DocumentListResponse, error) {
	page.DefaultPage()
	f.Limit = page.Limit
	f.Offset = page.Offset
	docs, err := uc.docRepo.ListByCompany(companyID, f)
	if err != nil {
		return nil, err
	}
	now := uc.clock.Now()
	out := &dto.DocumentListResponse{
		Documents: make([]dto.DocumentResponse, 0, len(docs)),
		Page:      dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, d := range docs {
		out.Documents = append(out.Documents, *toDocumentResponse(d, nil, now))
	}
	return out, nil
}

// Delete elimina físicamente un documento: solo en draft y nunca con pagos
// no reembolsados.
func (uc *DocumentUseCase) Delete(ctx context.Context, companyID, docID string) error {
	return uc.txRunner.RunBilling(ctx, func(docRepo repository.DocumentRepository, payRepo repository.PaymentRepository, _ repository.SequenceRepository) error {
		doc, err := lockedDocument(docRepo, companyID, docID)
		if err != nil {
			return err
		}
		if !domainbilling.CanDelete(doc) {
			return domain.ErrConflict
		}
		active, err := payRepo.HasActivePayments(docID)
		if err != nil {
			return err
		}
		if active {
			return domain.ErrHasPayments
		}
		return docRepo.Delete(docID)
	})
}

// lockedDocument lee el documento con lock de fila y valida tenencia.
func lockedDocument(docRepo repository.DocumentRepository, companyID, docID string) (*entity.BillingDocument, error) {
	doc, err := docRepo.GetByIDForUpdate(docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return doc, nil
}

func toLineItems(in []dto.LineItemRequest) []entity.LineItem {
	items := make([]entity.LineItem, 0, len(in))
	for _, r := range in {
		items = append(items, entity.LineItem{
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			TaxRate:     r.TaxRate,
			Kind:        r.Kind,
			ProductRef:  r.ProductRef,
		})
	}
	return items
}

func maxZero(d decimal.Decimal) decimal.Decimal {
	if d.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return d
}

func toDocumentResponse(doc *entity.BillingDocument, payments []*entity.Payment, now time.Time) *dto.DocumentResponse {
	resp := &dto.DocumentResponse{
		ID:            doc.ID,
		CompanyID:     doc.CompanyID,
		CustomerID:    doc.CustomerID,
		Kind:          doc.Kind,
		Status:        string(doc.Status),
		Number:        doc.Number,
		Currency:      doc.Currency,
		TaxRate:       doc.TaxRate,
		Subtotal:      doc.Subtotal,
		TaxAmount:     doc.TaxAmount,
		Total:         doc.Total,
		AmountPaid:    doc.AmountPaid,
		AmountDue:     doc.AmountDue,
		EstimateID:    doc.EstimateID,
		ConvertedToID: doc.ConvertedToID,
		Overdue:       doc.IsOverdue(now),
		ValidUntil:    doc.ValidUntil,
		DueDate:       doc.DueDate,
		CreatedAt:     doc.CreatedAt,
		Items:         make([]dto.LineItemResponse, 0, len(doc.LineItems)),
	}
	for _, li := range doc.LineItems {
		resp.Items = append(resp.Items, dto.LineItemResponse{
			ID:          li.ID,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			TaxRate:     li.TaxRate,
			Kind:        li.Kind,
			ProductRef:  li.ProductRef,
		})
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, dto.PaymentResponse{
			ID:         p.ID,
			DocumentID: p.DocumentID,
			Amount:     p.Amount,
			Method:     p.Method,
			Status:     p.Status,
			PaidAt:     p.PaidAt,
			RefundedAt: p.RefundedAt,
		})
	}
	return resp
}
