package billing_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/invorya-billing/internal/application/billing"
	"github.com/jhoicas/invorya-billing/internal/domain"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
	"github.com/jhoicas/invorya-billing/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria. Imitan la semántica relevante del adaptador postgres:
// clonado en lectura/escritura (los mutantes no tocan el "almacén" hasta
// Update), CAS de versión y CAS de conversión.
// ──────────────────────────────────────────────────────────────────────────────

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func cloneDoc(d *entity.BillingDocument) *entity.BillingDocument {
	if d == nil {
		return nil
	}
	copied := *d
	copied.LineItems = append([]entity.LineItem(nil), d.LineItems...)
	return &copied
}

func clonePayment(p *entity.Payment) *entity.Payment {
	if p == nil {
		return nil
	}
	copied := *p
	return &copied
}

type fakeDocRepo struct {
	docs map[string]*entity.BillingDocument
	// convertLost simula perder la carrera del UPDATE condicional de conversión.
	convertLost bool
}

func newFakeDocRepo() *fakeDocRepo {
	return &fakeDocRepo{docs: make(map[string]*entity.BillingDocument)}
}

func (r *fakeDocRepo) Create(doc *entity.BillingDocument) error {
	r.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r *fakeDocRepo) Update(doc *entity.BillingDocument) error {
	stored, ok := r.docs[doc.ID]
	if !ok || stored.Version != doc.Version {
		return domain.ErrVersionConflict
	}
	doc.Version++
	r.docs[doc.ID] = cloneDoc(doc)
	return nil
}

func (r *fakeDocRepo) GetByID(id string) (*entity.BillingDocument, error) {
	return cloneDoc(r.docs[id]), nil
}

func (r *fakeDocRepo) GetByIDForUpdate(id string) (*entity.BillingDocument, error) {
	return cloneDoc(r.docs[id]), nil
}

func (r *fakeDocRepo) ListByCompany(companyID string, f repository.DocumentFilter) ([]*entity.BillingDocument, error) {
	var out []*entity.BillingDocument
	for _, d := range r.docs {
		if d.CompanyID != companyID {
			continue
		}
		if f.Kind != "" && d.Kind != f.Kind {
			continue
		}
		if f.Status != "" && string(d.Status) != f.Status {
			continue
		}
		out = append(out, cloneDoc(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeDocRepo) ReplaceLineItems(docID string, items []entity.LineItem) error {
	stored, ok := r.docs[docID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.LineItems = append([]entity.LineItem(nil), items...)
	return nil
}

func (r *fakeDocRepo) MarkConverted(estimateID, invoiceID string) (bool, error) {
	if r.convertLost {
		return false, nil
	}
	stored, ok := r.docs[estimateID]
	if !ok || stored.ConvertedToID != "" {
		return false, nil
	}
	stored.ConvertedToID = invoiceID
	return true, nil
}

func (r *fakeDocRepo) Delete(id string) error {
	delete(r.docs, id)
	return nil
}

type fakePayRepo struct {
	payments []*entity.Payment
}

func (r *fakePayRepo) Create(p *entity.Payment) error {
	r.payments = append(r.payments, clonePayment(p))
	return nil
}

func (r *fakePayRepo) GetByID(id string) (*entity.Payment, error) {
	for _, p := range r.payments {
		if p.ID == id {
			return clonePayment(p), nil
		}
	}
	return nil, nil
}

func (r *fakePayRepo) ListByDocument(docID string) ([]*entity.Payment, error) {
	var out []*entity.Payment
	for _, p := range r.payments {
		if p.DocumentID == docID {
			out = append(out, clonePayment(p))
		}
	}
	return out, nil
}

func (r *fakePayRepo) MarkRefunded(id string, at time.Time) error {
	for _, p := range r.payments {
		if p.ID == id {
			if p.IsRefunded() {
				return domain.ErrPaymentAlreadyRefunded
			}
			p.Status = entity.PaymentStatusRefunded
			refundedAt := at
			p.RefundedAt = &refundedAt
			return nil
		}
	}
	return domain.ErrPaymentNotFound
}

func (r *fakePayRepo) HasActivePayments(docID string) (bool, error) {
	for _, p := range r.payments {
		if p.DocumentID == docID && p.IsCompleted() {
			return true, nil
		}
	}
	return false, nil
}

type fakeSeqRepo struct {
	last int64
	fail bool
}

func (r *fakeSeqRepo) NextInvoiceNumber(companyID string) (string, error) {
	if r.fail {
		return "", errors.New("secuencia no disponible")
	}
	r.last++
	return fmt.Sprintf("INV-%06d", r.last), nil
}

// fakeTxRunner entrega los mismos fakes al callback; la atomicidad real la
// cubren los tests de integración del adaptador postgres.
type fakeTxRunner struct {
	docRepo *fakeDocRepo
	payRepo *fakePayRepo
	seqRepo *fakeSeqRepo
}

func (r *fakeTxRunner) RunBilling(ctx context.Context, fn func(
	docRepo repository.DocumentRepository,
	payRepo repository.PaymentRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	return fn(r.docRepo, r.payRepo, r.seqRepo)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

const (
	fxCompanyID  = "co-11111111"
	fxOtherCoID  = "co-22222222"
	fxCustomerID = "cust-1"
)

var fxNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	docRepo *fakeDocRepo
	payRepo *fakePayRepo
	seqRepo *fakeSeqRepo
	clock   *fakeClock

	documents *billing.DocumentUseCase
	payments  *billing.PaymentUseCase
	convert   *billing.ConvertEstimateUseCase
}

func newFixture() *fixture {
	docRepo := newFakeDocRepo()
	payRepo := &fakePayRepo{}
	seqRepo := &fakeSeqRepo{}
	clock := &fakeClock{now: fxNow}
	tx := &fakeTxRunner{docRepo: docRepo, payRepo: payRepo, seqRepo: seqRepo}

	cfg := billing.Config{
		DefaultTermsDays:  30,
		EstimateValidDays: 30,
		NumberPrefix:      "INV",
		DefaultCurrency:   "COP",
	}
	return &fixture{
		docRepo:   docRepo,
		payRepo:   payRepo,
		seqRepo:   seqRepo,
		clock:     clock,
		documents: billing.NewDocumentUseCase(tx, docRepo, payRepo, clock, cfg),
		payments:  billing.NewPaymentUseCase(tx, clock),
		convert:   billing.NewConvertEstimateUseCase(tx, clock, cfg),
	}
}

// seed inserta un documento directamente en el almacén.
func (f *fixture) seed(doc *entity.BillingDocument) {
	if doc.Version == 0 {
		doc.Version = 1
	}
	f.docRepo.docs[doc.ID] = cloneDoc(doc)
}

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seededInvoice(id, total string) *entity.BillingDocument {
	t := mustDec(total)
	return &entity.BillingDocument{
		ID:         id,
		CompanyID:  fxCompanyID,
		CustomerID: fxCustomerID,
		Kind:       entity.DocKindInvoice,
		Status:     entity.StatusSent,
		Currency:   "COP",
		LineItems: []entity.LineItem{{
			ID:          id + "-li-1",
			DocumentID:  id,
			Description: "servicio",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   t,
			Kind:        entity.LineKindService,
		}},
		Subtotal:   t,
		Total:      t,
		AmountPaid: decimal.Zero,
		AmountDue:  t,
		Version:    1,
		CreatedAt:  fxNow,
		UpdatedAt:  fxNow,
	}
}

func seededEstimate(id, subtotal, taxRate string) *entity.BillingDocument {
	sub := mustDec(subtotal)
	rate := mustDec(taxRate)
	tax := sub.Mul(rate).Div(decimal.NewFromInt(100)).Round(2)
	return &entity.BillingDocument{
		ID:         id,
		CompanyID:  fxCompanyID,
		CustomerID: fxCustomerID,
		Kind:       entity.DocKindEstimate,
		Status:     entity.StatusAccepted,
		Currency:   "COP",
		TaxRate:    rate,
		LineItems: []entity.LineItem{{
			ID:          id + "-li-1",
			DocumentID:  id,
			Description: "servicio cotizado",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   sub,
			Kind:        entity.LineKindService,
		}},
		Subtotal:   sub.Round(2),
		TaxAmount:  tax,
		Total:      sub.Round(2).Add(tax),
		AmountPaid: decimal.Zero,
		AmountDue:  sub.Round(2).Add(tax),
		Version:    1,
		CreatedAt:  fxNow,
		UpdatedAt:  fxNow,
	}
}
