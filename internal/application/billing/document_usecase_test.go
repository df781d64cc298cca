package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-billing/internal/application/dto"
	"github.com/jhoicas/invorya-billing/internal/domain"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
	"github.com/jhoicas/invorya-billing/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// CreateDraft
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateDraft_EstimateConTasaDocumento(t *testing.T) {
	f := newFixture()

	resp, err := f.documents.CreateDraft(context.Background(), fxCompanyID, dto.CreateDocumentRequest{
		Kind:       entity.DocKindEstimate,
		CustomerID: fxCustomerID,
		TaxRate:    mustDec("8"),
		Items: []dto.LineItemRequest{{
			Description: "instalación",
			Quantity:    mustDec("1"),
			UnitPrice:   mustDec("1000"),
			Kind:        entity.LineKindService,
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "draft", resp.Status)
	assert.True(t, mustDec("1000").Equal(resp.Subtotal), "subtotal")
	assert.True(t, mustDec("80").Equal(resp.TaxAmount), "impuesto del 8 sobre el subtotal")
	assert.True(t, mustDec("1080").Equal(resp.Total), "total")
	assert.True(t, mustDec("1080").Equal(resp.AmountDue), "saldo inicial = total")
	require.NotNil(t, resp.ValidUntil, "un estimate nace con vigencia")
	assert.Equal(t, fxNow.AddDate(0, 0, 30), *resp.ValidUntil)
	assert.Empty(t, resp.Number, "el consecutivo se asigna al convertir, no al crear")

	stored, _ := f.docRepo.GetByID(resp.ID)
	require.NotNil(t, stored, "el documento debe quedar persistido")
	require.Len(t, stored.LineItems, 1)
	assert.Equal(t, 0, stored.LineItems[0].Position)
}

func TestCreateDraft_InvoiceUsaTasasPorLinea(t *testing.T) {
	f := newFixture()

	resp, err := f.documents.CreateDraft(context.Background(), fxCompanyID, dto.CreateDocumentRequest{
		Kind:       entity.DocKindInvoice,
		CustomerID: fxCustomerID,
		Items: []dto.LineItemRequest{
			{Description: "repuesto", Quantity: mustDec("2"), UnitPrice: mustDec("100"), TaxRate: mustDec("10"), Kind: entity.LineKindPart},
			{Description: "descuento cliente", Quantity: mustDec("1"), UnitPrice: mustDec("50"), Kind: entity.LineKindDiscount},
		},
	})
	require.NoError(t, err)

	assert.True(t, mustDec("150").Equal(resp.Subtotal))
	assert.True(t, mustDec("20").Equal(resp.TaxAmount), "el descuento no tributa")
	assert.True(t, mustDec("170").Equal(resp.Total))
	require.NotNil(t, resp.DueDate, "una factura nace con fecha de vencimiento")
	assert.Equal(t, "COP", resp.Currency, "moneda por defecto de la configuración")
}

func TestCreateDraft_InvoiceConTasaDocumento_Rechazada(t *testing.T) {
	f := newFixture()

	_, err := f.documents.CreateDraft(context.Background(), fxCompanyID, dto.CreateDocumentRequest{
		Kind:       entity.DocKindInvoice,
		CustomerID: fxCustomerID,
		TaxRate:    mustDec("19"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput,
		"una factura no acepta tasa a nivel de documento")
}

func TestCreateDraft_EntradasInvalidas(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.documents.CreateDraft(ctx, fxCompanyID, dto.CreateDocumentRequest{Kind: "receipt"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "tipo de documento desconocido")

	_, err = f.documents.CreateDraft(ctx, "", dto.CreateDocumentRequest{Kind: entity.DocKindInvoice})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin empresa no hay documento")

	_, err = f.documents.CreateDraft(ctx, fxCompanyID, dto.CreateDocumentRequest{
		Kind: entity.DocKindInvoice,
		Items: []dto.LineItemRequest{{
			Description: "", Quantity: mustDec("1"), UnitPrice: mustDec("10"), Kind: entity.LineKindService,
		}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidLineItem, "línea inválida rechaza la creación completa")
}

// ──────────────────────────────────────────────────────────────────────────────
// UpdateLineItems
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateLineItems_RecalculaTotales(t *testing.T) {
	f := newFixture()
	doc := seededInvoice("inv-1", "100")
	doc.Status = entity.StatusDraft
	f.seed(doc)

	resp, err := f.documents.UpdateLineItems(context.Background(), fxCompanyID, "inv-1", dto.UpdateLineItemsRequest{
		Items: []dto.LineItemRequest{
			{Description: "mano de obra", Quantity: mustDec("3"), UnitPrice: mustDec("80"), TaxRate: mustDec("19"), Kind: entity.LineKindLabor},
		},
	})
	require.NoError(t, err)

	assert.True(t, mustDec("240").Equal(resp.Subtotal))
	assert.True(t, mustDec("45.60").Equal(resp.TaxAmount))
	assert.True(t, mustDec("285.60").Equal(resp.Total))

	stored, _ := f.docRepo.GetByID("inv-1")
	require.Len(t, stored.LineItems, 1, "las líneas anteriores se reemplazan por completo")
	assert.Equal(t, "mano de obra", stored.LineItems[0].Description)
	assert.True(t, mustDec("285.60").Equal(stored.Total), "los totales persisten")
}

func TestUpdateLineItems_FueraDeDraft_Rechazado(t *testing.T) {
	f := newFixture()
	f.seed(seededInvoice("inv-1", "100")) // sent

	_, err := f.documents.UpdateLineItems(context.Background(), fxCompanyID, "inv-1", dto.UpdateLineItemsRequest{
		Items: []dto.LineItemRequest{{Description: "x", Quantity: mustDec("1"), UnitPrice: mustDec("1"), Kind: entity.LineKindFee}},
	})
	assert.ErrorIs(t, err, domain.ErrNotEditable, "enviado el documento, las líneas quedan congeladas")
}

// ──────────────────────────────────────────────────────────────────────────────
// Transition
// ──────────────────────────────────────────────────────────────────────────────

func TestTransitionUseCase_EnviarEstimate(t *testing.T) {
	f := newFixture()
	est := seededEstimate("est-1", "1000", "8")
	est.Status = entity.StatusDraft
	f.seed(est)

	resp, err := f.documents.Transition(context.Background(), fxCompanyID, "est-1", "sent")
	require.NoError(t, err)
	assert.Equal(t, "sent", resp.Status)

	stored, _ := f.docRepo.GetByID("est-1")
	require.NotNil(t, stored.SentAt, "el timestamp de envío queda persistido")
}

func TestTransitionUseCase_TransicionIlegal(t *testing.T) {
	f := newFixture()
	est := seededEstimate("est-1", "1000", "8")
	est.Status = entity.StatusDraft
	f.seed(est)

	_, err := f.documents.Transition(context.Background(), fxCompanyID, "est-1", "accepted")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, _ := f.docRepo.GetByID("est-1")
	assert.Equal(t, entity.StatusDraft, stored.Status, "ante error no cambia nada")
}

// ──────────────────────────────────────────────────────────────────────────────
// Get / List — tenencia y filtros
// ──────────────────────────────────────────────────────────────────────────────

func TestGet_DocumentoDeOtraEmpresa_Forbidden(t *testing.T) {
	f := newFixture()
	f.seed(seededInvoice("inv-1", "100"))

	_, err := f.documents.Get(context.Background(), fxOtherCoID, "inv-1")
	assert.ErrorIs(t, err, domain.ErrForbidden,
		"un documento nunca se expone fuera de su empresa")
}

func TestGet_NoExiste(t *testing.T) {
	f := newFixture()
	_, err := f.documents.Get(context.Background(), fxCompanyID, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGet_IncluyePagos(t *testing.T) {
	f := newFixture()
	f.seed(seededInvoice("inv-1", "500"))
	_, err := f.payments.ApplyPayment(context.Background(), fxCompanyID, "inv-1", dto.ApplyPaymentRequest{
		Amount: mustDec("200"), Method: entity.PaymentMethodCash,
	})
	require.NoError(t, err)

	resp, err := f.documents.Get(context.Background(), fxCompanyID, "inv-1")
	require.NoError(t, err)
	require.Len(t, resp.Payments, 1)
	assert.Equal(t, entity.PaymentStatusCompleted, resp.Payments[0].Status)
}

func TestList_FiltraPorKindYStatus(t *testing.T) {
	f := newFixture()
	f.seed(seededInvoice("inv-1", "100"))
	f.seed(seededEstimate("est-1", "200", "0"))
	otro := seededInvoice("inv-ajeno", "100")
	otro.CompanyID = fxOtherCoID
	f.seed(otro)

	resp, err := f.documents.List(context.Background(), fxCompanyID, repository.DocumentFilter{Kind: entity.DocKindInvoice}, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Documents, 1, "solo las facturas de la empresa")
	assert.Equal(t, "inv-1", resp.Documents[0].ID)
	assert.Equal(t, 20, resp.Page.Limit, "paginación con valores por defecto")

	resp, err = f.documents.List(context.Background(), fxCompanyID, repository.DocumentFilter{Status: "accepted"}, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "est-1", resp.Documents[0].ID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_DraftSinPagos(t *testing.T) {
	f := newFixture()
	doc := seededInvoice("inv-1", "100")
	doc.Status = entity.StatusDraft
	f.seed(doc)

	require.NoError(t, f.documents.Delete(context.Background(), fxCompanyID, "inv-1"))
	stored, _ := f.docRepo.GetByID("inv-1")
	assert.Nil(t, stored, "el documento desaparece físicamente")
}

func TestDelete_FueraDeDraft_Rechazado(t *testing.T) {
	f := newFixture()
	f.seed(seededInvoice("inv-1", "100")) // sent

	err := f.documents.Delete(context.Background(), fxCompanyID, "inv-1")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDelete_ConPagosVigentes_Rechazado(t *testing.T) {
	f := newFixture()
	doc := seededInvoice("inv-1", "100")
	doc.Status = entity.StatusDraft
	f.seed(doc)
	require.NoError(t, f.payRepo.Create(&entity.Payment{
		ID: "pay-1", DocumentID: "inv-1", Amount: mustDec("50"),
		Status: entity.PaymentStatusCompleted, PaidAt: fxNow, CreatedAt: fxNow,
	}))

	err := f.documents.Delete(context.Background(), fxCompanyID, "inv-1")
	assert.ErrorIs(t, err, domain.ErrHasPayments,
		"con pagos no reembolsados el borrado se bloquea")

	stored, _ := f.docRepo.GetByID("inv-1")
	require.NotNil(t, stored, "el documento sigue ahí")
}
