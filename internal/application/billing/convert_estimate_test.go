package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-billing/internal/application/dto"
	"github.com/jhoicas/invorya-billing/internal/domain"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Conversión estimate → invoice
// ──────────────────────────────────────────────────────────────────────────────

// Estimate aceptado de 1000 + 8% = 1080: la factura resultante reproduce el
// total con tasas por línea, recibe consecutivo y queda ligada en ambos sentidos.
func TestConvert_EstimateAceptado(t *testing.T) {
	f := newFixture()
	f.seed(seededEstimate("est-1", "1000", "8"))

	invoice, err := f.convert.Convert(context.Background(), fxCompanyID, "est-1")
	require.NoError(t, err)

	assert.Equal(t, entity.DocKindInvoice, invoice.Kind)
	assert.Equal(t, "draft", invoice.Status, "la factura nace en draft")
	assert.Equal(t, "INV-000001", invoice.Number, "primer consecutivo de la empresa")
	assert.Equal(t, "est-1", invoice.EstimateID)
	assert.True(t, mustDec("1080").Equal(invoice.Total),
		"el total per-item reproduce el total del estimate")
	assert.True(t, mustDec("1080").Equal(invoice.AmountDue))
	require.NotNil(t, invoice.DueDate)
	assert.Equal(t, fxNow.AddDate(0, 0, 30), *invoice.DueDate)
	require.Len(t, invoice.Items, 1)
	assert.True(t, mustDec("8").Equal(invoice.Items[0].TaxRate),
		"la tasa plana del estimate baja a la línea")

	est, _ := f.docRepo.GetByID("est-1")
	assert.Equal(t, invoice.ID, est.ConvertedToID, "el estimate apunta a su factura")
	assert.Equal(t, entity.StatusAccepted, est.Status,
		"la conversión no cambia el estado: ConvertedToID es el marcador")

	stored, _ := f.docRepo.GetByID(invoice.ID)
	require.NotNil(t, stored, "la factura queda persistida")
}

// La conversión con descuentos escala la tasa efectiva: el total sigue
// coincidiendo con el del estimate.
func TestConvert_ConDescuento_TotalSeConserva(t *testing.T) {
	f := newFixture()
	est := seededEstimate("est-1", "1000", "10")
	est.LineItems = append(est.LineItems, entity.LineItem{
		ID: "est-1-li-2", DocumentID: "est-1", Description: "descuento comercial",
		Quantity: mustDec("1"), UnitPrice: mustDec("200"), Kind: entity.LineKindDiscount,
	})
	// totales del modo document con el descuento restado: 800 + 80 = 880
	est.Subtotal = mustDec("800")
	est.TaxAmount = mustDec("80")
	est.Total = mustDec("880")
	est.AmountDue = mustDec("880")
	f.seed(est)

	invoice, err := f.convert.Convert(context.Background(), fxCompanyID, "est-1")
	require.NoError(t, err)

	assert.True(t, mustDec("880").Equal(invoice.Total), "total conservado con descuento")
	require.Len(t, invoice.Items, 2)
	assert.True(t, mustDec("8").Equal(invoice.Items[0].TaxRate), "tasa efectiva escalada")
	assert.True(t, invoice.Items[1].TaxRate.IsZero(), "el descuento no tributa")
}

// ──────────────────────────────────────────────────────────────────────────────
// Precondiciones
// ──────────────────────────────────────────────────────────────────────────────

func TestConvert_SoloAceptados(t *testing.T) {
	for _, status := range []entity.DocumentStatus{entity.StatusDraft, entity.StatusSent, entity.StatusViewed, entity.StatusDeclined, entity.StatusExpired} {
		f := newFixture()
		est := seededEstimate("est-1", "1000", "8")
		est.Status = status
		f.seed(est)

		_, err := f.convert.Convert(context.Background(), fxCompanyID, "est-1")
		assert.ErrorIs(t, err, domain.ErrEstimateNotAccepted, "no convertible desde %s", status)
	}
}

func TestConvert_SoloEstimates(t *testing.T) {
	f := newFixture()
	f.seed(seededInvoice("inv-1", "100"))

	_, err := f.convert.Convert(context.Background(), fxCompanyID, "inv-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConvert_OtraEmpresa_Forbidden(t *testing.T) {
	f := newFixture()
	f.seed(seededEstimate("est-1", "1000", "8"))

	_, err := f.convert.Convert(context.Background(), fxOtherCoID, "est-1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia y carreras
// ──────────────────────────────────────────────────────────────────────────────

// La segunda conversión falla y no crea una segunda factura ni consume otro número.
func TestConvert_SegundaVez_AlreadyConverted(t *testing.T) {
	f := newFixture()
	f.seed(seededEstimate("est-1", "1000", "8"))
	ctx := context.Background()

	first, err := f.convert.Convert(ctx, fxCompanyID, "est-1")
	require.NoError(t, err)

	_, err = f.convert.Convert(ctx, fxCompanyID, "est-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyConverted)

	est, _ := f.docRepo.GetByID("est-1")
	assert.Equal(t, first.ID, est.ConvertedToID, "la marca sigue apuntando a la primera factura")
	assert.Len(t, f.docRepo.docs, 2, "estimate + una sola factura")
}

// Si el UPDATE condicional pierde la carrera (otro convertidor ganó entre la
// lectura y la marca), la operación aborta sin dejar factura.
func TestConvert_PierdeCarreraDelCAS(t *testing.T) {
	f := newFixture()
	f.seed(seededEstimate("est-1", "1000", "8"))
	f.docRepo.convertLost = true

	_, err := f.convert.Convert(context.Background(), fxCompanyID, "est-1")
	assert.ErrorIs(t, err, domain.ErrAlreadyConverted)
	assert.Len(t, f.docRepo.docs, 1, "no queda factura a medio crear")
}

// Si el consecutivo no se puede asignar, no queda factura creada.
func TestConvert_FalloDeConsecutivo(t *testing.T) {
	f := newFixture()
	f.seed(seededEstimate("est-1", "1000", "8"))
	f.seqRepo.fail = true

	_, err := f.convert.Convert(context.Background(), fxCompanyID, "est-1")
	assert.ErrorIs(t, err, domain.ErrNumberingAllocation)

	est, _ := f.docRepo.GetByID("est-1")
	assert.Empty(t, est.ConvertedToID, "sin número no hay conversión")
	assert.Len(t, f.docRepo.docs, 1, "solo sigue existiendo el estimate")
}

// Los consecutivos avanzan de uno en uno entre conversiones de la misma empresa.
func TestConvert_ConsecutivosPorEmpresa(t *testing.T) {
	f := newFixture()
	f.seed(seededEstimate("est-1", "100", "0"))
	f.seed(seededEstimate("est-2", "200", "0"))
	ctx := context.Background()

	inv1, err := f.convert.Convert(ctx, fxCompanyID, "est-1")
	require.NoError(t, err)
	inv2, err := f.convert.Convert(ctx, fxCompanyID, "est-2")
	require.NoError(t, err)

	assert.Equal(t, "INV-000001", inv1.Number)
	assert.Equal(t, "INV-000002", inv2.Number)
}

// Tras convertir, la factura resultante acepta pagos de inmediato.
func TestConvert_FacturaResultanteEsPagable(t *testing.T) {
	f := newFixture()
	f.seed(seededEstimate("est-1", "1000", "8"))
	ctx := context.Background()

	invoice, err := f.convert.Convert(ctx, fxCompanyID, "est-1")
	require.NoError(t, err)

	resp, err := f.payments.ApplyPayment(ctx, fxCompanyID, invoice.ID, dto.ApplyPaymentRequest{
		Amount: mustDec("1080"), Method: entity.PaymentMethodTransfer,
	})
	require.NoError(t, err)
	assert.Equal(t, "paid", resp.Status)
}
