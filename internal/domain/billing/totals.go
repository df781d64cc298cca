package billing

import (
	"strings"

	"github.com/jhoicas/invorya-billing/internal/domain"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TaxMode modo de cálculo de impuestos de un documento.
//   - document: tasa única a nivel de documento, aplicada al subtotal neto (estimates).
//   - per_item: tasa por línea; los descuentos nunca llevan impuesto (invoices).
type TaxMode string

const (
	TaxModeDocument TaxMode = "document"
	TaxModePerItem  TaxMode = "per_item"
)

// TaxModeFor devuelve el modo de impuestos según el tipo de documento.
// Los dos modos coexisten a propósito: la conversión debe reproducir el total
// del estimate exactamente, unificarlos introduciría deriva de redondeo.
func TaxModeFor(kind string) TaxMode {
	if kind == entity.DocKindInvoice {
		return TaxModePerItem
	}
	return TaxModeDocument
}

// Totals resultado del cálculo: subtotal firmado, impuesto y total.
// El total puede ser negativo (documento de puros descuentos); solo AmountDue
// se limita a cero, nunca el total.
type Totals struct {
	Subtotal  decimal.Decimal
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// ValidateLineItem valida una línea: descripción no vacía, cantidad > 0,
// precio >= 0, tasa >= 0 y tipo conocido.
func ValidateLineItem(li entity.LineItem) error {
	if strings.TrimSpace(li.Description) == "" {
		return domain.ErrInvalidLineItem
	}
	if !li.Quantity.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidLineItem
	}
	if li.UnitPrice.LessThan(decimal.Zero) {
		return domain.ErrInvalidLineItem
	}
	if li.TaxRate.LessThan(decimal.Zero) {
		return domain.ErrInvalidLineItem
	}
	if !entity.ValidKind(li.Kind) {
		return domain.ErrInvalidLineItem
	}
	return nil
}

// ComputeTotals calcula subtotal, impuesto y total de una lista de líneas.
// Función pura: no muta las líneas ni tiene efectos secundarios.
//
// Reglas:
//   - subtotal = Σ aportes firmados (descuento resta, el resto suma).
//   - modo document: taxAmount = subtotal × (documentTaxRate/100), aplicado una
//     sola vez al subtotal neto (los descuentos ya están restados).
//   - modo per_item: taxAmount = Σ sobre líneas no-descuento de
//     (cantidad × precio) × (tasaLínea/100); los descuentos no llevan impuesto.
//
// El redondeo a 2 decimales ocurre solo al final, en los montos almacenados,
// con redondeo half-up. Total = Subtotal + TaxAmount se preserva después del
// redondeo porque el total se arma con los montos ya redondeados.
func ComputeTotals(items []entity.LineItem, mode TaxMode, documentTaxRate decimal.Decimal) (Totals, error) {
	if documentTaxRate.LessThan(decimal.Zero) {
		return Totals{}, domain.ErrInvalidInput
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, li := range items {
		if err := ValidateLineItem(li); err != nil {
			return Totals{}, err
		}
		subtotal = subtotal.Add(li.SignedTotal())
		if mode == TaxModePerItem && !li.IsDiscount() {
			tax = tax.Add(li.GrossTotal().Mul(li.TaxRate.Div(oneHundred)))
		}
	}
	if mode == TaxModeDocument {
		tax = subtotal.Mul(documentTaxRate.Div(oneHundred))
	}

	sub := subtotal.Round(2)
	taxRounded := tax.Round(2)
	return Totals{
		Subtotal:  sub,
		TaxAmount: taxRounded,
		Total:     sub.Add(taxRounded),
	}, nil
}

// BackfillItemTaxRates copia las líneas de un estimate (modo document-rate)
// asignando a cada línea no-descuento una tasa efectiva tal que el total
// recalculado en modo per-item coincide con el total del estimate.
//
// Como en modo document el impuesto grava el subtotal neto (descuentos ya
// restados) y en modo per-item los descuentos no tributan, la tasa plana se
// escala por subtotalNeto/subtotalPositivo:
//
//	Σ (qty×price)_i × tasaEfectiva/100 = subtotalNeto × tasaPlana/100
//
// Si no hay descuentos el factor es 1 y la tasa efectiva es la tasa plana.
// Si no hay líneas positivas (documento de puros descuentos) no hay dónde
// repartir el impuesto y las tasas quedan en cero; el caller verifica la
// igualdad de totales con tolerancia de redondeo.
func BackfillItemTaxRates(items []entity.LineItem, documentTaxRate decimal.Decimal) []entity.LineItem {
	positive := decimal.Zero
	net := decimal.Zero
	for _, li := range items {
		net = net.Add(li.SignedTotal())
		if !li.IsDiscount() {
			positive = positive.Add(li.GrossTotal())
		}
	}

	effective := decimal.Zero
	if positive.GreaterThan(decimal.Zero) {
		effective = documentTaxRate.Mul(net).Div(positive)
	}

	out := make([]entity.LineItem, len(items))
	for i, li := range items {
		copied := li
		if li.IsDiscount() {
			copied.TaxRate = decimal.Zero
		} else {
			copied.TaxRate = effective
		}
		out[i] = copied
	}
	return out
}
