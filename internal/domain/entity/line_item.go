package entity

import "github.com/shopspring/decimal"

// Tipos de línea válidos. Una línea "discount" resta del subtotal; las demás suman.
const (
	LineKindService  = "service"
	LineKindPart     = "part"
	LineKindLabor    = "labor"
	LineKindFee      = "fee"
	LineKindDiscount = "discount"
)

// LineItem representa una línea facturable de un documento (estimate o invoice).
type LineItem struct {
	ID          string
	DocumentID  string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // porcentaje por línea (modo per-item, facturas)
	Kind        string          // ver constantes LineKind*
	ProductRef  string          // referencia opcional al catálogo (solo informativa)
	Position    int             // orden de despliegue
}

// IsDiscount indica si la línea es un descuento (aporte negativo al subtotal).
func (li LineItem) IsDiscount() bool {
	return li.Kind == LineKindDiscount
}

// GrossTotal devuelve cantidad × precio unitario, sin signo ni impuestos.
func (li LineItem) GrossTotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// SignedTotal devuelve el aporte de la línea al subtotal: negativo si es descuento.
func (li LineItem) SignedTotal() decimal.Decimal {
	if li.IsDiscount() {
		return li.GrossTotal().Neg()
	}
	return li.GrossTotal()
}

// ValidKind verifica que el tipo de línea sea uno de los soportados.
func ValidKind(kind string) bool {
	switch kind {
	case LineKindService, LineKindPart, LineKindLabor, LineKindFee, LineKindDiscount:
		return true
	}
	return false
}
