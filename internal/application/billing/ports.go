package billing

import (
	"context"
	"time"

	"github.com/jhoicas/invorya-billing/internal/domain/repository"
)

// BillingTxRunner ejecuta una función dentro de una transacción con los repos
// de facturación atados a ella. Toda operación que lee-modifica-escribe un
// documento corre aquí adentro: el lock de fila (GetByIDForUpdate) serializa
// las llamadas concurrentes sobre el mismo documento.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		docRepo repository.DocumentRepository,
		payRepo repository.PaymentRepository,
		seqRepo repository.SequenceRepository,
	) error) error
}

// Clock abstrae el reloj para poder probar vencimientos y expiraciones.
type Clock interface {
	Now() time.Time
}

// SystemClock reloj real.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Config parámetros de negocio del módulo de facturación.
type Config struct {
	DefaultTermsDays  int    // días de plazo para DueDate al convertir o crear facturas
	EstimateValidDays int    // vigencia por defecto de un estimate (ValidUntil)
	NumberPrefix      string // prefijo del consecutivo de factura (ej: "FV")
	DefaultCurrency   string // moneda por defecto si el request no la trae
}
