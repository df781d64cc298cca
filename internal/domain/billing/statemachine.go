package billing

import (
	"fmt"
	"time"

	"github.com/jhoicas/invorya-billing/internal/domain"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TransitionError describe un intento de transición ilegal. Envuelve
// domain.ErrInvalidTransition para que errors.Is funcione en los handlers.
type TransitionError struct {
	From entity.DocumentStatus
	To   entity.DocumentStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("transición ilegal: %s → %s", e.From, e.To)
}

func (e *TransitionError) Is(target error) bool {
	return target == domain.ErrInvalidTransition
}

// Tabla de transiciones de un Estimate.
// declined y expired además pueden forzarse desde cualquier estado no convertido
// (trigger manual o por tiempo); eso se valida en CanTransition.
var estimateTransitions = map[entity.DocumentStatus][]entity.DocumentStatus{
	entity.StatusDraft:  {entity.StatusSent},
	entity.StatusSent:   {entity.StatusViewed},
	entity.StatusViewed: {entity.StatusAccepted, entity.StatusDeclined, entity.StatusExpired},
}

// Tabla de transiciones de un Invoice. overdue no es un callejón sin salida:
// pagos posteriores la llevan a partial o paid (vía ledger).
var invoiceTransitions = map[entity.DocumentStatus][]entity.DocumentStatus{
	entity.StatusDraft:   {entity.StatusSent, entity.StatusCancelled},
	entity.StatusSent:    {entity.StatusViewed, entity.StatusPartial, entity.StatusPaid, entity.StatusOverdue, entity.StatusCancelled},
	entity.StatusViewed:  {entity.StatusPartial, entity.StatusPaid, entity.StatusOverdue, entity.StatusCancelled},
	entity.StatusPartial: {entity.StatusPaid, entity.StatusOverdue, entity.StatusCancelled},
	entity.StatusOverdue: {entity.StatusPartial, entity.StatusPaid, entity.StatusCancelled},
	entity.StatusPaid:    {entity.StatusRefunded},
}

// CanTransition indica si el par (from, to) está en la tabla del tipo de documento.
// No evalúa guardas de negocio; para eso está Transition.
func CanTransition(doc *entity.BillingDocument, to entity.DocumentStatus) bool {
	if doc.IsEstimate() {
		// Forzado manual o por tiempo: cualquier estado salvo convertido.
		if (to == entity.StatusDeclined || to == entity.StatusExpired) && doc.ConvertedToID == "" {
			return doc.Status != entity.StatusDeclined && doc.Status != entity.StatusExpired
		}
		return contains(estimateTransitions[doc.Status], to)
	}
	return contains(invoiceTransitions[doc.Status], to)
}

// CanEditLineItems indica si las líneas del documento pueden modificarse.
// Una vez enviado, las líneas quedan congeladas.
func CanEditLineItems(doc *entity.BillingDocument) bool {
	return doc.Status == entity.StatusDraft
}

// CanDelete indica si el documento puede eliminarse físicamente:
// solo en draft y nunca con pagos no reembolsados (lo segundo lo valida el caller
// con el ledger a la vista).
func CanDelete(doc *entity.BillingDocument) bool {
	return doc.Status == entity.StatusDraft
}

// Transition aplica la transición al documento: valida legalidad y guardas,
// cambia el estado y escribe el timestamp de la transición (write-once).
// Ante cualquier error el documento queda intacto (sin mutación parcial).
//
// Guardas:
//   - draft → sent exige al menos una línea y un destinatario resoluble.
//   - cualquier entrada a paid exige AmountDue == 0, calculado por el ledger.
//   - refunded solo la aplica el ledger cuando todos los pagos están reembolsados;
//     aquí se rechaza como transición externa.
//   - converted no es alcanzable por esta vía: la conversión marca ConvertedToID
//     y deja el estado en accepted.
func Transition(doc *entity.BillingDocument, to entity.DocumentStatus, now time.Time) error {
	if !CanTransition(doc, to) {
		return &TransitionError{From: doc.Status, To: to}
	}
	switch to {
	case entity.StatusSent:
		if len(doc.LineItems) == 0 || doc.CustomerID == "" {
			return &TransitionError{From: doc.Status, To: to}
		}
	case entity.StatusPaid:
		if !doc.AmountDue.IsZero() {
			return &TransitionError{From: doc.Status, To: to}
		}
	case entity.StatusOverdue:
		if !doc.IsOverdue(now) {
			return &TransitionError{From: doc.Status, To: to}
		}
	case entity.StatusRefunded:
		// Solo el ledger (refund del último pago vigente) lleva a refunded.
		return &TransitionError{From: doc.Status, To: to}
	case entity.StatusPartial:
		if !doc.AmountPaid.GreaterThan(decimal.Zero) {
			return &TransitionError{From: doc.Status, To: to}
		}
	}

	applyStatus(doc, to, now)
	return nil
}

// applyStatus cambia el estado y registra el timestamp write-once de la transición.
func applyStatus(doc *entity.BillingDocument, to entity.DocumentStatus, now time.Time) {
	doc.Status = to
	doc.UpdatedAt = now
	stamp := func(field **time.Time) {
		if *field == nil {
			t := now
			*field = &t
		}
	}
	switch to {
	case entity.StatusSent:
		stamp(&doc.SentAt)
	case entity.StatusViewed:
		stamp(&doc.ViewedAt)
	case entity.StatusAccepted:
		stamp(&doc.AcceptedAt)
	case entity.StatusDeclined:
		stamp(&doc.DeclinedAt)
	case entity.StatusExpired:
		stamp(&doc.ExpiredAt)
	case entity.StatusPaid:
		stamp(&doc.PaidAt)
	case entity.StatusCancelled:
		stamp(&doc.CancelledAt)
	case entity.StatusRefunded:
		stamp(&doc.RefundedAt)
	}
}

func contains(list []entity.DocumentStatus, s entity.DocumentStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
