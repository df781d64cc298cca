package repository

import (
	"time"

	"github.com/jhoicas/invorya-billing/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia para Payment.
// Los pagos se agregan, nunca se editan: la única mutación permitida es
// completed → refunded.
type PaymentRepository interface {
	Create(p *entity.Payment) error
	GetByID(id string) (*entity.Payment, error)
	ListByDocument(docID string) ([]*entity.Payment, error)
	MarkRefunded(id string, at time.Time) error
	// HasActivePayments indica si el documento tiene pagos no reembolsados
	// (guarda de borrado físico).
	HasActivePayments(docID string) (bool, error)
}
