package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/invorya-billing/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo asigna consecutivos de factura por empresa sobre la tabla
// invoice_sequences. El UPSERT incrementa y retorna en una sola sentencia,
// así dos asignaciones concurrentes nunca obtienen el mismo número; al correr
// dentro de la transacción del caller, un rollback no consume el consecutivo.
type SequenceRepo struct {
	q      Querier
	prefix string
}

// NewSequenceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSequenceRepository(q Querier, prefix string) *SequenceRepo {
	return &SequenceRepo{q: q, prefix: prefix}
}

// NextInvoiceNumber incrementa y devuelve el consecutivo de la empresa,
// formateado como PREFIJO-NNNNNN.
func (r *SequenceRepo) NextInvoiceNumber(companyID string) (string, error) {
	query := `
		INSERT INTO invoice_sequences (company_id, last_number)
		VALUES ($1, 1)
		ON CONFLICT (company_id)
		DO UPDATE SET last_number = invoice_sequences.last_number + 1
		RETURNING last_number`
	var n int64
	if err := r.q.QueryRow(context.Background(), query, companyID).Scan(&n); err != nil {
		return "", fmt.Errorf("next invoice number: %w", err)
	}
	return fmt.Sprintf("%s-%06d", r.prefix, n), nil
}
