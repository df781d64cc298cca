package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/invorya-billing/internal/application/billing"
	"github.com/jhoicas/invorya-billing/internal/domain/repository"
)

var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Los repos que recibe el callback están atados a la tx: el lock de fila que
// toma GetByIDForUpdate vive hasta el Commit/Rollback y serializa las
// operaciones concurrentes sobre el mismo documento.
type TxRunner struct {
	pool   *pgxpool.Pool
	prefix string
}

// NewTxRunner construye el runner con el pool y el prefijo de consecutivos.
func NewTxRunner(pool *pgxpool.Pool, numberPrefix string) *TxRunner {
	return &TxRunner{pool: pool, prefix: numberPrefix}
}

// RunBilling inicia una transacción, ejecuta fn con repos atados a la tx y
// hace Commit o Rollback. Si fn retorna error no queda mutación parcial.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	docRepo repository.DocumentRepository,
	payRepo repository.PaymentRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	docRepo := NewDocumentRepository(tx)
	payRepo := NewPaymentRepository(tx)
	seqRepo := NewSequenceRepository(tx, r.prefix)

	if err := fn(docRepo, payRepo, seqRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
