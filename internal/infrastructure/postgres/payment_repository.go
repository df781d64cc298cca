package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/invorya-billing/internal/domain"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
	"github.com/jhoicas/invorya-billing/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo implementación de PaymentRepository (usable con pool o tx).
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create persiste un pago nuevo (siempre en completed).
func (r *PaymentRepo) Create(p *entity.Payment) error {
	query := `
		INSERT INTO payments (id, document_id, amount, method, status, paid_at, refunded_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		p.ID, p.DocumentID, p.Amount, p.Method, p.Status, p.PaidAt, p.RefundedAt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID obtiene un pago por ID.
func (r *PaymentRepo) GetByID(id string) (*entity.Payment, error) {
	query := `
		SELECT id, document_id, amount, method, status, paid_at, refunded_at, created_at
		FROM payments WHERE id = $1`
	var p entity.Payment
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&p.ID, &p.DocumentID, &p.Amount, &p.Method, &p.Status, &p.PaidAt, &p.RefundedAt, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return &p, nil
}

// ListByDocument obtiene todos los pagos de un documento, en orden de registro.
func (r *PaymentRepo) ListByDocument(docID string) ([]*entity.Payment, error) {
	query := `
		SELECT id, document_id, amount, method, status, paid_at, refunded_at, created_at
		FROM payments WHERE document_id = $1 ORDER BY created_at, id`
	rows, err := r.q.Query(context.Background(), query, docID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.DocumentID, &p.Amount, &p.Method, &p.Status, &p.PaidAt, &p.RefundedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// MarkRefunded voltea el pago a refunded; solo aplica sobre pagos completed.
func (r *PaymentRepo) MarkRefunded(id string, at time.Time) error {
	query := `
		UPDATE payments SET status = $2, refunded_at = $3
		WHERE id = $1 AND status = $4`
	tag, err := r.q.Exec(context.Background(), query,
		id, entity.PaymentStatusRefunded, at, entity.PaymentStatusCompleted,
	)
	if err != nil {
		return fmt.Errorf("mark payment refunded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentAlreadyRefunded
	}
	return nil
}

// HasActivePayments indica si el documento tiene pagos no reembolsados.
func (r *PaymentRepo) HasActivePayments(docID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM payments WHERE document_id = $1 AND status = $2)`
	var exists bool
	err := r.q.QueryRow(context.Background(), query, docID, entity.PaymentStatusCompleted).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active payments: %w", err)
	}
	return exists, nil
}
