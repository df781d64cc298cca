package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/invorya-billing/internal/domain"
	"github.com/jhoicas/invorya-billing/internal/domain/entity"
	"github.com/jhoicas/invorya-billing/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `
	id, company_id, customer_id, kind, status, number, currency, tax_rate,
	subtotal, tax_amount, total, amount_paid, amount_due,
	estimate_id, converted_to_id, valid_until, due_date,
	sent_at, viewed_at, accepted_at, declined_at, expired_at,
	paid_at, cancelled_at, refunded_at,
	version, created_at, updated_at`

// Create persiste la cabecera del documento y sus líneas.
func (r *DocumentRepo) Create(doc *entity.BillingDocument) error {
	query := `
		INSERT INTO billing_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`
	_, err := r.q.Exec(context.Background(), query,
		doc.ID, doc.CompanyID, doc.CustomerID, doc.Kind, doc.Status,
		nullIfEmpty(doc.Number), doc.Currency, doc.TaxRate,
		doc.Subtotal, doc.TaxAmount, doc.Total, doc.AmountPaid, doc.AmountDue,
		nullIfEmpty(doc.EstimateID), nullIfEmpty(doc.ConvertedToID),
		doc.ValidUntil, doc.DueDate,
		doc.SentAt, doc.ViewedAt, doc.AcceptedAt, doc.DeclinedAt, doc.ExpiredAt,
		doc.PaidAt, doc.CancelledAt, doc.RefundedAt,
		doc.Version, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("document number already exists: %w", err)
		}
		return fmt.Errorf("insert billing document: %w", err)
	}
	for _, li := range doc.LineItems {
		if err := r.insertLineItem(li); err != nil {
			return err
		}
	}
	return nil
}

func (r *DocumentRepo) insertLineItem(li entity.LineItem) error {
	query := `
		INSERT INTO line_items (id, document_id, description, quantity, unit_price, tax_rate, kind, product_ref, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(context.Background(), query,
		li.ID, li.DocumentID, li.Description, li.Quantity, li.UnitPrice,
		li.TaxRate, li.Kind, nullIfEmpty(li.ProductRef), li.Position,
	)
	if err != nil {
		return fmt.Errorf("insert line item: %w", err)
	}
	return nil
}

// Update persiste cabecera, totales y timestamps con CAS sobre version.
// Si la fila cambió desde la lectura retorna domain.ErrVersionConflict.
func (r *DocumentRepo) Update(doc *entity.BillingDocument) error {
	query := `
		UPDATE billing_documents
		SET status      = $2,
		    number      = COALESCE($3, number),
		    tax_rate    = $4,
		    subtotal    = $5,
		    tax_amount  = $6,
		    total       = $7,
		    amount_paid = $8,
		    amount_due  = $9,
		    valid_until = $10,
		    due_date    = $11,
		    sent_at     = $12,
		    viewed_at   = $13,
		    accepted_at = $14,
		    declined_at = $15,
		    expired_at  = $16,
		    paid_at     = $17,
		    cancelled_at = $18,
		    refunded_at  = $19,
		    version     = version + 1,
		    updated_at  = $20
		WHERE id = $1 AND version = $21`
	tag, err := r.q.Exec(context.Background(), query,
		doc.ID, doc.Status, nullIfEmpty(doc.Number), doc.TaxRate,
		doc.Subtotal, doc.TaxAmount, doc.Total, doc.AmountPaid, doc.AmountDue,
		doc.ValidUntil, doc.DueDate,
		doc.SentAt, doc.ViewedAt, doc.AcceptedAt, doc.DeclinedAt, doc.ExpiredAt,
		doc.PaidAt, doc.CancelledAt, doc.RefundedAt,
		doc.UpdatedAt, doc.Version,
	)
	if err != nil {
		return fmt.Errorf("update billing document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}
	doc.Version++
	return nil
}

// GetByID obtiene un documento completo (con líneas) por ID.
func (r *DocumentRepo) GetByID(id string) (*entity.BillingDocument, error) {
	return r.get(id, false)
}

// GetByIDForUpdate obtiene el documento tomando el lock de fila (FOR UPDATE).
// Solo tiene sentido dentro de una transacción: serializa las operaciones
// concurrentes sobre el mismo documento.
func (r *DocumentRepo) GetByIDForUpdate(id string) (*entity.BillingDocument, error) {
	return r.get(id, true)
}

func (r *DocumentRepo) get(id string, forUpdate bool) (*entity.BillingDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM billing_documents WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	doc, err := scanDocument(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get billing document: %w", err)
	}
	items, err := r.listLineItems(id)
	if err != nil {
		return nil, err
	}
	doc.LineItems = items
	return doc, nil
}

func scanDocument(row pgx.Row) (*entity.BillingDocument, error) {
	var d entity.BillingDocument
	var number, estimateID, convertedToID *string
	err := row.Scan(
		&d.ID, &d.CompanyID, &d.CustomerID, &d.Kind, &d.Status,
		&number, &d.Currency, &d.TaxRate,
		&d.Subtotal, &d.TaxAmount, &d.Total, &d.AmountPaid, &d.AmountDue,
		&estimateID, &convertedToID, &d.ValidUntil, &d.DueDate,
		&d.SentAt, &d.ViewedAt, &d.AcceptedAt, &d.DeclinedAt, &d.ExpiredAt,
		&d.PaidAt, &d.CancelledAt, &d.RefundedAt,
		&d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Number = derefStr(number)
	d.EstimateID = derefStr(estimateID)
	d.ConvertedToID = derefStr(convertedToID)
	return &d, nil
}

func (r *DocumentRepo) listLineItems(docID string) ([]entity.LineItem, error) {
	query := `
		SELECT id, document_id, description, quantity, unit_price, tax_rate, kind, COALESCE(product_ref, ''), position
		FROM line_items WHERE document_id = $1 ORDER BY position`
	rows, err := r.q.Query(context.Background(), query, docID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()
	var items []entity.LineItem
	for rows.Next() {
		var li entity.LineItem
		if err := rows.Scan(&li.ID, &li.DocumentID, &li.Description, &li.Quantity, &li.UnitPrice, &li.TaxRate, &li.Kind, &li.ProductRef, &li.Position); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

// ListByCompany lista documentos de la empresa con filtros y paginación.
// Las líneas no se cargan en el listado (consulta ligera).
func (r *DocumentRepo) ListByCompany(companyID string, f repository.DocumentFilter) ([]*entity.BillingDocument, error) {
	query := `SELECT ` + documentColumns + ` FROM billing_documents WHERE company_id = $1`
	args := []any{companyID}
	if f.Kind != "" {
		args = append(args, f.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, f.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, f.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list billing documents: %w", err)
	}
	defer rows.Close()
	var docs []*entity.BillingDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan billing document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ReplaceLineItems reemplaza todas las líneas del documento.
func (r *DocumentRepo) ReplaceLineItems(docID string, items []entity.LineItem) error {
	if _, err := r.q.Exec(context.Background(), `DELETE FROM line_items WHERE document_id = $1`, docID); err != nil {
		return fmt.Errorf("delete line items: %w", err)
	}
	for _, li := range items {
		if err := r.insertLineItem(li); err != nil {
			return err
		}
	}
	return nil
}

// MarkConverted fija converted_to_id solo si sigue en NULL (check-and-set
// atómico). Devuelve false si otro convertidor ya ganó la carrera.
func (r *DocumentRepo) MarkConverted(estimateID, invoiceID string) (bool, error) {
	query := `
		UPDATE billing_documents
		SET converted_to_id = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND converted_to_id IS NULL`
	tag, err := r.q.Exec(context.Background(), query, estimateID, invoiceID)
	if err != nil {
		return false, fmt.Errorf("mark converted: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete elimina el documento y sus líneas (las guardas de borrado las valida
// el caso de uso con el documento bloqueado).
func (r *DocumentRepo) Delete(id string) error {
	if _, err := r.q.Exec(context.Background(), `DELETE FROM line_items WHERE document_id = $1`, id); err != nil {
		return fmt.Errorf("delete line items: %w", err)
	}
	if _, err := r.q.Exec(context.Background(), `DELETE FROM billing_documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete billing document: %w", err)
	}
	return nil
}

func derefStr(p *string) string {
	if p != nil {
		return *p
	}
	return ""
}
