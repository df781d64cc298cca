package repository

import "github.com/jhoicas/invorya-billing/internal/domain/entity"

// DocumentFilter filtros de listado de documentos.
type DocumentFilter struct {
	Kind   string // estimate | invoice | "" (todos)
	Status string // "" = todos
	Limit  int
	Offset int
}

// DocumentRepository define el puerto de persistencia para BillingDocument
// y sus líneas. Las operaciones que leen-modifican-escriben el agregado deben
// ejecutarse sobre la variante transaccional (GetByIDForUpdate serializa por
// documento con un lock de fila).
type DocumentRepository interface {
	Create(doc *entity.BillingDocument) error
	// Update persiste cabecera y totales con compare-and-swap sobre Version:
	// si la fila cambió desde la lectura devuelve domain.ErrVersionConflict.
	Update(doc *entity.BillingDocument) error
	GetByID(id string) (*entity.BillingDocument, error)
	// GetByIDForUpdate lee el documento tomando el lock de fila (FOR UPDATE).
	// Solo tiene sentido dentro de una transacción.
	GetByIDForUpdate(id string) (*entity.BillingDocument, error)
	ListByCompany(companyID string, f DocumentFilter) ([]*entity.BillingDocument, error)
	// ReplaceLineItems reemplaza todas las líneas del documento (solo draft).
	ReplaceLineItems(docID string, items []entity.LineItem) error
	// MarkConverted fija converted_to_id de forma condicional (solo si sigue en
	// NULL). Devuelve false si otro convertidor ganó la carrera.
	MarkConverted(estimateID, invoiceID string) (bool, error)
	Delete(id string) error
}
