package entity

import "time"

// Company representa una organización/tenant: todos los documentos y
// consecutivos de factura se alcanzan por empresa.
type Company struct {
	ID        string
	Name      string
	TaxID     string // identificación tributaria de la empresa
	Email     string
	Status    string // active, suspended, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}
