package repository

// SequenceRepository asigna consecutivos de factura: únicos y monotónicos
// por empresa. La asignación participa de la transacción del caller, de modo
// que un rollback no consume el número.
type SequenceRepository interface {
	NextInvoiceNumber(companyID string) (string, error)
}
