package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")

	// Líneas y totales.
	ErrInvalidLineItem = errors.New("línea inválida: cantidad debe ser > 0 y precio >= 0")

	// Ciclo de vida del documento.
	ErrInvalidTransition = errors.New("transición de estado ilegal")
	ErrNotEditable       = errors.New("las líneas solo se editan en estado draft")
	ErrHasPayments       = errors.New("el documento tiene pagos no reembolsados")

	// Ledger de pagos.
	ErrDocumentNotPayable     = errors.New("el documento no admite pagos en su estado actual")
	ErrInvalidAmount          = errors.New("el monto del pago debe ser mayor que cero")
	ErrPaymentNotFound        = errors.New("pago no encontrado")
	ErrPaymentAlreadyRefunded = errors.New("el pago ya fue reembolsado")

	// Conversión estimate → invoice.
	ErrEstimateNotAccepted = errors.New("el estimate no está en estado accepted")
	ErrAlreadyConverted    = errors.New("el estimate ya fue convertido a factura")
	ErrNumberingAllocation = errors.New("no se pudo asignar el consecutivo de factura")

	// Persistencia.
	ErrVersionConflict = errors.New("conflicto de versión: el documento fue modificado por otra operación")
)
