package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Facturación
	ErrAlreadyCancelled    = errors.New("la factura ya está anulada")
	ErrMissingActor        = errors.New("no se pudo determinar el usuario responsable")
	ErrPaymentExceedsTotal = errors.New("el monto pagado no puede superar el total")
	ErrEmptyLines          = errors.New("la factura debe tener al menos una línea")
	ErrMissingClient       = errors.New("un cliente es obligatorio para cada factura")

	// Stock
	ErrInsufficientStock       = errors.New("stock insuficiente")
	ErrInsufficientAvailable   = errors.New("stock disponible insuficiente")
	ErrInsufficientReserved    = errors.New("stock reservado insuficiente")
	ErrInsufficientSourceStock = errors.New("stock insuficiente en la tienda de origen")
	ErrStockRecordMissing      = errors.New("registro de stock inexistente para el producto")

	// Motor transaccional
	ErrTransactionAborted = errors.New("transacción abortada")
)
