package entity

import "time"

// Eventos de auditoría operacional.
const (
	AuditEventInvoiceRollback  = "INVOICE_ROLLBACK"
	AuditEventInvoiceCancel    = "INVOICE_CANCEL"
	AuditEventStockError       = "STOCK_ERROR"
	AuditEventTransferRollback = "TRANSFER_ROLLBACK"
)

// AuditLog registra una operación fallida o sensible para visibilidad
// operacional. Se escribe fuera de la transacción abortada: sobrevive al rollback.
type AuditLog struct {
	ID        string
	Event     string
	InvoiceID string
	UserID    string
	StoreID   string
	Details   map[string]any // detalle libre: producto, cantidad, payload intentado...
	Message   string
	CreatedAt time.Time
}
