package entity

import "time"

// Tipos de movimiento de stock.
const (
	MovementTypeIN          = "IN"           // entrada
	MovementTypeOUT         = "OUT"          // salida (venta)
	MovementTypeADJUSTMENT  = "ADJUSTMENT"   // ajuste manual a valor absoluto
	MovementTypeTransferIn  = "TRANSFER_IN"  // entrada por traslado entre tiendas
	MovementTypeTransferOut = "TRANSFER_OUT" // salida por traslado entre tiendas
	MovementTypeReservation = "RESERVATION"  // reserva para pedido pendiente
	MovementTypeRelease     = "RELEASE"      // liberación (restock por anulación o reserva liberada)
)

// Tipos de referencia de un movimiento (documento que lo originó).
const (
	ReferenceTypeInvoice       = "INVOICE"
	ReferenceTypePurchaseOrder = "PURCHASE_ORDER"
	ReferenceTypeTransfer      = "TRANSFER"
	ReferenceTypeAdjustment    = "ADJUSTMENT"
	ReferenceTypeManual        = "MANUAL"
)

// KnownReferenceType indica si rt es uno de los tipos de referencia admitidos.
func KnownReferenceType(rt string) bool {
	switch rt {
	case ReferenceTypeInvoice, ReferenceTypePurchaseOrder, ReferenceTypeTransfer,
		ReferenceTypeAdjustment, ReferenceTypeManual:
		return true
	}
	return false
}

// StockMovement es un registro inmutable del historial de cambios de stock.
// Una vez creado nunca se modifica ni se borra: es la pista de auditoría.
// PreviousQuantity/NewQuantity son instantáneas para replay y auditoría.
type StockMovement struct {
	ID                       string
	ProductID                string
	StoreID                  string
	Type                     string
	Quantity                 int64 // magnitud del cambio según el tipo
	PreviousQuantity         int64
	NewQuantity              int64
	PreviousReservedQuantity int64
	NewReservedQuantity      int64
	Reason                   string
	Reference                string // número de factura, orden de compra, etc.
	ReferenceType            string
	UserID                   string
	CreatedAt                time.Time
}

// Variation devuelve la variación neta de la cantidad en mano.
func (m *StockMovement) Variation() int64 {
	return m.NewQuantity - m.PreviousQuantity
}

// ReservedVariation devuelve la variación neta de la cantidad reservada.
func (m *StockMovement) ReservedVariation() int64 {
	return m.NewReservedQuantity - m.PreviousReservedQuantity
}
