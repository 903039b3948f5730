package entity

import "time"

// Stock representa la cantidad en mano y reservada de un producto en una tienda.
// Identidad única por (ProductID, StoreID). Nunca se borra; se lleva a cero.
type Stock struct {
	ProductID        string
	StoreID          string
	Quantity         int64
	ReservedQuantity int64
	MinQuantity      int64
	IsActive         bool
	LastUpdated      time.Time
}

// Available devuelve la cantidad disponible (en mano menos reservada, nunca negativa).
// Campo derivado: se calcula en lectura, no se persiste.
func (s *Stock) Available() int64 {
	avail := s.Quantity - s.ReservedQuantity
	if avail < 0 {
		return 0
	}
	return avail
}

// IsLowStock indica si la cantidad está en o bajo el umbral mínimo (y aún no agotada).
func (s *Stock) IsLowStock() bool {
	return s.Quantity > 0 && s.Quantity <= s.MinQuantity
}

// IsOutOfStock indica si el producto está agotado en la tienda.
func (s *Stock) IsOutOfStock() bool {
	return s.Quantity <= 0
}
