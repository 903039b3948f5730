package dto

import (
	"time"

	"github.com/jhoicas/Comercio-api/internal/domain/entity"
)

// TransferRequest payload de traslado de stock entre tiendas.
type TransferRequest struct {
	ProductID   string `json:"productId"`
	FromStoreID string `json:"fromStoreId"`
	ToStoreID   string `json:"toStoreId"`
	Quantity    int64  `json:"quantity"`
	Reason      string `json:"reason"`
}

// AdjustStockRequest payload de ajuste manual a valor absoluto.
type AdjustStockRequest struct {
	ProductID   string `json:"productId"`
	NewQuantity int64  `json:"newQuantity"`
	Reason      string `json:"reason"`
}

// RegisterMovementRequest payload de movimiento manual (IN, OUT o ADJUSTMENT).
type RegisterMovementRequest struct {
	ProductID     string `json:"productId"`
	Type          string `json:"type"`
	Quantity      int64  `json:"quantity"`
	Reason        string `json:"reason"`
	Reference     string `json:"reference,omitempty"`
	ReferenceType string `json:"referenceType,omitempty"`
}

// ReserveStockRequest payload de reserva o liberación de stock reservado.
type ReserveStockRequest struct {
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
	Reason    string `json:"reason"`
}

// StockResponse posición de stock con los campos derivados calculados en lectura.
type StockResponse struct {
	ProductID        string    `json:"productId"`
	StoreID          string    `json:"storeId"`
	Quantity         int64     `json:"quantity"`
	ReservedQuantity int64     `json:"reservedQuantity"`
	Available        int64     `json:"available"`
	MinQuantity      int64     `json:"minQuantity"`
	IsActive         bool      `json:"isActive"`
	LowStock         bool      `json:"lowStock"`
	OutOfStock       bool      `json:"outOfStock"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

// ToStockResponse mapea la entidad a su respuesta HTTP.
func ToStockResponse(s *entity.Stock) *StockResponse {
	return &StockResponse{
		ProductID:        s.ProductID,
		StoreID:          s.StoreID,
		Quantity:         s.Quantity,
		ReservedQuantity: s.ReservedQuantity,
		Available:        s.Available(),
		MinQuantity:      s.MinQuantity,
		IsActive:         s.IsActive,
		LowStock:         s.IsLowStock(),
		OutOfStock:       s.IsOutOfStock(),
		LastUpdated:      s.LastUpdated,
	}
}

// ToStockResponses mapea una lista de posiciones.
func ToStockResponses(list []*entity.Stock) []*StockResponse {
	out := make([]*StockResponse, 0, len(list))
	for _, s := range list {
		out = append(out, ToStockResponse(s))
	}
	return out
}

// MovementResponse entrada del libro de movimientos.
type MovementResponse struct {
	ID                       string    `json:"id"`
	ProductID                string    `json:"productId"`
	StoreID                  string    `json:"storeId"`
	Type                     string    `json:"type"`
	Quantity                 int64     `json:"quantity"`
	PreviousQuantity         int64     `json:"previousQuantity"`
	NewQuantity              int64     `json:"newQuantity"`
	PreviousReservedQuantity int64     `json:"previousReservedQuantity"`
	NewReservedQuantity      int64     `json:"newReservedQuantity"`
	Variation                int64     `json:"variation"`
	ReservedVariation        int64     `json:"reservedVariation"`
	Reason                   string    `json:"reason,omitempty"`
	Reference                string    `json:"reference,omitempty"`
	ReferenceType            string    `json:"referenceType,omitempty"`
	UserID                   string    `json:"userId"`
	CreatedAt                time.Time `json:"createdAt"`
}

// ToMovementResponse mapea la entidad a su respuesta HTTP.
func ToMovementResponse(m *entity.StockMovement) *MovementResponse {
	return &MovementResponse{
		ID:                       m.ID,
		ProductID:                m.ProductID,
		StoreID:                  m.StoreID,
		Type:                     m.Type,
		Quantity:                 m.Quantity,
		PreviousQuantity:         m.PreviousQuantity,
		NewQuantity:              m.NewQuantity,
		PreviousReservedQuantity: m.PreviousReservedQuantity,
		NewReservedQuantity:      m.NewReservedQuantity,
		Variation:                m.Variation(),
		ReservedVariation:        m.ReservedVariation(),
		Reason:                   m.Reason,
		Reference:                m.Reference,
		ReferenceType:            m.ReferenceType,
		UserID:                   m.UserID,
		CreatedAt:                m.CreatedAt,
	}
}

// ToMovementResponses mapea una lista de movimientos.
func ToMovementResponses(list []*entity.StockMovement) []*MovementResponse {
	out := make([]*MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m))
	}
	return out
}
