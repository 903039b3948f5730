package dto

import (
	"time"

	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// InvoiceLineRequest línea de factura enviada por el cliente. ProductName y
// UnitPrice son instantáneas resueltas por el caller desde el catálogo.
type InvoiceLineRequest struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Discount    decimal.Decimal `json:"discount"`
}

// CreateInvoiceRequest payload de creación de factura.
type CreateInvoiceRequest struct {
	ClientID   string               `json:"clientId"`
	StoreID    string               `json:"storeId"`
	Date       *time.Time           `json:"date,omitempty"`
	Lines      []InvoiceLineRequest `json:"lines"`
	AmountPaid decimal.Decimal      `json:"amountPaid"`
	Method     string               `json:"method,omitempty"` // método del pago inicial, si lo hay
	Format     string               `json:"format,omitempty"` // A5 | POS
}

// UpdateInvoiceRequest payload de modificación de campos generales.
// Los campos nil no se tocan.
type UpdateInvoiceRequest struct {
	ClientID *string              `json:"clientId,omitempty"`
	Date     *time.Time           `json:"date,omitempty"`
	Format   *string              `json:"format,omitempty"`
	Lines    []InvoiceLineRequest `json:"lines,omitempty"`
	Reason   string               `json:"reason,omitempty"`
}

// PaymentRequest payload de registro de pago.
type PaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

// CancelInvoiceRequest payload de anulación.
type CancelInvoiceRequest struct {
	Reason string `json:"reason"`
}

// AddLinesRequest payload para agregar líneas a una factura existente.
type AddLinesRequest struct {
	Lines []InvoiceLineRequest `json:"lines"`
}

// RemoveLineRequest payload para suprimir una línea.
type RemoveLineRequest struct {
	LineID string `json:"lineId"`
}

// InvoiceResponse respuesta con la factura completa.
type InvoiceResponse struct {
	ID             string                `json:"id"`
	Number         string                `json:"number"`
	Date           time.Time             `json:"date"`
	ClientID       string                `json:"clientId"`
	StoreID        string                `json:"storeId"`
	UserID         string                `json:"userId"`
	Lines          []entity.InvoiceLine  `json:"lines"`
	Total          decimal.Decimal       `json:"total"`
	AmountPaid     decimal.Decimal       `json:"amountPaid"`
	DiscountTotal  decimal.Decimal       `json:"discountTotal"`
	Status         string                `json:"status"`
	Format         string                `json:"format,omitempty"`
	History        []entity.HistoryEntry `json:"history"`
	PaymentHistory []entity.PaymentEntry `json:"paymentHistory"`
	CancelledBy    string                `json:"cancelledBy,omitempty"`
	CancelReason   string                `json:"cancelReason,omitempty"`
	CancelledAt    *time.Time            `json:"cancelledAt,omitempty"`
	ValidatedAt    *time.Time            `json:"validatedAt,omitempty"`
	Oversold       bool                  `json:"oversoldWarning,omitempty"` // política permisiva: alguna línea dejó stock negativo
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

// ToInvoiceResponse mapea la entidad a su respuesta HTTP.
func ToInvoiceResponse(inv *entity.Invoice, oversold bool) *InvoiceResponse {
	return &InvoiceResponse{
		ID:             inv.ID,
		Number:         inv.Number,
		Date:           inv.Date,
		ClientID:       inv.ClientID,
		StoreID:        inv.StoreID,
		UserID:         inv.UserID,
		Lines:          inv.Lines,
		Total:          inv.Total,
		AmountPaid:     inv.AmountPaid,
		DiscountTotal:  inv.DiscountTotal,
		Status:         inv.Status,
		Format:         inv.Format,
		History:        inv.History,
		PaymentHistory: inv.PaymentHistory,
		CancelledBy:    inv.CancelledBy,
		CancelReason:   inv.CancelReason,
		CancelledAt:    inv.CancelledAt,
		ValidatedAt:    inv.ValidatedAt,
		Oversold:       oversold,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}
