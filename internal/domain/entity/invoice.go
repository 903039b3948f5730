package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de una factura. Se conservan los valores
// históricos en francés porque así están persistidos en el sistema legado.
const (
	StatusPayee       = "payee"         // pagada en su totalidad
	StatusResteAPayer = "reste_a_payer" // con saldo pendiente
	StatusEnAttente   = "en_attente"    // en espera (retención manual)
	StatusValidee     = "validée"       // confirmada explícitamente
	StatusAnnulee     = "annulee"       // anulada; estado terminal
)

// Acciones registradas en el historial de la factura.
const (
	ActionCreated    = "created"
	ActionUpdate     = "update"
	ActionPayment    = "payment"
	ActionAddLines   = "add_lines"
	ActionRemoveLine = "remove_line"
	ActionOnHold     = "on_hold"
	ActionValidated  = "validated"
	ActionCancelled  = "cancelled"
)

// InvoiceLine es una línea de factura con instantánea del nombre del producto
// al momento de la venta (el catálogo puede cambiar después).
type InvoiceLine struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Discount    decimal.Decimal `json:"discount"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
}

// HistoryEntry es una entrada del historial de acciones de la factura.
// El historial es una secuencia ordenada de solo-inserción: las entradas
// existentes nunca se editan.
type HistoryEntry struct {
	Action string    `json:"action"`
	UserID string    `json:"userId"`
	Date   time.Time `json:"date"`
	Reason string    `json:"reason,omitempty"`
}

// PaymentEntry es una entrada del historial de pagos de la factura.
type PaymentEntry struct {
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
	UserID string          `json:"userId"`
	Date   time.Time       `json:"date"`
}

// Invoice representa una factura con sus líneas, totales, historial y metadatos
// de anulación. El número es único global con formato INV-<año>-<secuencia>.
type Invoice struct {
	ID             string
	Number         string
	Date           time.Time
	ClientID       string
	StoreID        string
	UserID         string // emisor
	Lines          []InvoiceLine
	Total          decimal.Decimal
	AmountPaid     decimal.Decimal
	DiscountTotal  decimal.Decimal
	Status         string
	Format         string // A5 | POS
	History        []HistoryEntry
	PaymentHistory []PaymentEntry
	CancelledBy    string
	CancelReason   string
	CancelledAt    *time.Time
	ValidatedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RecomputeTotals recalcula Total y DiscountTotal a partir de las líneas.
// Debe llamarse cada vez que se mutan las líneas.
func (i *Invoice) RecomputeTotals() {
	total := decimal.Zero
	discount := decimal.Zero
	for _, l := range i.Lines {
		total = total.Add(l.LineTotal)
		discount = discount.Add(l.Discount)
	}
	i.Total = total
	i.DiscountTotal = discount
}

// DeriveStatus devuelve el estado inicial según el monto pagado frente al total.
func (i *Invoice) DeriveStatus() string {
	if i.AmountPaid.GreaterThanOrEqual(i.Total) {
		return StatusPayee
	}
	return StatusResteAPayer
}

// IsCancelled indica si la factura está en el estado terminal.
func (i *Invoice) IsCancelled() bool {
	return i.Status == StatusAnnulee
}

// AppendHistory agrega una entrada al historial de acciones.
func (i *Invoice) AppendHistory(action, userID, reason string, at time.Time) {
	i.History = append(i.History, HistoryEntry{
		Action: action,
		UserID: userID,
		Date:   at,
		Reason: reason,
	})
}
