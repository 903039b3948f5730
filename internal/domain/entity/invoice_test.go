package entity_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Comercio-api/internal/domain/entity"
)

func TestRecomputeTotals(t *testing.T) {
	inv := &entity.Invoice{
		Lines: []entity.InvoiceLine{
			{LineTotal: decimal.NewFromInt(250), Discount: decimal.NewFromInt(50)},
			{LineTotal: decimal.NewFromInt(100), Discount: decimal.Zero},
		},
	}
	inv.RecomputeTotals()
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(350)))
	assert.True(t, inv.DiscountTotal.Equal(decimal.NewFromInt(50)))

	inv.Lines = nil
	inv.RecomputeTotals()
	assert.True(t, inv.Total.IsZero())
}

func TestDeriveStatus(t *testing.T) {
	inv := &entity.Invoice{Total: decimal.NewFromInt(100)}

	inv.AmountPaid = decimal.Zero
	assert.Equal(t, entity.StatusResteAPayer, inv.DeriveStatus())

	inv.AmountPaid = decimal.NewFromInt(99)
	assert.Equal(t, entity.StatusResteAPayer, inv.DeriveStatus())

	inv.AmountPaid = decimal.NewFromInt(100)
	assert.Equal(t, entity.StatusPayee, inv.DeriveStatus())
}

// El historial es de solo-inserción: cada acción se agrega al final y las
// entradas previas no se tocan.
func TestAppendHistory_ConservaOrden(t *testing.T) {
	inv := &entity.Invoice{}
	base := time.Now()
	inv.AppendHistory(entity.ActionCreated, "u1", "Création de la facture", base)
	inv.AppendHistory(entity.ActionPayment, "u2", "Paiement de 50.00 (cb)", base.Add(time.Minute))

	assert.Len(t, inv.History, 2)
	assert.Equal(t, entity.ActionCreated, inv.History[0].Action)
	assert.Equal(t, "u1", inv.History[0].UserID)
	assert.Equal(t, entity.ActionPayment, inv.History[1].Action)
}

func TestStockDerivados(t *testing.T) {
	s := &entity.Stock{Quantity: 10, ReservedQuantity: 4, MinQuantity: 5}
	assert.EqualValues(t, 6, s.Available())
	assert.False(t, s.IsLowStock())
	assert.False(t, s.IsOutOfStock())

	s.Quantity = 3
	assert.EqualValues(t, 0, s.Available(), "disponible nunca negativo")
	assert.True(t, s.IsLowStock())

	s.Quantity = 0
	assert.True(t, s.IsOutOfStock())
	assert.False(t, s.IsLowStock(), "agotado no cuenta como alerta")
}
