package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
	"github.com/jhoicas/Comercio-api/internal/infrastructure/memory"
)

func seedStock(t *testing.T, s *memory.Store, productID, storeID string, qty int64) {
	t.Helper()
	require.NoError(t, s.Upsert(context.Background(), &entity.Stock{
		ProductID:   productID,
		StoreID:     storeID,
		Quantity:    qty,
		IsActive:    true,
		LastUpdated: time.Now(),
	}))
}

// ──────────────────────────────────────────────────────────────────────────────
// Rollback por snapshot
// ──────────────────────────────────────────────────────────────────────────────

func TestRunStock_RollbackRestauraEstado(t *testing.T) {
	s := memory.NewStore()
	seedStock(t, s, "p1", "m1", 10)

	boom := errors.New("fallo a mitad de camino")
	err := s.RunStock(context.Background(), func(stocks repository.StockRepository, movs repository.StockMovementRepository) error {
		rec, err := stocks.GetForUpdate(context.Background(), "p1", "m1")
		require.NoError(t, err)
		rec.Quantity = 3
		require.NoError(t, stocks.Upsert(context.Background(), rec))
		require.NoError(t, movs.Create(context.Background(), &entity.StockMovement{
			ID: "mv1", ProductID: "p1", StoreID: "m1",
			Type: entity.MovementTypeOUT, Quantity: 7,
			PreviousQuantity: 10, NewQuantity: 3, CreatedAt: time.Now(),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	rec, err := s.Get(context.Background(), "p1", "m1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(10), rec.Quantity, "el stock debe volver al valor previo a la transacción")

	n, err := s.MovementRepo().CountByStore(context.Background(), "m1", repository.MovementFilter{})
	require.NoError(t, err)
	assert.Zero(t, n, "los movimientos de la transacción abortada no deben persistir")
}

func TestRunBilling_RollbackDescartaFactura(t *testing.T) {
	s := memory.NewStore()

	boom := errors.New("no")
	err := s.RunBilling(context.Background(), func(_ repository.StockRepository, _ repository.StockMovementRepository, invoices repository.InvoiceRepository, counters repository.InvoiceCounterRepository) error {
		seq, err := counters.NextSequence(context.Background(), 2026)
		require.NoError(t, err)
		require.Equal(t, 1, seq)
		require.NoError(t, invoices.Create(context.Background(), &entity.Invoice{
			ID: "f1", Number: "INV-2026-0001", StoreID: "m1", ClientID: "c1",
			Status: entity.StatusResteAPayer, Total: decimal.NewFromInt(10), CreatedAt: time.Now(),
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	inv, err := s.InvoiceRepo().GetByNumber(context.Background(), "INV-2026-0001")
	require.NoError(t, err)
	assert.Nil(t, inv, "la factura de la transacción abortada no debe persistir")

	// El contador también se repone: la siguiente transacción reutiliza la secuencia.
	err = s.RunBilling(context.Background(), func(_ repository.StockRepository, _ repository.StockMovementRepository, _ repository.InvoiceRepository, counters repository.InvoiceCounterRepository) error {
		seq, err := counters.NextSequence(context.Background(), 2026)
		require.NoError(t, err)
		assert.Equal(t, 1, seq)
		return nil
	})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// Unicidad de número de factura
// ──────────────────────────────────────────────────────────────────────────────

func TestInvoiceRepo_NumeroDuplicado(t *testing.T) {
	s := memory.NewStore()

	inv := &entity.Invoice{ID: "f1", Number: "INV-2026-0001", StoreID: "m1", ClientID: "c1", Status: entity.StatusResteAPayer, CreatedAt: time.Now()}
	require.NoError(t, s.InvoiceRepo().Create(context.Background(), inv))

	dup := &entity.Invoice{ID: "f2", Number: "INV-2026-0001", StoreID: "m1", ClientID: "c1", Status: entity.StatusResteAPayer, CreatedAt: time.Now()}
	err := s.InvoiceRepo().Create(context.Background(), dup)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

// El store sirve a la vez el puerto de stock y, vía su vista, el de
// movimientos: cada ListByStore responde lo suyo.
func TestListByStore_PuertosSeparados(t *testing.T) {
	s := memory.NewStore()
	ctx := context.Background()
	seedStock(t, s, "p1", "m1", 10)
	seedStock(t, s, "p2", "m1", 5)
	seedStock(t, s, "p1", "m2", 3)
	require.NoError(t, s.MovementRepo().Create(ctx, &entity.StockMovement{
		ID: "mv1", ProductID: "p1", StoreID: "m1",
		Type: entity.MovementTypeIN, Quantity: 10,
		NewQuantity: 10, CreatedAt: time.Now(),
	}))

	stocks, err := s.ListByStore(ctx, "m1", 50, 0)
	require.NoError(t, err)
	assert.Len(t, stocks, 2)

	movs, err := s.MovementRepo().ListByStore(ctx, "m1", repository.MovementFilter{}, 50, 0)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, "mv1", movs[0].ID)

	all, err := s.ListAll(ctx, 50, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3, "ListAll recorre todas las tiendas")
}

func TestGet_AusenteDevuelveNil(t *testing.T) {
	s := memory.NewStore()
	rec, err := s.GetForUpdate(context.Background(), "nope", "m1")
	require.NoError(t, err)
	assert.Nil(t, rec, "un registro ausente se señala con nil, nil")
}
