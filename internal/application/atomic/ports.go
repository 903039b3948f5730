package atomic

import (
	"context"

	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

// StockTxFn recibe repositorios atados a la transacción para operaciones de stock.
type StockTxFn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
) error

// BillingTxFn recibe repositorios atados a la transacción para operaciones de
// facturación (stock + libro de movimientos + factura + contador de numeración).
type BillingTxFn func(
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	invoiceRepo repository.InvoiceRepository,
	counterRepo repository.InvoiceCounterRepository,
) error

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Cualquier error retornado por fn descarta
// todas las escrituras hechas a través de esos repositorios.
type TxRunner interface {
	RunStock(ctx context.Context, fn StockTxFn) error
	RunBilling(ctx context.Context, fn BillingTxFn) error
}
