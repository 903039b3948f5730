package billing

import (
	"context"
	"time"

	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

// InventoryPort expone las primitivas de stock que facturación invoca dentro de
// su propia transacción (los repositorios recibidos están atados a esa tx).
// Implementada por el caso de uso de stock.
type InventoryPort interface {
	// OutInTx descuenta stock por una línea de factura y agrega el movimiento OUT.
	// oversold indica que la política permisiva dejó la cantidad en negativo.
	OutInTx(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		productID, storeID, userID string,
		quantity int64,
		reference, reason string,
		now time.Time,
	) (mov *entity.StockMovement, oversold bool, err error)

	// RestockInTx reingresa stock por anulación o supresión de línea (movimiento RELEASE).
	RestockInTx(
		ctx context.Context,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		productID, storeID, userID string,
		quantity int64,
		reference, reason string,
		now time.Time,
	) (*entity.StockMovement, error)
}
