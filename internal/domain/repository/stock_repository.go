package repository

import (
	"context"

	"github.com/jhoicas/Comercio-api/internal/domain/entity"
)

// StockRepository define el puerto para consultar/actualizar stock por tienda+producto.
// Get y GetForUpdate devuelven (nil, nil) si el registro no existe: la política
// de creación perezosa se decide una capa arriba.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	Get(ctx context.Context, productID, storeID string) (*entity.Stock, error)
	// GetForUpdate bloquea la fila para update (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.Stock, error)
	// ListAll recorre todas las posiciones sin filtrar por tienda; alimenta
	// los indicadores globales.
	ListAll(ctx context.Context, limit, offset int) ([]*entity.Stock, error)
	// ListLowStock devuelve posiciones con cantidad en o bajo su umbral mínimo.
	ListLowStock(ctx context.Context, storeID string) ([]*entity.Stock, error)
}
