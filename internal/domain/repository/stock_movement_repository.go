package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Comercio-api/internal/domain/entity"
)

// MovementFilter filtros opcionales para listar movimientos.
type MovementFilter struct {
	Type   string
	UserID string
	From   *time.Time
	To     *time.Time
}

// StockMovementRepository define el puerto de persistencia del libro de movimientos.
// Create es inserción pura: el libro nunca rechaza una entrada bien formada
// (la validación de negocio ocurre antes de construirla). Las entradas son
// inmutables; no hay Update ni Delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// ListByProductAndStore lista movimientos de un producto en una tienda, más recientes primero.
	ListByProductAndStore(ctx context.Context, productID, storeID string, f MovementFilter, limit, offset int) ([]*entity.StockMovement, error)
	ListByStore(ctx context.Context, storeID string, f MovementFilter, limit, offset int) ([]*entity.StockMovement, error)
	ListByReference(ctx context.Context, reference, referenceType string) ([]*entity.StockMovement, error)
	ListByActor(ctx context.Context, userID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	CountByStore(ctx context.Context, storeID string, f MovementFilter) (int64, error)
}
