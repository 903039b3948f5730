package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

const stockColumns = `product_id, store_id, quantity, reserved_quantity, min_quantity, is_active, last_updated`

// Get obtiene el registro de stock de un producto en una tienda; (nil, nil) si no existe.
func (r *StockRepo) Get(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE product_id = $1 AND store_id = $2`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID, storeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return s, nil
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT FOR UPDATE); (nil, nil) si no existe.
func (r *StockRepo) GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE product_id = $1 AND store_id = $2
		FOR UPDATE`
	s, err := scanStock(r.q.QueryRow(ctx, query, productID, storeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock for update: %w", err)
	}
	return s, nil
}

// Upsert inserta o actualiza el registro (por producto y tienda).
func (r *StockRepo) Upsert(ctx context.Context, stock *entity.Stock) error {
	query := `
		INSERT INTO stock (product_id, store_id, quantity, reserved_quantity, min_quantity, is_active, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (product_id, store_id)
		DO UPDATE SET quantity = EXCLUDED.quantity,
		              reserved_quantity = EXCLUDED.reserved_quantity,
		              min_quantity = EXCLUDED.min_quantity,
		              is_active = EXCLUDED.is_active,
		              last_updated = EXCLUDED.last_updated`
	_, err := r.q.Exec(ctx, query,
		stock.ProductID, stock.StoreID, stock.Quantity, stock.ReservedQuantity,
		stock.MinQuantity, stock.IsActive, stock.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// ListByStore lista las posiciones de una tienda, más recientes primero.
func (r *StockRepo) ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock WHERE store_id = $1
		ORDER BY last_updated DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, storeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock by store: %w", err)
	}
	defer rows.Close()
	return collectStocks(rows)
}

// ListAll recorre todas las posiciones de stock, sin filtro de tienda.
func (r *StockRepo) ListAll(ctx context.Context, limit, offset int) ([]*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock
		ORDER BY store_id, product_id
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list all stock: %w", err)
	}
	defer rows.Close()
	return collectStocks(rows)
}

// ListLowStock lista posiciones con cantidad en o bajo su umbral mínimo.
func (r *StockRepo) ListLowStock(ctx context.Context, storeID string) ([]*entity.Stock, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock
		WHERE store_id = $1 AND quantity <= min_quantity
		ORDER BY quantity ASC`
	rows, err := r.q.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	defer rows.Close()
	return collectStocks(rows)
}

func scanStock(row pgx.Row) (*entity.Stock, error) {
	var s entity.Stock
	err := row.Scan(
		&s.ProductID, &s.StoreID, &s.Quantity, &s.ReservedQuantity,
		&s.MinQuantity, &s.IsActive, &s.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectStocks(rows pgx.Rows) ([]*entity.Stock, error) {
	var list []*entity.Stock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
