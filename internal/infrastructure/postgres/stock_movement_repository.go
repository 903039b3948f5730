package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación de StockMovementRepository sobre PostgreSQL.
// Los movimientos son inmutables: solo hay inserciones y lecturas.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador de movimientos de stock.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, product_id, store_id, type, quantity,
	previous_quantity, new_quantity, previous_reserved_quantity, new_reserved_quantity,
	reference, reference_type, reason, user_id, created_at`

// Create inserta un movimiento en el libro mayor.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, product_id, store_id, type, quantity,
			previous_quantity, new_quantity, previous_reserved_quantity, new_reserved_quantity,
			reference, reference_type, reason, user_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.ProductID, m.StoreID, m.Type, m.Quantity,
		m.PreviousQuantity, m.NewQuantity, m.PreviousReservedQuantity, m.NewReservedQuantity,
		m.Reference, m.ReferenceType, m.Reason, m.UserID, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento por su identificador.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// ListByProductAndStore lista el historial de un producto en una tienda, más recientes primero.
func (r *StockMovementRepo) ListByProductAndStore(ctx context.Context, productID, storeID string, filter repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	args := []any{productID, storeID}
	conds := []string{"product_id = $1", "store_id = $2"}
	conds, args = appendMovementFilter(conds, args, filter)
	return r.list(ctx, conds, args, limit, offset)
}

// ListByStore lista los movimientos de una tienda, más recientes primero.
func (r *StockMovementRepo) ListByStore(ctx context.Context, storeID string, filter repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	args := []any{storeID}
	conds := []string{"store_id = $1"}
	conds, args = appendMovementFilter(conds, args, filter)
	return r.list(ctx, conds, args, limit, offset)
}

// ListByReference lista los movimientos ligados a una referencia (factura,
// transferencia), en orden de inserción. referenceType es opcional.
func (r *StockMovementRepo) ListByReference(ctx context.Context, reference, referenceType string) ([]*entity.StockMovement, error) {
	args := []any{reference}
	conds := []string{"reference = $1"}
	if referenceType != "" {
		args = append(args, referenceType)
		conds = append(conds, "reference_type = $2")
	}
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY created_at ASC`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

// ListByActor lista los movimientos registrados por un usuario, con rango de
// fechas opcional, más recientes primero.
func (r *StockMovementRepo) ListByActor(ctx context.Context, userID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	args := []any{userID}
	conds := []string{"user_id = $1"}
	conds, args = appendMovementFilter(conds, args, repository.MovementFilter{From: from, To: to})
	return r.list(ctx, conds, args, limit, offset)
}

// CountByStore cuenta los movimientos de una tienda bajo el filtro dado.
func (r *StockMovementRepo) CountByStore(ctx context.Context, storeID string, filter repository.MovementFilter) (int64, error) {
	args := []any{storeID}
	conds := []string{"store_id = $1"}
	conds, args = appendMovementFilter(conds, args, filter)
	query := `SELECT COUNT(*) FROM stock_movements WHERE ` + strings.Join(conds, " AND ")
	var total int64
	if err := r.q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count movements: %w", err)
	}
	return total, nil
}

func (r *StockMovementRepo) list(ctx context.Context, conds []string, args []any, limit, offset int) ([]*entity.StockMovement, error) {
	n := len(args)
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE ` + strings.Join(conds, " AND ") + `
		ORDER BY created_at DESC
		LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	return collectMovements(rows)
}

func appendMovementFilter(conds []string, args []any, f repository.MovementFilter) ([]string, []any) {
	if f.Type != "" {
		args = append(args, f.Type)
		conds = append(conds, "type = $"+strconv.Itoa(len(args)))
	}
	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, "user_id = $"+strconv.Itoa(len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conds = append(conds, "created_at >= $"+strconv.Itoa(len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conds = append(conds, "created_at <= $"+strconv.Itoa(len(args)))
	}
	return conds, args
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	err := row.Scan(
		&m.ID, &m.ProductID, &m.StoreID, &m.Type, &m.Quantity,
		&m.PreviousQuantity, &m.NewQuantity, &m.PreviousReservedQuantity, &m.NewReservedQuantity,
		&m.Reference, &m.ReferenceType, &m.Reason, &m.UserID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMovements(rows pgx.Rows) ([]*entity.StockMovement, error) {
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}
