package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

var _ repository.InvoiceCounterRepository = (*InvoiceCounterRepo)(nil)

// InvoiceCounterRepo implementación del contador de numeración anual.
// El incremento es un solo upsert atómico: dos transacciones concurrentes
// serializan sobre la fila del año y obtienen consecutivos distintos.
type InvoiceCounterRepo struct {
	q Querier
}

// NewInvoiceCounterRepository construye el adaptador del contador.
func NewInvoiceCounterRepository(q Querier) *InvoiceCounterRepo {
	return &InvoiceCounterRepo{q: q}
}

// NextSequence incrementa y devuelve el consecutivo del año dado.
func (r *InvoiceCounterRepo) NextSequence(ctx context.Context, year int) (int, error) {
	query := `
		INSERT INTO invoice_counters (year, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (year)
		DO UPDATE SET last_seq = invoice_counters.last_seq + 1
		RETURNING last_seq`
	var seq int
	if err := r.q.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next invoice sequence %d: %w", year, err)
	}
	return seq, nil
}
