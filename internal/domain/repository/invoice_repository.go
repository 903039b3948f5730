package repository

import (
	"context"

	"github.com/jhoicas/Comercio-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas.
// Las líneas, el historial y los pagos viajan embebidos en la entidad; los
// historiales son secuencias de solo-inserción (nunca se editan entradas).
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	Update(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*entity.Invoice, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error)
}

// InvoiceCounterRepository define el contador atómico de numeración por año.
// NextSequence incrementa y devuelve el consecutivo en una sola operación
// condicional; debe ejecutarse dentro de la misma transacción que el insert
// de la factura para que no queden huecos ni colisiones.
type InvoiceCounterRepository interface {
	NextSequence(ctx context.Context, year int) (int, error)
}
