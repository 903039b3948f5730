package repository

import (
	"context"

	"github.com/jhoicas/Comercio-api/internal/domain/entity"
)

// AuditLogRepository define el puerto de persistencia del registro de auditoría
// operacional. Siempre se invoca fuera de la transacción de negocio: el registro
// debe sobrevivir al rollback.
type AuditLogRepository interface {
	Create(ctx context.Context, log *entity.AuditLog) error
}
