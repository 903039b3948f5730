package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo implementación de AuditLogRepository sobre PostgreSQL.
// Siempre se construye con el pool, nunca con una tx: el registro de auditoría
// debe sobrevivir al rollback que lo origina.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador de auditoría.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Create inserta un registro de auditoría.
func (r *AuditLogRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	details, err := json.Marshal(log.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}
	query := `
		INSERT INTO audit_logs (id, event, invoice_id, user_id, store_id, details, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = r.q.Exec(ctx, query,
		log.ID, log.Event, log.InvoiceID, log.UserID, log.StoreID, details, log.Message, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
