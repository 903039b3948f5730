package atomic

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
	"github.com/jhoicas/Comercio-api/pkg/logger"
)

// AbortError envuelve el error que abortó un ámbito atómico conservando su
// causa: errors.Is responde tanto a domain.ErrTransactionAborted como al
// error de negocio original (vía Unwrap).
type AbortError struct {
	Event string
	Err   error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("transacción abortada (%s): %v", e.Event, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }

func (e *AbortError) Is(target error) bool { return target == domain.ErrTransactionAborted }

// Audit describe la operación en curso para el registro compensatorio que se
// escribe si el ámbito aborta.
type Audit struct {
	Event     string
	InvoiceID string
	UserID    string
	StoreID   string
	Details   map[string]any
}

// Coordinator envuelve el TxRunner con la política transaccional del motor:
// reintentos acotados con backoff exponencial ante conflictos de escritura y,
// en cada aborto definitivo, un registro de auditoría compensatorio escrito
// fuera del ámbito abortado (sobrevive al rollback). El fallo del propio
// registro de auditoría se loguea y nunca enmascara el error original.
type Coordinator struct {
	runner      TxRunner
	auditRepo   repository.AuditLogRepository
	isRetryable func(error) bool
	log         *logger.Logger
	maxAttempts int
	baseDelay   time.Duration
}

// NewCoordinator construye el coordinador. isRetryable decide qué errores de la
// infraestructura ameritan reintentar la transacción completa (conflicto de
// serialización, colisión de numeración).
func NewCoordinator(
	runner TxRunner,
	auditRepo repository.AuditLogRepository,
	isRetryable func(error) bool,
	log *logger.Logger,
	maxAttempts int,
	baseDelay time.Duration,
) *Coordinator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 50 * time.Millisecond
	}
	return &Coordinator{
		runner:      runner,
		auditRepo:   auditRepo,
		isRetryable: isRetryable,
		log:         log.Component("atomic"),
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
	}
}

// RunStock ejecuta fn en un ámbito atómico con repositorios de stock.
func (c *Coordinator) RunStock(ctx context.Context, audit Audit, fn StockTxFn) error {
	return c.run(ctx, audit, func(ctx context.Context) error {
		return c.runner.RunStock(ctx, fn)
	})
}

// RunBilling ejecuta fn en un ámbito atómico con repositorios de facturación.
func (c *Coordinator) RunBilling(ctx context.Context, audit Audit, fn BillingTxFn) error {
	return c.run(ctx, audit, func(ctx context.Context) error {
		return c.runner.RunBilling(ctx, fn)
	})
}

func (c *Coordinator) run(ctx context.Context, audit Audit, attempt func(ctx context.Context) error) error {
	var err error
	for i := 1; i <= c.maxAttempts; i++ {
		err = attempt(ctx)
		if err == nil {
			return nil
		}
		if c.isRetryable == nil || !c.isRetryable(err) {
			break
		}
		if i == c.maxAttempts {
			break
		}
		delay := c.baseDelay << (i - 1)
		c.log.Warn().
			Err(err).
			Str("event", audit.Event).
			Int("attempt", i).
			Dur("backoff", delay).
			Msg("conflicto de escritura, reintentando transacción")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			err = ctx.Err()
			i = c.maxAttempts
		}
	}

	c.writeAudit(ctx, audit, err)
	return &AbortError{Event: audit.Event, Err: err}
}

// RecordEvent escribe un registro de auditoría fuera de cualquier ámbito
// transaccional, para eventos de negocio consumados (anulación de factura).
func (c *Coordinator) RecordEvent(ctx context.Context, audit Audit) {
	c.writeAudit(ctx, audit, nil)
}

// writeAudit escribe el registro compensatorio fuera de la transacción, sobre
// un contexto desligado de la cancelación del llamador: el rastro debe quedar
// aunque la petición ya haya expirado. Es deliberadamente best-effort: su
// fallo se loguea y no se propaga.
func (c *Coordinator) writeAudit(ctx context.Context, audit Audit, cause error) {
	details := make(map[string]any, len(audit.Details)+1)
	for k, v := range audit.Details {
		details[k] = v
	}
	var message string
	if cause != nil {
		message = cause.Error()
		details["error"] = message
	}

	rec := &entity.AuditLog{
		ID:        uuid.New().String(),
		Event:     audit.Event,
		InvoiceID: audit.InvoiceID,
		UserID:    audit.UserID,
		StoreID:   audit.StoreID,
		Details:   details,
		Message:   message,
		CreatedAt: time.Now(),
	}
	if err := c.auditRepo.Create(context.WithoutCancel(ctx), rec); err != nil {
		c.log.Error().
			Err(err).
			Str("event", audit.Event).
			Msg("no se pudo escribir el registro de auditoría compensatorio")
	}
}
