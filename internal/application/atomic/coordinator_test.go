package atomic_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Comercio-api/internal/application/atomic"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
	"github.com/jhoicas/Comercio-api/pkg/logger"
)

// stubRunner simula el TxRunner: cada intento invoca fn con repositorios nil
// (las fn de estos tests no los usan) y devuelve el error programado.
type stubRunner struct {
	attempts int
	errs     []error // error a devolver por intento; nil = éxito
}

func (r *stubRunner) RunStock(ctx context.Context, fn atomic.StockTxFn) error {
	r.attempts++
	if r.attempts <= len(r.errs) && r.errs[r.attempts-1] != nil {
		return r.errs[r.attempts-1]
	}
	return fn(nil, nil)
}

func (r *stubRunner) RunBilling(ctx context.Context, fn atomic.BillingTxFn) error {
	r.attempts++
	if r.attempts <= len(r.errs) && r.errs[r.attempts-1] != nil {
		return r.errs[r.attempts-1]
	}
	return fn(nil, nil, nil, nil)
}

// stubAuditRepo registra las escrituras de auditoría; puede programarse para fallar.
type stubAuditRepo struct {
	records []*entity.AuditLog
	fail    error
}

func (r *stubAuditRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	if r.fail != nil {
		return r.fail
	}
	r.records = append(r.records, log)
	return nil
}

var _ repository.AuditLogRepository = (*stubAuditRepo)(nil)

var errTransient = errors.New("conflicto de serialización simulado")

func testLog() *logger.Logger {
	return logger.New(logger.Config{Env: "test", Level: "error"})
}

func TestCoordinator_ExitoSinReintentos(t *testing.T) {
	runner := &stubRunner{}
	audit := &stubAuditRepo{}
	co := atomic.NewCoordinator(runner, audit, nil, testLog(), 3, time.Millisecond)

	ran := false
	err := co.RunStock(context.Background(), atomic.Audit{Event: entity.AuditEventStockError},
		func(repository.StockRepository, repository.StockMovementRepository) error {
			ran = true
			return nil
		})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, runner.attempts)
	assert.Empty(t, audit.records, "el éxito no escribe auditoría")
}

// Un error transitorio se reintenta hasta el éxito; el éxito final no deja
// rastro de auditoría.
func TestCoordinator_ReintentaTransitorios(t *testing.T) {
	runner := &stubRunner{errs: []error{errTransient, errTransient, nil}}
	audit := &stubAuditRepo{}
	isRetryable := func(err error) bool { return errors.Is(err, errTransient) }
	co := atomic.NewCoordinator(runner, audit, isRetryable, testLog(), 5, time.Millisecond)

	err := co.RunStock(context.Background(), atomic.Audit{Event: entity.AuditEventStockError},
		func(repository.StockRepository, repository.StockMovementRepository) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 3, runner.attempts)
	assert.Empty(t, audit.records)
}

func TestCoordinator_AgotaIntentosYAuditoria(t *testing.T) {
	runner := &stubRunner{errs: []error{errTransient, errTransient, errTransient}}
	audit := &stubAuditRepo{}
	isRetryable := func(err error) bool { return errors.Is(err, errTransient) }
	co := atomic.NewCoordinator(runner, audit, isRetryable, testLog(), 3, time.Millisecond)

	err := co.RunStock(context.Background(), atomic.Audit{
		Event:   entity.AuditEventTransferRollback,
		UserID:  "user-1",
		StoreID: "magasin-a",
		Details: map[string]any{"operation": "transfer"},
	}, func(repository.StockRepository, repository.StockMovementRepository) error { return nil })

	require.Error(t, err)
	assert.Equal(t, 3, runner.attempts, "no debe superar el máximo de intentos")
	assert.ErrorIs(t, err, domain.ErrTransactionAborted)
	assert.ErrorIs(t, err, errTransient, "la causa original debe seguir visible")

	require.Len(t, audit.records, 1)
	rec := audit.records[0]
	assert.Equal(t, entity.AuditEventTransferRollback, rec.Event)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "magasin-a", rec.StoreID)
	assert.Equal(t, "transfer", rec.Details["operation"])
	assert.Contains(t, rec.Details["error"], errTransient.Error())
}

// Los errores de negocio no se reintentan: abortan al primer intento.
func TestCoordinator_ErrorDeNegocioNoReintenta(t *testing.T) {
	runner := &stubRunner{}
	audit := &stubAuditRepo{}
	isRetryable := func(err error) bool { return errors.Is(err, errTransient) }
	co := atomic.NewCoordinator(runner, audit, isRetryable, testLog(), 5, time.Millisecond)

	err := co.RunBilling(context.Background(), atomic.Audit{Event: entity.AuditEventInvoiceRollback},
		func(repository.StockRepository, repository.StockMovementRepository,
			repository.InvoiceRepository, repository.InvoiceCounterRepository) error {
			return domain.ErrInsufficientStock
		})

	require.Error(t, err)
	assert.Equal(t, 1, runner.attempts)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.ErrorIs(t, err, domain.ErrTransactionAborted)

	var abort *atomic.AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, entity.AuditEventInvoiceRollback, abort.Event)
}

// RecordEvent escribe un registro de evento consumado sin causa de error.
func TestCoordinator_RecordEventSinError(t *testing.T) {
	runner := &stubRunner{}
	audit := &stubAuditRepo{}
	co := atomic.NewCoordinator(runner, audit, nil, testLog(), 1, time.Millisecond)

	co.RecordEvent(context.Background(), atomic.Audit{
		Event:     entity.AuditEventInvoiceCancel,
		InvoiceID: "inv-1",
		UserID:    "user-1",
		StoreID:   "magasin-a",
		Details:   map[string]any{"number": "INV-2026-0001"},
	})

	require.Len(t, audit.records, 1)
	rec := audit.records[0]
	assert.Equal(t, entity.AuditEventInvoiceCancel, rec.Event)
	assert.Equal(t, "inv-1", rec.InvoiceID)
	assert.Equal(t, "INV-2026-0001", rec.Details["number"])
	assert.Empty(t, rec.Message, "sin causa no hay mensaje de error")
	assert.NotContains(t, rec.Details, "error")
}

// El fallo del propio registro de auditoría nunca enmascara el error original.
func TestCoordinator_FalloDeAuditoriaNoEnmascara(t *testing.T) {
	runner := &stubRunner{}
	audit := &stubAuditRepo{fail: errors.New("auditoría caída")}
	co := atomic.NewCoordinator(runner, audit, nil, testLog(), 1, time.Millisecond)

	err := co.RunStock(context.Background(), atomic.Audit{Event: entity.AuditEventStockError},
		func(repository.StockRepository, repository.StockMovementRepository) error {
			return domain.ErrInsufficientStock
		})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.NotContains(t, err.Error(), "auditoría caída")
}
