package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/Comercio-api/internal/application/atomic"
	"github.com/jhoicas/Comercio-api/internal/application/dto"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
	"github.com/jhoicas/Comercio-api/pkg/logger"
)

// LifecycleUseCase ejecuta las transiciones de una factura existente:
// anulación, espera, validación, pagos y mutación de líneas. Toda transición
// que toca stock comparte ámbito atómico con la escritura de la factura.
type LifecycleUseCase struct {
	co          *atomic.Coordinator
	inventory   InventoryPort
	invoiceRepo repository.InvoiceRepository // atado al pool; solo lecturas
	log         *logger.Logger
}

// NewLifecycleUseCase construye el caso de uso.
func NewLifecycleUseCase(
	co *atomic.Coordinator,
	inventory InventoryPort,
	invoiceRepo repository.InvoiceRepository,
	log *logger.Logger,
) *LifecycleUseCase {
	return &LifecycleUseCase{
		co:          co,
		inventory:   inventory,
		invoiceRepo: invoiceRepo,
		log:         log.Component("billing"),
	}
}

// errNoChange señala dentro del ámbito que la operación es un no-op idempotente:
// no se persiste nada y la operación responde éxito.
var errNoChange = errors.New("sin cambios")

// mutateFn muta la factura ya cargada; recibe los repositorios de stock de la
// misma transacción para efectos colaterales de inventario.
type mutateFn func(
	inv *entity.Invoice,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	now time.Time,
) error

// mutate carga la factura dentro de la transacción, aplica fn y persiste.
// Centraliza el patrón cargar-mutar-guardar de todas las transiciones.
func (uc *LifecycleUseCase) mutate(ctx context.Context, id, userID, operation string, fn mutateFn) (*entity.Invoice, error) {
	if userID == "" {
		return nil, domain.ErrMissingActor
	}
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	var result *entity.Invoice

	audit := atomic.Audit{
		Event:     entity.AuditEventInvoiceRollback,
		InvoiceID: id,
		UserID:    userID,
		Details:   map[string]any{"operation": operation},
	}
	err := uc.co.RunBilling(ctx, audit, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		invoiceRepo repository.InvoiceRepository,
		_ repository.InvoiceCounterRepository,
	) error {
		inv, err := invoiceRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if err := fn(inv, stockRepo, movRepo, now); err != nil {
			if errors.Is(err, errNoChange) {
				result = inv
				return nil
			}
			return err
		}
		inv.UpdatedAt = now
		if err := invoiceRepo.Update(ctx, inv); err != nil {
			return err
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel anula una factura: reingresa el stock de cada línea con un movimiento
// RELEASE que referencia el número, fija los metadatos de anulación y agrega la
// entrada de historial. annulee es terminal: re-anular se rechaza, nunca se
// acepta en silencio.
func (uc *LifecycleUseCase) Cancel(ctx context.Context, id, reason, userID string) (*dto.InvoiceResponse, error) {
	inv, err := uc.mutate(ctx, id, userID, "cancel_invoice", func(
		inv *entity.Invoice,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		now time.Time,
	) error {
		if inv.IsCancelled() {
			return domain.ErrAlreadyCancelled
		}
		for _, line := range inv.Lines {
			if _, err := uc.inventory.RestockInTx(
				ctx,
				stockRepo, movRepo,
				line.ProductID, inv.StoreID, userID,
				line.Quantity,
				inv.Number,
				fmt.Sprintf("Annulation facture %s - %s", inv.Number, reason),
				now,
			); err != nil {
				return err
			}
		}
		inv.Status = entity.StatusAnnulee
		inv.CancelledBy = userID
		inv.CancelReason = reason
		inv.CancelledAt = &now
		inv.AppendHistory(entity.ActionCancelled, userID, reason, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.co.RecordEvent(ctx, atomic.Audit{
		Event:     entity.AuditEventInvoiceCancel,
		InvoiceID: inv.ID,
		UserID:    userID,
		StoreID:   inv.StoreID,
		Details: map[string]any{
			"operation": "cancel_invoice",
			"number":    inv.Number,
			"reason":    reason,
		},
	})
	uc.log.Info().Str("invoice", inv.Number).Str("reason", reason).Msg("factura anulada y stock repuesto")
	return dto.ToInvoiceResponse(inv, false), nil
}

// Hold pone la factura en espera. Sin efecto sobre el stock.
func (uc *LifecycleUseCase) Hold(ctx context.Context, id, userID string) (*dto.InvoiceResponse, error) {
	inv, err := uc.mutate(ctx, id, userID, "hold_invoice", func(
		inv *entity.Invoice,
		_ repository.StockRepository,
		_ repository.StockMovementRepository,
		now time.Time,
	) error {
		if inv.IsCancelled() {
			return domain.ErrAlreadyCancelled
		}
		inv.Status = entity.StatusEnAttente
		inv.AppendHistory(entity.ActionOnHold, userID, "", now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.ToInvoiceResponse(inv, false), nil
}

// Validate confirma la factura. Idempotente: validar una factura ya validada
// responde éxito sin duplicar la entrada de historial.
func (uc *LifecycleUseCase) Validate(ctx context.Context, id, userID string) (*dto.InvoiceResponse, error) {
	inv, err := uc.mutate(ctx, id, userID, "validate_invoice", func(
		inv *entity.Invoice,
		_ repository.StockRepository,
		_ repository.StockMovementRepository,
		now time.Time,
	) error {
		if inv.IsCancelled() {
			return domain.ErrAlreadyCancelled
		}
		if inv.Status == entity.StatusValidee {
			return errNoChange
		}
		inv.Status = entity.StatusValidee
		inv.ValidatedAt = &now
		inv.AppendHistory(entity.ActionValidated, userID, "", now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.ToInvoiceResponse(inv, false), nil
}
