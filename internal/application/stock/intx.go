package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

// OutInTx ejecuta una salida por factura usando los repositorios proporcionados
// (misma transacción del caller). reference es el número de factura.
// Política de registro ausente: en modo estricto aborta; con CreateMissing lo
// inicializa en cero. Política de sobreventa: en modo estricto la cantidad
// insuficiente aborta; con AllowNegative la salida se registra igual y se
// devuelve oversold=true para que el caller marque la advertencia.
func (uc *UseCase) OutInTx(
	ctx context.Context,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	productID, storeID, userID string,
	quantity int64,
	reference, reason string,
	now time.Time,
) (*entity.StockMovement, bool, error) {
	rec, err := stockRepo.GetForUpdate(ctx, productID, storeID)
	if err != nil {
		return nil, false, err
	}
	if rec == nil {
		if !uc.policy.CreateMissing {
			return nil, false, fmt.Errorf("producto %s en tienda %s: %w", productID, storeID, domain.ErrStockRecordMissing)
		}
		rec = &entity.Stock{
			ProductID:   productID,
			StoreID:     storeID,
			IsActive:    true,
			LastUpdated: now,
		}
	}
	if !uc.policy.AllowNegative && rec.Quantity < quantity {
		return nil, false, fmt.Errorf("producto %s: %w", productID, domain.ErrInsufficientStock)
	}

	prev := rec.Quantity
	rec.Quantity = prev - quantity
	rec.LastUpdated = now
	oversold := rec.Quantity < 0
	if oversold {
		uc.log.Warn().
			Str("productId", productID).
			Str("storeId", storeID).
			Int64("quantity", rec.Quantity).
			Str("reference", reference).
			Msg("sobreventa permitida: cantidad en mano negativa")
	}
	if err := stockRepo.Upsert(ctx, rec); err != nil {
		return nil, false, err
	}

	mov := &entity.StockMovement{
		ID:                       uuid.New().String(),
		ProductID:                productID,
		StoreID:                  storeID,
		Type:                     entity.MovementTypeOUT,
		Quantity:                 quantity,
		PreviousQuantity:         prev,
		NewQuantity:              rec.Quantity,
		PreviousReservedQuantity: rec.ReservedQuantity,
		NewReservedQuantity:      rec.ReservedQuantity,
		Reason:                   reason,
		Reference:                reference,
		ReferenceType:            entity.ReferenceTypeInvoice,
		UserID:                   userID,
		CreatedAt:                now,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, false, err
	}
	return mov, oversold, nil
}

// RestockInTx reingresa cantidad al stock como liberación (anulación de factura
// o supresión de línea), usando los repositorios del caller. El incremento
// siempre es seguro; el registro se crea en cero si no existe.
func (uc *UseCase) RestockInTx(
	ctx context.Context,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	productID, storeID, userID string,
	quantity int64,
	reference, reason string,
	now time.Time,
) (*entity.StockMovement, error) {
	rec, err := lockOrInit(ctx, stockRepo, productID, storeID, now)
	if err != nil {
		return nil, err
	}

	prev := rec.Quantity
	rec.Quantity = prev + quantity
	rec.LastUpdated = now
	if err := stockRepo.Upsert(ctx, rec); err != nil {
		return nil, err
	}

	mov := &entity.StockMovement{
		ID:                       uuid.New().String(),
		ProductID:                productID,
		StoreID:                  storeID,
		Type:                     entity.MovementTypeRelease,
		Quantity:                 quantity,
		PreviousQuantity:         prev,
		NewQuantity:              rec.Quantity,
		PreviousReservedQuantity: rec.ReservedQuantity,
		NewReservedQuantity:      rec.ReservedQuantity,
		Reason:                   reason,
		Reference:                reference,
		ReferenceType:            entity.ReferenceTypeInvoice,
		UserID:                   userID,
		CreatedAt:                now,
	}
	if err := movRepo.Create(ctx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}
