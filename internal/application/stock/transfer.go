package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Comercio-api/internal/application/atomic"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

// TransferInput entrada para un traslado de stock entre tiendas.
type TransferInput struct {
	ProductID   string
	FromStoreID string
	ToStoreID   string
	Quantity    int64
	Reason      string
	UserID      string
}

// TransferResult los dos movimientos enlazados que documentan el traslado.
type TransferResult struct {
	Out *entity.StockMovement // TRANSFER_OUT en la tienda origen
	In  *entity.StockMovement // TRANSFER_IN en la tienda destino
}

// Transfer ejecuta un traslado en dos patas dentro de un único ámbito atómico:
// debita la tienda origen, acredita la destino (creándola en cero si no existe)
// y agrega TRANSFER_OUT y TRANSFER_IN enlazados, cada uno nombrando a la otra
// tienda en su razón. Un fallo en la pata destino no deja la origen debitada.
func (uc *UseCase) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.UserID == "" {
		return nil, domain.ErrMissingActor
	}
	if in.ProductID == "" || in.FromStoreID == "" || in.ToStoreID == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.FromStoreID == in.ToStoreID || in.Quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	transferID := uuid.New().String()
	result := &TransferResult{}

	audit := atomic.Audit{
		Event:   entity.AuditEventTransferRollback,
		UserID:  in.UserID,
		StoreID: in.FromStoreID,
		Details: map[string]any{
			"operation":   "transfer",
			"productId":   in.ProductID,
			"fromStoreId": in.FromStoreID,
			"toStoreId":   in.ToStoreID,
			"quantity":    in.Quantity,
		},
	}
	err := uc.co.RunStock(ctx, audit, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error {
		// Bloquea la fila de la tienda origen y verifica disponibilidad
		origin, err := stockRepo.GetForUpdate(ctx, in.ProductID, in.FromStoreID)
		if err != nil {
			return err
		}
		if origin == nil || origin.Quantity < in.Quantity {
			return fmt.Errorf("producto %s: %w", in.ProductID, domain.ErrInsufficientSourceStock)
		}
		dest, err := lockOrInit(ctx, stockRepo, in.ProductID, in.ToStoreID, now)
		if err != nil {
			return err
		}

		prevOrigin := origin.Quantity
		prevDest := dest.Quantity
		origin.Quantity = prevOrigin - in.Quantity
		dest.Quantity = prevDest + in.Quantity
		origin.LastUpdated = now
		dest.LastUpdated = now
		if err := stockRepo.Upsert(ctx, origin); err != nil {
			return err
		}
		if err := stockRepo.Upsert(ctx, dest); err != nil {
			return err
		}

		// Salida en origen, nombrando la tienda destino
		result.Out = &entity.StockMovement{
			ID:                       uuid.New().String(),
			ProductID:                in.ProductID,
			StoreID:                  in.FromStoreID,
			Type:                     entity.MovementTypeTransferOut,
			Quantity:                 -in.Quantity,
			PreviousQuantity:         prevOrigin,
			NewQuantity:              origin.Quantity,
			PreviousReservedQuantity: origin.ReservedQuantity,
			NewReservedQuantity:      origin.ReservedQuantity,
			Reason:                   fmt.Sprintf("Transfert vers magasin %s - %s", in.ToStoreID, in.Reason),
			Reference:                transferID,
			ReferenceType:            entity.ReferenceTypeTransfer,
			UserID:                   in.UserID,
			CreatedAt:                now,
		}
		if err := movRepo.Create(ctx, result.Out); err != nil {
			return err
		}
		// Entrada en destino, nombrando la tienda origen
		result.In = &entity.StockMovement{
			ID:                       uuid.New().String(),
			ProductID:                in.ProductID,
			StoreID:                  in.ToStoreID,
			Type:                     entity.MovementTypeTransferIn,
			Quantity:                 in.Quantity,
			PreviousQuantity:         prevDest,
			NewQuantity:              dest.Quantity,
			PreviousReservedQuantity: dest.ReservedQuantity,
			NewReservedQuantity:      dest.ReservedQuantity,
			Reason:                   fmt.Sprintf("Transfert depuis magasin %s - %s", in.FromStoreID, in.Reason),
			Reference:                transferID,
			ReferenceType:            entity.ReferenceTypeTransfer,
			UserID:                   in.UserID,
			CreatedAt:                now,
		}
		return movRepo.Create(ctx, result.In)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
