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
	"github.com/jhoicas/Comercio-api/pkg/logger"
)

// Policy política de stock del motor.
// AllowNegative: modo permisivo legado que tolera sobreventa en salidas por
// factura (la cantidad en mano puede quedar negativa, con advertencia).
// CreateMissing: crea el registro en cero cuando una factura referencia un
// (producto, tienda) sin registro; en modo estricto la ausencia aborta.
type Policy struct {
	AllowNegative bool
	CreateMissing bool
}

// UseCase opera los registros de stock y el libro de movimientos de forma
// transaccional (movimientos manuales, ajustes, reservas y traslados).
type UseCase struct {
	co        *atomic.Coordinator
	stockRepo repository.StockRepository         // atado al pool; solo lecturas
	movRepo   repository.StockMovementRepository // atado al pool; solo lecturas
	policy    Policy
	log       *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	co *atomic.Coordinator,
	stockRepo repository.StockRepository,
	movRepo repository.StockMovementRepository,
	policy Policy,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		co:        co,
		stockRepo: stockRepo,
		movRepo:   movRepo,
		policy:    policy,
		log:       log.Component("stock"),
	}
}

// MovementInput entrada para registrar un movimiento manual (IN, OUT o ADJUSTMENT).
// Para ADJUSTMENT, Quantity es la nueva cantidad absoluta.
type MovementInput struct {
	ProductID     string
	StoreID       string
	Type          string
	Quantity      int64
	Reason        string
	Reference     string
	ReferenceType string
	UserID        string
}

// RegisterMovement registra un movimiento manual de stock en un ámbito atómico:
// bloquea la fila (SELECT FOR UPDATE), aplica el cambio según tipo y agrega la
// entrada al libro. La salida manual siempre es estricta: no admite sobreventa.
func (uc *UseCase) RegisterMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	if in.UserID == "" {
		return nil, domain.ErrMissingActor
	}
	if in.ProductID == "" || in.StoreID == "" {
		return nil, domain.ErrInvalidInput
	}
	switch in.Type {
	case entity.MovementTypeIN, entity.MovementTypeOUT:
		if in.Quantity <= 0 {
			return nil, domain.ErrInvalidInput
		}
	case entity.MovementTypeADJUSTMENT:
		if in.Quantity < 0 {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, domain.ErrInvalidInput
	}
	if in.ReferenceType != "" && !entity.KnownReferenceType(in.ReferenceType) {
		return nil, domain.ErrInvalidInput
	}

	now := time.Now()
	var mov *entity.StockMovement

	audit := atomic.Audit{
		Event:   entity.AuditEventStockError,
		UserID:  in.UserID,
		StoreID: in.StoreID,
		Details: map[string]any{
			"operation": "register_movement",
			"type":      in.Type,
			"productId": in.ProductID,
			"quantity":  in.Quantity,
		},
	}
	err := uc.co.RunStock(ctx, audit, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error {
		rec, err := lockOrInit(ctx, stockRepo, in.ProductID, in.StoreID, now)
		if err != nil {
			return err
		}
		prev := rec.Quantity
		switch in.Type {
		case entity.MovementTypeIN:
			rec.Quantity = prev + in.Quantity
		case entity.MovementTypeOUT:
			if in.Quantity > prev {
				return fmt.Errorf("producto %s: %w", in.ProductID, domain.ErrInsufficientStock)
			}
			rec.Quantity = prev - in.Quantity
		case entity.MovementTypeADJUSTMENT:
			rec.Quantity = in.Quantity
		}
		rec.LastUpdated = now
		if err := stockRepo.Upsert(ctx, rec); err != nil {
			return err
		}

		refType := in.ReferenceType
		if refType == "" {
			if in.Type == entity.MovementTypeADJUSTMENT {
				refType = entity.ReferenceTypeAdjustment
			} else {
				refType = entity.ReferenceTypeManual
			}
		}
		mov = &entity.StockMovement{
			ID:                       uuid.New().String(),
			ProductID:                in.ProductID,
			StoreID:                  in.StoreID,
			Type:                     in.Type,
			Quantity:                 in.Quantity,
			PreviousQuantity:         prev,
			NewQuantity:              rec.Quantity,
			PreviousReservedQuantity: rec.ReservedQuantity,
			NewReservedQuantity:      rec.ReservedQuantity,
			Reason:                   in.Reason,
			Reference:                in.Reference,
			ReferenceType:            refType,
			UserID:                   in.UserID,
			CreatedAt:                now,
		}
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// Adjust fija la cantidad absoluta de un registro (ajuste manual).
// Rechaza cantidades negativas.
func (uc *UseCase) Adjust(ctx context.Context, productID, storeID string, newQuantity int64, reason, userID string) (*entity.StockMovement, error) {
	if reason == "" {
		reason = "Ajustement manuel"
	}
	return uc.RegisterMovement(ctx, MovementInput{
		ProductID: productID,
		StoreID:   storeID,
		Type:      entity.MovementTypeADJUSTMENT,
		Quantity:  newQuantity,
		Reason:    reason,
		UserID:    userID,
	})
}

// Reserve aparta cantidad para un pedido pendiente. Falla si la cantidad
// disponible (en mano menos ya reservada) es menor que la solicitada.
func (uc *UseCase) Reserve(ctx context.Context, productID, storeID string, quantity int64, reason, userID string) (*entity.StockMovement, error) {
	return uc.moveReserved(ctx, productID, storeID, quantity, reason, userID, true)
}

// ReleaseReserved libera cantidad previamente reservada. Falla si la cantidad
// reservada es menor que la solicitada.
func (uc *UseCase) ReleaseReserved(ctx context.Context, productID, storeID string, quantity int64, reason, userID string) (*entity.StockMovement, error) {
	return uc.moveReserved(ctx, productID, storeID, quantity, reason, userID, false)
}

func (uc *UseCase) moveReserved(ctx context.Context, productID, storeID string, quantity int64, reason, userID string, reserve bool) (*entity.StockMovement, error) {
	if userID == "" {
		return nil, domain.ErrMissingActor
	}
	if productID == "" || storeID == "" || quantity <= 0 {
		return nil, domain.ErrInvalidInput
	}

	op := "release_reserved"
	if reserve {
		op = "reserve"
	}
	now := time.Now()
	var mov *entity.StockMovement

	audit := atomic.Audit{
		Event:   entity.AuditEventStockError,
		UserID:  userID,
		StoreID: storeID,
		Details: map[string]any{
			"operation": op,
			"productId": productID,
			"quantity":  quantity,
		},
	}
	err := uc.co.RunStock(ctx, audit, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
	) error {
		rec, err := lockOrInit(ctx, stockRepo, productID, storeID, now)
		if err != nil {
			return err
		}
		prevReserved := rec.ReservedQuantity
		movType := entity.MovementTypeRelease
		if reserve {
			if rec.Available() < quantity {
				return fmt.Errorf("producto %s: %w", productID, domain.ErrInsufficientAvailable)
			}
			rec.ReservedQuantity = prevReserved + quantity
			movType = entity.MovementTypeReservation
		} else {
			if prevReserved < quantity {
				return fmt.Errorf("producto %s: %w", productID, domain.ErrInsufficientReserved)
			}
			rec.ReservedQuantity = prevReserved - quantity
		}
		rec.LastUpdated = now
		if err := stockRepo.Upsert(ctx, rec); err != nil {
			return err
		}

		mov = &entity.StockMovement{
			ID:                       uuid.New().String(),
			ProductID:                productID,
			StoreID:                  storeID,
			Type:                     movType,
			Quantity:                 quantity,
			PreviousQuantity:         rec.Quantity,
			NewQuantity:              rec.Quantity,
			PreviousReservedQuantity: prevReserved,
			NewReservedQuantity:      rec.ReservedQuantity,
			Reason:                   reason,
			ReferenceType:            entity.ReferenceTypeManual,
			UserID:                   userID,
			CreatedAt:                now,
		}
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// lockOrInit bloquea la fila de stock o la inicializa en cero si no existe.
// Los registros se crean perezosamente con el primer movimiento que los referencia.
func lockOrInit(ctx context.Context, stockRepo repository.StockRepository, productID, storeID string, now time.Time) (*entity.Stock, error) {
	rec, err := stockRepo.GetForUpdate(ctx, productID, storeID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &entity.Stock{
			ProductID:   productID,
			StoreID:     storeID,
			IsActive:    true,
			LastUpdated: now,
		}
	}
	return rec, nil
}
