package stock

import (
	"context"
	"time"

	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

// Indicators indicadores agregados del stock de una tienda, calculados en
// lectura a partir de los registros (nunca se persisten).
type Indicators struct {
	Active     int `json:"nbActives"`   // posiciones con cantidad > 0
	OutOfStock int `json:"nbRuptures"`  // posiciones agotadas
	LowStock   int `json:"nbAlertes"`   // posiciones en o bajo el umbral mínimo
	Positions  int `json:"nbPositions"` // posiciones totales
}

// GetStock devuelve el registro de stock de un producto en una tienda.
func (uc *UseCase) GetStock(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	rec, err := uc.stockRepo.Get(ctx, productID, storeID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return rec, nil
}

// ListStock lista las posiciones de stock de una tienda (más recientes primero).
func (uc *UseCase) ListStock(ctx context.Context, storeID string, limit, offset int) ([]*entity.Stock, error) {
	if storeID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.stockRepo.ListByStore(ctx, storeID, normalizeLimit(limit), offset)
}

// ListLowStock lista las posiciones en o bajo su umbral mínimo (alimenta alertas externas).
func (uc *UseCase) ListLowStock(ctx context.Context, storeID string) ([]*entity.Stock, error) {
	if storeID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.stockRepo.ListLowStock(ctx, storeID)
}

// GetIndicators calcula los indicadores clave del stock de una tienda.
func (uc *UseCase) GetIndicators(ctx context.Context, storeID string) (*Indicators, error) {
	if storeID == "" {
		return nil, domain.ErrInvalidInput
	}
	// Recorre por páginas para no cargar tiendas grandes de una vez
	const page = 500
	ind := &Indicators{}
	for offset := 0; ; offset += page {
		records, err := uc.stockRepo.ListByStore(ctx, storeID, page, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			ind.Positions++
			switch {
			case rec.IsOutOfStock():
				ind.OutOfStock++
			case rec.IsLowStock():
				ind.LowStock++
				ind.Active++
			default:
				ind.Active++
			}
		}
		if len(records) < page {
			break
		}
	}
	return ind, nil
}

// GetGlobalIndicators calcula los indicadores agregados sobre todas las
// tiendas (tablero de administración).
func (uc *UseCase) GetGlobalIndicators(ctx context.Context) (*Indicators, error) {
	const page = 500
	ind := &Indicators{}
	for offset := 0; ; offset += page {
		records, err := uc.stockRepo.ListAll(ctx, page, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			ind.Positions++
			switch {
			case rec.IsOutOfStock():
				ind.OutOfStock++
			case rec.IsLowStock():
				ind.LowStock++
				ind.Active++
			default:
				ind.Active++
			}
		}
		if len(records) < page {
			break
		}
	}
	return ind, nil
}

// Availability respuesta de la consulta rápida de disponibilidad.
type Availability struct {
	ProductID string `json:"productId"`
	StoreID   string `json:"storeId"`
	Available bool   `json:"disponible"`
	Quantity  int64  `json:"quantite"`
}

// CheckAvailability responde si un producto tiene existencias en una tienda.
// Un producto sin registro de stock no está disponible (ErrNotFound).
func (uc *UseCase) CheckAvailability(ctx context.Context, productID, storeID string) (*Availability, error) {
	if productID == "" || storeID == "" {
		return nil, domain.ErrInvalidInput
	}
	rec, err := uc.stockRepo.Get(ctx, productID, storeID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	return &Availability{
		ProductID: productID,
		StoreID:   storeID,
		Available: rec.Quantity > 0,
		Quantity:  rec.Quantity,
	}, nil
}

// ListMovements lista los movimientos de una tienda, más recientes primero,
// con filtros opcionales por producto, tipo, actor y rango de fechas.
func (uc *UseCase) ListMovements(ctx context.Context, storeID, productID string, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, int64, error) {
	if storeID == "" {
		return nil, 0, domain.ErrInvalidInput
	}
	limit = normalizeLimit(limit)
	var (
		movements []*entity.StockMovement
		err       error
	)
	if productID != "" {
		movements, err = uc.movRepo.ListByProductAndStore(ctx, productID, storeID, f, limit, offset)
	} else {
		movements, err = uc.movRepo.ListByStore(ctx, storeID, f, limit, offset)
	}
	if err != nil {
		return nil, 0, err
	}
	total, err := uc.movRepo.CountByStore(ctx, storeID, f)
	if err != nil {
		return nil, 0, err
	}
	return movements, total, nil
}

// ListMovementsByReference lista los movimientos causados por un documento
// (ej. los OUT y RELEASE de un número de factura).
func (uc *UseCase) ListMovementsByReference(ctx context.Context, reference, referenceType string) ([]*entity.StockMovement, error) {
	if reference == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movRepo.ListByReference(ctx, reference, referenceType)
}

// ListMovementsByActor lista los movimientos registrados por un usuario.
func (uc *UseCase) ListMovementsByActor(ctx context.Context, userID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movRepo.ListByActor(ctx, userID, from, to, normalizeLimit(limit), offset)
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
