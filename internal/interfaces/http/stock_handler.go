package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Comercio-api/internal/application/dto"
	"github.com/jhoicas/Comercio-api/internal/application/stock"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

// StockHandler maneja las peticiones HTTP de stock y movimientos (protegido).
type StockHandler struct {
	uc *stock.UseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *stock.UseCase) *StockHandler {
	return &StockHandler{uc: uc}
}

// ListStock godoc
// @Summary      Listar posiciones de stock de una tienda
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        storeId  path   string  true   "tienda"
// @Param        page     query  int     false  "página (desde 1)"
// @Param        limit    query  int     false  "tamaño de página"
// @Success      200  {array}  dto.StockResponse
// @Router       /api/stores/{storeId}/stock [get]
func (h *StockHandler) ListStock(c *fiber.Ctx) error {
	storeID := c.Params("storeId")
	if err := RequireStoreAccess(c, storeID); err != nil {
		return err
	}
	p := dto.NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", 50), 0)
	list, err := h.uc.ListStock(c.Context(), storeID, p.Limit, p.Offset())
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"stock": dto.ToStockResponses(list), "page": p.Page, "limit": p.Limit})
}

// ListLowStock godoc
// @Summary      Posiciones en o bajo su umbral mínimo
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        storeId  path  string  true  "tienda"
// @Success      200  {array}  dto.StockResponse
// @Router       /api/stores/{storeId}/stock/low [get]
func (h *StockHandler) ListLowStock(c *fiber.Ctx) error {
	storeID := c.Params("storeId")
	if err := RequireStoreAccess(c, storeID); err != nil {
		return err
	}
	list, err := h.uc.ListLowStock(c.Context(), storeID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(dto.ToStockResponses(list))
}

// GetIndicators godoc
// @Summary      Indicadores agregados del stock de la tienda
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        storeId  path  string  true  "tienda"
// @Success      200  {object}  stock.Indicators
// @Router       /api/stores/{storeId}/stock/indicators [get]
func (h *StockHandler) GetIndicators(c *fiber.Ctx) error {
	storeID := c.Params("storeId")
	if err := RequireStoreAccess(c, storeID); err != nil {
		return err
	}
	ind, err := h.uc.GetIndicators(c.Context(), storeID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(ind)
}

// GetGlobalIndicators godoc
// @Summary      Indicadores agregados del stock de todas las tiendas
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  stock.Indicators
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock/indicators [get]
func (h *StockHandler) GetGlobalIndicators(c *fiber.Ctx) error {
	// Tablero transversal: solo admin ve el agregado de todas las tiendas
	if GetRole(c) != "admin" {
		return fiber.NewError(fiber.StatusForbidden, "reservado a administradores")
	}
	ind, err := h.uc.GetGlobalIndicators(c.Context())
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(ind)
}

// CheckAvailability godoc
// @Summary      Disponibilidad de un producto en la tienda
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        storeId    path  string  true  "tienda"
// @Param        productId  path  string  true  "producto"
// @Success      200  {object}  stock.Availability
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stores/{storeId}/stock/{productId}/availability [get]
func (h *StockHandler) CheckAvailability(c *fiber.Ctx) error {
	storeID := c.Params("storeId")
	if err := RequireStoreAccess(c, storeID); err != nil {
		return err
	}
	av, err := h.uc.CheckAvailability(c.Context(), c.Params("productId"), storeID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(av)
}

// GetStock godoc
// @Summary      Posición de stock de un producto en la tienda
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        storeId    path  string  true  "tienda"
// @Param        productId  path  string  true  "producto"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stores/{storeId}/stock/{productId} [get]
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	storeID := c.Params("storeId")
	if err := RequireStoreAccess(c, storeID); err != nil {
		return err
	}
	rec, err := h.uc.GetStock(c.Context(), c.Params("productId"), storeID)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(dto.ToStockResponse(rec))
}

// RegisterMovement godoc
// @Summary      Registrar movimiento manual (IN, OUT o ADJUSTMENT)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        storeId  path  string                       true  "tienda"
// @Param        body     body  dto.RegisterMovementRequest  true  "productId, type, quantity, reason"
// @Success      201  {object}  dto.MovementResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stores/{storeId}/movements [post]
func (h *StockHandler) RegisterMovement(c *fiber.Ctx) error {
	storeID := c.Params("storeId")
	if err := RequireStoreAccess(c, storeID); err != nil {
		return err
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	m, err := h.uc.RegisterMovement(c.Context(), stock.MovementInput{
		ProductID:     in.ProductID,
		StoreID:       storeID,
		Type:          in.Type,
		Quantity:      in.Quantity,
		Reason:        in.Reason,
		Reference:     in.Reference,
		ReferenceType: in.ReferenceType,
		UserID:        GetUserID(c),
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToMovementResponse(m))
}

// ListMovements godoc
// @Summary      Historial de movimientos de la tienda
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        storeId    path   string  true   "tienda"
// @Param        productId  query  string  false  "filtrar por producto"
// @Param        type       query  string  false  "filtrar por tipo de movimiento"
// @Param        userId     query  string  false  "filtrar por actor"
// @Param        from       query  string  false  "desde (RFC3339)"
// @Param        to         query  string  false  "hasta (RFC3339)"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/stores/{storeId}/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	storeID := c.Params("storeId")
	if err := RequireStoreAccess(c, storeID); err != nil {
		return err
	}
	f := repository.MovementFilter{
		Type:   c.Query("type"),
		UserID: c.Query("userId"),
	}
	var badTime bool
	f.From, badTime = parseTimeQuery(c, "from")
	if badTime {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido (RFC3339)"})
	}
	f.To, badTime = parseTimeQuery(c, "to")
	if badTime {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido (RFC3339)"})
	}
	p := dto.NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", 50), 0)
	list, total, err := h.uc.ListMovements(c.Context(), storeID, c.Query("productId"), f, p.Limit, p.Offset())
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{
		"movements":  dto.ToMovementResponses(list),
		"pagination": dto.NewPagination(p.Page, p.Limit, total),
	})
}

// ListByReference godoc
// @Summary      Movimientos ligados a una referencia (factura, traslado)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        reference      path   string  true   "referencia"
// @Param        referenceType  query  string  false  "tipo de referencia"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/movements/reference/{reference} [get]
func (h *StockHandler) ListByReference(c *fiber.Ctx) error {
	list, err := h.uc.ListMovementsByReference(c.Context(), c.Params("reference"), c.Query("referenceType"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(dto.ToMovementResponses(list))
}

// ListByActor godoc
// @Summary      Movimientos registrados por un usuario
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        userId  path   string  true   "actor"
// @Param        from    query  string  false  "desde (RFC3339)"
// @Param        to      query  string  false  "hasta (RFC3339)"
// @Success      200  {array}  dto.MovementResponse
// @Router       /api/movements/actor/{userId} [get]
func (h *StockHandler) ListByActor(c *fiber.Ctx) error {
	from, badTime := parseTimeQuery(c, "from")
	if badTime {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "from inválido (RFC3339)"})
	}
	to, badTime := parseTimeQuery(c, "to")
	if badTime {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "to inválido (RFC3339)"})
	}
	p := dto.NewPagination(c.QueryInt("page", 1), c.QueryInt("limit", 50), 0)
	list, err := h.uc.ListMovementsByActor(c.Context(), c.Params("userId"), from, to, p.Limit, p.Offset())
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(dto.ToMovementResponses(list))
}

// Adjust godoc
// @Summary      Ajuste manual de stock a valor absoluto
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        storeId  path  string                  true  "tienda"
// @Param        body     body  dto.AdjustStockRequest  true  "productId, newQuantity, reason"
// @Success      200  {object}  dto.MovementResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stores/{storeId}/stock/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	storeID := c.Params("storeId")
	if err := RequireStoreAccess(c, storeID); err != nil {
		return err
	}
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	m, err := h.uc.Adjust(c.Context(), in.ProductID, storeID, in.NewQuantity, in.Reason, GetUserID(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(dto.ToMovementResponse(m))
}

// Reserve godoc
// @Summary      Reservar stock para un pedido pendiente
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        storeId  path  string                   true  "tienda"
// @Param        body     body  dto.ReserveStockRequest  true  "productId, quantity, reason"
// @Success      200  {object}  dto.MovementResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stores/{storeId}/stock/reserve [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	return h.reserveOrRelease(c, true)
}

// Release godoc
// @Summary      Liberar stock reservado
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        storeId  path  string                   true  "tienda"
// @Param        body     body  dto.ReserveStockRequest  true  "productId, quantity, reason"
// @Success      200  {object}  dto.MovementResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stores/{storeId}/stock/release [post]
func (h *StockHandler) Release(c *fiber.Ctx) error {
	return h.reserveOrRelease(c, false)
}

func (h *StockHandler) reserveOrRelease(c *fiber.Ctx, reserve bool) error {
	storeID := c.Params("storeId")
	if err := RequireStoreAccess(c, storeID); err != nil {
		return err
	}
	var in dto.ReserveStockRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if reserve {
		mv, err := h.uc.Reserve(c.Context(), in.ProductID, storeID, in.Quantity, in.Reason, GetUserID(c))
		if err != nil {
			return mapError(c, err)
		}
		return c.JSON(dto.ToMovementResponse(mv))
	}
	mv, err := h.uc.ReleaseReserved(c.Context(), in.ProductID, storeID, in.Quantity, in.Reason, GetUserID(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(dto.ToMovementResponse(mv))
}

// Transfer godoc
// @Summary      Trasladar stock entre tiendas (ámbito atómico de dos patas)
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "productId, fromStoreId, toStoreId, quantity"
// @Success      201  {object}  map[string]dto.MovementResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/stock/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := RequireStoreAccess(c, in.FromStoreID); err != nil {
		return err
	}
	if err := RequireStoreAccess(c, in.ToStoreID); err != nil {
		return err
	}
	res, err := h.uc.Transfer(c.Context(), stock.TransferInput{
		ProductID:   in.ProductID,
		FromStoreID: in.FromStoreID,
		ToStoreID:   in.ToStoreID,
		Quantity:    in.Quantity,
		Reason:      in.Reason,
		UserID:      GetUserID(c),
	})
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"out": dto.ToMovementResponse(res.Out),
		"in":  dto.ToMovementResponse(res.In),
	})
}

func parseTimeQuery(c *fiber.Ctx, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, true
	}
	return &t, false
}
