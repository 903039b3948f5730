package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Comercio-api/internal/application/billing"
	"github.com/jhoicas/Comercio-api/internal/application/dto"
)

// InvoiceHandler maneja las peticiones HTTP del ciclo de vida de facturas (protegido).
type InvoiceHandler struct {
	create    *billing.CreateInvoiceUseCase
	lifecycle *billing.LifecycleUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(create *billing.CreateInvoiceUseCase, lifecycle *billing.LifecycleUseCase) *InvoiceHandler {
	return &InvoiceHandler{create: create, lifecycle: lifecycle}
}

// Create godoc
// @Summary      Crear factura con débito de stock atómico
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "clientId, storeId, lines, amountPaid"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := RequireStoreAccess(c, in.StoreID); err != nil {
		return err
	}
	resp, err := h.create.CreateInvoice(c.Context(), GetUserID(c), in)
	if err != nil {
		return mapError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        page   query  int  false  "página (desde 1)"
// @Param        limit  query  int  false  "tamaño de página"
// @Success      200  {array}  dto.InvoiceResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	p := dto.NewPagination(page, limit, 0)
	list, err := h.create.ListInvoices(c.Context(), p.Limit, p.Offset())
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"invoices": list, "page": p.Page, "limit": p.Limit})
}

// GetByID godoc
// @Summary      Obtener factura por id
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "id de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	resp, err := h.create.GetInvoice(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(resp)
}

// GetByNumber godoc
// @Summary      Obtener factura por número (INV-AAAA-NNNN)
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        number  path  string  true  "número de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/number/{number} [get]
func (h *InvoiceHandler) GetByNumber(c *fiber.Ctx) error {
	resp, err := h.create.GetInvoiceByNumber(c.Context(), c.Params("number"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(resp)
}

// Update godoc
// @Summary      Modificar campos generales de la factura
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "id de la factura"
// @Param        body  body  dto.UpdateInvoiceRequest  true  "campos a modificar"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [put]
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.lifecycle.Update(c.Context(), c.Params("id"), in, GetUserID(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(resp)
}

// Cancel godoc
// @Summary      Anular factura y reponer el stock de sus líneas
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "id de la factura"
// @Param        body  body  dto.CancelInvoiceRequest  true  "motivo de anulación"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelInvoiceRequest
	if err := c.BodyParser(&in); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.lifecycle.Cancel(c.Context(), c.Params("id"), in.Reason, GetUserID(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(resp)
}

// Hold godoc
// @Summary      Poner la factura en espera
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "id de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Router       /api/invoices/{id}/wait [post]
func (h *InvoiceHandler) Hold(c *fiber.Ctx) error {
	resp, err := h.lifecycle.Hold(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(resp)
}

// Validate godoc
// @Summary      Validar la factura (idempotente)
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "id de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Router       /api/invoices/{id}/validate [post]
func (h *InvoiceHandler) Validate(c *fiber.Ctx) error {
	resp, err := h.lifecycle.Validate(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(resp)
}

// RecordPayment godoc
// @Summary      Registrar un pago parcial o total
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true  "id de la factura"
// @Param        body  body  dto.PaymentRequest  true  "amount, method"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *fiber.Ctx) error {
	var in dto.PaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.lifecycle.RecordPayment(c.Context(), c.Params("id"), in, GetUserID(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(resp)
}

// AddLines godoc
// @Summary      Agregar líneas a una factura existente (débito de stock atómico)
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "id de la factura"
// @Param        body  body  dto.AddLinesRequest  true  "líneas a agregar"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/add-lines [patch]
func (h *InvoiceHandler) AddLines(c *fiber.Ctx) error {
	var in dto.AddLinesRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.lifecycle.AddLines(c.Context(), c.Params("id"), in, GetUserID(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(resp)
}

// RemoveLine godoc
// @Summary      Suprimir una línea y reponer su stock
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "id de la factura"
// @Param        body  body  dto.RemoveLineRequest  true  "lineId"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/remove-line [patch]
func (h *InvoiceHandler) RemoveLine(c *fiber.Ctx) error {
	var in dto.RemoveLineRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.lifecycle.RemoveLine(c.Context(), c.Params("id"), in.LineID, GetUserID(c))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(resp)
}
