package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Comercio-api/internal/application/billing"
	"github.com/jhoicas/Comercio-api/internal/application/stock"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC       *stock.UseCase
	CreateInvoice *billing.CreateInvoiceUseCase
	Lifecycle     *billing.LifecycleUseCase
	JWTSecret     string
}

// Router registra las rutas de la API. Todas las operaciones de stock y
// facturación exigen Bearer Token: el actor del token queda registrado en
// cada movimiento y entrada de historial.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Stock por tienda (protegido)
	stockHandler := NewStockHandler(deps.StockUC)
	stores := protected.Group("/stores/:storeId")
	stores.Get("/stock", stockHandler.ListStock)
	stores.Get("/stock/low", stockHandler.ListLowStock)
	stores.Get("/stock/indicators", stockHandler.GetIndicators)
	stores.Post("/stock/adjust", stockHandler.Adjust)
	stores.Post("/stock/reserve", stockHandler.Reserve)
	stores.Post("/stock/release", stockHandler.Release)
	stores.Get("/stock/:productId", stockHandler.GetStock)
	stores.Get("/stock/:productId/availability", stockHandler.CheckAvailability)
	stores.Post("/movements", stockHandler.RegisterMovement)
	stores.Get("/movements", stockHandler.ListMovements)

	// Traslados y consultas transversales del libro (protegido)
	protected.Get("/stock/indicators", stockHandler.GetGlobalIndicators)
	protected.Post("/stock/transfers", stockHandler.Transfer)
	protected.Get("/movements/reference/:reference", stockHandler.ListByReference)
	protected.Get("/movements/actor/:userId", stockHandler.ListByActor)

	// Facturas (protegido)
	invoiceHandler := NewInvoiceHandler(deps.CreateInvoice, deps.Lifecycle)
	invoices := protected.Group("/invoices")
	invoices.Post("/", invoiceHandler.Create)
	invoices.Get("/", invoiceHandler.List)
	invoices.Get("/number/:number", invoiceHandler.GetByNumber)
	invoices.Get("/:id", invoiceHandler.GetByID)
	invoices.Put("/:id", invoiceHandler.Update)
	invoices.Delete("/:id", invoiceHandler.Cancel)
	invoices.Post("/:id/wait", invoiceHandler.Hold)
	invoices.Post("/:id/validate", invoiceHandler.Validate)
	invoices.Post("/:id/payments", invoiceHandler.RecordPayment)
	invoices.Patch("/:id/add-lines", invoiceHandler.AddLines)
	invoices.Patch("/:id/remove-line", invoiceHandler.RemoveLine)
}
