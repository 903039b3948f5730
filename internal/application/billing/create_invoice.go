package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Comercio-api/internal/application/atomic"
	"github.com/jhoicas/Comercio-api/internal/application/dto"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
	"github.com/jhoicas/Comercio-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// CreateInvoiceUseCase crea una factura y descuenta el stock en una sola
// transacción: numeración, descuentos por línea, movimientos OUT y el insert
// de la factura comparten el mismo ámbito atómico. Si cualquier paso falla,
// nada queda persistido.
type CreateInvoiceUseCase struct {
	co          *atomic.Coordinator
	inventory   InventoryPort
	invoiceRepo repository.InvoiceRepository // atado al pool; solo lecturas
	log         *logger.Logger
}

// NewCreateInvoiceUseCase construye el caso de uso.
func NewCreateInvoiceUseCase(
	co *atomic.Coordinator,
	inventory InventoryPort,
	invoiceRepo repository.InvoiceRepository,
	log *logger.Logger,
) *CreateInvoiceUseCase {
	return &CreateInvoiceUseCase{
		co:          co,
		inventory:   inventory,
		invoiceRepo: invoiceRepo,
		log:         log.Component("billing"),
	}
}

// CreateInvoice valida el borrador, asigna el número desde el contador anual y,
// por cada línea en el orden enviado, descuenta el stock y agrega el movimiento
// OUT que referencia ese número; persiste la factura con su primera entrada de
// historial. Todo o nada.
func (uc *CreateInvoiceUseCase) CreateInvoice(ctx context.Context, userID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	if userID == "" {
		return nil, domain.ErrMissingActor
	}
	if in.ClientID == "" {
		return nil, domain.ErrMissingClient
	}
	if in.StoreID == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(in.Lines) == 0 {
		return nil, domain.ErrEmptyLines
	}
	if in.AmountPaid.IsNegative() {
		return nil, domain.ErrInvalidInput
	}

	lines, err := buildLines(in.Lines)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	date := now
	if in.Date != nil {
		date = *in.Date
	}

	inv := &entity.Invoice{
		ID:         uuid.New().String(),
		Date:       date,
		ClientID:   in.ClientID,
		StoreID:    in.StoreID,
		UserID:     userID,
		Lines:      lines,
		AmountPaid: in.AmountPaid,
		Format:     in.Format,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	inv.RecomputeTotals()
	if inv.AmountPaid.GreaterThan(inv.Total) {
		return nil, domain.ErrPaymentExceedsTotal
	}
	inv.Status = inv.DeriveStatus()
	inv.AppendHistory(entity.ActionCreated, userID, "Création de la facture", now)
	if inv.AmountPaid.GreaterThan(decimal.Zero) {
		inv.PaymentHistory = append(inv.PaymentHistory, entity.PaymentEntry{
			Amount: inv.AmountPaid,
			Method: in.Method,
			UserID: userID,
			Date:   now,
		})
	}

	oversold := false
	audit := atomic.Audit{
		Event:     entity.AuditEventInvoiceRollback,
		InvoiceID: inv.ID,
		UserID:    userID,
		StoreID:   in.StoreID,
		Details: map[string]any{
			"operation": "create_invoice",
			"clientId":  in.ClientID,
			"lines":     len(in.Lines),
		},
	}
	err = uc.co.RunBilling(ctx, audit, func(
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		invoiceRepo repository.InvoiceRepository,
		counterRepo repository.InvoiceCounterRepository,
	) error {
		number, err := nextNumberInTx(ctx, counterRepo, now)
		if err != nil {
			return err
		}
		inv.Number = number

		// Descuento de stock línea por línea, en el orden enviado: el libro de
		// movimientos conserva ese orden para la legibilidad de la auditoría.
		for _, line := range inv.Lines {
			_, lineOversold, err := uc.inventory.OutInTx(
				ctx,
				stockRepo, movRepo,
				line.ProductID, inv.StoreID, userID,
				line.Quantity,
				number,
				fmt.Sprintf("Vente facture %s", number),
				now,
			)
			if err != nil {
				return err
			}
			oversold = oversold || lineOversold
		}

		return invoiceRepo.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("invoice", inv.Number).
		Str("storeId", inv.StoreID).
		Int("lines", len(inv.Lines)).
		Bool("oversold", oversold).
		Msg("factura creada")
	return dto.ToInvoiceResponse(inv, oversold), nil
}

// buildLines valida y materializa las líneas del borrador con sus totales.
func buildLines(reqs []dto.InvoiceLineRequest) ([]entity.InvoiceLine, error) {
	lines := make([]entity.InvoiceLine, 0, len(reqs))
	for _, r := range reqs {
		line, err := buildLine(r)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func buildLine(r dto.InvoiceLineRequest) (entity.InvoiceLine, error) {
	if r.ProductID == "" || r.ProductName == "" || r.Quantity <= 0 {
		return entity.InvoiceLine{}, fmt.Errorf("línea de producto %q: %w", r.ProductID, domain.ErrInvalidInput)
	}
	if r.UnitPrice.IsNegative() || r.Discount.IsNegative() {
		return entity.InvoiceLine{}, fmt.Errorf("línea de producto %q: %w", r.ProductID, domain.ErrInvalidInput)
	}
	lineTotal := r.UnitPrice.Mul(decimal.NewFromInt(r.Quantity)).Sub(r.Discount)
	if lineTotal.IsNegative() {
		return entity.InvoiceLine{}, fmt.Errorf("línea de producto %q: %w", r.ProductID, domain.ErrInvalidInput)
	}
	return entity.InvoiceLine{
		ID:          uuid.New().String(),
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		UnitPrice:   r.UnitPrice,
		Discount:    r.Discount,
		LineTotal:   lineTotal,
	}, nil
}
