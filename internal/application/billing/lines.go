package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Comercio-api/internal/application/dto"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

// AddLines agrega líneas a una factura existente: por cada línea aceptada
// descuenta el stock con su movimiento OUT, recalcula totales y agrega la
// entrada de historial. Atómico con la escritura de la factura.
func (uc *LifecycleUseCase) AddLines(ctx context.Context, id string, in dto.AddLinesRequest, userID string) (*dto.InvoiceResponse, error) {
	if len(in.Lines) == 0 {
		return nil, domain.ErrEmptyLines
	}
	newLines, err := buildLines(in.Lines)
	if err != nil {
		return nil, err
	}

	oversold := false
	inv, err := uc.mutate(ctx, id, userID, "add_lines", func(
		inv *entity.Invoice,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		now time.Time,
	) error {
		if inv.IsCancelled() {
			return domain.ErrAlreadyCancelled
		}
		for _, line := range newLines {
			_, lineOversold, err := uc.inventory.OutInTx(
				ctx,
				stockRepo, movRepo,
				line.ProductID, inv.StoreID, userID,
				line.Quantity,
				inv.Number,
				fmt.Sprintf("Vente facture %s", inv.Number),
				now,
			)
			if err != nil {
				return err
			}
			oversold = oversold || lineOversold
		}
		inv.Lines = append(inv.Lines, newLines...)
		inv.RecomputeTotals()
		inv.AppendHistory(entity.ActionAddLines, userID,
			fmt.Sprintf("Ajout de %d ligne(s)", len(newLines)), now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.ToInvoiceResponse(inv, oversold), nil
}

// RemoveLine suprime una línea de la factura y reingresa su cantidad al stock
// (movimiento RELEASE), en el mismo ámbito atómico que la escritura de la
// factura: nunca queda un restock sin factura guardada ni lo inverso.
func (uc *LifecycleUseCase) RemoveLine(ctx context.Context, id, lineID, userID string) (*dto.InvoiceResponse, error) {
	if lineID == "" {
		return nil, domain.ErrInvalidInput
	}
	inv, err := uc.mutate(ctx, id, userID, "remove_line", func(
		inv *entity.Invoice,
		stockRepo repository.StockRepository,
		movRepo repository.StockMovementRepository,
		now time.Time,
	) error {
		if inv.IsCancelled() {
			return domain.ErrAlreadyCancelled
		}
		idx := -1
		for i := range inv.Lines {
			if inv.Lines[i].ID == lineID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return fmt.Errorf("línea %s: %w", lineID, domain.ErrNotFound)
		}
		if len(inv.Lines) == 1 {
			// La factura debe conservar al menos una línea
			return domain.ErrEmptyLines
		}
		removed := inv.Lines[idx]

		if _, err := uc.inventory.RestockInTx(
			ctx,
			stockRepo, movRepo,
			removed.ProductID, inv.StoreID, userID,
			removed.Quantity,
			inv.Number,
			fmt.Sprintf("Suppression de la ligne produit %s", removed.ProductName),
			now,
		); err != nil {
			return err
		}

		inv.Lines = append(inv.Lines[:idx], inv.Lines[idx+1:]...)
		inv.RecomputeTotals()
		if inv.AmountPaid.GreaterThan(inv.Total) {
			// El total no puede caer por debajo de lo ya pagado
			return domain.ErrPaymentExceedsTotal
		}
		inv.AppendHistory(entity.ActionRemoveLine, userID,
			fmt.Sprintf("Suppression de la ligne produit %s (ID: %s)", removed.ProductName, lineID), now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.ToInvoiceResponse(inv, false), nil
}

// Update modifica campos generales de la factura. Si llegan líneas nuevas
// reemplazan las existentes y se recalculan los totales, sin efectos sobre el
// stock (la mutación con efecto de inventario es AddLines/RemoveLine).
func (uc *LifecycleUseCase) Update(ctx context.Context, id string, in dto.UpdateInvoiceRequest, userID string) (*dto.InvoiceResponse, error) {
	var newLines []entity.InvoiceLine
	if in.Lines != nil {
		var err error
		newLines, err = buildLines(in.Lines)
		if err != nil {
			return nil, err
		}
	}
	inv, err := uc.mutate(ctx, id, userID, "update_invoice", func(
		inv *entity.Invoice,
		_ repository.StockRepository,
		_ repository.StockMovementRepository,
		now time.Time,
	) error {
		if inv.IsCancelled() {
			return domain.ErrAlreadyCancelled
		}
		if in.ClientID != nil {
			if *in.ClientID == "" {
				return domain.ErrMissingClient
			}
			inv.ClientID = *in.ClientID
		}
		if in.Date != nil {
			inv.Date = *in.Date
		}
		if in.Format != nil {
			inv.Format = *in.Format
		}
		if newLines != nil {
			inv.Lines = newLines
			inv.RecomputeTotals()
		}
		if inv.AmountPaid.GreaterThan(inv.Total) {
			return domain.ErrPaymentExceedsTotal
		}
		reason := in.Reason
		if reason == "" {
			reason = "Modification du reçu via POS"
		}
		inv.AppendHistory(entity.ActionUpdate, userID, reason, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dto.ToInvoiceResponse(inv, false), nil
}
