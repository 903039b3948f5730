package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Comercio-api/internal/application/dto"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// RecordPayment registra un pago sobre la factura: agrega la entrada al
// historial de pagos, sube amountPaid y recalcula el estado. Rechaza el pago
// que dejaría amountPaid por encima del total, sin tocar nada.
func (uc *LifecycleUseCase) RecordPayment(ctx context.Context, id string, in dto.PaymentRequest, userID string) (*dto.InvoiceResponse, error) {
	if !in.Amount.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	inv, err := uc.mutate(ctx, id, userID, "record_payment", func(
		inv *entity.Invoice,
		_ repository.StockRepository,
		_ repository.StockMovementRepository,
		now time.Time,
	) error {
		if inv.IsCancelled() {
			return domain.ErrAlreadyCancelled
		}
		newPaid := inv.AmountPaid.Add(in.Amount)
		if newPaid.GreaterThan(inv.Total) {
			return domain.ErrPaymentExceedsTotal
		}
		inv.AmountPaid = newPaid
		inv.PaymentHistory = append(inv.PaymentHistory, entity.PaymentEntry{
			Amount: in.Amount,
			Method: in.Method,
			UserID: userID,
			Date:   now,
		})
		inv.Status = inv.DeriveStatus()
		inv.AppendHistory(entity.ActionPayment, userID,
			fmt.Sprintf("Paiement de %s (%s)", in.Amount.StringFixed(2), in.Method), now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("invoice", inv.Number).
		Str("amount", in.Amount.StringFixed(2)).
		Str("status", inv.Status).
		Msg("pago registrado")
	return dto.ToInvoiceResponse(inv, false), nil
}
