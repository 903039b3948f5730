package billing

import (
	"context"

	"github.com/jhoicas/Comercio-api/internal/application/dto"
	"github.com/jhoicas/Comercio-api/internal/domain"
)

// GetInvoice obtiene una factura por ID.
func (uc *CreateInvoiceUseCase) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return dto.ToInvoiceResponse(inv, false), nil
}

// GetInvoiceByNumber obtiene una factura por su número.
func (uc *CreateInvoiceUseCase) GetInvoiceByNumber(ctx context.Context, number string) (*dto.InvoiceResponse, error) {
	if !ValidNumber(number) {
		return nil, domain.ErrInvalidInput
	}
	inv, err := uc.invoiceRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return dto.ToInvoiceResponse(inv, false), nil
}

// ListInvoices lista las facturas más recientes primero.
func (uc *CreateInvoiceUseCase) ListInvoices(ctx context.Context, limit, offset int) ([]*dto.InvoiceResponse, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	invoices, err := uc.invoiceRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, dto.ToInvoiceResponse(inv, false))
	}
	return out, nil
}
