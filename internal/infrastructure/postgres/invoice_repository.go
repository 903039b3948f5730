package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository sobre PostgreSQL.
// Las líneas y los historiales se guardan como columnas JSONB: viajan siempre
// junto a la factura y se actualizan como documento completo.
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador de facturas.
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

const invoiceColumns = `id, number, date, client_id, store_id, user_id,
	lines, total, amount_paid, discount_total, status, format,
	history, payment_history, cancelled_by, cancel_reason, cancelled_at,
	validated_at, created_at, updated_at`

// Create inserta una factura. Un choque con el índice único del número se
// traduce a ErrDuplicate para que el coordinador pueda reintentar.
func (r *InvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	lines, history, payments, err := marshalInvoiceDocs(inv)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO invoices (id, number, date, client_id, store_id, user_id,
			lines, total, amount_paid, discount_total, status, format,
			history, payment_history, cancelled_by, cancel_reason, cancelled_at,
			validated_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err = r.q.Exec(ctx, query,
		inv.ID, inv.Number, inv.Date, inv.ClientID, inv.StoreID, inv.UserID,
		lines, inv.Total, inv.AmountPaid, inv.DiscountTotal, inv.Status, inv.Format,
		history, payments, inv.CancelledBy, inv.CancelReason, inv.CancelledAt,
		inv.ValidatedAt, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create invoice %s: %w", inv.Number, domain.ErrDuplicate)
		}
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// Update reescribe la factura completa, incluidos los documentos embebidos.
func (r *InvoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	lines, history, payments, err := marshalInvoiceDocs(inv)
	if err != nil {
		return err
	}
	query := `
		UPDATE invoices SET
			date = $2, client_id = $3, lines = $4, total = $5, amount_paid = $6,
			discount_total = $7, status = $8, format = $9, history = $10,
			payment_history = $11, cancelled_by = $12, cancel_reason = $13,
			cancelled_at = $14, validated_at = $15, updated_at = $16
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		inv.ID, inv.Date, inv.ClientID, lines, inv.Total, inv.AmountPaid,
		inv.DiscountTotal, inv.Status, inv.Format, history,
		payments, inv.CancelledBy, inv.CancelReason,
		inv.CancelledAt, inv.ValidatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update invoice %s: %w", inv.ID, domain.ErrNotFound)
	}
	return nil
}

// GetByID obtiene una factura por id; (nil, nil) si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	return r.get(ctx, query, id)
}

// GetByNumber obtiene una factura por su número único; (nil, nil) si no existe.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE number = $1`
	return r.get(ctx, query, number)
}

// List lista facturas, más recientes primero.
func (r *InvoiceRepo) List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.q.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var list []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

func (r *InvoiceRepo) get(ctx context.Context, query string, arg any) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func marshalInvoiceDocs(inv *entity.Invoice) (lines, history, payments []byte, err error) {
	if lines, err = json.Marshal(inv.Lines); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal invoice lines: %w", err)
	}
	if history, err = json.Marshal(inv.History); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal invoice history: %w", err)
	}
	if payments, err = json.Marshal(inv.PaymentHistory); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal payment history: %w", err)
	}
	return lines, history, payments, nil
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var lines, history, payments []byte
	err := row.Scan(
		&inv.ID, &inv.Number, &inv.Date, &inv.ClientID, &inv.StoreID, &inv.UserID,
		&lines, &inv.Total, &inv.AmountPaid, &inv.DiscountTotal, &inv.Status, &inv.Format,
		&history, &payments, &inv.CancelledBy, &inv.CancelReason, &inv.CancelledAt,
		&inv.ValidatedAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(lines, &inv.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal invoice lines: %w", err)
	}
	if err := json.Unmarshal(history, &inv.History); err != nil {
		return nil, fmt.Errorf("unmarshal invoice history: %w", err)
	}
	if err := json.Unmarshal(payments, &inv.PaymentHistory); err != nil {
		return nil, fmt.Errorf("unmarshal payment history: %w", err)
	}
	return &inv, nil
}
