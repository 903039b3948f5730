// Package memory implementa todos los puertos de persistencia sobre mapas en
// memoria. Se usa en modo desarrollo (sin DATABASE configurada) y en las
// pruebas de los casos de uso. Las transacciones se emulan con instantáneas:
// cualquier error dentro de fn restaura el estado previo completo.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/Comercio-api/internal/application/atomic"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
)

var (
	_ repository.StockRepository          = (*Store)(nil)
	_ repository.StockMovementRepository  = movementRepo{}
	_ repository.InvoiceRepository        = invoiceRepo{}
	_ repository.InvoiceCounterRepository = (*Store)(nil)
	_ repository.AuditLogRepository       = auditRepo{}
	_ atomic.TxRunner                     = (*Store)(nil)
)

// Store es el almacén en memoria. Implementa el repositorio de stock, el
// contador y el TxRunner directamente; el libro de movimientos, las facturas
// y la auditoría se exponen como vistas (tipos aparte, los nombres de método
// chocan entre puertos). El rollback restaura una instantánea tomada al
// comienzo de la transacción.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex // serializa transacciones completas

	stocks        map[string]*entity.Stock // clave productID|storeID
	movements     []*entity.StockMovement  // en orden de inserción
	movementsByID map[string]*entity.StockMovement
	invoices      map[string]*entity.Invoice
	numberToID    map[string]string
	counters      map[int]int
	audits        []*entity.AuditLog
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		stocks:        make(map[string]*entity.Stock),
		movementsByID: make(map[string]*entity.StockMovement),
		invoices:      make(map[string]*entity.Invoice),
		numberToID:    make(map[string]string),
		counters:      make(map[int]int),
	}
}

func stockKey(productID, storeID string) string {
	return productID + "|" + storeID
}

// --- StockRepository ---

func (s *Store) Get(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stocks[stockKey(productID, storeID)]
	if !ok {
		return nil, nil
	}
	return copyStock(st), nil
}

// GetForUpdate no bloquea filas: las transacciones en memoria están
// serializadas por txMu, el aislamiento ya está garantizado.
func (s *Store) GetForUpdate(ctx context.Context, productID, storeID string) (*entity.Stock, error) {
	return s.Get(ctx, productID, storeID)
}

func (s *Store) Upsert(ctx context.Context, stock *entity.Stock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks[stockKey(stock.ProductID, stock.StoreID)] = copyStock(stock)
	return nil
}

func (s *Store) ListByStore(ctx context.Context, storeID string, limit, offset int) ([]*entity.Stock, error) {
	return s.listStocks(func(st *entity.Stock) bool { return st.StoreID == storeID }, limit, offset), nil
}

func (s *Store) ListAll(ctx context.Context, limit, offset int) ([]*entity.Stock, error) {
	return s.listStocks(func(*entity.Stock) bool { return true }, limit, offset), nil
}

func (s *Store) ListLowStock(ctx context.Context, storeID string) ([]*entity.Stock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []*entity.Stock
	for _, st := range s.stocks {
		if st.StoreID == storeID && st.Quantity <= st.MinQuantity {
			list = append(list, copyStock(st))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Quantity < list[j].Quantity })
	return list, nil
}

func (s *Store) listStocks(keep func(*entity.Stock) bool, limit, offset int) []*entity.Stock {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []*entity.Stock
	for _, st := range s.stocks {
		if keep(st) {
			list = append(list, copyStock(st))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].LastUpdated.After(list[j].LastUpdated) })
	return page(list, limit, offset)
}

// --- StockMovementRepository ---

// movementRepo adapta el store al puerto del libro de movimientos. Tipo
// aparte: Create y ListByStore ya existen con otra firma en los demás puertos.
type movementRepo struct {
	s *Store
}

// MovementRepo devuelve la vista del store como libro de movimientos.
func (s *Store) MovementRepo() repository.StockMovementRepository {
	return movementRepo{s: s}
}

func (r movementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.movements = append(s.movements, &cp)
	s.movementsByID[cp.ID] = &cp
	return nil
}

func (r movementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.movementsByID[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (r movementRepo) ListByProductAndStore(ctx context.Context, productID, storeID string, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	return r.s.filterMovements(func(m *entity.StockMovement) bool {
		return m.ProductID == productID && m.StoreID == storeID && matchFilter(m, f)
	}, true, limit, offset), nil
}

func (r movementRepo) ListByStore(ctx context.Context, storeID string, f repository.MovementFilter, limit, offset int) ([]*entity.StockMovement, error) {
	return r.s.filterMovements(func(m *entity.StockMovement) bool {
		return m.StoreID == storeID && matchFilter(m, f)
	}, true, limit, offset), nil
}

func (r movementRepo) ListByReference(ctx context.Context, reference, referenceType string) ([]*entity.StockMovement, error) {
	return r.s.filterMovements(func(m *entity.StockMovement) bool {
		return m.Reference == reference && (referenceType == "" || m.ReferenceType == referenceType)
	}, false, 0, 0), nil
}

func (r movementRepo) ListByActor(ctx context.Context, userID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	f := repository.MovementFilter{From: from, To: to}
	return r.s.filterMovements(func(m *entity.StockMovement) bool {
		return m.UserID == userID && matchFilter(m, f)
	}, true, limit, offset), nil
}

func (r movementRepo) CountByStore(ctx context.Context, storeID string, f repository.MovementFilter) (int64, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.movements {
		if m.StoreID == storeID && matchFilter(m, f) {
			n++
		}
	}
	return n, nil
}

// filterMovements recorre el libro en orden de inserción; newestFirst invierte
// el resultado (paginado más recientes primero, como las consultas SQL).
func (s *Store) filterMovements(keep func(*entity.StockMovement) bool, newestFirst bool, limit, offset int) []*entity.StockMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []*entity.StockMovement
	for _, m := range s.movements {
		if keep(m) {
			cp := *m
			list = append(list, &cp)
		}
	}
	if newestFirst {
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
		return page(list, limit, offset)
	}
	return list
}

func matchFilter(m *entity.StockMovement, f repository.MovementFilter) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	if f.UserID != "" && m.UserID != f.UserID {
		return false
	}
	if f.From != nil && m.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && m.CreatedAt.After(*f.To) {
		return false
	}
	return true
}

// --- InvoiceRepository ---

// invoiceRepo adapta el store al puerto de facturas.
type invoiceRepo struct {
	s *Store
}

// InvoiceRepo devuelve la vista del store como repositorio de facturas.
func (s *Store) InvoiceRepo() repository.InvoiceRepository {
	return invoiceRepo{s: s}
}

func (r invoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.numberToID[inv.Number]; dup {
		return fmt.Errorf("create invoice %s: %w", inv.Number, domain.ErrDuplicate)
	}
	s.invoices[inv.ID] = copyInvoice(inv)
	s.numberToID[inv.Number] = inv.ID
	return nil
}

func (r invoiceRepo) Update(ctx context.Context, inv *entity.Invoice) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invoices[inv.ID]; !ok {
		return fmt.Errorf("update invoice %s: %w", inv.ID, domain.ErrNotFound)
	}
	s.invoices[inv.ID] = copyInvoice(inv)
	return nil
}

func (r invoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, nil
	}
	return copyInvoice(inv), nil
}

func (r invoiceRepo) GetByNumber(ctx context.Context, number string) (*entity.Invoice, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.numberToID[number]
	if !ok {
		return nil, nil
	}
	return copyInvoice(s.invoices[id]), nil
}

func (r invoiceRepo) List(ctx context.Context, limit, offset int) ([]*entity.Invoice, error) {
	s := r.s
	s.mu.RLock()
	defer s.mu.RUnlock()
	var list []*entity.Invoice
	for _, inv := range s.invoices {
		list = append(list, copyInvoice(inv))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return page(list, limit, offset), nil
}

// --- InvoiceCounterRepository ---

func (s *Store) NextSequence(ctx context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[year]++
	return s.counters[year], nil
}

// --- AuditLogRepository ---

type auditRepo struct {
	s *Store
}

// AuditRepo devuelve la vista del store como repositorio de auditoría.
func (s *Store) AuditRepo() repository.AuditLogRepository {
	return auditRepo{s: s}
}

func (r auditRepo) Create(ctx context.Context, log *entity.AuditLog) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *log
	s.audits = append(s.audits, &cp)
	return nil
}

// Audits devuelve una copia del registro de auditoría. Solo para pruebas y
// el endpoint de diagnóstico del modo desarrollo.
func (s *Store) Audits() []*entity.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.AuditLog, 0, len(s.audits))
	for _, a := range s.audits {
		cp := *a
		out = append(out, &cp)
	}
	return out
}

// --- atomic.TxRunner ---

// RunStock ejecuta fn con las vistas del store como repositorios. Cualquier
// error restaura la instantánea tomada al inicio.
func (s *Store) RunStock(ctx context.Context, fn atomic.StockTxFn) error {
	return s.runTx(ctx, func() error {
		return fn(s, s.MovementRepo())
	})
}

// RunBilling ejecuta fn con las vistas del store como repositorios de stock,
// movimientos, facturas y contador.
func (s *Store) RunBilling(ctx context.Context, fn atomic.BillingTxFn) error {
	return s.runTx(ctx, func() error {
		return fn(s, s.MovementRepo(), s.InvoiceRepo(), s)
	})
}

func (s *Store) runTx(ctx context.Context, fn func() error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := s.snapshot()
	if err := fn(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshotState struct {
	stocks        map[string]*entity.Stock
	movements     []*entity.StockMovement
	movementsByID map[string]*entity.StockMovement
	invoices      map[string]*entity.Invoice
	numberToID    map[string]string
	counters      map[int]int
}

func (s *Store) snapshot() snapshotState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshotState{
		stocks:        make(map[string]*entity.Stock, len(s.stocks)),
		movements:     make([]*entity.StockMovement, len(s.movements)),
		movementsByID: make(map[string]*entity.StockMovement, len(s.movementsByID)),
		invoices:      make(map[string]*entity.Invoice, len(s.invoices)),
		numberToID:    make(map[string]string, len(s.numberToID)),
		counters:      make(map[int]int, len(s.counters)),
	}
	for k, v := range s.stocks {
		snap.stocks[k] = copyStock(v)
	}
	// los movimientos son inmutables, basta copiar la lista
	copy(snap.movements, s.movements)
	for k, v := range s.movementsByID {
		snap.movementsByID[k] = v
	}
	for k, v := range s.invoices {
		snap.invoices[k] = copyInvoice(v)
	}
	for k, v := range s.numberToID {
		snap.numberToID[k] = v
	}
	for k, v := range s.counters {
		snap.counters[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshotState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks = snap.stocks
	s.movements = snap.movements
	s.movementsByID = snap.movementsByID
	s.invoices = snap.invoices
	s.numberToID = snap.numberToID
	s.counters = snap.counters
}

func copyStock(st *entity.Stock) *entity.Stock {
	cp := *st
	return &cp
}

func copyInvoice(inv *entity.Invoice) *entity.Invoice {
	cp := *inv
	cp.Lines = append([]entity.InvoiceLine(nil), inv.Lines...)
	cp.History = append([]entity.HistoryEntry(nil), inv.History...)
	cp.PaymentHistory = append([]entity.PaymentEntry(nil), inv.PaymentHistory...)
	if inv.CancelledAt != nil {
		t := *inv.CancelledAt
		cp.CancelledAt = &t
	}
	if inv.ValidatedAt != nil {
		t := *inv.ValidatedAt
		cp.ValidatedAt = &t
	}
	return &cp
}

func page[T any](list []T, limit, offset int) []T {
	if limit <= 0 {
		return list
	}
	if offset >= len(list) {
		return nil
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}
