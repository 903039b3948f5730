package billing_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Comercio-api/internal/application/atomic"
	"github.com/jhoicas/Comercio-api/internal/application/billing"
	"github.com/jhoicas/Comercio-api/internal/application/dto"
	"github.com/jhoicas/Comercio-api/internal/application/stock"
	"github.com/jhoicas/Comercio-api/internal/domain"
	"github.com/jhoicas/Comercio-api/internal/domain/entity"
	"github.com/jhoicas/Comercio-api/internal/domain/repository"
	"github.com/jhoicas/Comercio-api/internal/infrastructure/memory"
	"github.com/jhoicas/Comercio-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const (
	testUser   = "user-1"
	testClient = "client-1"
	testStore  = "store-1"
)

type testEnv struct {
	store     *memory.Store
	create    *billing.CreateInvoiceUseCase
	lifecycle *billing.LifecycleUseCase
}

// newEnv arma el motor completo sobre el almacén en memoria con la política
// de stock indicada.
func newEnv(t *testing.T, policy stock.Policy) *testEnv {
	t.Helper()
	store := memory.NewStore()
	log := logger.New(logger.Config{Env: "test", Level: "error"})
	co := atomic.NewCoordinator(store, store.AuditRepo(), nil, log, 1, time.Millisecond)
	stockUC := stock.NewUseCase(co, store, store.MovementRepo(), policy, log)
	return &testEnv{
		store:     store,
		create:    billing.NewCreateInvoiceUseCase(co, stockUC, store.InvoiceRepo(), log),
		lifecycle: billing.NewLifecycleUseCase(co, stockUC, store.InvoiceRepo(), log),
	}
}

func seedStock(t *testing.T, env *testEnv, productID string, qty int64) {
	t.Helper()
	require.NoError(t, env.store.Upsert(context.Background(), &entity.Stock{
		ProductID:   productID,
		StoreID:     testStore,
		Quantity:    qty,
		IsActive:    true,
		LastUpdated: time.Now(),
	}))
}

func stockQty(t *testing.T, env *testEnv, productID string) int64 {
	t.Helper()
	rec, err := env.store.Get(context.Background(), productID, testStore)
	require.NoError(t, err)
	require.NotNil(t, rec, "debe existir el registro de stock de %s", productID)
	return rec.Quantity
}

func line(productID string, qty int64, price int64) dto.InvoiceLineRequest {
	return dto.InvoiceLineRequest{
		ProductID:   productID,
		ProductName: "Produit " + productID,
		Quantity:    qty,
		UnitPrice:   decimal.NewFromInt(price),
	}
}

func createDraft(lines ...dto.InvoiceLineRequest) dto.CreateInvoiceRequest {
	return dto.CreateInvoiceRequest{
		ClientID: testClient,
		StoreID:  testStore,
		Lines:    lines,
	}
}

func historyActions(inv *dto.InvoiceResponse) []string {
	actions := make([]string, 0, len(inv.History))
	for _, h := range inv.History {
		actions = append(actions, h.Action)
	}
	return actions
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación de factura
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateInvoice_DescuentaStockYNumera(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	seedStock(t, env, "p2", 5)

	in := createDraft(line("p1", 3, 100), line("p2", 2, 50))
	in.AmountPaid = decimal.NewFromInt(100)
	in.Method = "especes"

	resp, err := env.create.CreateInvoice(context.Background(), testUser, in)
	require.NoError(t, err)

	year := time.Now().Year()
	assert.Equal(t, fmt.Sprintf("INV-%d-0001", year), resp.Number)
	assert.True(t, billing.ValidNumber(resp.Number))
	assert.Equal(t, entity.StatusResteAPayer, resp.Status, "pago parcial debe derivar reste_a_payer")
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(400)), "total = 3*100 + 2*50")

	// Stock descontado por cada línea
	assert.EqualValues(t, 7, stockQty(t, env, "p1"))
	assert.EqualValues(t, 3, stockQty(t, env, "p2"))

	// El libro conserva un OUT por línea, en el orden enviado, referenciando el número
	movs, err := env.store.MovementRepo().ListByReference(context.Background(), resp.Number, entity.ReferenceTypeInvoice)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, "p1", movs[0].ProductID)
	assert.Equal(t, "p2", movs[1].ProductID)
	for _, m := range movs {
		assert.Equal(t, entity.MovementTypeOUT, m.Type)
		assert.Equal(t, testUser, m.UserID)
		assert.Equal(t, fmt.Sprintf("Vente facture %s", resp.Number), m.Reason)
	}
	assert.EqualValues(t, 10, movs[0].PreviousQuantity)
	assert.EqualValues(t, 7, movs[0].NewQuantity)

	// Historial inicial y pago inicial
	require.Len(t, resp.History, 1)
	assert.Equal(t, entity.ActionCreated, resp.History[0].Action)
	assert.Equal(t, "Création de la facture", resp.History[0].Reason)
	require.Len(t, resp.PaymentHistory, 1)
	assert.True(t, resp.PaymentHistory[0].Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "especes", resp.PaymentHistory[0].Method)
}

func TestCreateInvoice_PagoCompletoDerivaPayee(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)

	in := createDraft(line("p1", 2, 100))
	in.AmountPaid = decimal.NewFromInt(200)

	resp, err := env.create.CreateInvoice(context.Background(), testUser, in)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPayee, resp.Status)
}

// Escenario todo-o-nada: si la segunda línea no tiene stock suficiente, la
// primera tampoco queda descontada, no hay factura, no hay movimientos y el
// contador no deja número huérfano visible.
func TestCreateInvoice_RollbackTodoONada(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	seedStock(t, env, "p2", 1)

	_, err := env.create.CreateInvoice(context.Background(), testUser,
		createDraft(line("p1", 3, 100), line("p2", 5, 50)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.ErrorIs(t, err, domain.ErrTransactionAborted, "el aborto debe ser visible como transacción abortada")

	assert.EqualValues(t, 10, stockQty(t, env, "p1"), "la línea aceptada debe deshacerse")
	assert.EqualValues(t, 1, stockQty(t, env, "p2"))

	invoices, err := env.store.InvoiceRepo().List(context.Background(), 100, 0)
	require.NoError(t, err)
	assert.Empty(t, invoices)

	total, err := env.store.MovementRepo().CountByStore(context.Background(), testStore, repository.MovementFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "el libro no debe conservar movimientos del intento fallido")

	// Registro compensatorio escrito fuera de la transacción abortada
	audits := env.store.Audits()
	require.Len(t, audits, 1)
	assert.Equal(t, entity.AuditEventInvoiceRollback, audits[0].Event)
	assert.Equal(t, testUser, audits[0].UserID)
	assert.Equal(t, testStore, audits[0].StoreID)
	assert.Contains(t, audits[0].Details["error"], "stock")
}

func TestCreateInvoice_RegistroAusenteEstricto(t *testing.T) {
	env := newEnv(t, stock.Policy{})

	_, err := env.create.CreateInvoice(context.Background(), testUser,
		createDraft(line("inexistant", 1, 100)))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStockRecordMissing)
}

func TestCreateInvoice_PoliticaPermisiva(t *testing.T) {
	env := newEnv(t, stock.Policy{AllowNegative: true, CreateMissing: true})

	resp, err := env.create.CreateInvoice(context.Background(), testUser,
		createDraft(line("nouveau", 4, 25)))
	require.NoError(t, err)
	assert.True(t, resp.Oversold, "la sobreventa debe marcar la advertencia")
	assert.EqualValues(t, -4, stockQty(t, env, "nouveau"), "modo permisivo deja la cantidad negativa")
}

func TestCreateInvoice_Validaciones(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	ctx := context.Background()

	_, err := env.create.CreateInvoice(ctx, "", createDraft(line("p1", 1, 100)))
	assert.ErrorIs(t, err, domain.ErrMissingActor)

	in := createDraft(line("p1", 1, 100))
	in.ClientID = ""
	_, err = env.create.CreateInvoice(ctx, testUser, in)
	assert.ErrorIs(t, err, domain.ErrMissingClient)

	_, err = env.create.CreateInvoice(ctx, testUser, createDraft())
	assert.ErrorIs(t, err, domain.ErrEmptyLines)

	in = createDraft(line("p1", 1, 100))
	in.AmountPaid = decimal.NewFromInt(500)
	_, err = env.create.CreateInvoice(ctx, testUser, in)
	assert.ErrorIs(t, err, domain.ErrPaymentExceedsTotal)

	bad := line("p1", 0, 100) // cantidad cero
	_, err = env.create.CreateInvoice(ctx, testUser, createDraft(bad))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Ninguna validación fallida debe haber tocado el stock
	assert.EqualValues(t, 10, stockQty(t, env, "p1"))
}

func TestNumeracion_SecuenciaMonotona(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 100)
	year := time.Now().Year()

	for i := 1; i <= 3; i++ {
		resp, err := env.create.CreateInvoice(context.Background(), testUser,
			createDraft(line("p1", 1, 10)))
		require.NoError(t, err)
		assert.Equal(t, billing.FormatNumber(year, i), resp.Number)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo de vida: anulación, espera, validación
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_ReponeStockYEsTerminal(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	seedStock(t, env, "p2", 8)
	ctx := context.Background()

	created, err := env.create.CreateInvoice(ctx, testUser,
		createDraft(line("p1", 3, 100), line("p2", 2, 50)))
	require.NoError(t, err)

	cancelled, err := env.lifecycle.Cancel(ctx, created.ID, "erreur caisse", testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAnnulee, cancelled.Status)
	assert.Equal(t, testUser, cancelled.CancelledBy)
	assert.Equal(t, "erreur caisse", cancelled.CancelReason)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, entity.ActionCancelled, cancelled.History[len(cancelled.History)-1].Action)

	// El stock vuelve al estado previo con movimientos RELEASE enlazados al número
	assert.EqualValues(t, 10, stockQty(t, env, "p1"))
	assert.EqualValues(t, 8, stockQty(t, env, "p2"))
	movs, err := env.store.MovementRepo().ListByReference(ctx, created.Number, "")
	require.NoError(t, err)
	releases := 0
	for _, m := range movs {
		if m.Type == entity.MovementTypeRelease {
			releases++
		}
	}
	assert.Equal(t, 2, releases, "un RELEASE por línea anulada")

	// La anulación consumada deja su propio rastro de auditoría
	audits := env.store.Audits()
	require.Len(t, audits, 1)
	assert.Equal(t, entity.AuditEventInvoiceCancel, audits[0].Event)
	assert.Equal(t, created.ID, audits[0].InvoiceID)
	assert.Equal(t, created.Number, audits[0].Details["number"])
	assert.Equal(t, "erreur caisse", audits[0].Details["reason"])

	// annulee es terminal: nunca se acepta en silencio
	_, err = env.lifecycle.Cancel(ctx, created.ID, "encore", testUser)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	_, err = env.lifecycle.RecordPayment(ctx, created.ID,
		dto.PaymentRequest{Amount: decimal.NewFromInt(10), Method: "cb"}, testUser)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	_, err = env.lifecycle.Validate(ctx, created.ID, testUser)
	assert.ErrorIs(t, err, domain.ErrAlreadyCancelled)
	assert.EqualValues(t, 10, stockQty(t, env, "p1"), "la re-anulación no repone de nuevo")
}

func TestValidate_Idempotente(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	ctx := context.Background()

	created, err := env.create.CreateInvoice(ctx, testUser, createDraft(line("p1", 1, 100)))
	require.NoError(t, err)

	first, err := env.lifecycle.Validate(ctx, created.ID, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusValidee, first.Status)
	assert.Equal(t, "validée", first.Status, "el estado persistido lleva el literal acentuado")
	require.NotNil(t, first.ValidatedAt)

	second, err := env.lifecycle.Validate(ctx, created.ID, testUser)
	require.NoError(t, err, "revalidar debe responder éxito")

	validated := 0
	for _, a := range historyActions(second) {
		if a == entity.ActionValidated {
			validated++
		}
	}
	assert.Equal(t, 1, validated, "la entrada validated no debe duplicarse")
}

func TestHold_PoneEnEspera(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	ctx := context.Background()

	created, err := env.create.CreateInvoice(ctx, testUser, createDraft(line("p1", 1, 100)))
	require.NoError(t, err)

	held, err := env.lifecycle.Hold(ctx, created.ID, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusEnAttente, held.Status)
	assert.Equal(t, entity.ActionOnHold, held.History[len(held.History)-1].Action)
}

// ──────────────────────────────────────────────────────────────────────────────
// Pagos
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordPayment_ParcialYCompleto(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	ctx := context.Background()

	created, err := env.create.CreateInvoice(ctx, testUser, createDraft(line("p1", 2, 100)))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusResteAPayer, created.Status)

	partial, err := env.lifecycle.RecordPayment(ctx, created.ID,
		dto.PaymentRequest{Amount: decimal.NewFromInt(150), Method: "especes"}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusResteAPayer, partial.Status)
	assert.True(t, partial.AmountPaid.Equal(decimal.NewFromInt(150)))

	full, err := env.lifecycle.RecordPayment(ctx, created.ID,
		dto.PaymentRequest{Amount: decimal.NewFromInt(50), Method: "cb"}, testUser)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPayee, full.Status)
	require.Len(t, full.PaymentHistory, 2)
	assert.Equal(t, entity.ActionPayment, full.History[len(full.History)-1].Action)
}

func TestRecordPayment_RechazaExceso(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	ctx := context.Background()

	created, err := env.create.CreateInvoice(ctx, testUser, createDraft(line("p1", 1, 100)))
	require.NoError(t, err)

	_, err = env.lifecycle.RecordPayment(ctx, created.ID,
		dto.PaymentRequest{Amount: decimal.NewFromInt(101), Method: "cb"}, testUser)
	assert.ErrorIs(t, err, domain.ErrPaymentExceedsTotal)

	// Nada persistido: ni monto ni historial de pagos
	after, err := env.create.GetInvoice(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, after.AmountPaid.IsZero())
	assert.Empty(t, after.PaymentHistory)

	_, err = env.lifecycle.RecordPayment(ctx, created.ID,
		dto.PaymentRequest{Amount: decimal.Zero, Method: "cb"}, testUser)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Mutación de líneas
// ──────────────────────────────────────────────────────────────────────────────

func TestAddLines_DescuentaYRecalcula(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	seedStock(t, env, "p2", 5)
	ctx := context.Background()

	created, err := env.create.CreateInvoice(ctx, testUser, createDraft(line("p1", 2, 100)))
	require.NoError(t, err)

	updated, err := env.lifecycle.AddLines(ctx, created.ID,
		dto.AddLinesRequest{Lines: []dto.InvoiceLineRequest{line("p2", 3, 50)}}, testUser)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 2)
	assert.True(t, updated.Total.Equal(decimal.NewFromInt(350)))
	assert.EqualValues(t, 2, stockQty(t, env, "p2"))
	assert.Equal(t, entity.ActionAddLines, updated.History[len(updated.History)-1].Action)
	assert.Equal(t, "Ajout de 1 ligne(s)", updated.History[len(updated.History)-1].Reason)
}

func TestRemoveLine_ReponeStock(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	seedStock(t, env, "p2", 5)
	ctx := context.Background()

	created, err := env.create.CreateInvoice(ctx, testUser,
		createDraft(line("p1", 2, 100), line("p2", 3, 50)))
	require.NoError(t, err)
	removedLine := created.Lines[1]

	updated, err := env.lifecycle.RemoveLine(ctx, created.ID, removedLine.ID, testUser)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.True(t, updated.Total.Equal(decimal.NewFromInt(200)))
	assert.EqualValues(t, 5, stockQty(t, env, "p2"), "la cantidad suprimida vuelve al stock")
	last := updated.History[len(updated.History)-1]
	assert.Equal(t, entity.ActionRemoveLine, last.Action)
	assert.Contains(t, last.Reason, removedLine.ProductName)
	assert.Contains(t, last.Reason, removedLine.ID)
}

func TestRemoveLine_Rechazos(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	ctx := context.Background()

	created, err := env.create.CreateInvoice(ctx, testUser, createDraft(line("p1", 2, 100)))
	require.NoError(t, err)

	_, err = env.lifecycle.RemoveLine(ctx, created.ID, "ligne-inconnue", testUser)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// La última línea no puede suprimirse
	_, err = env.lifecycle.RemoveLine(ctx, created.ID, created.Lines[0].ID, testUser)
	assert.ErrorIs(t, err, domain.ErrEmptyLines)
	assert.EqualValues(t, 8, stockQty(t, env, "p1"), "el rechazo no debe reponer stock")
}

func TestRemoveLine_NoDejaTotalBajoLoPagado(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	seedStock(t, env, "p2", 5)
	ctx := context.Background()

	in := createDraft(line("p1", 2, 100), line("p2", 3, 50))
	in.AmountPaid = decimal.NewFromInt(350) // pago completo
	created, err := env.create.CreateInvoice(ctx, testUser, in)
	require.NoError(t, err)

	_, err = env.lifecycle.RemoveLine(ctx, created.ID, created.Lines[1].ID, testUser)
	assert.ErrorIs(t, err, domain.ErrPaymentExceedsTotal)

	// Rollback completo: la línea sigue y el restock se deshizo
	after, err := env.create.GetInvoice(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, after.Lines, 2)
	assert.EqualValues(t, 2, stockQty(t, env, "p2"))
}

func TestUpdate_CamposGenerales(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	ctx := context.Background()

	created, err := env.create.CreateInvoice(ctx, testUser, createDraft(line("p1", 2, 100)))
	require.NoError(t, err)

	newClient := "client-2"
	updated, err := env.lifecycle.Update(ctx, created.ID,
		dto.UpdateInvoiceRequest{ClientID: &newClient}, testUser)
	require.NoError(t, err)
	assert.Equal(t, newClient, updated.ClientID)
	last := updated.History[len(updated.History)-1]
	assert.Equal(t, entity.ActionUpdate, last.Action)
	assert.Equal(t, "Modification du reçu via POS", last.Reason)

	// Reemplazo de líneas sin efecto de stock
	updated, err = env.lifecycle.Update(ctx, created.ID, dto.UpdateInvoiceRequest{
		Lines: []dto.InvoiceLineRequest{line("p1", 1, 100)},
	}, testUser)
	require.NoError(t, err)
	assert.True(t, updated.Total.Equal(decimal.NewFromInt(100)))
	assert.EqualValues(t, 8, stockQty(t, env, "p1"), "Update no toca el stock")
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestGetInvoice_PorIDPorNumero(t *testing.T) {
	env := newEnv(t, stock.Policy{})
	seedStock(t, env, "p1", 10)
	ctx := context.Background()

	created, err := env.create.CreateInvoice(ctx, testUser, createDraft(line("p1", 1, 100)))
	require.NoError(t, err)

	byID, err := env.create.GetInvoice(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Number, byID.Number)

	byNumber, err := env.create.GetInvoiceByNumber(ctx, created.Number)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)

	_, err = env.create.GetInvoice(ctx, "inexistant")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = env.create.GetInvoiceByNumber(ctx, "FORMAT-INVALIDE")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
