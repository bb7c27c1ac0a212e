package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals/journaltest"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

type memoryRepo struct {
	ledger   *journaltest.Store
	invoices map[int64]Invoice
	lines    map[int64][]Line
	seq      map[string]int64
	nextID   int64
	nextLine int64

	failMarkConfirmed bool
}

func newMemoryRepo(ledger *journaltest.Store) *memoryRepo {
	return &memoryRepo{
		ledger:   ledger,
		invoices: map[int64]Invoice{},
		lines:    map[int64][]Line{},
		seq:      map[string]int64{},
		nextID:   1,
		nextLine: 1,
	}
}

func (m *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Invoice, error) {
	var out []Invoice
	err := m.ledger.Atomic(func() error {
		for id := int64(1); id < m.nextID; id++ {
			inv, ok := m.invoices[id]
			if !ok || (filter.Type != "" && inv.Type != filter.Type) || (filter.Status != "" && inv.Status != filter.Status) {
				continue
			}
			out = append(out, inv)
		}
		return nil
	})
	return out, err
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Invoice, error) {
	var inv Invoice
	err := m.ledger.Atomic(func() error {
		var err error
		if inv, err = m.GetForUpdate(ctx, id); err != nil {
			return err
		}
		inv.Lines = m.lines[id]
		return nil
	})
	return inv, err
}

func (m *memoryRepo) Lines(ctx context.Context, id int64) ([]Line, error) {
	return m.lines[id], nil
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return m.ledger.Atomic(func() error {
		invoices := make(map[int64]Invoice, len(m.invoices))
		for k, v := range m.invoices {
			invoices[k] = v
		}
		lines := make(map[int64][]Line, len(m.lines))
		for k, v := range m.lines {
			lines[k] = v
		}
		seq := make(map[string]int64, len(m.seq))
		for k, v := range m.seq {
			seq[k] = v
		}
		nextID, nextLine := m.nextID, m.nextLine
		if err := fn(ctx, m); err != nil {
			m.invoices, m.lines, m.seq, m.nextID, m.nextLine = invoices, lines, seq, nextID, nextLine
			return err
		}
		return nil
	})
}

func (m *memoryRepo) WithCreateTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return m.WithTx(ctx, fn)
}

func (m *memoryRepo) Ledger() journals.TxRepository { return m.ledger }

func (m *memoryRepo) PersonExists(ctx context.Context, id int64) (bool, error) {
	return id == customer, nil
}

func (m *memoryRepo) ProductExists(ctx context.Context, id int64) (bool, error) {
	return id == widget || id == gadget, nil
}

func (m *memoryRepo) UnitExists(ctx context.Context, id int64) (bool, error) {
	return id == piece, nil
}

func (m *memoryRepo) NextNumber(ctx context.Context, fiscalYearID int64, typ Type) (int64, error) {
	key := fmt.Sprintf("%d:%s", fiscalYearID, typ.Sequence())
	m.seq[key]++
	return m.seq[key], nil
}

func (m *memoryRepo) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	inv.ID = m.nextID
	m.nextID++
	m.invoices[inv.ID] = inv
	return inv, nil
}

func (m *memoryRepo) GetForUpdate(ctx context.Context, id int64) (Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, shared.ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *memoryRepo) ReplaceLines(ctx context.Context, id int64, lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		l.ID = m.nextLine
		l.InvoiceID = id
		m.nextLine++
		out = append(out, l)
	}
	m.lines[id] = out
	return out, nil
}

func (m *memoryRepo) Update(ctx context.Context, inv Invoice) error {
	if m.invoices[inv.ID].Status != StatusDraft {
		return shared.ErrNotDraft
	}
	inv.Lines = nil
	m.invoices[inv.ID] = inv
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if m.invoices[id].Status != StatusDraft {
		return false, nil
	}
	delete(m.invoices, id)
	delete(m.lines, id)
	return true, nil
}

func (m *memoryRepo) MarkConfirmed(ctx context.Context, inv Invoice, at time.Time) (bool, error) {
	if m.failMarkConfirmed {
		return false, errors.New("connection reset")
	}
	stored := m.invoices[inv.ID]
	if stored.Status != StatusDraft {
		return false, nil
	}
	stored.Status = StatusConfirmed
	stored.JournalEntryID = inv.JournalEntryID
	stored.Subtotal, stored.DiscountTotal, stored.TaxTotal, stored.Total = inv.Subtotal, inv.DiscountTotal, inv.TaxTotal, inv.Total
	stored.ConfirmedAt = &at
	m.invoices[inv.ID] = stored
	return true, nil
}

func (m *memoryRepo) MarkReturned(ctx context.Context, id, entryID int64, at time.Time) (bool, error) {
	stored := m.invoices[id]
	if stored.Status != StatusConfirmed {
		return false, nil
	}
	stored.Status = StatusReturned
	stored.ReturnEntryID = &entryID
	m.invoices[id] = stored
	return true, nil
}

const (
	customer int64 = 40
	widget   int64 = 1
	gadget   int64 = 2
	piece    int64 = 9

	receivable  int64 = 110
	payable     int64 = 210
	revenue     int64 = 410
	salesTax    int64 = 220
	shipping    int64 = 420
	inventory   int64 = 510
	purchaseTax int64 = 120
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func ptr(v int64) *int64 { return &v }

func setup(t *testing.T) (*Service, *memoryRepo, *journaltest.Store) {
	t.Helper()
	ledger := journaltest.New()
	ledger.AddYear(fiscalyears.FiscalYear{ID: 1, Name: "FY1", StartDate: date("2024-01-01"), EndDate: date("2024-12-31"), IsActive: true})
	ledger.AddAccounts(1, receivable, payable, revenue, salesTax, shipping, inventory, purchaseTax)
	ledger.SetMapping(1, mappings.PersonReceivable, receivable)
	ledger.SetMapping(1, mappings.PersonPayable, payable)
	ledger.SetMapping(1, mappings.SalesRevenue, revenue)
	ledger.SetMapping(1, mappings.SalesTax, salesTax)
	ledger.SetMapping(1, mappings.SalesShipping, shipping)
	ledger.SetMapping(1, mappings.PurchaseExpense, inventory)
	ledger.SetMapping(1, mappings.PurchaseTax, purchaseTax)

	repo := newMemoryRepo(ledger)
	svc := NewService(repo, nil)
	svc.WithNow(func() time.Time { return date("2024-06-01") })
	return svc, repo, ledger
}

func salesInput(lines ...LineInput) Input {
	if len(lines) == 0 {
		lines = []LineInput{{ProductID: widget, UnitID: ptr(piece), Quantity: d("2"), UnitPrice: d("500")}}
	}
	return Input{Type: TypeSales, PersonID: customer, InvoiceDate: date("2024-05-20"), Lines: lines}
}

type countingObserver struct {
	mu    sync.Mutex
	posts map[string]int
}

func (o *countingObserver) ObservePosting(document string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.posts == nil {
		o.posts = map[string]int{}
	}
	o.posts[document]++
}

func TestSalesInvoiceConfirmPostsOnce(t *testing.T) {
	svc, _, ledger := setup(t)
	observer := &countingObserver{}
	svc.WithObserver(observer)
	ctx := context.Background()

	inv, err := svc.Create(ctx, salesInput())
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, int64(1), inv.InvoiceNo)
	assert.True(t, d("1000").Equal(inv.Total))
	require.Len(t, inv.Lines, 1)
	assert.True(t, d("1000").Equal(inv.Lines[0].LineTotal))
	assert.Empty(t, ledger.Entries())

	confirmed, err := svc.Confirm(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.JournalEntryID)

	entries := ledger.Posted()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, *confirmed.JournalEntryID, entry.ID)
	require.NotNil(t, entry.ReferenceType)
	assert.Equal(t, shared.RefInvoice, *entry.ReferenceType)
	assert.Equal(t, inv.ID, *entry.ReferenceID)
	debit, credit := journals.Totals(entry.Lines)
	assert.True(t, d("1000").Equal(debit))
	assert.True(t, d("1000").Equal(credit))

	_, err = svc.Confirm(ctx, inv.ID)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
	assert.Len(t, ledger.Posted(), 1)
	assert.Equal(t, 1, observer.posts[shared.RefInvoice])

	_, err = svc.Update(ctx, inv.ID, salesInput())
	assert.ErrorIs(t, err, shared.ErrNotDraft)
	assert.ErrorIs(t, svc.Delete(ctx, inv.ID), shared.ErrNotDraft)
}

func TestConfirmWithTaxAndShipping(t *testing.T) {
	svc, _, ledger := setup(t)
	ctx := context.Background()

	in := salesInput(
		LineInput{ProductID: widget, Quantity: d("3"), UnitPrice: d("100"), DiscountPercent: d("10"), TaxPercent: d("9")},
		LineInput{ProductID: gadget, Quantity: d("1"), UnitPrice: d("50")},
	)
	in.ShippingCost = d("20")
	inv, err := svc.Create(ctx, in)
	require.NoError(t, err)

	confirmed, err := svc.Confirm(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, d("364.30").Equal(confirmed.Total), confirmed.Total.String())

	lines := ledger.Posted()[0].Lines
	require.Len(t, lines, 4)
	assert.Equal(t, receivable, lines[0].AccountID)
	assert.True(t, d("364.30").Equal(lines[0].Debit))
	assert.Equal(t, revenue, lines[1].AccountID)
	assert.True(t, d("320").Equal(lines[1].Credit))
	assert.Equal(t, salesTax, lines[2].AccountID)
	assert.True(t, d("24.30").Equal(lines[2].Credit))
	assert.Equal(t, shipping, lines[3].AccountID)
	assert.True(t, d("20").Equal(lines[3].Credit))
}

func TestPurchaseInvoiceCreditsPayable(t *testing.T) {
	svc, _, ledger := setup(t)
	ctx := context.Background()

	in := salesInput(LineInput{ProductID: widget, Quantity: d("4"), UnitPrice: d("25"), TaxAmount: d("8")})
	in.Type = TypePurchase
	inv, err := svc.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inv.InvoiceNo)

	_, err = svc.Confirm(ctx, inv.ID)
	require.NoError(t, err)
	lines := ledger.Posted()[0].Lines
	require.Len(t, lines, 3)
	assert.Equal(t, payable, lines[0].AccountID)
	assert.True(t, d("108").Equal(lines[0].Credit))
	assert.Equal(t, inventory, lines[1].AccountID)
	assert.True(t, d("100").Equal(lines[1].Debit))
	assert.Equal(t, purchaseTax, lines[2].AccountID)
	assert.True(t, d("8").Equal(lines[2].Debit))
}

func TestNumbersRunPerType(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, salesInput())
	require.NoError(t, err)
	second, err := svc.Create(ctx, salesInput())
	require.NoError(t, err)
	quote := salesInput()
	quote.Type = TypeProforma
	proforma, err := svc.Create(ctx, quote)
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.InvoiceNo)
	assert.Equal(t, int64(2), second.InvoiceNo)
	assert.Equal(t, int64(1), proforma.InvoiceNo)
}

func TestHeaderOnlyUpdateKeepsLines(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, salesInput())
	require.NoError(t, err)

	header := salesInput()
	header.Lines = nil
	header.ShippingCost = d("30")
	header.Description = "rush order"
	updated, err := svc.Update(ctx, inv.ID, header)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.True(t, d("1030").Equal(updated.Total))
	assert.Len(t, repo.lines[inv.ID], 1)

	replaced, err := svc.Update(ctx, inv.ID, salesInput(
		LineInput{ProductID: gadget, Quantity: d("1"), UnitPrice: d("10")},
		LineInput{ProductID: widget, Quantity: d("1"), UnitPrice: d("5")},
	))
	require.NoError(t, err)
	assert.Len(t, replaced.Lines, 2)
	assert.True(t, d("15").Equal(replaced.Total))

	empty := salesInput()
	empty.Lines = []LineInput{}
	_, err = svc.Update(ctx, inv.ID, empty)
	assert.ErrorIs(t, err, shared.ErrInvalidInvoiceLine)

	changed := salesInput()
	changed.Type = TypePurchase
	_, err = svc.Update(ctx, inv.ID, changed)
	assert.ErrorIs(t, err, internalShared.ErrValidation)
}

func TestConfirmRejections(t *testing.T) {
	svc, repo, ledger := setup(t)
	ctx := context.Background()

	quote := salesInput()
	quote.Type = TypeProforma
	proforma, err := svc.Create(ctx, quote)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, proforma.ID)
	assert.ErrorIs(t, err, shared.ErrProformaNotPostable)

	free := salesInput(LineInput{ProductID: widget, Quantity: d("1"), UnitPrice: d("0")})
	zero, err := svc.Create(ctx, free)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, zero.ID)
	assert.ErrorIs(t, err, shared.ErrNonPositiveTotal)

	taxed := salesInput(LineInput{ProductID: widget, Quantity: d("1"), UnitPrice: d("10")})
	taxed.ExtraAdditions = d("1")
	unmapped, err := svc.Create(ctx, taxed)
	require.NoError(t, err)
	_, err = svc.Confirm(ctx, unmapped.ID)
	assert.ErrorIs(t, err, shared.ErrMappingNotFound)
	assert.Equal(t, StatusDraft, repo.invoices[unmapped.ID].Status)

	_, err = svc.Confirm(ctx, 999)
	assert.ErrorIs(t, err, shared.ErrInvoiceNotFound)
	assert.Empty(t, ledger.Entries())
}

func TestConfirmIsAllOrNothing(t *testing.T) {
	svc, repo, ledger := setup(t)
	ctx := context.Background()
	inv, err := svc.Create(ctx, salesInput())
	require.NoError(t, err)

	repo.failMarkConfirmed = true
	_, err = svc.Confirm(ctx, inv.ID)
	require.Error(t, err)
	assert.Empty(t, ledger.Entries())
	assert.Equal(t, StatusDraft, repo.invoices[inv.ID].Status)

	repo.failMarkConfirmed = false
	_, err = svc.Confirm(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, ledger.Posted(), 1)
}

func TestConcurrentConfirm(t *testing.T) {
	svc, _, ledger := setup(t)
	ctx := context.Background()
	inv, err := svc.Create(ctx, salesInput())
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Confirm(ctx, inv.ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Len(t, ledger.Posted(), 1)
}

func TestReturnPostsMirrorEntry(t *testing.T) {
	svc, _, ledger := setup(t)
	ctx := context.Background()
	inv, err := svc.Create(ctx, salesInput())
	require.NoError(t, err)

	_, err = svc.Return(ctx, inv.ID, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)

	_, err = svc.Confirm(ctx, inv.ID)
	require.NoError(t, err)
	on := date("2024-07-01")
	returned, err := svc.Return(ctx, inv.ID, &on)
	require.NoError(t, err)
	assert.Equal(t, StatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnEntryID)

	entries := ledger.Posted()
	require.Len(t, entries, 2)
	original, mirror := entries[0], entries[1]
	assert.Equal(t, shared.RefInvoiceReturn, *mirror.ReferenceType)
	assert.Equal(t, on, mirror.VoucherDate)
	for i := range original.Lines {
		assert.Equal(t, original.Lines[i].AccountID, mirror.Lines[i].AccountID)
		assert.True(t, original.Lines[i].Debit.Equal(mirror.Lines[i].Credit))
	}

	_, err = svc.Return(ctx, inv.ID, nil)
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestConvertProforma(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	sale, err := svc.Create(ctx, salesInput())
	require.NoError(t, err)
	_, err = svc.ConvertProforma(ctx, sale.ID)
	assert.ErrorIs(t, err, shared.ErrNotProforma)

	quote := salesInput()
	quote.Type = TypeProforma
	quote.ShippingCost = d("12.50")
	proforma, err := svc.Create(ctx, quote)
	require.NoError(t, err)

	converted, err := svc.ConvertProforma(ctx, proforma.ID)
	require.NoError(t, err)
	assert.NotEqual(t, proforma.ID, converted.ID)
	assert.Equal(t, TypeSales, converted.Type)
	assert.Equal(t, StatusDraft, converted.Status)
	assert.Equal(t, int64(2), converted.InvoiceNo)
	assert.True(t, d("1012.50").Equal(converted.Total))
	require.Len(t, converted.Lines, 1)

	stored, err := svc.Get(ctx, proforma.ID)
	require.NoError(t, err)
	assert.Equal(t, TypeProforma, stored.Type)
}

func TestCreateChecksReferences(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	cases := map[string]struct {
		mutate func(*Input)
		want   error
	}{
		"no lines":        {func(in *Input) { in.Lines = nil }, shared.ErrInvalidInvoiceLine},
		"unknown person":  {func(in *Input) { in.PersonID = 41 }, shared.ErrPersonNotFound},
		"unknown product": {func(in *Input) { in.Lines[0].ProductID = 3 }, shared.ErrProductNotFound},
		"unknown unit":    {func(in *Input) { in.Lines[0].UnitID = ptr(8) }, shared.ErrUnitNotFound},
		"outside year":    {func(in *Input) { in.InvoiceDate = date("2025-01-01") }, shared.ErrDateOutOfRange},
		"due before date": {func(in *Input) { in.DueDate = datePtr("2024-05-01") }, internalShared.ErrValidation},
		"negative charge": {func(in *Input) { in.ExtraDeductions = d("-1") }, internalShared.ErrValidation},
		"unknown type":    {func(in *Input) { in.Type = "credit_note" }, internalShared.ErrValidation},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := salesInput()
			tc.mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestInvoiceHandler(t *testing.T) {
	svc, _, ledger := setup(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	router := chi.NewRouter()
	router.Route("/invoices", h.MountRoutes)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		router.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
		return rec
	}

	rec := do(http.MethodPost, "/invoices/", fmt.Sprintf(`{"invoice_type":"sales","person_id":%d,"invoice_date":"2024-05-20",
"lines":[{"product_id":%d,"quantity":"2","unit_price":"500"}]}`, customer, widget))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := fmt.Sprintf("/invoices/%d", created["id"])

	rec = do(http.MethodPost, path+"/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(http.MethodPost, path+"/confirm", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, ledger.Posted(), 1)

	rec = do(http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var inv Invoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &inv))
	assert.Equal(t, StatusConfirmed, inv.Status)
	assert.Len(t, inv.Lines, 1)

	rec = do(http.MethodPost, path+"/return", `{"date":"2024-08-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(http.MethodPost, "/invoices/", `{"invoice_type":"sales","person_id":40,"invoice_date":"20-05-2024"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(http.MethodGet, "/invoices/?invoice_type=credit", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
