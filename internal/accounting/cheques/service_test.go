package cheques

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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/cashaccounts"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

type memoryRepo struct {
	mu      sync.Mutex
	cheques map[int64]Cheque
	cash    map[int64]cashaccounts.CashAccount
	persons map[int64]bool
	nextID  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		cheques: map[int64]Cheque{},
		cash: map[int64]cashaccounts.CashAccount{
			1: {ID: 1, Code: "BANK", Name: "Main Bank", Type: cashaccounts.TypeBank, IsActive: true},
			2: {ID: 2, Code: "OLD", Name: "Closed Bank", Type: cashaccounts.TypeBank},
		},
		persons: map[int64]bool{7: true},
		nextID:  1,
	}
}

func (m *memoryRepo) List(ctx context.Context, filter ListFilter) ([]Cheque, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Cheque
	for id := int64(1); id < m.nextID; id++ {
		c, ok := m.cheques[id]
		if !ok {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Type != "" && c.Type != filter.Type {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Cheque, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cheques[id]
	if !ok {
		return Cheque{}, shared.ErrChequeNotFound
	}
	return c, nil
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make(map[int64]Cheque, len(m.cheques))
	for k, v := range m.cheques {
		snapshot[k] = v
	}
	nextID := m.nextID
	if err := fn(ctx, m); err != nil {
		m.cheques, m.nextID = snapshot, nextID
		return err
	}
	return nil
}

func (m *memoryRepo) CashAccount(ctx context.Context, id int64) (cashaccounts.CashAccount, error) {
	acc, ok := m.cash[id]
	if !ok {
		return cashaccounts.CashAccount{}, shared.ErrCashAccountNotFound
	}
	return acc, nil
}

func (m *memoryRepo) PersonExists(ctx context.Context, id int64) (bool, error) {
	return m.persons[id], nil
}

func (m *memoryRepo) VoucherExists(ctx context.Context, id int64) (bool, error) {
	return id == 100, nil
}

func (m *memoryRepo) PostedEntryExists(ctx context.Context, id int64) (bool, error) {
	return id == 200, nil
}

func (m *memoryRepo) Insert(ctx context.Context, c Cheque) (Cheque, error) {
	c.ID = m.nextID
	m.nextID++
	m.cheques[c.ID] = c
	return c, nil
}

func (m *memoryRepo) GetForUpdate(ctx context.Context, id int64) (Cheque, error) {
	c, ok := m.cheques[id]
	if !ok {
		return Cheque{}, shared.ErrChequeNotFound
	}
	return c, nil
}

func (m *memoryRepo) Update(ctx context.Context, c Cheque) error {
	if m.cheques[c.ID].Status != StatusInSafe {
		return shared.ErrNotDraft
	}
	m.cheques[c.ID] = c
	return nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if m.cheques[id].Status != StatusInSafe {
		return false, nil
	}
	delete(m.cheques, id)
	return true, nil
}

func (m *memoryRepo) SetStatus(ctx context.Context, id int64, from, to Status, at time.Time) (bool, error) {
	c := m.cheques[id]
	if c.Status != from {
		return false, nil
	}
	c.Status = to
	c.StatusChangedAt = &at
	m.cheques[id] = c
	return true, nil
}

type auditSpy struct {
	mu      sync.Mutex
	actions []string
}

func (a *auditSpy) Record(ctx context.Context, log internalShared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, log.Action)
	return nil
}

var now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, *memoryRepo, *auditSpy) {
	t.Helper()
	repo := newMemoryRepo()
	audit := &auditSpy{}
	svc := NewService(repo, audit)
	svc.WithNow(func() time.Time { return now })
	return svc, repo, audit
}

func ptr(v int64) *int64 { return &v }

func receivable(amount string) Input {
	return Input{
		Type:          TypeReceivable,
		CheckNo:       " 884211 ",
		CheckDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.RequireFromString(amount),
		CashAccountID: 1,
		PersonID:      ptr(7),
	}
}

func TestChequeCollectedIsFinal(t *testing.T) {
	ctx := context.Background()
	svc, _, audit := setup(t)

	c, err := svc.Create(ctx, receivable("2000"))
	require.NoError(t, err)
	assert.Equal(t, StatusInSafe, c.Status)
	assert.Equal(t, "884211", c.CheckNo)

	collected, err := svc.SetStatus(ctx, c.ID, StatusCollected)
	require.NoError(t, err)
	assert.Equal(t, StatusCollected, collected.Status)
	require.NotNil(t, collected.StatusChangedAt)
	assert.Equal(t, now, *collected.StatusChangedAt)

	for _, to := range []Status{StatusInSafe, StatusReturned, StatusSpent, StatusCollected} {
		_, err = svc.SetStatus(ctx, c.ID, to)
		require.Error(t, err, to)
		assert.ErrorIs(t, err, shared.ErrInvalidStatus)
		assert.ErrorIs(t, err, internalShared.ErrInvalidState)
	}

	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCollected, stored.Status)
	assert.Equal(t, []string{"check.create", "check.status"}, audit.actions)
}

func TestChequeEditsOnlyInSafe(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)

	c, err := svc.Create(ctx, receivable("150.50"))
	require.NoError(t, err)

	in := receivable("175")
	in.Description = "re-issued"
	updated, err := svc.Update(ctx, c.ID, in)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("175").Equal(updated.Amount))

	_, err = svc.SetStatus(ctx, c.ID, StatusReturned)
	require.NoError(t, err)

	_, err = svc.Update(ctx, c.ID, in)
	assert.ErrorIs(t, err, shared.ErrNotDraft)
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), shared.ErrNotDraft)

	other, err := svc.Create(ctx, receivable("10"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, other.ID))
	_, err = svc.Get(ctx, other.ID)
	assert.ErrorIs(t, err, shared.ErrChequeNotFound)
}

func TestChequeCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)

	cases := map[string]struct {
		mutate func(*Input)
		want   error
	}{
		"zero amount":      {func(in *Input) { in.Amount = decimal.Zero }, shared.ErrNonPositiveAmount},
		"three decimals":   {func(in *Input) { in.Amount = decimal.RequireFromString("1.005") }, internalShared.ErrValidation},
		"missing number":   {func(in *Input) { in.CheckNo = "  " }, internalShared.ErrValidation},
		"unknown type":     {func(in *Input) { in.Type = "bearer" }, internalShared.ErrValidation},
		"missing due date": {func(in *Input) { in.DueDate = time.Time{} }, internalShared.ErrValidation},
		"unknown bank":     {func(in *Input) { in.CashAccountID = 9 }, shared.ErrCashAccountNotFound},
		"inactive bank":    {func(in *Input) { in.CashAccountID = 2 }, shared.ErrCashAccountInactive},
		"unknown person":   {func(in *Input) { in.PersonID = ptr(8) }, shared.ErrPersonNotFound},
		"unknown voucher":  {func(in *Input) { in.ReceiptVoucherID = ptr(5) }, internalShared.ErrValidation},
		"unposted entry":   {func(in *Input) { in.JournalEntryID = ptr(6) }, internalShared.ErrValidation},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			in := receivable("100")
			tc.mutate(&in)
			_, err := svc.Create(ctx, in)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	in := receivable("100")
	in.ReceiptVoucherID = ptr(100)
	_, err := svc.Create(ctx, in)
	assert.NoError(t, err)
}

func TestChequeLinksPostedEntry(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)

	in := receivable("640")
	in.JournalEntryID = ptr(200)
	c, err := svc.Create(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, c.JournalEntryID)
	assert.Equal(t, int64(200), *c.JournalEntryID)

	in.JournalEntryID = nil
	updated, err := svc.Update(ctx, c.ID, in)
	require.NoError(t, err)
	assert.Nil(t, updated.JournalEntryID)

	in.JournalEntryID = ptr(6)
	_, err = svc.Update(ctx, c.ID, in)
	assert.ErrorIs(t, err, internalShared.ErrValidation)
	stored, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.JournalEntryID)
}

func TestChequeConcurrentStatusChange(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := setup(t)
	c, err := svc.Create(ctx, receivable("300"))
	require.NoError(t, err)

	targets := []Status{StatusCollected, StatusReturned, StatusSpent, StatusCollected, StatusReturned, StatusSpent}
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, to := range targets {
		wg.Add(1)
		go func(to Status) {
			defer wg.Done()
			_, err := svc.SetStatus(ctx, c.ID, to)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, shared.ErrInvalidStatus), err)
		}(to)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestChequeHandler(t *testing.T) {
	svc, _, _ := setup(t)
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	router := chi.NewRouter()
	router.Route("/cheques", h.MountRoutes)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		router.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
		return rec
	}

	rec := do(http.MethodPost, "/cheques/", `{"type":"receivable","check_no":"A-1","check_date":"2024-03-01",
"due_date":"2024-09-01","amount":"2000.00","cash_account_id":1,"person_id":7,"journal_entry_id":200}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	path := fmt.Sprintf("/cheques/%d", created["id"])

	rec = do(http.MethodPost, path+"/status", `{"status":"collected"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(http.MethodPost, path+"/status", `{"status":"in_safe"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid State")

	rec = do(http.MethodPost, path+"/status", `{"status":"lost"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(http.MethodGet, "/cheques/?status=collected", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []Cheque
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, StatusCollected, list[0].Status)
	require.NotNil(t, list[0].JournalEntryID)
	assert.Equal(t, int64(200), *list[0].JournalEntryID)

	rec = do(http.MethodGet, "/cheques/?status=lost", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(http.MethodDelete, path, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
