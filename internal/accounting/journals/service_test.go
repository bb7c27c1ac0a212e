package journals_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals/journaltest"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type recordingAudit struct {
	mu   sync.Mutex
	logs []internalShared.AuditLog
}

func (r *recordingAudit) Record(ctx context.Context, log internalShared.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingObserver) ObservePosting(document string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[string]int{}
	}
	c.counts[document]++
}

const (
	cash    int64 = 10
	capital int64 = 20
	sales   int64 = 30
	other   int64 = 99
)

func setup(t *testing.T) (*journals.Service, *journaltest.Store, *recordingAudit) {
	t.Helper()
	store := journaltest.New()
	store.AddYear(fiscalyears.FiscalYear{ID: 1, Name: "FY2024", StartDate: date("2024-01-01"), EndDate: date("2024-12-31"), IsActive: true})
	store.AddYear(fiscalyears.FiscalYear{ID: 2, Name: "FY2025", StartDate: date("2025-01-01"), EndDate: date("2025-12-31")})
	store.AddAccounts(1, cash, capital, sales)
	store.AddAccounts(2, other)
	audit := &recordingAudit{}
	svc := journals.NewService(store, audit)
	svc.WithNow(func() time.Time { return date("2024-06-30") })
	return svc, store, audit
}

func capitalInjection(day string) journals.EntryInput {
	return journals.EntryInput{
		VoucherDate: date(day),
		Description: "capital",
		Lines: []journals.LineInput{
			{AccountID: cash, Debit: amount("1000.00")},
			{AccountID: capital, Credit: amount("1000.00")},
		},
	}
}

func TestCreateDraftUsesActiveYearAndNumbers(t *testing.T) {
	svc, _, audit := setup(t)
	ctx := internalShared.ContextWithActor(context.Background(), 7)

	first, err := svc.Create(ctx, capitalInjection("2024-03-01"))
	require.NoError(t, err)
	second, err := svc.Create(ctx, capitalInjection("2024-03-02"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.FiscalYearID)
	assert.Equal(t, journals.StatusDraft, first.Status)
	assert.Equal(t, int64(7), first.CreatedBy)
	assert.Equal(t, first.VoucherNo+1, second.VoucherNo)
	require.Len(t, first.Lines, 2)
	require.Len(t, audit.logs, 2)
	assert.Equal(t, "journal.create", audit.logs[0].Action)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()

	unbalanced := capitalInjection("2024-03-01")
	unbalanced.Lines[1].Credit = amount("999.99")
	_, err := svc.Create(ctx, unbalanced)
	require.ErrorIs(t, err, shared.ErrUnbalanced)
	require.ErrorIs(t, err, internalShared.ErrValidation)

	_, err = svc.Create(ctx, journals.EntryInput{VoucherDate: date("2024-03-01")})
	require.ErrorIs(t, err, shared.ErrNoLines)

	_, err = svc.Create(ctx, capitalInjection("2025-01-01"))
	require.ErrorIs(t, err, shared.ErrDateOutOfRange)

	foreign := capitalInjection("2024-03-01")
	foreign.Lines[1].AccountID = other
	_, err = svc.Create(ctx, foreign)
	require.ErrorIs(t, err, shared.ErrAccountOutsideYear)

	missing := capitalInjection("2024-03-01")
	missing.Lines[0].AccountID = 12345
	_, err = svc.Create(ctx, missing)
	require.ErrorIs(t, err, internalShared.ErrValidation)

	assert.Empty(t, store.Entries())
}

func TestCreateWithoutActiveYear(t *testing.T) {
	store := journaltest.New()
	svc := journals.NewService(store, nil)
	_, err := svc.Create(context.Background(), capitalInjection("2024-03-01"))
	require.ErrorIs(t, err, shared.ErrNoActiveFiscalYear)
}

func TestPostOnlyOnce(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	obs := &countingObserver{}
	svc.WithObserver(obs)

	entry, err := svc.Create(ctx, capitalInjection("2024-03-01"))
	require.NoError(t, err)

	posted, err := svc.Post(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, journals.StatusPosted, posted.Status)
	require.NotNil(t, posted.PostedAt)

	_, err = svc.Post(ctx, entry.ID)
	require.ErrorIs(t, err, shared.ErrInvalidStatus)
	require.ErrorIs(t, err, internalShared.ErrInvalidState)

	require.Len(t, store.Posted(), 1)
	assert.Equal(t, 1, obs.counts["journal"])
}

func TestConcurrentPostHasOneWinner(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	entry, err := svc.Create(ctx, capitalInjection("2024-03-01"))
	require.NoError(t, err)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		rejected int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Post(ctx, entry.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			if assert.ErrorIs(t, err, shared.ErrInvalidStatus) {
				rejected++
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, rejected)
	assert.Len(t, store.Posted(), 1)
}

func TestPostedEntryIsImmutable(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	entry, err := svc.Create(ctx, capitalInjection("2024-03-01"))
	require.NoError(t, err)
	_, err = svc.Post(ctx, entry.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, entry.ID, capitalInjection("2024-03-05"))
	require.ErrorIs(t, err, shared.ErrNotDraft)

	err = svc.Delete(ctx, entry.ID)
	require.ErrorIs(t, err, shared.ErrNotDraft)

	stored, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, date("2024-03-01"), stored.VoucherDate)
	assert.Len(t, stored.Lines, 2)
}

func TestUpdateDraftReplacesLines(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	entry, err := svc.Create(ctx, capitalInjection("2024-03-01"))
	require.NoError(t, err)

	in := journals.EntryInput{
		VoucherDate: date("2024-04-01"),
		Description: "cash sale",
		Lines: []journals.LineInput{
			{AccountID: cash, Debit: amount("250.00")},
			{AccountID: sales, Credit: amount("200.00")},
			{AccountID: capital, Credit: amount("50.00")},
		},
	}
	_, err = svc.Update(ctx, entry.ID, in)
	require.NoError(t, err)

	stored, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "cash sale", stored.Description)
	assert.Equal(t, entry.VoucherNo, stored.VoucherNo)
	require.Len(t, stored.Lines, 3)
	debit, credit := journals.Totals(stored.Lines)
	assert.True(t, debit.Equal(credit))

	in.FiscalYearID = 2
	_, err = svc.Update(ctx, entry.ID, in)
	require.ErrorIs(t, err, internalShared.ErrValidation)
}

func TestDeleteDraft(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	entry, err := svc.Create(ctx, capitalInjection("2024-03-01"))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, entry.ID))
	assert.Empty(t, store.Entries())

	_, err = svc.Get(ctx, entry.ID)
	require.ErrorIs(t, err, shared.ErrJournalNotFound)
	require.ErrorIs(t, err, internalShared.ErrNotFound)
}

func TestReverseMirrorsPostedEntry(t *testing.T) {
	svc, store, _ := setup(t)
	ctx := context.Background()
	entry, err := svc.Create(ctx, capitalInjection("2024-03-01"))
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, journals.ReverseInput{EntryID: entry.ID})
	require.ErrorIs(t, err, shared.ErrInvalidStatus)

	_, err = svc.Post(ctx, entry.ID)
	require.NoError(t, err)

	reversal, err := svc.Reverse(ctx, journals.ReverseInput{EntryID: entry.ID})
	require.NoError(t, err)
	assert.Equal(t, journals.StatusPosted, reversal.Status)
	require.NotNil(t, reversal.ReferenceType)
	assert.Equal(t, shared.RefJournalReversal, *reversal.ReferenceType)
	assert.Equal(t, entry.ID, *reversal.ReferenceID)
	assert.Contains(t, reversal.Description, "Reversal of journal")

	original, err := svc.Get(ctx, entry.ID)
	require.NoError(t, err)
	require.Len(t, reversal.Lines, len(original.Lines))
	for i := range original.Lines {
		assert.True(t, original.Lines[i].Debit.Equal(reversal.Lines[i].Credit))
		assert.True(t, original.Lines[i].Credit.Equal(reversal.Lines[i].Debit))
	}

	_, err = svc.Reverse(ctx, journals.ReverseInput{EntryID: entry.ID})
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
	assert.Len(t, store.Posted(), 2)
}

func TestCreatePostedRollsBackOnFailure(t *testing.T) {
	_, store, _ := setup(t)
	ctx := context.Background()
	in := capitalInjection("2024-03-01")
	in.ReferenceType = shared.RefVoucher
	in.ReferenceID = 5
	in.SourceKey = shared.SourceKey(shared.RefVoucher, 5)

	err := store.WithTx(ctx, func(ctx context.Context, tx journals.TxRepository) error {
		_, err := journals.CreatePosted(ctx, tx, in, date("2024-03-01"))
		return err
	})
	require.NoError(t, err)

	err = store.WithTx(ctx, func(ctx context.Context, tx journals.TxRepository) error {
		_, err := journals.CreatePosted(ctx, tx, in, date("2024-03-01"))
		return err
	})
	require.ErrorIs(t, err, shared.ErrSourceAlreadyLinked)
	assert.Len(t, store.Entries(), 1)
}
