// Package journaltest provides an in-memory journal store for service tests.
package journaltest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/fiscalyears"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Store implements journals.Repository and journals.TxRepository. WithTx
// runs one transaction at a time and restores the previous state when fn
// fails, which is enough to observe commit/rollback in tests.
type Store struct {
	mu sync.Mutex

	Years    map[int64]fiscalyears.FiscalYear
	Accounts map[int64]int64
	Mappings map[string]int64

	entries   map[int64]journals.JournalEntry
	lines     map[int64][]journals.JournalLine
	sequences map[int64]int64
	nextEntry int64
	nextLine  int64
}

var (
	_ journals.Repository   = (*Store)(nil)
	_ journals.TxRepository = (*Store)(nil)
)

func New() *Store {
	return &Store{
		Years:     map[int64]fiscalyears.FiscalYear{},
		Accounts:  map[int64]int64{},
		Mappings:  map[string]int64{},
		entries:   map[int64]journals.JournalEntry{},
		lines:     map[int64][]journals.JournalLine{},
		sequences: map[int64]int64{},
		nextEntry: 1,
		nextLine:  1,
	}
}

// AddYear registers a fiscal year.
func (s *Store) AddYear(fy fiscalyears.FiscalYear) {
	s.Years[fy.ID] = fy
}

// AddAccounts registers chart accounts belonging to fiscalYearID.
func (s *Store) AddAccounts(fiscalYearID int64, ids ...int64) {
	for _, id := range ids {
		s.Accounts[id] = fiscalYearID
	}
}

func (s *Store) SetMapping(fiscalYearID int64, key string, accountID int64) {
	s.Mappings[mappingKey(fiscalYearID, key)] = accountID
}

func mappingKey(fiscalYearID int64, key string) string {
	return fmt.Sprintf("%d:%s", fiscalYearID, key)
}

// Atomic serializes fn against other transactions and rolls back the
// journal state if it fails. Document stores in tests wrap their own
// WithTx in it so that the ledger shares their unit of work.
func (s *Store) Atomic(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, lines, seqs := s.snapshot()
	nextEntry, nextLine := s.nextEntry, s.nextLine
	if err := fn(); err != nil {
		s.entries, s.lines, s.sequences = entries, lines, seqs
		s.nextEntry, s.nextLine = nextEntry, nextLine
		return err
	}
	return nil
}

func (s *Store) snapshot() (map[int64]journals.JournalEntry, map[int64][]journals.JournalLine, map[int64]int64) {
	entries := make(map[int64]journals.JournalEntry, len(s.entries))
	for k, v := range s.entries {
		entries[k] = v
	}
	lines := make(map[int64][]journals.JournalLine, len(s.lines))
	for k, v := range s.lines {
		lines[k] = append([]journals.JournalLine(nil), v...)
	}
	seqs := make(map[int64]int64, len(s.sequences))
	for k, v := range s.sequences {
		seqs[k] = v
	}
	return entries, lines, seqs
}

// Entries returns every stored entry with lines, ordered by id.
func (s *Store) Entries() []journals.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(journals.ListFilter{})
}

// Posted returns posted entries with lines, ordered by id.
func (s *Store) Posted() []journals.JournalEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sorted(journals.ListFilter{Status: journals.StatusPosted})
}

func (s *Store) sorted(filter journals.ListFilter) []journals.JournalEntry {
	out := make([]journals.JournalEntry, 0, len(s.entries))
	for id, e := range s.entries {
		if filter.FiscalYearID != 0 && e.FiscalYearID != filter.FiscalYearID {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		e.Lines = append([]journals.JournalLine(nil), s.lines[id]...)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) List(ctx context.Context, filter journals.ListFilter) ([]journals.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted(filter)
	for i := range out {
		out[i].Lines = nil
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id int64) (journals.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return journals.JournalEntry{}, shared.ErrJournalNotFound
	}
	return e, nil
}

func (s *Store) Lines(ctx context.Context, id int64) ([]journals.JournalLine, error) {
	return append([]journals.JournalLine(nil), s.lines[id]...), nil
}

func (s *Store) WithTx(ctx context.Context, fn func(context.Context, journals.TxRepository) error) error {
	return s.Atomic(func() error { return fn(ctx, s) })
}

func (s *Store) WithCreateTx(ctx context.Context, fn func(context.Context, journals.TxRepository) error) error {
	return s.WithTx(ctx, fn)
}

func (s *Store) FiscalYear(ctx context.Context, id int64) (fiscalyears.FiscalYear, error) {
	if id == 0 {
		for _, fy := range s.Years {
			if fy.IsActive {
				return fy, nil
			}
		}
		return fiscalyears.FiscalYear{}, shared.ErrNoActiveFiscalYear
	}
	fy, ok := s.Years[id]
	if !ok {
		return fiscalyears.FiscalYear{}, shared.ErrFiscalYearNotFound
	}
	return fy, nil
}

func (s *Store) AccountYears(ctx context.Context, ids []int64) (map[int64]int64, error) {
	out := make(map[int64]int64, len(ids))
	for _, id := range ids {
		if fy, ok := s.Accounts[id]; ok {
			out[id] = fy
		}
	}
	return out, nil
}

func (s *Store) ResolveMapping(ctx context.Context, fiscalYearID int64, key string) (int64, error) {
	id, ok := s.Mappings[mappingKey(fiscalYearID, key)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", shared.ErrMappingNotFound, key)
	}
	return id, nil
}

func (s *Store) NextNumber(ctx context.Context, fiscalYearID int64) (int64, error) {
	s.sequences[fiscalYearID]++
	return s.sequences[fiscalYearID], nil
}

func (s *Store) InsertEntry(ctx context.Context, e journals.JournalEntry) (journals.JournalEntry, error) {
	for _, existing := range s.entries {
		if e.SourceKey != nil && existing.SourceKey != nil && *existing.SourceKey == *e.SourceKey {
			return journals.JournalEntry{}, shared.ErrSourceAlreadyLinked
		}
		if existing.FiscalYearID == e.FiscalYearID && existing.VoucherNo == e.VoucherNo {
			return journals.JournalEntry{}, shared.ErrNumberTaken
		}
	}
	e.ID = s.nextEntry
	s.nextEntry++
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	e.Lines = nil
	s.entries[e.ID] = e
	return e, nil
}

func (s *Store) InsertLines(ctx context.Context, entryID int64, lines []journals.LineInput) ([]journals.JournalLine, error) {
	out := make([]journals.JournalLine, 0, len(lines))
	for idx, l := range lines {
		out = append(out, journals.JournalLine{
			ID:          s.nextLine,
			EntryID:     entryID,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
			SortOrder:   idx,
		})
		s.nextLine++
	}
	s.lines[entryID] = append([]journals.JournalLine(nil), out...)
	return out, nil
}

func (s *Store) GetForUpdate(ctx context.Context, id int64) (journals.JournalEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return journals.JournalEntry{}, shared.ErrJournalNotFound
	}
	return e, nil
}

func (s *Store) UpdateHeader(ctx context.Context, e journals.JournalEntry) error {
	current, ok := s.entries[e.ID]
	if !ok || current.Status != journals.StatusDraft {
		return shared.ErrNotDraft
	}
	current.VoucherDate = e.VoucherDate
	current.Description = e.Description
	s.entries[e.ID] = current
	return nil
}

func (s *Store) DeleteLines(ctx context.Context, entryID int64) error {
	delete(s.lines, entryID)
	return nil
}

func (s *Store) MarkPosted(ctx context.Context, id int64, at time.Time) (bool, error) {
	e, ok := s.entries[id]
	if !ok || e.Status != journals.StatusDraft {
		return false, nil
	}
	e.Status = journals.StatusPosted
	e.PostedAt = &at
	s.entries[id] = e
	return true, nil
}

func (s *Store) DeleteDraft(ctx context.Context, id int64) (bool, error) {
	e, ok := s.entries[id]
	if !ok || e.Status != journals.StatusDraft {
		return false, nil
	}
	delete(s.entries, id)
	delete(s.lines, id)
	return true, nil
}
