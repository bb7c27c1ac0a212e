package accounts

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
	internalShared "github.com/odyssey-erp/odyssey-books/internal/shared"
)

type memoryRepo struct {
	accounts map[int64]*Account
	refs     map[int64]References
	mappings map[string]int64
	years    map[int64]bool
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		accounts: map[int64]*Account{},
		refs:     map[int64]References{},
		mappings: map[string]int64{},
		years:    map[int64]bool{1: true, 2: true},
		nextID:   1,
	}
}

func (m *memoryRepo) List(ctx context.Context, fiscalYearID int64) ([]Account, error) {
	var out []Account
	for _, a := range m.accounts {
		if a.FiscalYearID == fiscalYearID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memoryRepo) Get(ctx context.Context, id int64) (Account, error) {
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, shared.ErrAccountNotFound
	}
	return *a, nil
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) GetForUpdate(ctx context.Context, id int64) (Account, error) {
	return m.Get(ctx, id)
}

func (m *memoryRepo) FiscalYearExists(ctx context.Context, fiscalYearID int64) (bool, error) {
	return m.years[fiscalYearID], nil
}

func (m *memoryRepo) Insert(ctx context.Context, acc Account) (Account, error) {
	for _, a := range m.accounts {
		if a.FiscalYearID == acc.FiscalYearID && a.Code == acc.Code {
			return Account{}, shared.ErrDuplicateCode
		}
	}
	acc.ID = m.nextID
	m.nextID++
	stored := acc
	m.accounts[acc.ID] = &stored
	return acc, nil
}

func (m *memoryRepo) Update(ctx context.Context, acc Account) error {
	for _, a := range m.accounts {
		if a.ID != acc.ID && a.FiscalYearID == acc.FiscalYearID && a.Code == acc.Code {
			return shared.ErrDuplicateCode
		}
	}
	stored := acc
	m.accounts[acc.ID] = &stored
	return nil
}

func (m *memoryRepo) SetLevels(ctx context.Context, levels map[int64]int) error {
	for id, l := range levels {
		m.accounts[id].Level = l
	}
	return nil
}

func (m *memoryRepo) CountChildren(ctx context.Context, id int64) (int64, error) {
	var n int64
	for _, a := range m.accounts {
		if a.ParentID != nil && *a.ParentID == id {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepo) References(ctx context.Context, id int64) (References, error) {
	return m.refs[id], nil
}

func (m *memoryRepo) Delete(ctx context.Context, id int64) error {
	delete(m.accounts, id)
	return nil
}

func (m *memoryRepo) SeedMapping(ctx context.Context, fiscalYearID int64, key string, accountID int64) error {
	if _, ok := m.mappings[key]; !ok {
		m.mappings[key] = accountID
	}
	return nil
}

func TestCreateEnforcesCodeUniquenessPerYear(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()
	_, err := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "1000", Title: "Cash", Type: AccountTypeAsset})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "1000", Title: "Again", Type: AccountTypeAsset})
	require.ErrorIs(t, err, shared.ErrDuplicateCode)
	assert.ErrorIs(t, err, internalShared.ErrValidation)

	_, err = svc.Create(ctx, CreateInput{FiscalYearID: 2, Code: "1000", Title: "Cash", Type: AccountTypeAsset})
	assert.NoError(t, err)

	_, err = svc.Create(ctx, CreateInput{FiscalYearID: 9, Code: "1000", Title: "Cash", Type: AccountTypeAsset})
	assert.ErrorIs(t, err, shared.ErrFiscalYearNotFound)
}

func TestCreateChildInheritsTypeAndLevel(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()
	root, err := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "4000", Title: "Revenue", Type: AccountTypeRevenue})
	require.NoError(t, err)
	child, err := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "4100", Title: "Sales", ParentID: &root.ID})
	require.NoError(t, err)
	assert.Equal(t, AccountTypeRevenue, child.Type)
	assert.Equal(t, 2, child.Level)

	_, err = svc.Create(ctx, CreateInput{FiscalYearID: 2, Code: "4100", Title: "Sales", ParentID: &root.ID})
	assert.ErrorIs(t, err, shared.ErrAccountOutsideYear)

	_, err = svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "9000", Title: "Untyped"})
	assert.ErrorIs(t, err, internalShared.ErrValidation)
}

func TestUpdateRejectsCycleAndRelevelsSubtree(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	a, _ := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "1", Title: "A", Type: AccountTypeAsset})
	b, _ := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "2", Title: "B", ParentID: &a.ID})
	c, _ := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "3", Title: "C", ParentID: &b.ID})
	d, _ := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "4", Title: "D", Type: AccountTypeAsset})
	require.Equal(t, 3, c.Level)

	_, err := svc.Update(ctx, a.ID, UpdateInput{ParentID: &c.ID})
	require.ErrorIs(t, err, shared.ErrAccountCycle)
	assert.Nil(t, repo.accounts[a.ID].ParentID)

	_, err = svc.Update(ctx, a.ID, UpdateInput{ParentID: &d.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.accounts[a.ID].Level)
	assert.Equal(t, 3, repo.accounts[b.ID].Level)
	assert.Equal(t, 4, repo.accounts[c.ID].Level)

	_, err = svc.Update(ctx, b.ID, UpdateInput{ClearParent: true})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.accounts[b.ID].Level)
	assert.Equal(t, 2, repo.accounts[c.ID].Level)
}

func TestUpdateAcceptsDeepCharts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	const depth = 120
	leaf, err := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "L0", Title: "Root", Type: AccountTypeExpense})
	require.NoError(t, err)
	root := leaf.ID
	for i := 1; i < depth; i++ {
		leaf, err = svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: fmt.Sprintf("L%d", i), Title: "Level", ParentID: &leaf.ID})
		require.NoError(t, err)
	}
	require.Equal(t, depth, leaf.Level)

	moved, err := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "M", Title: "Moved", Type: AccountTypeExpense})
	require.NoError(t, err)
	updated, err := svc.Update(ctx, moved.ID, UpdateInput{ParentID: &leaf.ID})
	require.NoError(t, err)
	assert.Equal(t, depth+1, updated.Level)

	_, err = svc.Update(ctx, root, UpdateInput{ParentID: &moved.ID})
	assert.ErrorIs(t, err, shared.ErrAccountCycle)
}

func TestDeleteGuards(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()
	parent, _ := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "1", Title: "Parent", Type: AccountTypeAsset})
	child, _ := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "2", Title: "Child", ParentID: &parent.ID})
	used, _ := svc.Create(ctx, CreateInput{FiscalYearID: 1, Code: "3", Title: "Used", Type: AccountTypeAsset})
	repo.refs[used.ID] = References{JournalLines: 3}
	repo.accounts[child.ID].IsSystem = true

	assert.ErrorIs(t, svc.Delete(ctx, parent.ID), shared.ErrAccountHasChildren)
	assert.ErrorIs(t, svc.Delete(ctx, child.ID), shared.ErrSystemAccount)
	err := svc.Delete(ctx, used.ID)
	assert.ErrorIs(t, err, shared.ErrAccountReferenced)
	assert.ErrorIs(t, err, internalShared.ErrReferenced)

	repo.accounts[child.ID].IsSystem = false
	require.NoError(t, svc.Delete(ctx, child.ID))
	require.NoError(t, svc.Delete(ctx, parent.ID))
	assert.ErrorIs(t, svc.Delete(ctx, parent.ID), shared.ErrAccountNotFound)
}

func TestSeedDefaultsIsIdempotent(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.SeedDefaults(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first, len(defaultChart))
	for _, key := range mappings.Keys {
		assert.Contains(t, repo.mappings, key)
	}
	for _, acc := range first {
		assert.True(t, acc.IsSystem)
	}

	second, err := svc.SeedDefaults(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Len(t, repo.accounts, len(defaultChart))

	tree, err := svc.Tree(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, tree, 5)
	receivable := repo.accounts[repo.mappings[mappings.PersonReceivable]]
	assert.Equal(t, "1200", receivable.Code)
	assert.Equal(t, 2, receivable.Level)
}
