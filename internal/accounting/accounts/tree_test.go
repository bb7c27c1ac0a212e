package accounts

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

func ptr(v int64) *int64 { return &v }

func TestBuildTreeOrdersBySortOrderThenCode(t *testing.T) {
	list := []Account{
		{ID: 1, Code: "2000", Title: "Liabilities", SortOrder: 2},
		{ID: 2, Code: "1000", Title: "Assets", SortOrder: 1},
		{ID: 3, Code: "1200", Title: "Receivables", ParentID: ptr(2), SortOrder: 5},
		{ID: 4, Code: "1100", Title: "Cash", ParentID: ptr(2), SortOrder: 5},
		{ID: 5, Code: "1050", Title: "Petty", ParentID: ptr(2), SortOrder: 9},
	}
	roots := BuildTree(list)
	require.Len(t, roots, 2)
	assert.Equal(t, "1000", roots[0].Code)
	assert.Equal(t, "2000", roots[1].Code)

	children := roots[0].Children
	require.Len(t, children, 3)
	assert.Equal(t, []string{"1100", "1200", "1050"}, []string{children[0].Code, children[1].Code, children[2].Code})
	assert.Empty(t, roots[1].Children)
}

func TestBuildTreePromotesOrphansAndDropsCycles(t *testing.T) {
	list := []Account{
		{ID: 1, Code: "A", ParentID: ptr(99)},
		{ID: 2, Code: "B", ParentID: ptr(3)},
		{ID: 3, Code: "C", ParentID: ptr(2)},
		{ID: 4, Code: "D", ParentID: ptr(4)},
	}
	roots := BuildTree(list)
	require.Len(t, roots, 1)
	assert.Equal(t, "A", roots[0].Code)
}

func TestWalkHandlesDeepChainsIteratively(t *testing.T) {
	const depth = 20000
	list := make([]Account, 0, depth)
	for i := int64(1); i <= depth; i++ {
		acc := Account{ID: i, Code: fmt.Sprintf("%06d", i)}
		if i > 1 {
			acc.ParentID = ptr(i - 1)
		}
		list = append(list, acc)
	}
	roots := BuildTree(list)
	maxDepth := 0
	count := 0
	Walk(roots, func(n *Node, d int) {
		count++
		if d > maxDepth {
			maxDepth = d
		}
	})
	assert.Equal(t, depth, count)
	assert.Equal(t, depth, maxDepth)
	assert.Len(t, Flatten(roots), depth)
}

func TestCheckParent(t *testing.T) {
	parents := map[int64]*int64{1: nil, 2: ptr(1), 3: ptr(2), 4: nil}
	lookup := func(id int64) (*int64, error) { return parents[id], nil }

	assert.NoError(t, CheckParent(4, 3, lookup, 10))
	assert.ErrorIs(t, CheckParent(1, 3, lookup, 10), shared.ErrAccountCycle)
	assert.ErrorIs(t, CheckParent(2, 2, lookup, 10), shared.ErrAccountCycle)
	assert.ErrorIs(t, CheckParent(4, 3, lookup, 1), shared.ErrAccountCycle)
}

func TestSubtreeLevels(t *testing.T) {
	list := []Account{
		{ID: 1},
		{ID: 2, ParentID: ptr(1)},
		{ID: 3, ParentID: ptr(2)},
		{ID: 4, ParentID: ptr(2)},
		{ID: 5},
	}
	levels := SubtreeLevels(list, 2, 4)
	assert.Equal(t, map[int64]int{2: 4, 3: 5, 4: 5}, levels)
}
