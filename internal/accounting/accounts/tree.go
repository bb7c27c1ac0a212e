package accounts

import (
	"fmt"
	"sort"

	"github.com/odyssey-erp/odyssey-books/internal/accounting/shared"
)

// Node is an account with its ordered children.
type Node struct {
	Account
	Children []*Node `json:"children"`
}

func lessAccount(a, b Account) bool {
	if a.SortOrder != b.SortOrder {
		return a.SortOrder < b.SortOrder
	}
	if a.Code != b.Code {
		return a.Code < b.Code
	}
	return a.ID < b.ID
}

// BuildTree assembles the forest ordered by sort_order then code. Accounts
// whose parent is missing from the input are promoted to roots; accounts
// trapped in a parent cycle are unreachable and therefore omitted.
func BuildTree(list []Account) []*Node {
	sorted := make([]Account, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return lessAccount(sorted[i], sorted[j]) })

	nodes := make(map[int64]*Node, len(sorted))
	for _, acc := range sorted {
		nodes[acc.ID] = &Node{Account: acc, Children: []*Node{}}
	}
	roots := make([]*Node, 0)
	for _, acc := range sorted {
		node := nodes[acc.ID]
		if acc.ParentID != nil {
			if parent, ok := nodes[*acc.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		if acc.ParentID == nil || nodes[*acc.ParentID] == nil {
			roots = append(roots, node)
		}
	}
	return roots
}

// Walk visits nodes depth first in display order without recursion.
func Walk(roots []*Node, fn func(n *Node, depth int)) {
	type frame struct {
		node  *Node
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], 1})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(top.node, top.depth)
		for i := len(top.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{top.node.Children[i], top.depth + 1})
		}
	}
}

// Flatten returns the accounts of the forest in display order.
func Flatten(roots []*Node) []Account {
	var out []Account
	Walk(roots, func(n *Node, _ int) { out = append(out, n.Account) })
	return out
}

// ParentLookup returns the parent of id, nil for roots.
type ParentLookup func(id int64) (*int64, error)

// CheckParent rejects making newParent the parent of id when newParent is id
// itself or one of its descendants. The walk is bounded by limit steps.
func CheckParent(id, newParent int64, parentOf ParentLookup, limit int) error {
	current := newParent
	for step := 0; step <= limit; step++ {
		if current == id {
			return shared.ErrAccountCycle
		}
		parent, err := parentOf(current)
		if err != nil {
			return err
		}
		if parent == nil {
			return nil
		}
		current = *parent
	}
	return fmt.Errorf("%w: ancestry of %d does not reach a root within %d steps", shared.ErrAccountCycle, newParent, limit)
}

// SubtreeLevels computes levels for rootID and its descendants given the
// level assigned to rootID.
func SubtreeLevels(list []Account, rootID int64, rootLevel int) map[int64]int {
	children := make(map[int64][]int64)
	for _, acc := range list {
		if acc.ParentID != nil {
			children[*acc.ParentID] = append(children[*acc.ParentID], acc.ID)
		}
	}
	levels := map[int64]int{rootID: rootLevel}
	queue := []int64{rootID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, child := range children[id] {
			if _, seen := levels[child]; seen {
				continue
			}
			levels[child] = levels[id] + 1
			queue = append(queue, child)
		}
	}
	return levels
}
