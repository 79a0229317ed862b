package tree

import (
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

type bstPolicy[K infra.OrderedKey] struct{}

func (bstPolicy[K]) Discipline() Discipline { return BSTType }
func (bstPolicy[K]) Ordered() bool          { return true }

func (bstPolicy[K]) Search(t *BinTree[K], e K) *BinNode[K] {
	return t.search(e)
}

func (bstPolicy[K]) Insert(t *BinTree[K], e K) (*BinNode[K], bool) {
	return bstInsert(t, e)
}

func (bstPolicy[K]) Remove(t *BinTree[K], e K) bool {
	return bstRemove(t, e) != nil
}

func (bstPolicy[K]) OnAfterInsert(*BinTree[K], *BinNode[K]) {}

func (bstPolicy[K]) Validate(t *BinTree[K]) error {
	return multierr.Append(validateStructure(t), validateOrder(t))
}

// bstInsert hangs e under hot as a leaf.
func bstInsert[K infra.OrderedKey](t *BinTree[K], e K) (*BinNode[K], bool) {
	if x := t.search(e); x != nil {
		return x, false
	}
	if t.hot == nil {
		return t.InsertAsRoot(e), true
	}
	if e < t.hot.data {
		return t.InsertAsLC(t.hot, e, true), true
	}
	return t.InsertAsRC(t.hot, e, true), true
}

// bstRemove swaps a node of two children with its successor
// first, so the node really spliced out has at most one child.
// Returns the spliced node, or nil if e is absent. hot is left
// at the parent of the spliced node.
func bstRemove[K infra.OrderedKey](t *BinTree[K], e K) *BinNode[K] {
	x := t.search(e)
	if x == nil {
		return nil
	}
	if x.lc != nil && x.rc != nil {
		succ := x.Succ()
		t.SwapData(x, succ)
		x = succ
	}
	t.RemoveAt(x)
	return x
}
