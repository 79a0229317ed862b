package tree

import (
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

func BalanceFactor[K infra.OrderedKey](x *BinNode[K]) int {
	return stature(x.lc) - stature(x.rc)
}

func AVLBalanced[K infra.OrderedKey](x *BinNode[K]) bool {
	bf := BalanceFactor(x)
	return -2 < bf && bf < 2
}

// TallerChild picks the child with the larger height. On a tie
// it keeps the side x itself hangs on, so the later rotation is
// a single one.
func TallerChild[K infra.OrderedKey](x *BinNode[K]) *BinNode[K] {
	switch l, r := stature(x.lc), stature(x.rc); {
	case l > r:
		return x.lc
	case l < r:
		return x.rc
	case x.IsLC():
		return x.lc
	}
	return x.rc
}

type avlPolicy[K infra.OrderedKey] struct{}

func (avlPolicy[K]) Discipline() Discipline { return AVLType }
func (avlPolicy[K]) Ordered() bool          { return true }

func (avlPolicy[K]) Search(t *BinTree[K], e K) *BinNode[K] {
	return t.search(e)
}

func (avlPolicy[K]) Insert(t *BinTree[K], e K) (*BinNode[K], bool) {
	x, ok := bstInsert(t, e)
	if ok {
		t.hot = x.parent
		t.SolveInsertUnbalance()
	}
	return x, ok
}

func (avlPolicy[K]) Remove(t *BinTree[K], e K) bool {
	if bstRemove(t, e) == nil {
		return false
	}
	t.SolveRemoveUnbalance(t.hot)
	return true
}

func (avlPolicy[K]) OnAfterInsert(t *BinTree[K], x *BinNode[K]) {
	t.hot = x.parent
	t.SolveInsertUnbalance()
}

func (avlPolicy[K]) Validate(t *BinTree[K]) error {
	return multierr.Combine(validateStructure(t), validateOrder(t), validateAVLBalance(t))
}

// SolveInsertUnbalance climbs from hot. The first unbalanced
// ancestor is fixed by one rotation, which restores the height
// the subtree had before the insertion, so nothing above it
// needs any more work.
func (t *BinTree[K]) SolveInsertUnbalance() {
	for g := t.hot; g != nil; g = g.parent {
		if !AVLBalanced(g) {
			b := t.RotateAt(TallerChild(TallerChild(g)))
			t.UpdateHeightAbove(b.parent)
			return
		}
		t.UpdateHeight(g)
	}
}

// SolveRemoveUnbalance climbs from g up to the root, a removal
// may need one rotation per level.
func (t *BinTree[K]) SolveRemoveUnbalance(g *BinNode[K]) {
	for g != nil {
		g, _ = t.AVLRebalanceStep(g)
	}
}

// AVLRebalanceStep fixes one ancestor of a removal and returns
// the next ancestor to inspect.
func (t *BinTree[K]) AVLRebalanceStep(g *BinNode[K]) (*BinNode[K], bool) {
	rotated := false
	if !AVLBalanced(g) {
		g = t.RotateAt(TallerChild(TallerChild(g)))
		rotated = true
	}
	t.UpdateHeight(g)
	t.UpdateHeightAbove(g.parent)
	return g.parent, rotated
}
