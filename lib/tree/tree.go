package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

// Tree composes the shared binary tree core with the
// policy of one discipline.
type Tree[K infra.OrderedKey] struct {
	*BinTree[K]
	policy Policy[K]
}

func NewTree[K infra.OrderedKey](d Discipline) (*Tree[K], error) {
	policy, err := newPolicy[K](d)
	if err != nil {
		return nil, err
	}
	return &Tree[K]{
		BinTree: newBinTree[K](),
		policy:  policy,
	}, nil
}

func newPolicy[K infra.OrderedKey](d Discipline) (Policy[K], error) {
	switch d {
	case BinTreeType:
		return binTreePolicy[K]{}, nil
	case BSTType:
		return bstPolicy[K]{}, nil
	case AVLType:
		return avlPolicy[K]{}, nil
	case SplayType:
		return splayPolicy[K]{}, nil
	case RedBlackType:
		return redBlackPolicy[K]{}, nil
	default:
	}
	return nil, ErrUnknownDiscipline
}

func (t *Tree[K]) Discipline() Discipline {
	return t.policy.Discipline()
}

// Ordered reports whether the in-order sequence is kept sorted.
func (t *Tree[K]) Ordered() bool {
	return t.policy.Ordered()
}

// Search returns the node holding e or nil. The splay
// discipline moves the found node (or hot) up to the root.
func (t *Tree[K]) Search(e K) *BinNode[K] {
	return t.policy.Search(t.BinTree, e)
}

func (t *Tree[K]) Insert(e K) (*BinNode[K], bool) {
	return t.policy.Insert(t.BinTree, e)
}

func (t *Tree[K]) Remove(e K) bool {
	return t.policy.Remove(t.BinTree, e)
}

// OnAfterInsert runs the discipline fix-up for a node attached
// by the positional primitives.
func (t *Tree[K]) OnAfterInsert(x *BinNode[K]) {
	t.policy.OnAfterInsert(t.BinTree, x)
}

// InsertAt attaches e into an external slot and restores the
// discipline invariants. The ordering of e against its
// neighbours is checked by the caller with CheckSlotOrder.
func (t *Tree[K]) InsertAt(slot ExtrSlot, e K) (*BinNode[K], error) {
	if t.Discipline() == SplayType {
		return nil, ErrUnsupported
	}
	updateH := t.Discipline() == BinTreeType || t.Discipline() == BSTType
	var x *BinNode[K]
	if slot.IsRoot {
		if !t.Empty() {
			return nil, ErrSlotOccupied
		}
		x = t.InsertAsRoot(e)
	} else {
		parent := t.FindByID(slot.ParentID)
		switch {
		case parent == nil:
			return nil, ErrNodeNotFound
		case slot.IsLC && parent.lc != nil, !slot.IsLC && parent.rc != nil:
			return nil, ErrSlotOccupied
		case slot.IsLC:
			x = t.InsertAsLC(parent, e, updateH)
		default:
			x = t.InsertAsRC(parent, e, updateH)
		}
	}
	t.policy.OnAfterInsert(t.BinTree, x)
	return x, nil
}

func (t *Tree[K]) Validate() error {
	return t.policy.Validate(t.BinTree)
}

// CheckSlotOrder reports whether e fits into the external slot
// without breaking the in-order sequence.
func CheckSlotOrder[K infra.OrderedKey](t *BinTree[K], slot ExtrSlot, e K) bool {
	if slot.IsRoot {
		return true
	}
	parent := t.FindByID(slot.ParentID)
	if parent == nil {
		return false
	}
	if slot.IsLC {
		if pred := parent.Pred(); e > parent.data || (pred != nil && e < pred.data) {
			return false
		}
		return true
	}
	if succ := parent.Succ(); e < parent.data || (succ != nil && e > succ.data) {
		return false
	}
	return true
}

// CheckNodeOrder reports whether x may hold e without breaking
// the in-order sequence.
func CheckNodeOrder[K infra.OrderedKey](x *BinNode[K], e K) bool {
	if pred := x.Pred(); pred != nil && e < pred.data {
		return false
	}
	if succ := x.Succ(); succ != nil && e > succ.data {
		return false
	}
	return true
}

// binTreePolicy keeps no order, new keys fill the first free
// slot in level order.
type binTreePolicy[K infra.OrderedKey] struct{}

func (binTreePolicy[K]) Discipline() Discipline { return BinTreeType }
func (binTreePolicy[K]) Ordered() bool          { return false }

func (binTreePolicy[K]) Search(t *BinTree[K], e K) *BinNode[K] {
	t.hot = nil
	for seq := t.PreorderTraversal(); ; {
		x, ok := seq.Next()
		if !ok {
			return nil
		}
		if x.data == e {
			return x
		}
		t.hot = x
	}
}

func (binTreePolicy[K]) Insert(t *BinTree[K], e K) (*BinNode[K], bool) {
	if t.root == nil {
		return t.InsertAsRoot(e), true
	}
	for seq := t.LevelTraversal(); ; {
		x, _ := seq.Next()
		if x.lc == nil {
			return t.InsertAsLC(x, e, true), true
		}
		if x.rc == nil {
			return t.InsertAsRC(x, e, true), true
		}
	}
}

func (p binTreePolicy[K]) Remove(t *BinTree[K], e K) bool {
	x := p.Search(t, e)
	if x == nil {
		return false
	}
	if x.lc != nil && x.rc != nil {
		succ := x.Succ()
		t.SwapData(x, succ)
		x = succ
	}
	t.RemoveAt(x)
	return true
}

func (binTreePolicy[K]) OnAfterInsert(*BinTree[K], *BinNode[K]) {}

func (binTreePolicy[K]) Validate(t *BinTree[K]) error {
	return validateStructure(t)
}
