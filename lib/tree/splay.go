package tree

import (
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

type splayPolicy[K infra.OrderedKey] struct{}

func (splayPolicy[K]) Discipline() Discipline { return SplayType }
func (splayPolicy[K]) Ordered() bool          { return true }

// Search splays the found node, or hot on a miss, to the root.
func (splayPolicy[K]) Search(t *BinTree[K], e K) *BinNode[K] {
	x := t.search(e)
	switch {
	case x != nil:
		t.Splay(x)
	case t.hot != nil:
		t.Splay(t.hot)
	default:
	}
	return x
}

func (p splayPolicy[K]) Insert(t *BinTree[K], e K) (*BinNode[K], bool) {
	if t.root == nil {
		return t.InsertAsRoot(e), true
	}
	if x := p.Search(t, e); x != nil {
		return x, false
	}
	return t.InsertSplitRoot(e), true
}

func (p splayPolicy[K]) Remove(t *BinTree[K], e K) bool {
	if t.root == nil || p.Search(t, e) == nil {
		return false
	}
	if t.root.lc != nil && t.root.rc != nil {
		t.SplayUntil(t.root.rc.minimum(), t.root)
	}
	t.SpliceSplayedRoot()
	return true
}

func (splayPolicy[K]) OnAfterInsert(*BinTree[K], *BinNode[K]) {}

func (splayPolicy[K]) Validate(t *BinTree[K]) error {
	return multierr.Append(validateStructure(t), validateOrder(t))
}

/*
SplayDoubleLayer lifts v over its parent p and grandparent g.

zig-zig, v and p are both left children:

	      g              v
	     / \            / \
	    p   T3   =>    T0  p
	   / \                / \
	  v   T2             T1  g
	 / \                    / \
	T0 T1                  T2 T3

zig-zag and zag-zig are the 3+4 reconstruction.
*/
func (t *BinTree[K]) SplayDoubleLayer(v, p, g *BinNode[K]) {
	gg, gIsLC := g.parent, g.IsLC()
	if v.IsLC() {
		if p.IsLC() { /* zig-zig */
			t.ReAttachAsLC(g, p.rc)
			t.ReAttachAsLC(p, v.rc)
			t.ReAttachAsRC(p, g)
			t.ReAttachAsRC(v, p)
		} else { /* zig-zag */
			t.Connect34(g, v, p, g.lc, v.lc, v.rc, p.rc)
		}
	} else {
		if p.IsRC() { /* zag-zag */
			t.ReAttachAsRC(g, p.lc)
			t.ReAttachAsRC(p, v.lc)
			t.ReAttachAsLC(p, g)
			t.ReAttachAsLC(v, p)
		} else { /* zag-zig */
			t.Connect34(p, v, g, p.lc, v.lc, v.rc, g.rc)
		}
	}
	t.attach(gg, gIsLC, v)
	t.UpdateHeight(g)
	t.UpdateHeight(p)
	t.UpdateHeight(v)
}

// SplaySingleLayer lifts v over its parent p.
func (t *BinTree[K]) SplaySingleLayer(v, p *BinNode[K]) {
	pp, pIsLC := p.parent, p.IsLC()
	if v.IsLC() { /* zig */
		t.ReAttachAsLC(p, v.rc)
		t.ReAttachAsRC(v, p)
	} else { /* zag */
		t.ReAttachAsRC(p, v.lc)
		t.ReAttachAsLC(v, p)
	}
	t.attach(pp, pIsLC, v)
	t.UpdateHeight(p)
	t.UpdateHeight(v)
}

// SplayStep lifts v by one double (or single) layer towards
// stop and reports whether v is now a child of stop. A nil
// stop means the root.
func (t *BinTree[K]) SplayStep(v, stop *BinNode[K]) bool {
	p := v.parent
	if p == stop {
		return true
	}
	if g := p.parent; g != stop {
		t.SplayDoubleLayer(v, p, g)
	} else {
		t.SplaySingleLayer(v, p)
	}
	t.UpdateHeightAbove(v.parent)
	return v.parent == stop
}

func (t *BinTree[K]) SplayUntil(v, stop *BinNode[K]) *BinNode[K] {
	if v == nil {
		return nil
	}
	for !t.SplayStep(v, stop) {
	}
	return v
}

func (t *BinTree[K]) Splay(v *BinNode[K]) *BinNode[K] {
	return t.SplayUntil(v, nil)
}

// InsertSplitRoot makes e the new root, the old root and one of
// its subtrees go to the side of e they belong to. The previous
// search must have splayed the neighbour of e to the root.
func (t *BinTree[K]) InsertSplitRoot(e K) *BinNode[K] {
	r := t.root
	if r == nil {
		panic( /* debug assertion */ "[tree] split an empty splay tree")
	}
	v := t.newNode(e, nil)
	if r.data < e {
		t.ReAttachAsRC(v, r.rc)
		t.ReAttachAsLC(v, r)
		r.rc = nil
	} else {
		t.ReAttachAsLC(v, r.lc)
		t.ReAttachAsRC(v, r)
		r.lc = nil
	}
	t.root = v
	t.size++
	t.hot = nil
	t.UpdateHeight(r)
	t.UpdateHeight(v)
	return v
}

// SpliceSplayedRoot removes the root. If it has two children
// the successor must already be splayed up to its right child,
// so the successor has no left child and takes over.
func (t *BinTree[K]) SpliceSplayedRoot() *BinNode[K] {
	v := t.root
	if v == nil {
		panic( /* debug assertion */ "[tree] splice an empty splay tree")
	}
	var next *BinNode[K]
	switch {
	case v.lc == nil:
		next = v.rc
	case v.rc == nil:
		next = v.lc
	default:
		if next = v.rc; next.lc != nil {
			panic( /* debug assertion */ "[tree] splay successor is not lifted")
		}
		t.ReAttachAsLC(next, v.lc)
		t.UpdateHeight(next)
	}
	t.attach(nil, false, next)
	v.parent, v.lc, v.rc = nil, nil, nil
	t.size--
	t.hot = nil
	return next
}
