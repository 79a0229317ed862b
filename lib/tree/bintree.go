package tree

import (
	"github.com/benz9527/xtree/lib/id"
	"github.com/benz9527/xtree/lib/infra"
)

// BinTree owns the structure and the primitives every
// discipline is built from.
// hot is the last node visited by a search or the parent
// of the last removed node. It is transient, reset it
// before the next search begins.
type BinTree[K infra.OrderedKey] struct {
	root *BinNode[K]
	hot  *BinNode[K]
	size int64
	ids  id.Generator
}

func newBinTree[K infra.OrderedKey]() *BinTree[K] {
	gen, _ := id.MonotonicNonZeroID()
	return &BinTree[K]{ids: gen}
}

func (t *BinTree[K]) newNode(e K, parent *BinNode[K]) *BinNode[K] {
	return &BinNode[K]{
		id:     t.ids.Number(),
		data:   e,
		parent: parent,
	}
}

func (t *BinTree[K]) Root() *BinNode[K] {
	return t.root
}

func (t *BinTree[K]) Size() int64 {
	return t.size
}

func (t *BinTree[K]) Empty() bool {
	return t.root == nil
}

func (t *BinTree[K]) Hot() *BinNode[K] {
	return t.hot
}

func (t *BinTree[K]) SetHot(node *BinNode[K]) {
	t.hot = node
}

func (t *BinTree[K]) ResetHot() {
	t.hot = nil
}

// Clear drops every node, the id sequence keeps going.
func (t *BinTree[K]) Clear() {
	t.root, t.hot, t.size = nil, nil, 0
}

func (t *BinTree[K]) ReAttachAsLC(p, lc *BinNode[K]) {
	p.lc = lc
	if lc != nil {
		lc.parent = p
	}
}

func (t *BinTree[K]) ReAttachAsRC(p, rc *BinNode[K]) {
	p.rc = rc
	if rc != nil {
		rc.parent = p
	}
}

// attach hangs the subtree x into the slot of parent, or makes
// it the root if parent is nil.
func (t *BinTree[K]) attach(parent *BinNode[K], asLC bool, x *BinNode[K]) {
	if x != nil {
		x.parent = parent
	}
	switch {
	case parent == nil:
		t.root = x
	case asLC:
		parent.lc = x
	default:
		parent.rc = x
	}
}

// replace puts y into the slot currently held by x.
func (t *BinTree[K]) replace(x, y *BinNode[K]) {
	t.attach(x.parent, x.IsLC(), y)
}

func (t *BinTree[K]) UpdateHeight(x *BinNode[K]) int {
	x.height = 1 + max(stature(x.lc), stature(x.rc))
	return x.height
}

// UpdateHeightAbove climbs from x while heights keep changing.
// The children of x must already carry their final heights.
func (t *BinTree[K]) UpdateHeightAbove(x *BinNode[K]) {
	for ; x != nil; x = x.parent {
		if prev := x.height; t.UpdateHeight(x) == prev {
			break
		}
	}
}

func (t *BinTree[K]) updateAllHeights() {
	for _, x := range t.PostorderTraversal().Collect() {
		t.UpdateHeight(x)
	}
}

/*
Connect34 rebuilds the 3+4 structure, the single rotation
primitive of every balanced discipline.

	     b
	   /   \
	  a     c
	 / \   / \
	T0 T1 T2 T3
*/
func (t *BinTree[K]) Connect34(a, b, c, t0, t1, t2, t3 *BinNode[K]) *BinNode[K] {
	t.ReAttachAsLC(a, t0)
	t.ReAttachAsRC(a, t1)
	t.UpdateHeight(a)
	t.ReAttachAsLC(c, t2)
	t.ReAttachAsRC(c, t3)
	t.UpdateHeight(c)
	t.ReAttachAsLC(b, a)
	t.ReAttachAsRC(b, c)
	t.UpdateHeight(b)
	return b
}

// RotateAt balances the v-p-g chain (v, its parent and its
// grandparent) and hangs the rebuilt subtree into the slot g
// held. Returns the new top of the subtree.
func (t *BinTree[K]) RotateAt(v *BinNode[K]) *BinNode[K] {
	if v == nil || v.parent == nil || v.parent.parent == nil {
		panic( /* debug assertion */ "[tree] rotate without grandparent")
	}
	p := v.parent
	g := p.parent
	gg, gIsLC := g.parent, g.IsLC()

	var b *BinNode[K]
	if p.IsLC() {
		if v.IsLC() { /* zig-zig */
			b = t.Connect34(v, p, g, v.lc, v.rc, p.rc, g.rc)
		} else { /* zag-zig */
			b = t.Connect34(p, v, g, p.lc, v.lc, v.rc, g.rc)
		}
	} else {
		if v.IsRC() { /* zag-zag */
			b = t.Connect34(g, p, v, g.lc, p.lc, v.lc, v.rc)
		} else { /* zig-zag */
			b = t.Connect34(g, v, p, g.lc, v.lc, v.rc, p.rc)
		}
	}
	t.attach(gg, gIsLC, b)
	return b
}

func (t *BinTree[K]) InsertAsRoot(e K) *BinNode[K] {
	if t.root != nil {
		panic( /* debug assertion */ "[tree] insert as root into a non-empty tree")
	}
	t.root = t.newNode(e, nil)
	t.size = 1
	t.hot = nil
	return t.root
}

// InsertAsLC attaches e as the left child of x. Heights above
// are left for the caller when updateH is false, the balanced
// disciplines recompute them while fixing up.
func (t *BinTree[K]) InsertAsLC(x *BinNode[K], e K, updateH bool) *BinNode[K] {
	if x == nil || x.lc != nil {
		panic( /* debug assertion */ "[tree] insert into an occupied left slot")
	}
	x.lc = t.newNode(e, x)
	t.size++
	t.hot = x
	if updateH {
		t.UpdateHeightAbove(x)
	}
	return x.lc
}

func (t *BinTree[K]) InsertAsRC(x *BinNode[K], e K, updateH bool) *BinNode[K] {
	if x == nil || x.rc != nil {
		panic( /* debug assertion */ "[tree] insert into an occupied right slot")
	}
	x.rc = t.newNode(e, x)
	t.size++
	t.hot = x
	if updateH {
		t.UpdateHeightAbove(x)
	}
	return x.rc
}

// RemoveAt splices out a node with at most one child and
// returns the child which takes its place.
// hot becomes the parent of the removed node.
func (t *BinTree[K]) RemoveAt(x *BinNode[K]) *BinNode[K] {
	if x == nil {
		panic( /* debug assertion */ "[tree] remove nil node")
	}
	if x.lc != nil && x.rc != nil {
		panic( /* debug assertion */ "[tree] remove node with two children")
	}
	succ := x.lc
	if succ == nil {
		succ = x.rc
	}
	t.hot = x.parent
	t.replace(x, succ)
	x.parent, x.lc, x.rc = nil, nil, nil
	t.size--
	t.UpdateHeightAbove(t.hot)
	return succ
}

// RemoveBelow detaches the whole subtree rooted at x and
// returns the number of removed nodes.
func (t *BinTree[K]) RemoveBelow(x *BinNode[K]) int64 {
	if x == nil {
		return 0
	}
	n := x.Size()
	parent := x.parent
	t.replace(x, nil)
	x.parent = nil
	t.size -= n
	t.hot = parent
	t.UpdateHeightAbove(parent)
	return n
}

func (t *BinTree[K]) SwapData(x, y *BinNode[K]) {
	x.data, y.data = y.data, x.data
}

// SetData overwrites the key in place, the ordering is
// checked by the caller.
func (t *BinTree[K]) SetData(x *BinNode[K], e K) {
	x.data = e
}

func (t *BinTree[K]) FindByID(nodeID uint64) *BinNode[K] {
	if nodeID == 0 {
		return nil
	}
	for seq := t.PreorderTraversal(); ; {
		x, ok := seq.Next()
		if !ok {
			return nil
		}
		if x.id == nodeID {
			return x
		}
	}
}

func (t *BinTree[K]) ResetStatus() {
	for seq := t.PreorderTraversal(); ; {
		x, ok := seq.Next()
		if !ok {
			return
		}
		x.status = Normal
	}
}

// StaticSearch walks the ordered path without touching hot.
func (t *BinTree[K]) StaticSearch(e K) *BinNode[K] {
	x := t.root
	for x != nil && x.data != e {
		if e < x.data {
			x = x.lc
		} else {
			x = x.rc
		}
	}
	return x
}

// SearchIn walks the ordered path from v and records the last
// visited node into hot.
func (t *BinTree[K]) SearchIn(v *BinNode[K], e K) *BinNode[K] {
	t.hot = nil
	if v != nil {
		t.hot = v.parent
	}
	for v != nil && v.data != e {
		t.hot = v
		if e < v.data {
			v = v.lc
		} else {
			v = v.rc
		}
	}
	return v
}

func (t *BinTree[K]) search(e K) *BinNode[K] {
	return t.SearchIn(t.root, e)
}
