package tree

import (
	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

type redBlackPolicy[K infra.OrderedKey] struct{}

func (redBlackPolicy[K]) Discipline() Discipline { return RedBlackType }
func (redBlackPolicy[K]) Ordered() bool          { return true }

func (redBlackPolicy[K]) Search(t *BinTree[K], e K) *BinNode[K] {
	return t.search(e)
}

func (p redBlackPolicy[K]) Insert(t *BinTree[K], e K) (*BinNode[K], bool) {
	x, ok := bstInsert(t, e)
	if ok {
		p.OnAfterInsert(t, x)
	}
	return x, ok
}

func (redBlackPolicy[K]) Remove(t *BinTree[K], e K) bool {
	x := t.search(e)
	if x == nil {
		return false
	}
	if x.lc != nil && x.rc != nil {
		succ := x.Succ()
		t.SwapData(x, succ)
		x = succ
	}
	removedBlack, isLeft := isBlack(x), x.IsLC()
	r := t.RemoveAt(x)
	switch {
	case t.size == 0:
		return true
	case t.hot == nil:
		// The root itself was spliced out.
		t.root.color = Black
		return true
	case !removedBlack:
		return true
	case isRed(r):
		r.color = Black
		return true
	}
	t.SolveDoubleBlack(r, t.hot, isLeft)
	return true
}

// OnAfterInsert paints the new node red, then fixes a possible
// double red.
func (redBlackPolicy[K]) OnAfterInsert(t *BinTree[K], x *BinNode[K]) {
	x.color = Red
	t.UpdateHeightAbove(x.parent)
	t.SolveDoubleRed(x)
}

func (redBlackPolicy[K]) Validate(t *BinTree[K]) error {
	return multierr.Combine(
		validateStructure(t),
		validateOrder(t),
		RootColorValidate(t),
		RedViolationValidate(t),
		BlackViolationValidate(t),
	)
}

/*
SolveDoubleRed fixes a red x under a red parent p.

<X> is a RED node.
[X] is a BLACK node (or NIL).

Black uncle u, one 3+4 rotation, then paint the new top black
and its two children red:

	      [g]             [b]
	      / \             / \
	    <p> [u]   =>    <a> <c>
	    /                     \
	  <x>                     [u]

Red uncle, recolor and continue from g:

	      [g]             <g>
	      / \             / \
	    <p> <u>   =>    [p] [u]
	    /               /
	  <x>             <x>
*/
func (t *BinTree[K]) SolveDoubleRed(x *BinNode[K]) {
	for {
		if x.parent == nil {
			x.color = Black
			return
		}
		p := x.parent
		if isBlack(p) {
			return
		}
		g := p.parent
		if g == nil {
			p.color = Black
			return
		}
		u := p.Sibling()
		if isBlack(u) {
			b := t.RotateAt(x)
			b.color = Black
			b.lc.color = Red
			b.rc.color = Red
			t.UpdateHeightAbove(b.parent)
			return
		}
		p.color = Black
		u.color = Black
		g.color = Red
		x = g
	}
}

/*
SolveDoubleBlack fixes the missing black of the subtree r which
took the place of a removed black node under p. r may be nil, so
the side is passed explicitly.

	bb1: black sibling s with a red child t, rotate at t, the new
	     top inherits the color of p and its children turn black.
	bb2r: black sibling without red child, red p, swap colors of
	     s and p.
	bb2b: black sibling without red child, black p, s turns red
	     and the lost black moves up to p.
	bb3: red sibling, rotate s up and turn it black, p turns red,
	     then one of the other cases applies.
*/
func (t *BinTree[K]) SolveDoubleBlack(r, p *BinNode[K], isLeft bool) {
	if r != nil && r.parent != p {
		panic( /* debug assertion */ "[tree] double black node detached from its parent")
	}
	for p != nil {
		s := p.lc
		if isLeft {
			s = p.rc
		}
		if s == nil {
			// impossible run to here
			panic( /* debug assertion */ "[tree] black depth broken, double black without sibling")
		}
		if isRed(s) { /* bb3 */
			s.color = Black
			p.color = Red
			nephew := s.rc
			if s.IsLC() {
				nephew = s.lc
			}
			b := t.RotateAt(nephew)
			t.UpdateHeightAbove(b.parent)
			continue
		}
		var nephew *BinNode[K]
		if isRed(s.rc) {
			nephew = s.rc
		}
		if isRed(s.lc) {
			nephew = s.lc
		}
		if nephew != nil { /* bb1 */
			color := p.color
			b := t.RotateAt(nephew)
			if b.lc != nil {
				b.lc.color = Black
			}
			if b.rc != nil {
				b.rc.color = Black
			}
			b.color = color
			t.UpdateHeightAbove(b.parent)
			return
		}
		s.color = Red
		if isRed(p) { /* bb2r */
			p.color = Black
			return
		}
		/* bb2b */
		isLeft, p = p.IsLC(), p.parent
	}
}
