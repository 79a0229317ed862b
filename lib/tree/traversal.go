package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

// Sequence is a lazy, finite and one-shot listing of nodes.
// The consumer pops the front with Next until it reports false.
// The structure must not change while a sequence is consumed.
type Sequence[K infra.OrderedKey] struct {
	next func() *BinNode[K]
	done bool
}

func newSequence[K infra.OrderedKey](next func() *BinNode[K]) *Sequence[K] {
	return &Sequence[K]{next: next}
}

func (seq *Sequence[K]) Next() (*BinNode[K], bool) {
	if seq == nil || seq.done {
		return nil, false
	}
	x := seq.next()
	if x == nil {
		seq.done = true
		seq.next = nil
		return nil, false
	}
	return x, true
}

// Collect drains the rest of the sequence.
func (seq *Sequence[K]) Collect() []*BinNode[K] {
	res := make([]*BinNode[K], 0, 8)
	for x, ok := seq.Next(); ok; x, ok = seq.Next() {
		res = append(res, x)
	}
	return res
}

func (t *BinTree[K]) PreorderTraversal() *Sequence[K] {
	stack := make([]*BinNode[K], 0, 16)
	if t.root != nil {
		stack = append(stack, t.root)
	}
	return newSequence(func() *BinNode[K] {
		if len(stack) == 0 {
			return nil
		}
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if x.rc != nil {
			stack = append(stack, x.rc)
		}
		if x.lc != nil {
			stack = append(stack, x.lc)
		}
		return x
	})
}

func (t *BinTree[K]) InorderTraversal() *Sequence[K] {
	stack := make([]*BinNode[K], 0, 16)
	for aux := t.root; aux != nil; aux = aux.lc {
		stack = append(stack, aux)
	}
	return newSequence(func() *BinNode[K] {
		if len(stack) == 0 {
			return nil
		}
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for aux := x.rc; aux != nil; aux = aux.lc {
			stack = append(stack, aux)
		}
		return x
	})
}

func (t *BinTree[K]) PostorderTraversal() *Sequence[K] {
	stack := make([]*BinNode[K], 0, 16)
	// Descend to the highest leaf visible from the left.
	gotoHLVFL := func(x *BinNode[K]) {
		for x != nil {
			stack = append(stack, x)
			if x.lc != nil {
				if x.rc != nil {
					stack = append(stack, x.rc)
				}
				x = x.lc
			} else {
				x = x.rc
			}
		}
	}
	pending := t.root
	return newSequence(func() *BinNode[K] {
		if pending != nil {
			gotoHLVFL(pending)
			pending = nil
		}
		if len(stack) == 0 {
			return nil
		}
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			if top := stack[len(stack)-1]; top != x.parent {
				// top is the right sibling subtree of x.
				stack = stack[:len(stack)-1]
				gotoHLVFL(top)
			}
		}
		return x
	})
}

func (t *BinTree[K]) LevelTraversal() *Sequence[K] {
	queue := make([]*BinNode[K], 0, 16)
	if t.root != nil {
		queue = append(queue, t.root)
	}
	return newSequence(func() *BinNode[K] {
		if len(queue) == 0 {
			return nil
		}
		x := queue[0]
		queue = queue[1:]
		if x.lc != nil {
			queue = append(queue, x.lc)
		}
		if x.rc != nil {
			queue = append(queue, x.rc)
		}
		return x
	})
}

// ProperTraversal lists the tree in level order where every
// absent child of a present node takes a nil slot. Absent
// nodes have no children slots.
func (t *BinTree[K]) ProperTraversal() []*BinNode[K] {
	res := make([]*BinNode[K], 0, 2*t.size+1)
	if t.root == nil {
		return res
	}
	queue := []*BinNode[K]{t.root}
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		res = append(res, x)
		if x != nil {
			queue = append(queue, x.lc, x.rc)
		}
	}
	return res
}
