package tree

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/benz9527/xtree/lib/infra"
)

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariantViolation}, args...)...)
}

// CheckValidity reports whether the tree satisfies every
// invariant of its discipline, and the reasons if not.
// Invalid trees are reported, never corrected.
func CheckValidity[K infra.OrderedKey](t *Tree[K]) (bool, string) {
	err := t.Validate()
	if err == nil {
		return true, ""
	}
	reasons := make([]string, 0, 4)
	for _, e := range multierr.Errors(err) {
		reasons = append(reasons, strings.TrimPrefix(e.Error(), ErrInvariantViolation.Error()+": "))
	}
	return false, strings.Join(reasons, "; ")
}

// validateStructure checks the back-references, the size and
// the heights every primitive keeps up to date.
func validateStructure[K infra.OrderedKey](t *BinTree[K]) error {
	if t.root == nil {
		if t.size != 0 {
			return violation("empty tree with size %d", t.size)
		}
		return nil
	}
	var err error
	if t.root.parent != nil {
		err = multierr.Append(err, violation("root %v has a parent", t.root.data))
	}
	count := int64(0)
	for _, x := range t.PostorderTraversal().Collect() {
		count++
		if x.lc != nil && x.lc.parent != x {
			err = multierr.Append(err, violation("left child of %v points to another parent", x.data))
		}
		if x.rc != nil && x.rc.parent != x {
			err = multierr.Append(err, violation("right child of %v points to another parent", x.data))
		}
		if h := 1 + max(stature(x.lc), stature(x.rc)); h != x.height {
			err = multierr.Append(err, violation("node %v height %d, expected %d", x.data, x.height, h))
		}
	}
	if count != t.size {
		err = multierr.Append(err, violation("size %d, but %d nodes reachable", t.size, count))
	}
	return err
}

// validateOrder checks the in-order sequence is strictly increasing.
func validateOrder[K infra.OrderedKey](t *BinTree[K]) error {
	var (
		err  error
		prev *BinNode[K]
	)
	for seq := t.InorderTraversal(); ; {
		x, ok := seq.Next()
		if !ok {
			return err
		}
		if prev != nil && prev.data >= x.data {
			err = multierr.Append(err, violation("in-order %v is not less than %v", prev.data, x.data))
		}
		prev = x
	}
}

func validateAVLBalance[K infra.OrderedKey](t *BinTree[K]) error {
	var err error
	for seq := t.LevelTraversal(); ; {
		x, ok := seq.Next()
		if !ok {
			return err
		}
		if !AVLBalanced(x) {
			err = multierr.Append(err, violation("node %v unbalanced by %d", x.data, BalanceFactor(x)))
		}
	}
}

// Red-black rule validation utilities.

// References:
// https://github1s.com/minghu6/rust-minghu6/blob/master/coll_st/src/bst/rb.rs

func RootColorValidate[K infra.OrderedKey](t *BinTree[K]) error {
	if isRed(t.root) {
		return violation("red root %v", t.root.data)
	}
	return nil
}

// RedViolationValidate walks in-order, a red node must not have
// a red parent or a red child.
func RedViolationValidate[K infra.OrderedKey](t *BinTree[K]) error {
	var err error
	for seq := t.InorderTraversal(); ; {
		aux, ok := seq.Next()
		if !ok {
			return err
		}
		if isRed(aux) && (isRed(aux.parent) || isRed(aux.lc) || isRed(aux.rc)) {
			err = multierr.Append(err, violation("red node %v has a red neighbour", aux.data))
		}
	}
}

// BFS traversal to load the nodes owning a nil leaf.
func bfsLeaves[K infra.OrderedKey](t *BinTree[K]) []*BinNode[K] {
	leaves := make([]*BinNode[K], 0, t.size>>1+1)
	for seq := t.LevelTraversal(); ; {
		aux, ok := seq.Next()
		if !ok {
			return leaves
		}
		if /* nil leaves, keep one */ aux.lc == nil || aux.rc == nil {
			leaves = append(leaves, aux)
		}
	}
}

func blackDepth[K infra.OrderedKey](x *BinNode[K]) int {
	depth := 0
	for aux := x; aux != nil; aux = aux.parent {
		if isBlack(aux) {
			depth++
		}
	}
	return depth
}

/*
BlackViolationValidate checks every nil leaf has the same
number of black ancestors.

<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
	        /  \
	     <8>    <15>
	     / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            <16>

2-3-4 tree like:

	        <8> --- [13] --- <15>
	       /  \             /    \
	      /    \           /      \
	  <1>-[6]  [11]      [14]  <16>-[17]
*/
func BlackViolationValidate[K infra.OrderedKey](t *BinTree[K]) error {
	leaves := bfsLeaves(t)
	if len(leaves) == 0 {
		return nil
	}
	expected := blackDepth(leaves[0])
	for i := 1; i < len(leaves); i++ {
		if depth := blackDepth(leaves[i]); depth != expected {
			return violation("black depth %d under %v, expected %d", depth, leaves[i].data, expected)
		}
	}
	return nil
}
