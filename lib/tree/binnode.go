package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

// BinNode is the node shared by every discipline.
// The height of an absent child is -1, so a leaf has
// height 0. The color is only meaningful to the red-black
// discipline and the status only to the animation.
type BinNode[K infra.OrderedKey] struct {
	parent *BinNode[K]
	lc     *BinNode[K]
	rc     *BinNode[K]
	id     uint64
	data   K
	height int
	status NodeStatus
	color  RBColor
}

func (node *BinNode[K]) ID() uint64 {
	if node == nil {
		return 0
	}
	return node.id
}

func (node *BinNode[K]) Data() K {
	return node.data
}

func (node *BinNode[K]) Parent() *BinNode[K] {
	return node.parent
}

func (node *BinNode[K]) LC() *BinNode[K] {
	return node.lc
}

func (node *BinNode[K]) RC() *BinNode[K] {
	return node.rc
}

func (node *BinNode[K]) Height() int {
	return stature(node)
}

func (node *BinNode[K]) Status() NodeStatus {
	return node.status
}

func (node *BinNode[K]) SetStatus(status NodeStatus) {
	if node == nil {
		return
	}
	node.status = status
}

func (node *BinNode[K]) Color() RBColor {
	if node == nil {
		return Black
	}
	return node.color
}

func (node *BinNode[K]) IsRoot() bool {
	return node != nil && node.parent == nil
}

func (node *BinNode[K]) IsLC() bool {
	return node != nil && node.parent != nil && node.parent.lc == node
}

func (node *BinNode[K]) IsRC() bool {
	return node != nil && node.parent != nil && node.parent.rc == node
}

func (node *BinNode[K]) HasLC() bool {
	return node != nil && node.lc != nil
}

func (node *BinNode[K]) HasRC() bool {
	return node != nil && node.rc != nil
}

func (node *BinNode[K]) IsLeaf() bool {
	return node != nil && node.lc == nil && node.rc == nil
}

func (node *BinNode[K]) Direction() Direction {
	if node == nil {
		// impossible run to here
		panic( /* debug assertion */ "[tree] nil node without direction")
	}
	switch {
	case node.parent == nil:
		return Root
	case node.parent.lc == node:
		return Left
	}
	return Right
}

func (node *BinNode[K]) Sibling() *BinNode[K] {
	switch node.Direction() {
	case Left:
		return node.parent.rc
	case Right:
		return node.parent.lc
	default:
	}
	return nil
}

// Size counts the nodes of the subtree rooted at the node.
func (node *BinNode[K]) Size() int64 {
	if node == nil {
		return 0
	}
	size := int64(0)
	stack := []*BinNode[K]{node}
	for len(stack) > 0 {
		x := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		size++
		if x.lc != nil {
			stack = append(stack, x.lc)
		}
		if x.rc != nil {
			stack = append(stack, x.rc)
		}
	}
	return size
}

func (node *BinNode[K]) minimum() *BinNode[K] {
	aux := node
	for ; aux != nil && aux.lc != nil; aux = aux.lc {
	}
	return aux
}

func (node *BinNode[K]) maximum() *BinNode[K] {
	aux := node
	for ; aux != nil && aux.rc != nil; aux = aux.rc {
	}
	return aux
}

// Pred is the previous node in the in-order sequence.
func (node *BinNode[K]) Pred() *BinNode[K] {
	x := node
	if x == nil {
		return nil
	}
	if x.lc != nil {
		return x.lc.maximum()
	}
	aux := x.parent
	// Backtrack to the first ancestor holding x in its right subtree.
	for aux != nil && x == aux.lc {
		x = aux
		aux = aux.parent
	}
	return aux
}

// Succ is the next node in the in-order sequence.
func (node *BinNode[K]) Succ() *BinNode[K] {
	x := node
	if x == nil {
		return nil
	}
	if x.rc != nil {
		return x.rc.minimum()
	}
	aux := x.parent
	// Backtrack to the first ancestor holding x in its left subtree.
	for aux != nil && x == aux.rc {
		x = aux
		aux = aux.parent
	}
	return aux
}

func stature[K infra.OrderedKey](node *BinNode[K]) int {
	if node == nil {
		return -1
	}
	return node.height
}

func isBlack[K infra.OrderedKey](node *BinNode[K]) bool {
	return node == nil || node.color == Black
}

func isRed[K infra.OrderedKey](node *BinNode[K]) bool {
	return node != nil && node.color == Red
}
