package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

type RBColor uint8

const (
	Black RBColor = iota
	Red
)

type NodeStatus uint8

const (
	Normal NodeStatus = iota
	Active
	Visited
	Deprecated
)

type Direction int8

const (
	Left Direction = -1 + iota
	Root
	Right
)

// Discipline names the balancing rule of a tree.
type Discipline uint8

const (
	BinTreeType Discipline = iota
	BSTType
	AVLType
	SplayType
	RedBlackType
	_disciplineMax
)

// Policy is the per-discipline behaviour composed onto the
// shared binary tree core.
// Insert returns the existing node and false for a duplicate
// key, which is a normal negative result rather than an error.
type Policy[K infra.OrderedKey] interface {
	Discipline() Discipline
	Ordered() bool
	Search(t *BinTree[K], e K) *BinNode[K]
	Insert(t *BinTree[K], e K) (*BinNode[K], bool)
	Remove(t *BinTree[K], e K) bool
	// OnAfterInsert restores the discipline invariants after
	// a node has been attached to an external slot.
	OnAfterInsert(t *BinTree[K], x *BinNode[K])
	Validate(t *BinTree[K]) error
}

type TreeErr string

func (err TreeErr) Error() string {
	return string(err)
}

const (
	ErrDuplicateKey       TreeErr = "[tree] key already exists"
	ErrOrderViolation     TreeErr = "[tree] key breaks the in-order sequence"
	ErrUnsupported        TreeErr = "[tree] operation unsupported by the discipline"
	ErrInvariantViolation TreeErr = "[tree] invariant violation"
	ErrMalformedSnapshot  TreeErr = "[tree] malformed snapshot"
	ErrNodeNotFound       TreeErr = "[tree] node not found"
	ErrSlotOccupied       TreeErr = "[tree] external slot is occupied"
	ErrUnknownDiscipline  TreeErr = "[tree] unknown discipline"
)
