package playground

import (
	"strconv"
	"strings"

	"github.com/benz9527/xtree/lib/tree"
)

type (
	numTree = tree.Tree[float64]
	node    = tree.BinNode[float64]
)

const (
	commonParamsKey = "commonParams"
	treeKeyPrefix   = "temp"
)

func treeKey(d tree.Discipline) string {
	return treeKeyPrefix + d.String()
}

func fmtKey(e float64) string {
	return strconv.FormatFloat(e, 'f', -1, 64)
}

// CommonParams survive restarts, they are saved next to the
// trees.
type CommonParams struct {
	CurTreeType tree.Discipline `json:"curTreeType"`
	TreeScale   float64         `json:"treeScale"`
	// Interval between two animation steps in ms.
	Interval int64 `json:"interval"`
}

type Messages struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// View is what a renderer needs after every change.
type View struct {
	Params      CommonParams             `json:"commonParams"`
	StructInfo  tree.StructInfo[float64] `json:"structInfo"`
	Messages    Messages                 `json:"messages"`
	TopSequence []tree.SeqItem[float64]  `json:"topSequence"`
	Busy        bool                     `json:"busy"`
}

// Listener receives every refreshed view. It runs with the
// playground locked and must not call back into it.
type Listener interface {
	OnUpdate(view View)
}

type ListenerFunc func(view View)

func (fn ListenerFunc) OnUpdate(view View) {
	fn(view)
}

type TraversalMethod uint8

const (
	Preorder TraversalMethod = iota
	Inorder
	Postorder
	LevelOrder
	_traversalMax
)

var traversalNames = [...]string{
	Preorder:   "Preorder traversal",
	Inorder:    "Inorder traversal",
	Postorder:  "Postorder traversal",
	LevelOrder: "Level order traversal",
}

func (m TraversalMethod) String() string {
	if m < _traversalMax {
		return traversalNames[m]
	}
	return "unknown traversal"
}

// ParseTraversalMethod accepts pre, in, post and level.
func ParseTraversalMethod(name string) (TraversalMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pre", "preorder":
		return Preorder, nil
	case "in", "inorder":
		return Inorder, nil
	case "post", "postorder":
		return Postorder, nil
	case "level", "levelorder":
		return LevelOrder, nil
	default:
	}
	return _traversalMax, ErrUnknownTraversal
}

type PlaygroundErr string

func (err PlaygroundErr) Error() string {
	return string(err)
}

const (
	ErrEmptySequence    PlaygroundErr = "[playground] no value to insert"
	ErrUnknownTraversal PlaygroundErr = "[playground] unknown traversal method"
	ErrInvalidScale     PlaygroundErr = "[playground] tree scale must be positive"
)
