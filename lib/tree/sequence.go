package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

type SeqKind uint8

const (
	SeqValue SeqKind = iota
	SeqNull
	// SeqEnd marks where the real structure ends, every item
	// after it is ignored.
	SeqEnd
)

// SeqItem is one slot of a level-order binary sequence.
type SeqItem[K infra.OrderedKey] struct {
	Val  K
	Kind SeqKind
}

func SeqVal[K infra.OrderedKey](v K) SeqItem[K] {
	return SeqItem[K]{Val: v, Kind: SeqValue}
}

func SeqNil[K infra.OrderedKey]() SeqItem[K] {
	return SeqItem[K]{Kind: SeqNull}
}

func SeqTerm[K infra.OrderedKey]() SeqItem[K] {
	return SeqItem[K]{Kind: SeqEnd}
}

// SeqValues wraps plain keys, the helper used by the tests
// and the samples.
func SeqValues[K infra.OrderedKey](vals ...K) []SeqItem[K] {
	res := make([]SeqItem[K], 0, len(vals))
	for _, v := range vals {
		res = append(res, SeqVal(v))
	}
	return res
}

// ProperSequence is the proper traversal with trailing null
// slots trimmed.
func (t *BinTree[K]) ProperSequence() []SeqItem[K] {
	nodes := t.ProperTraversal()
	end := len(nodes)
	for end > 0 && nodes[end-1] == nil {
		end--
	}
	res := make([]SeqItem[K], 0, end)
	for _, x := range nodes[:end] {
		if x == nil {
			res = append(res, SeqNil[K]())
		} else {
			res = append(res, SeqVal(x.data))
		}
	}
	return res
}

// BuildFromBinSequence replaces the whole tree with the one
// described by the level-order sequence. A null slot is an
// absent child, running out of items acts as the terminal
// marker. The result is not checked against any discipline.
func (t *BinTree[K]) BuildFromBinSequence(seq []SeqItem[K]) {
	t.Clear()
	if len(seq) == 0 || seq[0].Kind != SeqValue {
		return
	}
	queue := []*BinNode[K]{t.InsertAsRoot(seq[0].Val)}
	i := 1
build:
	for len(queue) > 0 {
		x := queue[0]
		queue = queue[1:]
		for _, asLC := range [2]bool{true, false} {
			if i >= len(seq) {
				break build
			}
			item := seq[i]
			i++
			switch item.Kind {
			case SeqEnd:
				break build
			case SeqNull:
				continue
			default:
			}
			child := t.newNode(item.Val, x)
			if asLC {
				x.lc = child
			} else {
				x.rc = child
			}
			t.size++
			queue = append(queue, child)
		}
	}
	t.hot = nil
	t.updateAllHeights()
}
