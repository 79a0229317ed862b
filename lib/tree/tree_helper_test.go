package tree

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/infra"
)

const nullSlot = -1

func keysOf[K infra.OrderedKey](seq *Sequence[K]) []K {
	res := make([]K, 0, 8)
	for x, ok := seq.Next(); ok; x, ok = seq.Next() {
		res = append(res, x.Data())
	}
	return res
}

// properInts renders the trimmed proper sequence, nullSlot
// stands for an absent child.
func properInts(t *BinTree[int]) []int {
	res := make([]int, 0, 8)
	for _, item := range t.ProperSequence() {
		if item.Kind == SeqNull {
			res = append(res, nullSlot)
			continue
		}
		res = append(res, item.Val)
	}
	return res
}

func binSeq(vals ...int) []SeqItem[int] {
	res := make([]SeqItem[int], 0, len(vals))
	for _, v := range vals {
		if v == nullSlot {
			res = append(res, SeqNil[int]())
			continue
		}
		res = append(res, SeqVal(v))
	}
	return res
}

func newTestTree(t *testing.T, d Discipline, keys ...int) *Tree[int] {
	tr, err := NewTree[int](d)
	require.NoError(t, err)
	for _, k := range keys {
		_, ok := tr.Insert(k)
		require.True(t, ok)
	}
	return tr
}

func requireValid[K infra.OrderedKey](t *testing.T, tr *Tree[K]) {
	ok, reason := CheckValidity(tr)
	require.Truef(t, ok, "invalid %s tree: %s", tr.Discipline(), reason)
}
