package tree

import (
	randv2 "math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func colorsInorder(tr *Tree[int]) []string {
	res := make([]string, 0, tr.Size())
	for seq := tr.InorderTraversal(); ; {
		x, ok := seq.Next()
		if !ok {
			return res
		}
		prefix := "B"
		if x.Color() == Red {
			prefix = "R"
		}
		res = append(res, prefix+strconv.Itoa(x.Data()))
	}
}

func TestRedBlack_InsertRotates(t *testing.T) {
	tr := newTestTree(t, RedBlackType, 10, 20, 30)
	require.Equal(t, []int{20, 10, 30}, properInts(tr.BinTree))
	require.Equal(t, Black, tr.Root().Color())
	require.Equal(t, Red, tr.Root().LC().Color())
	require.Equal(t, Red, tr.Root().RC().Color())
	requireValid(t, tr)
}

func TestRedBlack_InsertRecolors(t *testing.T) {
	tr := newTestTree(t, RedBlackType, 52, 47, 3)
	require.Equal(t, []string{"R3", "B47", "R52"}, colorsInorder(tr))
	requireValid(t, tr)

	_, ok := tr.Insert(35)
	require.True(t, ok)
	require.Equal(t, []string{"B3", "R35", "B47", "B52"}, colorsInorder(tr))
	requireValid(t, tr)

	_, ok = tr.Insert(35)
	require.False(t, ok)
}

func TestRedBlack_Remove(t *testing.T) {
	tr := newTestTree(t, RedBlackType, 10, 20, 30)
	require.True(t, tr.Remove(20))
	require.Equal(t, []int{30, 10}, properInts(tr.BinTree))
	require.Equal(t, []string{"R10", "B30"}, colorsInorder(tr))
	requireValid(t, tr)

	tr = newTestTree(t, RedBlackType, 10, 20, 30, 5)
	require.Equal(t, []string{"R5", "B10", "B20", "B30"}, colorsInorder(tr))
	require.True(t, tr.Remove(5))
	// Removing a black leaf pushes the lost black up to the root.
	require.True(t, tr.Remove(10))
	require.Equal(t, []int{20, nullSlot, 30}, properInts(tr.BinTree))
	require.Equal(t, []string{"B20", "R30"}, colorsInorder(tr))
	requireValid(t, tr)

	require.False(t, tr.Remove(10))
	require.True(t, tr.Remove(20))
	require.True(t, tr.Remove(30))
	require.True(t, tr.Empty())
	require.Equal(t, int64(0), tr.Size())
}

func TestRedBlack_InsertAtFixesDoubleRed(t *testing.T) {
	tr := newTestTree(t, RedBlackType, 10, 20, 30)
	ten := tr.Root().LC()
	require.True(t, CheckSlotOrder(tr.BinTree, ExtrSlot{ParentID: ten.ID(), IsLC: true}, 5))
	x, err := tr.InsertAt(ExtrSlot{ParentID: ten.ID(), IsLC: true}, 5)
	require.NoError(t, err)
	require.Equal(t, Red, x.Color())
	require.Equal(t, []string{"R5", "B10", "B20", "B30"}, colorsInorder(tr))
	require.Equal(t, 2, tr.Root().Height())
	requireValid(t, tr)
}

func TestRedBlack_RandomInsertRemove(t *testing.T) {
	tr, err := NewTree[int](RedBlackType)
	require.NoError(t, err)
	keys := randv2.Perm(1024)
	for i, k := range keys {
		_, ok := tr.Insert(k)
		require.True(t, ok)
		if i%64 == 0 {
			requireValid(t, tr)
		}
	}
	requireValid(t, tr)
	// 2*log2(n+1) bounds the height of a red-black tree.
	require.LessOrEqual(t, tr.Root().Height(), 20)

	for i, k := range keys[:800] {
		require.True(t, tr.Remove(k))
		if i%32 == 0 {
			requireValid(t, tr)
		}
	}
	require.Equal(t, int64(224), tr.Size())
	requireValid(t, tr)
	for _, k := range keys[800:] {
		require.NotNil(t, tr.Search(k))
	}
}
