package tree

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenSampleTree(t *testing.T) {
	sorted := slices.Clone(sampleKeys)
	slices.Sort(sorted)
	for _, d := range Disciplines() {
		tr, err := GenSampleTree[int](d)
		require.NoError(t, err)
		requireValid(t, tr)
		require.Nil(t, tr.Hot())
		if d == BinTreeType {
			require.Equal(t, sampleBinSeq, properInts(tr.BinTree))
			continue
		}
		require.Equal(t, sorted, keysOf(tr.InorderTraversal()))
	}

	ftr, err := GenSampleTree[float64](RedBlackType)
	require.NoError(t, err)
	requireValid(t, ftr)
	require.Equal(t, int64(len(sampleKeys)), ftr.Size())

	_, err = GenSampleTree[int](Discipline(42))
	require.ErrorIs(t, err, ErrUnknownDiscipline)
}
