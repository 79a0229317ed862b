package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalStructInfo_Empty(t *testing.T) {
	tr := newTestTree(t, BSTType)
	info := tr.CalStructInfo()
	require.Empty(t, info.Nodes)
	require.Len(t, info.ExtrNodes, 1)
	require.True(t, info.ExtrNodes[0].IsRoot)
}

func TestCalStructInfo(t *testing.T) {
	tr := newTestTree(t, BSTType, 5, 3, 8)
	info := tr.CalStructInfo()

	require.Len(t, info.Nodes, 3)
	require.Equal(t, 3, info.Nodes[0].Data)
	require.Equal(t, 5, info.Nodes[1].Data)
	require.Equal(t, 8, info.Nodes[2].Data)
	require.True(t, info.Nodes[1].IsRoot)
	require.True(t, info.Nodes[0].IsLC)
	require.Equal(t, 3*defaultSpacingX, info.Nodes[1].X)
	require.Equal(t, 0.0, info.Nodes[1].Y)
	require.Equal(t, defaultSpacingY, info.Nodes[0].Y)
	require.Equal(t, 1, info.Nodes[0].Depth)

	require.Equal(t, [2][]int{{1, 1}, {0, 2}}, info.Edges)
	require.Len(t, info.ExtrNodes, 4)
	require.Equal(t, [2][]int{{0, 0, 2, 2}, {0, 1, 2, 3}}, info.ExtrEdges)
	require.Equal(t, ExtrSlot{ParentID: info.Nodes[0].ID, IsLC: true}, info.ExtrNodes[0].ExtrSlot)
	require.Equal(t, ExtrSlot{ParentID: info.Nodes[2].ID}, info.ExtrNodes[3].ExtrSlot)

	scaled := tr.CalStructInfo(WithLayoutScale(2))
	require.Equal(t, 6*defaultSpacingX, scaled.Nodes[1].X)
	spaced := tr.CalStructInfo(WithLayoutSpacing(10, 0), nil)
	require.Equal(t, 30.0, spaced.Nodes[1].X)
	require.Equal(t, defaultSpacingY, spaced.Nodes[0].Y)
}

func TestCalStructInfo_Extended(t *testing.T) {
	for _, d := range Disciplines() {
		tr, err := GenSampleTree[int](d)
		require.NoError(t, err)
		info := tr.CalStructInfo()
		n := int(tr.Size())
		require.Len(t, info.Nodes, n)
		require.Len(t, info.ExtrNodes, n+1)
		require.Len(t, info.Edges[0], n-1)
		require.Len(t, info.ExtrEdges[1], n+1)
		for i := 1; i < n; i++ {
			require.Greater(t, info.Nodes[i].X, info.Nodes[i-1].X)
		}
		for i, parentIdx := range info.Edges[0] {
			child := info.Nodes[info.Edges[1][i]]
			require.Equal(t, info.Nodes[parentIdx].ID, child.ParentID)
			require.Equal(t, info.Nodes[parentIdx].Depth+1, child.Depth)
		}
	}
}
