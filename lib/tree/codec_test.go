package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalTree_RoundTrip(t *testing.T) {
	for _, d := range Disciplines() {
		t.Run(d.String(), func(tt *testing.T) {
			tr, err := GenSampleTree[int](d)
			require.NoError(tt, err)
			tr.Root().SetStatus(Active)

			data, err := MarshalTree(tr)
			require.NoError(tt, err)
			require.Contains(tt, string(data), `"type":"`+d.String()+`"`)

			decoded, err := UnmarshalTree[int](data)
			require.NoError(tt, err)
			require.Equal(tt, d, decoded.Discipline())
			require.Equal(tt, tr.Decycle(), decoded.Decycle())
			require.Equal(tt, Active, decoded.Root().Status())
			requireValid(tt, decoded)

			// New ids continue after the decoded ones.
			var maxID uint64
			for _, ns := range decoded.Decycle().Nodes {
				maxID = max(maxID, ns.ID)
			}
			x, ok := decoded.Insert(1000)
			require.True(tt, ok)
			require.Greater(tt, x.ID(), maxID)
			requireValid(tt, decoded)
		})
	}
}

func TestMarshalTree_Empty(t *testing.T) {
	tr, err := NewTree[int](AVLType)
	require.NoError(t, err)
	data, err := MarshalTree(tr)
	require.NoError(t, err)

	decoded, err := UnmarshalTree[int](data)
	require.NoError(t, err)
	require.True(t, decoded.Empty())
	require.Equal(t, AVLType, decoded.Discipline())
}

func TestBuildFromTreeJSONObj_Malformed(t *testing.T) {
	tr := newTestTree(t, BSTType, 5, 3, 8)
	// Preorder, 5 then 3 then 8.
	const unknownID = 1 << 40
	testcases := []struct {
		name   string
		mutate func(s *TreeSnapshot[int])
	}{
		{"nodes without root", func(s *TreeSnapshot[int]) { s.Root = 0 }},
		{"zero id", func(s *TreeSnapshot[int]) { s.Nodes[1].ID = 0 }},
		{"duplicated id", func(s *TreeSnapshot[int]) { s.Nodes[2].ID = s.Nodes[1].ID }},
		{"dangling root", func(s *TreeSnapshot[int]) { s.Root = unknownID }},
		{"dangling child", func(s *TreeSnapshot[int]) { s.Nodes[1].LC = unknownID }},
		{"root as child", func(s *TreeSnapshot[int]) { s.Nodes[1].LC = s.Root }},
		{"shared child", func(s *TreeSnapshot[int]) { s.Nodes[2].LC = s.Nodes[1].ID }},
		{"parent mismatch", func(s *TreeSnapshot[int]) { s.Nodes[1].Parent = s.Nodes[2].ID }},
		{"size mismatch", func(s *TreeSnapshot[int]) { s.Size = 5 }},
		{"unreachable", func(s *TreeSnapshot[int]) {
			s.Nodes = append(s.Nodes, NodeSnapshot[int]{ID: unknownID, Data: 1})
			s.Size++
		}},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			s := tr.Decycle()
			tc.mutate(s)
			_, err := BuildFromTreeJSONObj(s)
			require.ErrorIs(tt, err, ErrMalformedSnapshot)
		})
	}

	_, err := BuildFromTreeJSONObj[int](nil)
	require.ErrorIs(t, err, ErrMalformedSnapshot)
}

func TestUnmarshalTree_BadInput(t *testing.T) {
	_, err := UnmarshalTree[int]([]byte(`{"type":"Trie","nodes":[]}`))
	require.Error(t, err)
	_, err = UnmarshalTree[int]([]byte(`{"type":`))
	require.Error(t, err)
}

func TestBuildFromTreeJSONObj_KeepsInvalidShape(t *testing.T) {
	tr := newTestTree(t, BSTType, 5, 3, 8)
	s := tr.Decycle()
	s.Nodes[1].Data = 9

	decoded, err := BuildFromTreeJSONObj(s)
	require.NoError(t, err)
	ok, reason := CheckValidity(decoded)
	require.False(t, ok)
	require.Contains(t, reason, "in-order")
}
