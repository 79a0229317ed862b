package tree

import (
	"github.com/samber/lo"

	"github.com/benz9527/xtree/lib/infra"
)

const (
	defaultSpacingX = 36.0
	defaultSpacingY = 72.0
)

type NodeInfo[K infra.OrderedKey] struct {
	ID       uint64     `json:"id"`
	ParentID uint64     `json:"parentId,omitempty"`
	Data     K          `json:"data"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Depth    int        `json:"depth"`
	Height   int        `json:"height"`
	Color    RBColor    `json:"color"`
	Status   NodeStatus `json:"status"`
	IsRoot   bool       `json:"isRoot"`
	IsLC     bool       `json:"isLC"`
}

// ExtrSlot addresses an absent child slot, or the root slot
// of an empty tree.
type ExtrSlot struct {
	ParentID uint64 `json:"parentId,omitempty"`
	IsRoot   bool   `json:"isRoot"`
	IsLC     bool   `json:"isLC"`
}

type ExtrNodeInfo struct {
	ExtrSlot
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Depth int     `json:"depth"`
}

// StructInfo is the pure layout export of a tree. Edges hold
// index pairs, Edges[0][i] is the parent index and Edges[1][i]
// the child index in Nodes. ExtrEdges point from Nodes into
// ExtrNodes.
type StructInfo[K infra.OrderedKey] struct {
	Nodes     []NodeInfo[K]  `json:"nodes"`
	Edges     [2][]int       `json:"edges"`
	ExtrNodes []ExtrNodeInfo `json:"extrNodes"`
	ExtrEdges [2][]int       `json:"extrEdges"`
}

type layoutCfg struct {
	spacingX float64
	spacingY float64
}

type LayoutOption func(*layoutCfg)

// WithLayoutScale scales the default spacing, non-positive
// scales are ignored.
func WithLayoutScale(scale float64) LayoutOption {
	return func(cfg *layoutCfg) {
		if scale <= 0 {
			return
		}
		cfg.spacingX *= scale
		cfg.spacingY *= scale
	}
}

func WithLayoutSpacing(x, y float64) LayoutOption {
	return func(cfg *layoutCfg) {
		if x > 0 {
			cfg.spacingX = x
		}
		if y > 0 {
			cfg.spacingY = y
		}
	}
}

// CalStructInfo lays out the extended tree (internal nodes and
// external slots) by in-order rank horizontally and by depth
// vertically. It never modifies the tree.
func (t *BinTree[K]) CalStructInfo(opts ...LayoutOption) StructInfo[K] {
	cfg := &layoutCfg{spacingX: defaultSpacingX, spacingY: defaultSpacingY}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	info := StructInfo[K]{
		Nodes:     make([]NodeInfo[K], 0, t.size),
		ExtrNodes: make([]ExtrNodeInfo, 0, t.size+1),
	}
	if t.root == nil {
		info.ExtrNodes = append(info.ExtrNodes, ExtrNodeInfo{ExtrSlot: ExtrSlot{IsRoot: true}})
		return info
	}

	type frame struct {
		node   *BinNode[K]
		parent *BinNode[K]
		depth  int
		asLC   bool
		// expanded marks the node whose left part is done.
		expanded bool
	}
	var (
		rank      = 0
		extrOwner = make([]uint64, 0, t.size+1)
		stack     = []frame{{node: t.root, depth: 0}}
	)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.node == nil {
			info.ExtrNodes = append(info.ExtrNodes, ExtrNodeInfo{
				ExtrSlot: ExtrSlot{ParentID: f.parent.id, IsLC: f.asLC},
				X:        float64(rank) * cfg.spacingX,
				Y:        float64(f.depth) * cfg.spacingY,
				Depth:    f.depth,
			})
			extrOwner = append(extrOwner, f.parent.id)
			rank++
			continue
		}
		if !f.expanded {
			f.expanded = true
			stack = append(stack,
				frame{node: f.node.rc, parent: f.node, depth: f.depth + 1},
				f,
				frame{node: f.node.lc, parent: f.node, depth: f.depth + 1, asLC: true},
			)
			continue
		}
		x := f.node
		info.Nodes = append(info.Nodes, NodeInfo[K]{
			ID:       x.id,
			ParentID: x.parent.ID(),
			Data:     x.data,
			X:        float64(rank) * cfg.spacingX,
			Y:        float64(f.depth) * cfg.spacingY,
			Depth:    f.depth,
			Height:   x.height,
			Color:    x.color,
			Status:   x.status,
			IsRoot:   x.parent == nil,
			IsLC:     x.IsLC(),
		})
		rank++
	}

	// Nodes are listed in-order, a parent may come after its
	// children, so the indexes are resolved after the walk.
	idxByID := make(map[uint64]int, len(info.Nodes))
	for i, n := range info.Nodes {
		idxByID[n.ID] = i
	}
	withParent := lo.Filter(info.Nodes, func(n NodeInfo[K], _ int) bool { return !n.IsRoot })
	info.Edges = [2][]int{
		lo.Map(withParent, func(n NodeInfo[K], _ int) int { return idxByID[n.ParentID] }),
		lo.Map(withParent, func(n NodeInfo[K], _ int) int { return idxByID[n.ID] }),
	}
	info.ExtrEdges = [2][]int{
		lo.Map(extrOwner, func(parentID uint64, _ int) int { return idxByID[parentID] }),
		lo.Range(len(info.ExtrNodes)),
	}
	return info
}
