package tree

import (
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/benz9527/xtree/lib/id"
	"github.com/benz9527/xtree/lib/infra"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NodeSnapshot refers to its relatives by id, 0 means none.
type NodeSnapshot[K infra.OrderedKey] struct {
	ID     uint64     `json:"id"`
	Parent uint64     `json:"parent,omitempty"`
	LC     uint64     `json:"lc,omitempty"`
	RC     uint64     `json:"rc,omitempty"`
	Data   K          `json:"data"`
	Height int        `json:"height"`
	Color  RBColor    `json:"color"`
	Status NodeStatus `json:"status"`
}

// TreeSnapshot is the acyclic form of a tree, nodes are listed
// in preorder.
type TreeSnapshot[K infra.OrderedKey] struct {
	Type  Discipline        `json:"type"`
	Root  uint64            `json:"root,omitempty"`
	Size  int64             `json:"size"`
	Nodes []NodeSnapshot[K] `json:"nodes"`
}

func (t *Tree[K]) Decycle() *TreeSnapshot[K] {
	snapshot := &TreeSnapshot[K]{
		Type:  t.Discipline(),
		Root:  t.root.ID(),
		Size:  t.size,
		Nodes: make([]NodeSnapshot[K], 0, t.size),
	}
	for seq := t.PreorderTraversal(); ; {
		x, ok := seq.Next()
		if !ok {
			break
		}
		snapshot.Nodes = append(snapshot.Nodes, NodeSnapshot[K]{
			ID:     x.id,
			Parent: x.parent.ID(),
			LC:     x.lc.ID(),
			RC:     x.rc.ID(),
			Data:   x.data,
			Height: x.height,
			Color:  x.color,
			Status: x.status,
		})
	}
	return snapshot
}

func malformed(reason string, nodeID uint64) error {
	if nodeID != 0 {
		reason += " (node " + strconv.FormatUint(nodeID, 10) + ")"
	}
	return infra.WrapErrorStackWithMessage(ErrMalformedSnapshot, reason)
}

// BuildFromTreeJSONObj restores the tree and its back-references
// from a snapshot. Dangling ids, shared children, cycles and a
// wrong size are rejected. Discipline invariants are not checked
// here, that is left to CheckValidity.
func BuildFromTreeJSONObj[K infra.OrderedKey](s *TreeSnapshot[K]) (*Tree[K], error) {
	if s == nil {
		return nil, malformed("nil snapshot", 0)
	}
	t, err := NewTree[K](s.Type)
	if err != nil {
		return nil, err
	}
	if s.Root == 0 {
		if len(s.Nodes) != 0 || s.Size != 0 {
			return nil, malformed("nodes without root", 0)
		}
		return t, nil
	}

	var (
		maxID uint64
		byID  = make(map[uint64]*BinNode[K], len(s.Nodes))
	)
	for i := range s.Nodes {
		ns := &s.Nodes[i]
		if ns.ID == 0 {
			return nil, malformed("zero node id", 0)
		}
		if _, ok := byID[ns.ID]; ok {
			return nil, malformed("duplicated node id", ns.ID)
		}
		byID[ns.ID] = &BinNode[K]{
			id:     ns.ID,
			data:   ns.Data,
			height: ns.Height,
			color:  ns.Color,
			status: ns.Status,
		}
		maxID = max(maxID, ns.ID)
	}

	root, ok := byID[s.Root]
	if !ok {
		return nil, malformed("dangling root id", s.Root)
	}
	claimed := make(map[uint64]struct{}, len(s.Nodes))
	for i := range s.Nodes {
		ns := &s.Nodes[i]
		x := byID[ns.ID]
		for _, link := range [2]struct {
			childID uint64
			asLC    bool
		}{{ns.LC, true}, {ns.RC, false}} {
			if link.childID == 0 {
				continue
			}
			child, ok := byID[link.childID]
			switch {
			case !ok:
				return nil, malformed("dangling child id", link.childID)
			case child == root:
				return nil, malformed("root referenced as a child", link.childID)
			}
			if _, dup := claimed[link.childID]; dup {
				return nil, malformed("child shared by two parents", link.childID)
			}
			claimed[link.childID] = struct{}{}
			if link.asLC {
				t.ReAttachAsLC(x, child)
			} else {
				t.ReAttachAsRC(x, child)
			}
		}
	}
	for i := range s.Nodes {
		ns := &s.Nodes[i]
		if got := byID[ns.ID].parent.ID(); got != ns.Parent {
			return nil, malformed("parent id mismatch", ns.ID)
		}
	}

	t.root = root
	if count := root.Size(); count != int64(len(s.Nodes)) {
		// Unreachable nodes, only possible through a cycle
		// detached from the root.
		return nil, malformed("nodes unreachable from root", 0)
	} else if count != s.Size {
		return nil, malformed("size mismatch", 0)
	}
	t.size = s.Size
	if t.ids, err = id.MonotonicNonZeroIDFrom(maxID); err != nil {
		return nil, err
	}
	return t, nil
}

func MarshalTree[K infra.OrderedKey](t *Tree[K]) ([]byte, error) {
	return json.Marshal(t.Decycle())
}

func UnmarshalTree[K infra.OrderedKey](data []byte) (*Tree[K], error) {
	s := &TreeSnapshot[K]{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "decode tree snapshot")
	}
	return BuildFromTreeJSONObj(s)
}
