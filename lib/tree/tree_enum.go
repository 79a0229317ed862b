package tree

import (
	"strconv"
	"strings"
)

var (
	colorNames      = [...]string{Black: "Black", Red: "Red"}
	statusNames     = [...]string{Normal: "normal", Active: "active", Visited: "visited", Deprecated: "deprecated"}
	disciplineNames = [...]string{
		BinTreeType:  "BinTree",
		BSTType:      "BST",
		AVLType:      "AVL",
		SplayType:    "Splay",
		RedBlackType: "RedBlack",
	}
)

func (c RBColor) String() string {
	if int(c) < len(colorNames) {
		return colorNames[c]
	}
	return "RBColor(" + strconv.Itoa(int(c)) + ")"
}

func (c RBColor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *RBColor) UnmarshalText(text []byte) error {
	for i, name := range colorNames {
		if strings.EqualFold(name, string(text)) {
			*c = RBColor(i)
			return nil
		}
	}
	return ErrMalformedSnapshot
}

func (s NodeStatus) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return "NodeStatus(" + strconv.Itoa(int(s)) + ")"
}

func (s NodeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *NodeStatus) UnmarshalText(text []byte) error {
	for i, name := range statusNames {
		if strings.EqualFold(name, string(text)) {
			*s = NodeStatus(i)
			return nil
		}
	}
	return ErrMalformedSnapshot
}

func (d Discipline) String() string {
	if d < _disciplineMax {
		return disciplineNames[d]
	}
	return "Discipline(" + strconv.Itoa(int(d)) + ")"
}

func (d Discipline) MarshalText() ([]byte, error) {
	if d >= _disciplineMax {
		return nil, ErrUnknownDiscipline
	}
	return []byte(d.String()), nil
}

func (d *Discipline) UnmarshalText(text []byte) error {
	res, err := ParseDiscipline(string(text))
	if err != nil {
		return err
	}
	*d = res
	return nil
}

// ParseDiscipline accepts the discipline name case-insensitively.
func ParseDiscipline(name string) (Discipline, error) {
	name = strings.TrimSpace(name)
	for i, n := range disciplineNames {
		if strings.EqualFold(n, name) {
			return Discipline(i), nil
		}
	}
	return _disciplineMax, ErrUnknownDiscipline
}

// Disciplines lists every supported discipline in display order.
func Disciplines() []Discipline {
	return []Discipline{BinTreeType, BSTType, AVLType, SplayType, RedBlackType}
}
