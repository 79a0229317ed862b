package infra

import (
	"golang.org/x/exp/constraints"
)

// OrderedKey is any key the tree can compare with < and ==.
type OrderedKey interface {
	constraints.Ordered
}

// Number keys can be converted from the integer sample literals.
type Number interface {
	constraints.Integer | constraints.Float
}
