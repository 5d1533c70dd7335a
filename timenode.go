package cronexec

import (
	"slices"
)

// NearestValue is the result of a TimeNode lookup: the resolved value and
// the number of times the lookup wrapped around the node's values. A
// positive Shifts means the caller must carry into the next larger unit.
type NearestValue struct {
	Value  int
	Shifts int
}

// TimeNode is a sorted set of distinct values valid for one field over one
// period, with circular next/previous lookup.
type TimeNode struct {
	values []int
}

// NewTimeNode builds a node from values in any order. Duplicates are
// dropped. An empty set is rejected.
func NewTimeNode(values []int) (*TimeNode, error) {
	if len(values) == 0 {
		return nil, EvalError("time node needs at least one value")
	}
	v := slices.Clone(values)
	slices.Sort(v)
	return &TimeNode{values: slices.Compact(v)}, nil
}

// mustTimeNode is NewTimeNode for value sets the caller has already
// checked to be non-empty.
func mustTimeNode(values []int) *TimeNode {
	n, err := NewTimeNode(values)
	if err != nil {
		panic(err)
	}
	return n
}

// Values returns a copy of the node's values in increasing order.
func (n *TimeNode) Values() []int {
	return slices.Clone(n.values)
}

// Contains reports whether v is one of the node's values.
func (n *TimeNode) Contains(v int) bool {
	_, ok := slices.BinarySearch(n.values, v)
	return ok
}

// First returns the smallest value.
func (n *TimeNode) First() int {
	return n.values[0]
}

// Last returns the largest value.
func (n *TimeNode) Last() int {
	return n.values[len(n.values)-1]
}

// Next moves steps values forward from reference. A reference that is not
// in the node first lands on the nearest greater value, which counts as one
// step; with steps == 0 that landing is the result.
func (n *TimeNode) Next(reference, steps int) NearestValue {
	size := len(n.values)
	shifts := 0
	idx, found := slices.BinarySearch(n.values, reference)
	if !found {
		if idx == size {
			idx = 0
			shifts++
		}
		steps--
	}
	for ; steps > 0; steps-- {
		idx++
		if idx == size {
			idx = 0
			shifts++
		}
	}
	return NearestValue{Value: n.values[idx], Shifts: shifts}
}

// Previous moves steps values backward from reference, mirroring Next.
func (n *TimeNode) Previous(reference, steps int) NearestValue {
	size := len(n.values)
	shifts := 0
	idx, found := slices.BinarySearch(n.values, reference)
	if !found {
		idx--
		if idx < 0 {
			idx = size - 1
			shifts++
		}
		steps--
	}
	for ; steps > 0; steps-- {
		idx--
		if idx < 0 {
			idx = size - 1
			shifts++
		}
	}
	return NearestValue{Value: n.values[idx], Shifts: shifts}
}
