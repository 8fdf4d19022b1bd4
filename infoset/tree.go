// Package infoset implements the parsed-value tree that the sequence
// driver appends to as it consumes input.
//
// Nodes live in an arena (package internal/arena) rather than behind plain
// heap pointers, so that a PoU rollback can discard everything allocated
// since a mark in O(1): the mark only needs to remember the arena's length
// and the child-slice length of whichever node was the "current parent" at
// mark time (see pstate.State.Mark).
package infoset

import "github.com/brnnnfx/daffodil/internal/arena"

// Kind distinguishes complex (has children) from simple (has a value)
// infoset nodes.
type Kind int

const (
	Complex Kind = iota
	Simple
)

// Node is one element of the infoset tree.
type Node struct {
	Name     string
	Kind     Kind
	Value    any // only meaningful when Kind == Simple
	Children []arena.Pointer[Node]
}

// Ref is a compressed pointer to a Node within a Tree.
type Ref = arena.Pointer[Node]

// Tree owns the arena backing every Node reachable from Root.
type Tree struct {
	arena arena.Arena[Node]
	root  Ref
}

// NewTree creates a tree whose root is a fresh complex node with the given
// name.
func NewTree(rootName string) *Tree {
	t := &Tree{}
	t.root = t.arena.New(Node{Name: rootName, Kind: Complex})
	return t
}

// Root returns a reference to the tree's root node.
func (t *Tree) Root() Ref {
	return t.root
}

// Node dereferences a Ref.
func (t *Tree) Node(ref Ref) *Node {
	return ref.In(&t.arena)
}

// NewComplex allocates a new, childless complex node and returns a
// reference to it. It is not attached to any parent; callers append it
// with AppendChild.
func (t *Tree) NewComplex(name string) Ref {
	return t.arena.New(Node{Name: name, Kind: Complex})
}

// NewSimple allocates a new simple (leaf) node carrying value.
func (t *Tree) NewSimple(name string, value any) Ref {
	return t.arena.New(Node{Name: name, Kind: Simple, Value: value})
}

// AppendChild appends child to parent's child list. parent must refer to a
// Complex node.
func (t *Tree) AppendChild(parent, child Ref) {
	p := t.Node(parent)
	p.Children = append(p.Children, child)
}

// ChildCount returns the number of children parent currently has.
func (t *Tree) ChildCount(parent Ref) int {
	return len(t.Node(parent).Children)
}

// TruncateChildren drops parent's children past index n, as PoU reset does
// when rolling back a failed speculative attempt.
func (t *Tree) TruncateChildren(parent Ref, n int) {
	p := t.Node(parent)
	if n < len(p.Children) {
		p.Children = p.Children[:n]
	}
}

// ArenaLen returns the number of nodes allocated on the tree's arena so
// far. This is the companion watermark to TruncateChildren: a PoU mark
// records both this and the parent's child count, since a rolled-back
// attempt may have allocated nodes that were never attached to any parent
// (e.g. a complex node under construction that failed before AppendChild).
func (t *Tree) ArenaLen() int {
	return t.arena.Len()
}

// TruncateArena discards every node allocated after the first n. Combined
// with TruncateChildren, this is what PoU reset calls to undo a failed
// attempt's infoset side effects in O(1).
func (t *Tree) TruncateArena(n int) {
	t.arena.Truncate(n)
}

// ChildNames returns the names of parent's children in order.
func (t *Tree) ChildNames(parent Ref) []string {
	children := t.Node(parent).Children
	names := make([]string, len(children))
	for i, c := range children {
		names[i] = t.Node(c).Name
	}
	return names
}

// FlattenAndValidate re-sorts parent's children (from index start onward)
// into the order given by schemaOrder, a ranking function from child name
// to its compiled position. Children whose name is not found in
// schemaOrder are left in their arrival-order relative position, after all
// ranked children.
//
// This implements the "flattenAndValidateChildNodes" step an unordered
// sequence runs once its termination is decided (spec.md ยง4.5): arrival
// order within the group is internally consistent, but the infoset must
// expose schema order to downstream consumers.
func (t *Tree) FlattenAndValidate(parent Ref, start int, schemaOrder func(name string) (rank int, ok bool)) {
	p := t.Node(parent)
	if start >= len(p.Children) {
		return
	}
	tail := p.Children[start:]
	ranked := make([]Ref, len(tail))
	copy(ranked, tail)

	rankOf := func(ref Ref) int {
		if r, ok := schemaOrder(t.Node(ref).Name); ok {
			return r
		}
		return len(tail) + 1<<20 // unranked children sort after all ranked ones
	}

	// Stable insertion sort: the tail is small (one group's worth of
	// children) and we need arrival order preserved among equal ranks.
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && rankOf(ranked[j-1]) > rankOf(ranked[j]); j-- {
			ranked[j-1], ranked[j] = ranked[j], ranked[j-1]
		}
	}

	copy(p.Children[start:], ranked)
}

// Snapshot is a plain-value, comparable view of a subtree: an arena.Ref is
// only meaningful within the Tree that allocated it, so tests that want to
// diff two subtrees structurally (e.g. with github.com/google/go-cmp)
// render both to a Snapshot first.
type Snapshot struct {
	Name     string
	Kind     Kind
	Value    any
	Children []Snapshot
}

// Snapshot renders ref and every descendant into a Snapshot tree.
func (t *Tree) Snapshot(ref Ref) Snapshot {
	n := t.Node(ref)
	var children []Snapshot
	if len(n.Children) > 0 {
		children = make([]Snapshot, len(n.Children))
		for i, c := range n.Children {
			children[i] = t.Snapshot(c)
		}
	}
	return Snapshot{Name: n.Name, Kind: n.Kind, Value: n.Value, Children: children}
}
