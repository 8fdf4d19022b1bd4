package infoset_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brnnnfx/daffodil/infoset"
)

func TestAppendAndTruncate(t *testing.T) {
	t.Parallel()
	tree := infoset.NewTree("doc")
	root := tree.Root()

	a := tree.NewSimple("a", "1")
	b := tree.NewSimple("b", "2")
	tree.AppendChild(root, a)
	tree.AppendChild(root, b)
	require.Equal(t, 2, tree.ChildCount(root))

	mark := tree.ChildCount(root)
	arenaMark := tree.ArenaLen()

	c := tree.NewSimple("c", "3")
	tree.AppendChild(root, c)
	require.Equal(t, 3, tree.ChildCount(root))

	tree.TruncateChildren(root, mark)
	tree.TruncateArena(arenaMark)
	assert.Equal(t, 2, tree.ChildCount(root))
	assert.Equal(t, "2", tree.Node(b).Value)
}

func TestFlattenAndValidate(t *testing.T) {
	t.Parallel()
	tree := infoset.NewTree("doc")
	root := tree.Root()

	order := map[string]int{"a": 0, "b": 1, "c": 2}
	rank := func(name string) (int, bool) {
		r, ok := order[name]
		return r, ok
	}

	// Arrival order: b, a, c.
	tree.AppendChild(root, tree.NewSimple("b", "2"))
	tree.AppendChild(root, tree.NewSimple("a", "1"))
	tree.AppendChild(root, tree.NewSimple("c", "3"))

	tree.FlattenAndValidate(root, 0, rank)

	assert.Equal(t, []string{"a", "b", "c"}, tree.ChildNames(root))
}

func TestFlattenAndValidateFromOffset(t *testing.T) {
	t.Parallel()
	tree := infoset.NewTree("doc")
	root := tree.Root()

	order := map[string]int{"x": 0, "y": 1}
	rank := func(name string) (int, bool) {
		r, ok := order[name]
		return r, ok
	}

	tree.AppendChild(root, tree.NewSimple("leading", "0"))
	start := tree.ChildCount(root)
	tree.AppendChild(root, tree.NewSimple("y", "2"))
	tree.AppendChild(root, tree.NewSimple("x", "1"))

	tree.FlattenAndValidate(root, start, rank)

	assert.Equal(t, []string{"leading", "x", "y"}, tree.ChildNames(root))
}

func TestSnapshotStructuralEquality(t *testing.T) {
	t.Parallel()

	build := func() *infoset.Tree {
		tree := infoset.NewTree("doc")
		inner := tree.NewComplex("group")
		tree.AppendChild(inner, tree.NewSimple("a", "1"))
		tree.AppendChild(inner, tree.NewSimple("b", "2"))
		tree.AppendChild(tree.Root(), inner)
		return tree
	}

	want := infoset.Snapshot{
		Name: "doc", Kind: infoset.Complex,
		Children: []infoset.Snapshot{
			{
				Name: "group", Kind: infoset.Complex,
				Children: []infoset.Snapshot{
					{Name: "a", Kind: infoset.Simple, Value: "1"},
					{Name: "b", Kind: infoset.Simple, Value: "2"},
				},
			},
		},
	}

	tree := build()
	got := tree.Snapshot(tree.Root())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Snapshot mismatch (-want +got):\n%s", diff)
	}
}
