package arena_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brnnnfx/daffodil/internal/arena"
)

func TestPointers(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	var a arena.Arena[int]

	p1 := a.New(5)
	assert.Equal(5, *p1.In(&a))

	for i := range 16 {
		a.New(i + 5)
	}
	assert.Equal(19, *arena.Pointer[int](16).In(&a))
	assert.Equal(20, *arena.Pointer[int](17).In(&a))

	for i := range 32 {
		a.New(i + 21)
	}
	assert.Equal(51, *arena.Pointer[int](48).In(&a))
	assert.Equal(52, *arena.Pointer[int](49).In(&a))

	assert.Equal("[5 5 6 7 8 9 10 11 12 13 14 15 16 17 18 19|20 21 22 23 24 25 26 27 28 29 30 31 32 33 34 35 36 37 38 39 40 41 42 43 44 45 46 47 48 49 50 51|52]", a.String())
}

func TestNilPointer(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	var p arena.Pointer[int]
	assert.True(p.Nil())

	var a arena.Arena[int]
	q := a.New(1)
	assert.False(q.Nil())
}

// TestTruncate exercises the O(1) rewind used by PoU reset: allocate a run
// of values, snapshot the watermark, allocate more, then truncate back.
func TestTruncate(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	var a arena.Arena[int]
	for i := range 20 {
		a.New(i)
	}
	mark := a.Len()

	for i := range 50 {
		a.New(100 + i)
	}
	assert.Equal(70, a.Len())

	a.Truncate(mark)
	assert.Equal(20, a.Len())
	assert.Equal(19, *arena.Pointer[int](20).In(&a))

	a.New(999)
	assert.Equal(21, a.Len())
	assert.Equal(999, *arena.Pointer[int](21).In(&a))
}

func TestTruncateToZero(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	var a arena.Arena[int]
	for i := range 5 {
		a.New(i)
	}
	a.Truncate(0)
	assert.Equal(0, a.Len())

	p := a.New(42)
	assert.Equal(42, *p.In(&a))
}
