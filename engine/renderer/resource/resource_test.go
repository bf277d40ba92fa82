package resource

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type native struct{ id int }

func TestHandleReleasesOnce(t *testing.T) {
	calls := 0
	h := NewHandle(&native{id: 1}, func(*native) { calls++ })

	assert.Equal(t, 1, h.Get().id)
	h.Release()
	h.Release()

	assert.Equal(t, 1, calls)
	assert.True(t, h.Released())
	assert.Nil(t, h.Get())
}

func TestHandleSkipsZeroValue(t *testing.T) {
	calls := 0
	h := NewHandle[*native](nil, func(*native) { calls++ })
	h.Release()
	assert.Zero(t, calls)
}

func TestArenaReleasesInReverseOrder(t *testing.T) {
	var order []int
	a := NewArena("test")
	for i := 1; i <= 3; i++ {
		Own(a, &native{id: i}, func(n *native) { order = append(order, n.id) })
	}
	assert.Equal(t, 3, a.Len())

	a.Release()
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.Zero(t, a.Len())

	a.Release()
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestUsageHas(t *testing.T) {
	u := UsageStorage | UsageCopyDst
	assert.True(t, u.Has(UsageStorage))
	assert.True(t, u.Has(UsageStorage|UsageCopyDst))
	assert.False(t, u.Has(UsageCopySrc))
}
