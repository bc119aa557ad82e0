package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingRepairs_MergeDeduplicatesAndIteratesInOrder(t *testing.T) {
	// GIVEN pending entries inserted out of stripe order
	p := newPendingRepairs()
	p.merge(9, []int{4})
	p.merge(2, []int{1, 3})
	p.merge(9, []int{4, 5})

	// THEN disks are merged without duplicates
	assert.Equal(t, []int{4, 5}, p.get(9))
	assert.True(t, p.contains(2, 3))
	assert.False(t, p.contains(2, 4))

	// AND iteration visits stripes in ascending order
	var order []int
	for stripe := range p.all() {
		order = append(order, stripe)
	}
	assert.Equal(t, []int{2, 9}, order)

	p.remove(2)
	assert.Equal(t, 1, p.len())
	assert.Nil(t, p.get(2))
	p.clear()
	assert.Equal(t, 0, p.len())
}

func TestFollowerBundles_AddMerges(t *testing.T) {
	f := make(followerBundles)
	f.add(1, map[int][]int{5: {10}})
	f.add(1, map[int][]int{5: {11}, 6: {12}})
	f.add(2, nil)

	assert.Equal(t, map[int][]int{5: {10, 11}, 6: {12}}, f[1])
	_, ok := f[2]
	assert.False(t, ok, "empty bundle is not recorded")
	assert.Len(t, f, 1)
}

func TestWaitQueue_EarliestFirstThenFIFO(t *testing.T) {
	var w waitQueue
	w.push(5, 1, admitEager)
	w.push(3, 2, admitFollowup)
	w.push(5, 3, admitLazy)

	got := []repairRequest{w.pop(), w.pop(), w.pop()}

	assert.Equal(t, 2, got[0].disk)
	assert.Equal(t, admitFollowup, got[0].op)
	assert.Equal(t, 1, got[1].disk)
	assert.Equal(t, 3, got[2].disk)
	_, ok := w.peek()
	assert.False(t, ok)
}
