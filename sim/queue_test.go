package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueue_OrdersByTimeThenKindThenInsertion(t *testing.T) {
	// GIVEN events scheduled out of order, two of them sharing a timestamp
	q := NewEventQueue()
	q.Schedule(Event{Time: 5, Kind: EventDiskRepair, Disk: 1})
	q.Schedule(Event{Time: 2, Kind: EventDiskFail, Disk: 2})
	q.Schedule(Event{Time: 5, Kind: EventDiskFail, Disk: 3})
	q.Schedule(Event{Time: 5, Kind: EventDiskFail, Disk: 4})

	// WHEN they are popped one by one
	var disks []int
	for {
		e, ok := q.PopNext()
		if !ok {
			break
		}
		disks = append(disks, e.Disk)
	}

	// THEN earlier times come first, failures precede repairs at equal time,
	// and equal (time, kind) keep insertion order
	assert.Equal(t, []int{2, 3, 4, 1}, disks)
}

func TestEventQueue_PopBatch_CoalescesSameTimeAndKind(t *testing.T) {
	// GIVEN three failures and a repair at t=3, and a failure at t=4
	q := NewEventQueue()
	q.Schedule(Event{Time: 3, Kind: EventDiskFail, Disk: 7})
	q.Schedule(Event{Time: 3, Kind: EventDiskRepair, Disk: 9, Bandwidth: 50})
	q.Schedule(Event{Time: 3, Kind: EventDiskFail, Disk: 8})
	q.Schedule(Event{Time: 4, Kind: EventDiskFail, Disk: 1})

	// WHEN batches are popped
	b1, ok := q.PopBatch()
	require.True(t, ok)
	b2, ok := q.PopBatch()
	require.True(t, ok)

	// THEN the failures at t=3 form one batch and the repair another
	assert.Equal(t, EventDiskFail, b1.Kind)
	assert.Equal(t, []int{7, 8}, b1.Disks)
	assert.Equal(t, EventDiskRepair, b2.Kind)
	assert.Equal(t, []int{9}, b2.Disks)
	assert.Equal(t, []float64{50}, b2.Shares)
	assert.Equal(t, 1, q.Len())
}

func TestEventQueue_Empty(t *testing.T) {
	q := NewEventQueue()
	_, ok := q.PopNext()
	assert.False(t, ok)
	_, ok = q.Peek()
	assert.False(t, ok)
	_, ok = q.PopBatch()
	assert.False(t, ok)
}

func TestEventQueue_SnapshotDoesNotConsume(t *testing.T) {
	q := NewEventQueue()
	q.Schedule(Event{Time: 9, Kind: EventDiskFail, Disk: 1})
	q.Schedule(Event{Time: 1, Kind: EventDiskFail, Disk: 2})

	snap := q.Snapshot()

	require.Len(t, snap, 2)
	assert.Equal(t, 2, snap[0].Disk)
	assert.Equal(t, 2, q.Len())

	q.Clear()
	assert.Equal(t, 0, q.Len())
}
