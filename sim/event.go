package sim

import "fmt"

// EventKind identifies what happens to a disk when an event fires. The
// numeric order is also the processing order of events sharing a timestamp.
type EventKind int

const (
	// EventDiskFail marks a disk as crashed.
	EventDiskFail EventKind = iota
	// EventDiskRepair completes the rebuild of a crashed disk.
	EventDiskRepair
	// EventChunkRepair completes a piggybacked rebuild of chunks on a disk
	// that was already repaired.
	EventChunkRepair
	// EventDiskReplacement re-admits a disk that is still not healthy using
	// the repair policy opposite to the configured one.
	EventDiskReplacement

	numEventKinds
)

// String returns a human-readable label.
func (k EventKind) String() string {
	switch k {
	case EventDiskFail:
		return "disk failure"
	case EventDiskRepair:
		return "disk repair"
	case EventChunkRepair:
		return "chunk repair"
	case EventDiskReplacement:
		return "disk replacement"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Valid reports whether k is one of the defined kinds.
func (k EventKind) Valid() bool { return k >= 0 && k < numEventKinds }

// Event is one scheduled state change.
type Event struct {
	Time      float64 // hours since mission start
	Kind      EventKind
	Disk      int
	Bandwidth float64 // cross-rack MB/s held by a repair; returned when it fires

	seq uint64 // insertion order, tie-breaker
}

// Batch is every event popped together because they share time and kind.
type Batch struct {
	Time   float64
	Kind   EventKind
	Disks  []int
	Shares []float64 // bandwidth share per entry of Disks
}
