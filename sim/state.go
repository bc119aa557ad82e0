package sim

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/sirupsen/logrus"
)

// Health is the cluster-wide status label.
type Health int

const (
	HealthOperational Health = iota
	HealthDegraded
)

func (h Health) String() string {
	if h == HealthDegraded {
		return "degraded"
	}
	return "operational"
}

// SystemState tracks which disks are failed.
type SystemState struct {
	numDisks  int
	failed    *bitset.BitSet
	numFailed int
	health    Health
}

// NewSystemState creates a state with every disk healthy.
func NewSystemState(numDisks int) *SystemState {
	return &SystemState{
		numDisks: numDisks,
		failed:   bitset.New(uint(numDisks)),
	}
}

// Reset marks every disk healthy.
func (s *SystemState) Reset() {
	s.failed.ClearAll()
	s.refresh()
}

func (s *SystemState) check(id int) error {
	if id < 0 || id >= s.numDisks {
		logrus.Errorf("state: disk %d outside [0,%d)", id, s.numDisks)
		return fmt.Errorf("%w: %d not in [0,%d)", ErrDiskOutOfRange, id, s.numDisks)
	}
	return nil
}

// Fail marks disk id as failed.
func (s *SystemState) Fail(id int) error {
	if err := s.check(id); err != nil {
		return err
	}
	s.failed.Set(uint(id))
	s.refresh()
	return nil
}

// Repair marks disk id as healthy.
func (s *SystemState) Repair(id int) error {
	if err := s.check(id); err != nil {
		return err
	}
	s.failed.Clear(uint(id))
	s.refresh()
	return nil
}

// Update applies a processed batch. Replacement and chunk-repair events do
// not change which disks are failed.
func (s *SystemState) Update(kind EventKind, ids []int) error {
	for _, id := range ids {
		if err := s.check(id); err != nil {
			return err
		}
	}
	switch kind {
	case EventDiskFail:
		for _, id := range ids {
			s.failed.Set(uint(id))
		}
	case EventDiskRepair:
		for _, id := range ids {
			s.failed.Clear(uint(id))
		}
	case EventDiskReplacement, EventChunkRepair:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownEventKind, int(kind))
	}
	s.refresh()
	return nil
}

func (s *SystemState) refresh() {
	s.numFailed = int(s.failed.Count())
	if s.numFailed > 0 {
		s.health = HealthDegraded
	} else {
		s.health = HealthOperational
	}
}

func (s *SystemState) IsFailed(id int) bool { return id >= 0 && id < s.numDisks && s.failed.Test(uint(id)) }
func (s *SystemState) NumFailed() int       { return s.numFailed }
func (s *SystemState) Health() Health       { return s.health }

// FailedDisks returns the failed disk ids in ascending order.
func (s *SystemState) FailedDisks() []int {
	out := make([]int, 0, s.numFailed)
	for i, ok := s.failed.NextSet(0); ok; i, ok = s.failed.NextSet(i + 1) {
		out = append(out, int(i))
	}
	return out
}
