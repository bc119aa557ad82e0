package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ecsim/ecsim/sim/code"
	"github.com/ecsim/ecsim/sim/placement"
	"github.com/ecsim/ecsim/sim/trace"
	"github.com/ecsim/ecsim/sim/workload"
)

// Simulator runs missions for one configuration point. A mission starts
// with Reset and runs to completion with RunIteration.
//
// Not safe for concurrent use: parallel runs give each goroutine its own
// Simulator.
type Simulator struct {
	cfg         Config
	scheme      *code.Scheme
	topo        placement.Topology
	numStripes  int
	chunkSizeMB float64
	mission     float64
	policy      RepairPolicy
	threshold   int

	sampler      workload.FailureSampler // nil when trace-driven
	failureTrace []workload.FailureEntry

	rng *Streams

	disks     []Disk
	state     *SystemState
	network   *Network
	placement *placement.Placement
	events    *EventQueue
	waiting   waitQueue
	pending   *pendingRepairs
	followers followerBundles

	clock         float64
	lossSignalled bool
	result        IterationResult
	trace         *trace.SimulationTrace

	scratchMask   []bool
	scratchBad    []int
	scratchFailed []int
	scratchAlive  []int
}

// NewSimulator validates cfg and prepares a simulator. failureTrace is
// required when cfg.Failures names a trace file and ignored otherwise.
func NewSimulator(cfg Config, failureTrace []workload.FailureEntry) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scheme, err := code.New(cfg.Code)
	if err != nil {
		return nil, err
	}
	numDisks := cfg.Topology.Disks()

	s := &Simulator{
		cfg:         cfg,
		scheme:      scheme,
		topo:        cfg.Topology.Topology,
		numStripes:  int(cfg.NumStripes()),
		chunkSizeMB: float64(cfg.Simulation.ChunkSizeMB),
		mission:     cfg.Simulation.MissionHours,
		policy:      cfg.Repair.Policy,
		threshold:   cfg.Repair.Threshold,
		disks:       make([]Disk, numDisks),
		state:       NewSystemState(numDisks),
		events:      NewEventQueue(),
		pending:     newPendingRepairs(),
		followers:   make(followerBundles),

		scratchMask:   make([]bool, cfg.Code.N),
		scratchBad:    make([]int, 0, cfg.Code.N),
		scratchFailed: make([]int, 0, cfg.Code.N),
		scratchAlive:  make([]int, 0, cfg.Code.N),
	}

	if cfg.Failures.UsesTrace() {
		if failureTrace == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingTrace, cfg.Failures.TraceFile)
		}
		for _, e := range failureTrace {
			if e.Disk < 0 || e.Disk >= numDisks {
				return nil, fmt.Errorf("failure trace: %w: disk %d with %d disks", ErrDiskOutOfRange, e.Disk, numDisks)
			}
		}
		s.failureTrace = failureTrace
	} else {
		s.sampler, err = workload.NewFailureSampler(cfg.Failures)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetTrace attaches a recorder that is cleared on every Reset. nil detaches.
func (s *Simulator) SetTrace(st *trace.SimulationTrace) { s.trace = st }

// Reset prepares a fresh mission: disks healthy, queues and lazy bookkeeping
// empty, a new placement and network, and the initial failures scheduled.
// Equal seeds give identical missions.
func (s *Simulator) Reset(seed int64) error {
	s.rng = NewStreams(NewSimulationKey(seed))
	for i := range s.disks {
		s.disks[i].Init()
	}
	s.state.Reset()
	s.events.Clear()
	s.waiting.clear()
	s.pending.clear()
	clear(s.followers)
	s.clock = 0
	s.lossSignalled = false
	s.result = IterationResult{}
	if s.trace != nil {
		s.trace.Reset()
	}

	s.network = NewNetwork(s.topo.Racks, s.cfg.Network)
	p, err := placement.New(s.topo, s.scheme, s.numStripes, s.rng.Stream(StreamPlacement))
	if err != nil {
		s.placement = nil
		return err
	}
	s.placement = p
	s.seedFailures()
	return nil
}

// seedFailures schedules the first failure of every disk, either from the
// trace or one draw per disk from the failure distribution.
func (s *Simulator) seedFailures() {
	if s.sampler == nil {
		for _, e := range s.failureTrace {
			if e.Time <= s.mission {
				s.events.Schedule(Event{Time: e.Time, Kind: EventDiskFail, Disk: e.Disk})
			}
		}
		return
	}
	for d := range s.disks {
		s.scheduleFailure(d, 0)
	}
}

// scheduleFailure draws the next synthetic failure of disk after now.
func (s *Simulator) scheduleFailure(disk int, now float64) {
	if s.sampler == nil {
		return
	}
	t := now + s.sampler.Sample(s.rng.Stream(StreamFailures))
	if t <= s.mission {
		s.events.Schedule(Event{Time: t, Kind: EventDiskFail, Disk: disk})
	}
}

// InjectFailure schedules a failure of disk at time at.
func (s *Simulator) InjectFailure(disk int, at float64) error {
	if disk < 0 || disk >= len(s.disks) {
		return fmt.Errorf("%w: %d", ErrDiskOutOfRange, disk)
	}
	s.events.Schedule(Event{Time: at, Kind: EventDiskFail, Disk: disk})
	return nil
}

// InjectReplacement schedules a replacement of disk at time at. If the disk
// is still not healthy then, it is re-admitted for repair with the policy
// opposite to the configured one.
func (s *Simulator) InjectReplacement(disk int, at float64) error {
	if disk < 0 || disk >= len(s.disks) {
		return fmt.Errorf("%w: %d", ErrDiskOutOfRange, disk)
	}
	s.events.Schedule(Event{Time: at, Kind: EventDiskReplacement, Disk: disk})
	return nil
}

// PendingEvents returns the scheduled events in processing order.
func (s *Simulator) PendingEvents() []Event { return s.events.Snapshot() }

func (s *Simulator) Clock() float64                  { return s.clock }
func (s *Simulator) State() *SystemState             { return s.state }
func (s *Simulator) Network() *Network               { return s.network }
func (s *Simulator) Placement() *placement.Placement { return s.placement }
func (s *Simulator) Scheme() *code.Scheme            { return s.scheme }

// DiskState returns the state of disk.
func (s *Simulator) DiskState(disk int) (DiskState, error) {
	if disk < 0 || disk >= len(s.disks) {
		return DiskNormal, fmt.Errorf("%w: %d", ErrDiskOutOfRange, disk)
	}
	return s.disks[disk].State(), nil
}

// RunIteration runs the mission prepared by Reset until data is lost, the
// mission time is exceeded or no events remain. Logical errors abort the
// mission and are returned.
func (s *Simulator) RunIteration() (IterationResult, error) {
	if s.placement == nil {
		return IterationResult{}, errors.New("sim: Reset must succeed before RunIteration")
	}
	if s.mission <= 0 {
		s.result.Termination = TerminatedMissionTime
		return s.finish(), nil
	}
	for {
		more, err := s.step()
		if err != nil {
			return s.result, err
		}
		if !more {
			break
		}
	}
	return s.finish(), nil
}

// step processes the next batch of events. more is false once the mission
// has terminated, with the reason stored in the result.
func (s *Simulator) step() (more bool, err error) {
	b, ok, err := s.nextEvent()
	if err != nil || !ok {
		return false, err
	}
	if !b.Kind.Valid() {
		logrus.Errorf("sim: unknown event kind %d", int(b.Kind))
		return false, fmt.Errorf("%w: %d", ErrUnknownEventKind, int(b.Kind))
	}
	s.clock = b.Time
	s.result.EventsByKind[b.Kind] += len(b.Disks)
	logrus.Debugf("[%.2fh] %s x%d", b.Time, b.Kind, len(b.Disks))
	if s.trace != nil {
		s.trace.RecordEvent(trace.EventRecord{Time: b.Time, Kind: b.Kind.String(), Disks: b.Disks})
	}

	if err := s.state.Update(b.Kind, b.Disks); err != nil {
		return false, err
	}
	if err := s.dispatch(b); err != nil {
		return false, err
	}

	if b.Kind == EventDiskFail || s.lossSignalled {
		report := s.checkDataLoss()
		if report.DataLoss {
			s.result.Termination = TerminatedDataLoss
			s.result.DataLoss = true
			s.result.LostStripes = report.LostStripes
			s.result.LostChunks = report.LostChunks
			logrus.Debugf("[%.2fh] data loss: %d stripes, %d chunks", s.clock, report.LostStripes, report.LostChunks)
			return false, nil
		}
		s.lossSignalled = false
	}
	return true, nil
}

// nextEvent re-issues at most one parked repair request if bandwidth allows,
// then pops the next batch of events sharing time and kind. ok is false once
// the mission is over, with the reason stored in the result.
func (s *Simulator) nextEvent() (b Batch, ok bool, err error) {
	if req, waiting := s.waiting.peek(); waiting && s.network.CanAdmit(s.topo.RackOf(req.disk)) {
		s.waiting.pop()
		if err := s.admit(req.op, req.disk, s.clock); err != nil {
			return Batch{}, false, err
		}
	}
	next, found := s.events.Peek()
	if !found {
		s.result.Termination = TerminatedQueueExhausted
		return Batch{}, false, nil
	}
	if next.Time > s.mission {
		s.events.PopNext()
		s.result.Termination = TerminatedMissionTime
		return Batch{}, false, nil
	}
	b, _ = s.events.PopBatch()
	return b, true, nil
}

// dispatch applies a batch to the disks and drives repair admission.
func (s *Simulator) dispatch(b Batch) error {
	switch b.Kind {
	case EventDiskFail:
		var failed []int
		for _, d := range b.Disks {
			if !s.disks[d].Crashed() {
				s.disks[d].Fail(b.Time)
				failed = append(failed, d)
			}
		}
		for _, d := range failed {
			if err := s.admitPolicy(s.policy, d, b.Time); err != nil {
				return err
			}
		}
	case EventDiskRepair:
		for _, d := range b.Disks {
			if s.disks[d].Crashed() {
				s.disks[d].Repair(b.Time)
				s.scheduleFailure(d, b.Time)
			}
		}
		if err := s.release(b.Shares); err != nil {
			return err
		}
		for _, d := range b.Disks {
			if _, ok := s.followers[d]; ok {
				if err := s.admitFollowup(d, b.Time); err != nil {
					return err
				}
			}
		}
	case EventChunkRepair:
		return s.release(b.Shares)
	case EventDiskReplacement:
		for _, d := range b.Disks {
			if s.disks[d].State() != DiskNormal {
				if err := s.admitPolicy(s.policy.Opposite(), d, b.Time); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (s *Simulator) release(shares []float64) error {
	for _, share := range shares {
		if err := s.network.Release(share); err != nil {
			return err
		}
	}
	return nil
}

// checkDataLoss inspects the failed-disk set (eager) or the pending map
// (lazy). When an admission signalled loss and the configured view shows
// none, the other view is consulted.
func (s *Simulator) checkDataLoss() placement.LossReport {
	report := s.lossReport(s.policy)
	if !report.DataLoss && s.lossSignalled {
		report = s.lossReport(s.policy.Opposite())
	}
	return report
}

func (s *Simulator) lossReport(policy RepairPolicy) placement.LossReport {
	if policy == RepairLazy {
		return s.placement.CheckStripeLoss(s.pending.all())
	}
	return s.placement.CheckDataLoss(s.state.FailedDisks())
}

// finish stamps end-of-mission accounting onto the result.
func (s *Simulator) finish() IterationResult {
	end := s.clock
	if s.result.Termination == TerminatedMissionTime {
		end = s.mission
	}
	s.result.EndTime = end
	s.result.UnavailableHours = 0
	for i := range s.disks {
		s.result.UnavailableHours += s.disks[i].UnavailableTime(end)
	}
	return s.result
}

// IterationSeed is the seed of mission i of a run with the given master seed.
func IterationSeed(master int64, i int) int64 {
	return NewSimulationKey(master).Derive(StreamIteration(i))
}

// Run executes iterations missions back to back, seeding mission i with
// IterationSeed(seed, i). observe, if non-nil, sees every mission result.
// ctx is checked before each mission; a cancelled context or a logical
// error stops the run and the totals gathered so far are returned with it.
func (s *Simulator) Run(ctx context.Context, seed int64, iterations int, observe func(i int, r IterationResult)) (Totals, error) {
	var totals Totals
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return totals, err
		}
		if err := s.Reset(IterationSeed(seed, i)); err != nil {
			return totals, fmt.Errorf("iteration %d: %w", i, err)
		}
		r, err := s.RunIteration()
		if err != nil {
			return totals, fmt.Errorf("iteration %d at %.2fh: %w", i, s.clock, err)
		}
		totals.Add(r)
		if observe != nil {
			observe(i, r)
		}
	}
	return totals, nil
}
