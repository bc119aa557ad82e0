package sim

import (
	"maps"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/ecsim/ecsim/sim/code"
	"github.com/ecsim/ecsim/sim/trace"
)

// stripeView is one stripe classified from the point of view of the disk
// whose repair is being admitted. Its slices are scratch buffers owned by
// the Simulator and are only valid until the next classify call.
type stripeView struct {
	mask    []bool // failed flag per chunk position
	bad     []int  // disks holding a bad chunk
	traffic code.StripeView
}

// classify marks each chunk of stripe as bad or alive. A chunk is bad when
// its disk is crashed or, for lazy admission, when the disk is recorded as
// awaiting repair on this stripe.
func (s *Simulator) classify(stripe, trigger int, lazy bool) (stripeView, error) {
	layout, err := s.placement.StripeLayout(stripe)
	if err != nil {
		return stripeView{}, err
	}
	var pending []int
	if lazy {
		pending = s.pending.get(stripe)
	}
	rack := s.topo.RackOf(trigger)

	v := stripeView{
		mask: s.scratchMask[:len(layout)],
		bad:  s.scratchBad[:0],
		traffic: code.StripeView{
			Failed:      s.scratchFailed[:0],
			AliveInRack: s.scratchAlive[:0],
		},
	}
	for pos, d := range layout {
		bad := s.disks[d].Crashed() || slices.Contains(pending, d)
		v.mask[pos] = bad
		switch {
		case bad:
			v.bad = append(v.bad, d)
			v.traffic.Failed = append(v.traffic.Failed, pos)
		case s.topo.RackOf(d) == rack:
			v.traffic.AliveInRack = append(v.traffic.AliveInRack, pos)
		}
	}
	s.scratchBad = v.bad
	s.scratchFailed = v.traffic.Failed
	s.scratchAlive = v.traffic.AliveInRack
	return v, nil
}

// admit dispatches a repair request through the named routine.
func (s *Simulator) admit(op admission, disk int, now float64) error {
	switch op {
	case admitLazy:
		return s.admitLazy(disk, now)
	case admitFollowup:
		return s.admitFollowup(disk, now)
	default:
		return s.admitEager(disk, now)
	}
}

func (s *Simulator) admitPolicy(policy RepairPolicy, disk int, now float64) error {
	if policy == RepairLazy {
		return s.admitLazy(disk, now)
	}
	return s.admitEager(disk, now)
}

// park queues a request until bandwidth frees up.
func (s *Simulator) park(op admission, disk int, now float64) {
	s.waiting.push(now, disk, op)
	s.result.WaitedRequests++
	if s.trace != nil {
		s.trace.RecordWait(trace.WaitRecord{Time: now, Disk: disk, Mode: op.String()})
	}
}

// admitEager schedules the rebuild of every stripe on disk. If any stripe is
// already beyond tolerance, nothing is scheduled and data loss is signalled.
func (s *Simulator) admitEager(disk int, now float64) error {
	if s.network.CrossRackAvailable() <= 0 {
		s.park(admitEager, disk, now)
		return nil
	}
	stripes, err := s.placement.StripesOnDisk(disk)
	if err != nil {
		return err
	}
	download := 0.0
	repaired := 0
	for _, stripe := range stripes {
		v, err := s.classify(stripe, disk, false)
		if err != nil {
			return err
		}
		if len(v.traffic.Failed) == 1 {
			s.result.SingleChunkRepairs++
		} else if s.scheme.IsLost(v.mask) {
			logrus.Debugf("[%.2fh] eager repair of disk %d: stripe %d beyond tolerance", now, disk, stripe)
			s.lossSignalled = true
			return nil
		}
		repaired++
		download += s.scheme.RepairTraffic(v.traffic)
	}
	s.launch(admitEager, disk, now, download, repaired, 0)
	return nil
}

// admitLazy repairs only the stripes of disk that have reached the lazy
// threshold. Other bad disks on those stripes become followers of disk;
// stripes below the threshold are recorded as pending.
func (s *Simulator) admitLazy(disk int, now float64) error {
	if s.network.CrossRackAvailable() <= 0 {
		s.park(admitLazy, disk, now)
		return nil
	}
	stripes, err := s.placement.StripesOnDisk(disk)
	if err != nil {
		return err
	}
	download := 0.0
	repaired := 0
	bundle := make(map[int][]int)
	for _, stripe := range stripes {
		v, err := s.classify(stripe, disk, true)
		if err != nil {
			return err
		}
		if s.scheme.IsLost(v.mask) {
			logrus.Debugf("[%.2fh] lazy repair of disk %d: stripe %d beyond tolerance", now, disk, stripe)
			s.pending.merge(stripe, v.bad)
			s.lossSignalled = true
			return nil
		}
		if len(v.bad) < s.threshold {
			if len(v.bad) == 0 {
				s.pending.remove(stripe)
			} else {
				s.pending.merge(stripe, v.bad)
			}
			continue
		}
		for _, d := range v.bad {
			if d != disk {
				bundle[d] = append(bundle[d], stripe)
			}
		}
		s.pending.remove(stripe)
		if len(v.traffic.Failed) == 1 {
			s.result.SingleChunkRepairs++
		}
		repaired++
		download += s.scheme.RepairTraffic(v.traffic)
	}
	if download > 0 {
		s.launch(admitLazy, disk, now, download, repaired, len(bundle))
		s.followers.add(disk, bundle)
	}
	return nil
}

// admitFollowup rebuilds the chunks bundled behind leader once the leader's
// own repair is done. Bandwidth is split among followers in proportion to
// their stripe counts.
func (s *Simulator) admitFollowup(leader int, now float64) error {
	bundle := s.followers[leader]
	total := 0
	for _, stripes := range bundle {
		total += len(stripes)
	}
	if total == 0 {
		delete(s.followers, leader)
		return nil
	}
	if s.network.CrossRackAvailable() <= 0 {
		s.park(admitFollowup, leader, now)
		return nil
	}
	delete(s.followers, leader)

	bw := s.network.Claim()
	duration := float64(total) * s.chunkSizeMB / bw / 3600
	for _, d := range slices.Sorted(maps.Keys(bundle)) {
		kind := EventChunkRepair
		if s.disks[d].Crashed() {
			kind = EventDiskRepair
		}
		share := bw * float64(len(bundle[d])) / float64(total)
		s.events.Schedule(Event{Time: now + duration, Kind: kind, Disk: d, Bandwidth: share})
	}
	s.record(admitFollowup, leader, now, float64(total), total, bw, duration, len(bundle))
	return nil
}

// launch claims all available cross-rack bandwidth and schedules the
// DiskRepair event that completes the wave.
func (s *Simulator) launch(op admission, disk int, now, download float64, stripes, followers int) {
	bw := s.network.Claim()
	duration := download * s.chunkSizeMB / bw / 3600
	s.events.Schedule(Event{Time: now + duration, Kind: EventDiskRepair, Disk: disk, Bandwidth: bw})
	s.result.StripesRepaired += stripes
	s.record(op, disk, now, download, stripes, bw, duration, followers)
}

func (s *Simulator) record(op admission, disk int, now, download float64, stripes int, bw, duration float64, followers int) {
	s.result.RepairsAdmitted++
	s.result.DownloadChunks += download
	logrus.Debugf("[%.2fh] %s repair of disk %d: %d stripes, %.0f chunks at %.1f MB/s, %.3fh",
		now, op, disk, stripes, download, bw, duration)
	if s.trace != nil {
		s.trace.RecordRepair(trace.RepairRecord{
			Time:      now,
			Disk:      disk,
			Mode:      op.String(),
			Stripes:   stripes,
			Download:  download,
			Bandwidth: bw,
			Duration:  duration,
			Followers: followers,
		})
	}
}
