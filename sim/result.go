package sim

// Termination records why a mission stopped.
type Termination int

const (
	// TerminatedQueueExhausted: no events remained.
	TerminatedQueueExhausted Termination = iota
	// TerminatedMissionTime: the next event lay beyond the mission horizon.
	TerminatedMissionTime
	// TerminatedDataLoss: a stripe became unrecoverable.
	TerminatedDataLoss
)

func (t Termination) String() string {
	switch t {
	case TerminatedMissionTime:
		return "mission-time-exceeded"
	case TerminatedDataLoss:
		return "data-loss"
	default:
		return "queue-exhausted"
	}
}

// IterationResult is the outcome of one mission.
type IterationResult struct {
	Termination Termination
	DataLoss    bool
	LostStripes int
	LostChunks  int
	EndTime     float64 // hours

	EventsByKind       [numEventKinds]int
	RepairsAdmitted    int // repair waves scheduled
	StripesRepaired    int
	SingleChunkRepairs int // stripes rebuilt with exactly one bad chunk
	WaitedRequests     int // requests parked for bandwidth
	DownloadChunks     float64
	UnavailableHours   float64 // summed over disks
}

// Totals aggregates many missions. Totals from different workers combine by
// summation.
type Totals struct {
	Missions    int64
	DataLoss    int64 // missions that lost data
	LostStripes int64
	LostChunks  int64

	EventsByKind     [numEventKinds]int64
	RepairsAdmitted  int64
	StripesRepaired  int64
	WaitedRequests   int64
	DownloadChunks   float64
	UnavailableHours float64
}

// Add folds one mission into the totals.
func (t *Totals) Add(r IterationResult) {
	t.Missions++
	if r.DataLoss {
		t.DataLoss++
	}
	t.LostStripes += int64(r.LostStripes)
	t.LostChunks += int64(r.LostChunks)
	for k, n := range r.EventsByKind {
		t.EventsByKind[k] += int64(n)
	}
	t.RepairsAdmitted += int64(r.RepairsAdmitted)
	t.StripesRepaired += int64(r.StripesRepaired)
	t.WaitedRequests += int64(r.WaitedRequests)
	t.DownloadChunks += r.DownloadChunks
	t.UnavailableHours += r.UnavailableHours
}

// Merge adds another set of totals into t.
func (t *Totals) Merge(o Totals) {
	t.Missions += o.Missions
	t.DataLoss += o.DataLoss
	t.LostStripes += o.LostStripes
	t.LostChunks += o.LostChunks
	for k, n := range o.EventsByKind {
		t.EventsByKind[k] += n
	}
	t.RepairsAdmitted += o.RepairsAdmitted
	t.StripesRepaired += o.StripesRepaired
	t.WaitedRequests += o.WaitedRequests
	t.DownloadChunks += o.DownloadChunks
	t.UnavailableHours += o.UnavailableHours
}

// Events returns the processed event count for kind.
func (t Totals) Events(kind EventKind) int64 {
	if !kind.Valid() {
		return 0
	}
	return t.EventsByKind[kind]
}

// AllEventKinds lists every event kind in processing order.
func AllEventKinds() []EventKind {
	kinds := make([]EventKind, 0, numEventKinds)
	for k := EventKind(0); k < numEventKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}
