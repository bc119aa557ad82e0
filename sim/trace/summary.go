package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	EventBatches   int
	EventsByKind   map[string]int // kind -> events (not batches)
	Repairs        int
	RepairsByMode  map[string]int
	TotalDownload  float64 // chunks
	MeanDuration   float64 // hours
	MaxDuration    float64
	WaitedRequests int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		EventsByKind:  make(map[string]int),
		RepairsByMode: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.EventBatches = len(st.Events)
	for _, e := range st.Events {
		summary.EventsByKind[e.Kind] += len(e.Disks)
	}

	if len(st.Repairs) > 0 {
		total := 0.0
		for _, r := range st.Repairs {
			summary.RepairsByMode[r.Mode]++
			summary.TotalDownload += r.Download
			total += r.Duration
			if r.Duration > summary.MaxDuration {
				summary.MaxDuration = r.Duration
			}
		}
		summary.Repairs = len(st.Repairs)
		summary.MeanDuration = total / float64(len(st.Repairs))
	}

	summary.WaitedRequests = len(st.Waits)
	return summary
}

// Merge folds other into s. Mean durations are weighted by repair count.
func (s *TraceSummary) Merge(other *TraceSummary) {
	if other == nil {
		return
	}
	s.EventBatches += other.EventBatches
	for kind, n := range other.EventsByKind {
		s.EventsByKind[kind] += n
	}
	if total := s.Repairs + other.Repairs; total > 0 {
		s.MeanDuration = (s.MeanDuration*float64(s.Repairs) + other.MeanDuration*float64(other.Repairs)) / float64(total)
	}
	s.Repairs += other.Repairs
	for mode, n := range other.RepairsByMode {
		s.RepairsByMode[mode] += n
	}
	s.TotalDownload += other.TotalDownload
	s.MaxDuration = max(s.MaxDuration, other.MaxDuration)
	s.WaitedRequests += other.WaitedRequests
}
