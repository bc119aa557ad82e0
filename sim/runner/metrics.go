package runner

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ecsim/ecsim/sim"
)

const namespace = "ecsim"

// Metrics are the Prometheus collectors updated after every mission.
// Counters are safe for concurrent use by workers.
type Metrics struct {
	Missions         prometheus.Counter
	DataLossMissions prometheus.Counter
	LostStripes      prometheus.Counter
	LostChunks       prometheus.Counter
	RepairsAdmitted  prometheus.Counter
	DownloadChunks   prometheus.Counter
	Events           *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg. It panics if
// they are already registered there.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Missions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missions_total",
			Help:      "Simulated missions completed.",
		}),
		DataLossMissions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "data_loss_missions_total",
			Help:      "Missions that ended in data loss.",
		}),
		LostStripes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lost_stripes_total",
			Help:      "Stripes lost across all missions.",
		}),
		LostChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lost_chunks_total",
			Help:      "Failed chunks of lost stripes across all missions.",
		}),
		RepairsAdmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "repair",
			Name:      "admitted_total",
			Help:      "Repair waves scheduled.",
		}),
		DownloadChunks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "repair",
			Name:      "download_chunks_total",
			Help:      "Chunks transferred across racks by repairs.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Processed events by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.Missions,
		m.DataLossMissions,
		m.LostStripes,
		m.LostChunks,
		m.RepairsAdmitted,
		m.DownloadChunks,
		m.Events,
	)
	return m
}

// Observe folds one mission result into the counters.
func (m *Metrics) Observe(r sim.IterationResult) {
	m.Missions.Inc()
	if r.DataLoss {
		m.DataLossMissions.Inc()
	}
	m.LostStripes.Add(float64(r.LostStripes))
	m.LostChunks.Add(float64(r.LostChunks))
	m.RepairsAdmitted.Add(float64(r.RepairsAdmitted))
	m.DownloadChunks.Add(r.DownloadChunks)
	for _, k := range sim.AllEventKinds() {
		m.Events.WithLabelValues(k.String()).Add(float64(r.EventsByKind[k]))
	}
}
