// Package report turns the totals of a run into reliability estimates and
// writes them as text, CSV or JSON.
package report

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ecsim/ecsim/sim"
)

// DefaultConfidence is the confidence level of the reported relative error.
const DefaultConfidence = 0.95

// Summary holds the estimates for one configuration point.
type Summary struct {
	Missions    int64   `json:"missions"`
	DataLoss    int64   `json:"data_loss_missions"`
	LostStripes int64   `json:"lost_stripes"`
	LostChunks  int64   `json:"lost_chunks"`
	TotalChunks int64   `json:"total_chunks"`
	Confidence  float64 `json:"confidence"`

	// PDL is the probability of data loss within a mission.
	PDL float64 `json:"pdl"`
	// StdDev is the sample standard deviation of the per-mission loss outcome.
	StdDev float64 `json:"stddev"`
	// RE is the confidence half-width relative to PDL; 0 when nothing was lost.
	RE float64 `json:"relative_error"`
	// NOMDL is the expected fraction of stored chunks lost per mission.
	NOMDL float64 `json:"nomdl"`

	RepairsPerMission     float64 `json:"repairs_per_mission"`
	DownloadPerMission    float64 `json:"download_chunks_per_mission"`
	UnavailablePerMission float64 `json:"unavailable_disk_hours_per_mission"`
}

// Summarize computes the estimates from t. totalChunks is the number of
// chunks stored in one mission; confidence is a two-sided level in (0, 1),
// with DefaultConfidence used otherwise.
func Summarize(t sim.Totals, totalChunks int64, confidence float64) Summary {
	if !(confidence > 0 && confidence < 1) {
		confidence = DefaultConfidence
	}
	s := Summary{
		Missions:    t.Missions,
		DataLoss:    t.DataLoss,
		LostStripes: t.LostStripes,
		LostChunks:  t.LostChunks,
		TotalChunks: totalChunks,
		Confidence:  confidence,
	}
	if t.Missions == 0 {
		return s
	}
	n := float64(t.Missions)
	s.PDL = float64(t.DataLoss) / n
	if t.Missions > 1 {
		_, s.StdDev = stat.MeanStdDev(outcomes(t.Missions, t.DataLoss), nil)
	}
	if t.DataLoss > 0 {
		z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
		s.RE = z * (s.StdDev / math.Sqrt(n)) / s.PDL
	}
	if totalChunks > 0 {
		s.NOMDL = float64(t.LostChunks) / n / float64(totalChunks)
	}
	s.RepairsPerMission = float64(t.RepairsAdmitted) / n
	s.DownloadPerMission = t.DownloadChunks / n
	s.UnavailablePerMission = t.UnavailableHours / n
	return s
}

// outcomes expands the loss count into one 0/1 sample per mission.
func outcomes(missions, losses int64) []float64 {
	x := make([]float64, missions)
	for i := range losses {
		x[i] = 1
	}
	return x
}
