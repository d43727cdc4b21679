package injury

import (
	"math"

	"github.com/okian/pitchcast/internal/domain/features"
)

// Zone classifies an acute:chronic workload ratio.
type Zone string

const (
	ZoneSafe    Zone = "SAFE"
	ZoneCaution Zone = "CAUTION"
	ZoneDanger  Zone = "DANGER"
)

// ACWR zone boundaries.
const (
	SafeLow     = 0.8
	SafeHigh    = 1.3
	CautionHigh = 1.5

	// trainingLoadFactor converts training load units into match-minute equivalents.
	trainingLoadFactor = 0.5
	chronicWeeks       = 4
)

// Workload is the load snapshot behind an assessment.
type Workload struct {
	AcuteLoad   float64 `json:"acute_load"`
	ChronicLoad float64 `json:"chronic_load"`
	Ratio       float64 `json:"acwr"`
	Zone        Zone    `json:"zone"`
}

// ComputeWorkload derives acute and chronic load and their ratio. Without
// chronic load the ratio is 0 and the zone is SAFE.
func ComputeWorkload(w features.Workload) Workload {
	acute := w.Last7dMinutes + trainingLoadFactor*w.Last7dTrainingLoad
	chronic := (w.Last28dMinutes + trainingLoadFactor*w.Last28dTrainingLoad) / chronicWeeks
	return NewWorkload(acute, chronic)
}

// NewWorkload builds a snapshot from already aggregated loads.
func NewWorkload(acute, chronic float64) Workload {
	out := Workload{AcuteLoad: acute, ChronicLoad: chronic, Zone: ZoneSafe}
	if chronic <= 0 {
		return out
	}
	out.Ratio = acute / chronic
	out.Zone = ZoneOf(out.Ratio)
	return out
}

// ZoneOf maps a ratio onto SAFE [0.8,1.3], DANGER above 1.5 and CAUTION elsewhere.
func ZoneOf(ratio float64) Zone {
	switch {
	case ratio > CautionHigh:
		return ZoneDanger
	case ratio >= SafeLow && ratio <= SafeHigh:
		return ZoneSafe
	default:
		return ZoneCaution
	}
}

// workloadScore turns the ratio into a 0-100 risk score. Underload carries
// moderate risk; spikes beyond 1.5 climb steeply.
func workloadScore(w Workload) float64 {
	switch {
	case w.ChronicLoad <= 0:
		return 0
	case w.Ratio < SafeLow:
		return 30
	case w.Ratio <= SafeHigh:
		return 15
	case w.Ratio <= CautionHigh:
		return 55
	default:
		return math.Min(100, 70+(w.Ratio-CautionHigh)*60)
	}
}
