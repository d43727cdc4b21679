// Package injury scores a player's injury risk from workload, fatigue,
// history, age, position and conditioning.
package injury

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/sport"
)

// Tier grades overall injury risk.
type Tier string

const (
	TierLow      Tier = "LOW"
	TierModerate Tier = "MODERATE"
	TierHigh     Tier = "HIGH"
	TierCritical Tier = "CRITICAL"
)

// TierOf maps a 0-100 score onto a tier.
func TierOf(score float64) Tier {
	switch {
	case score < 25:
		return TierLow
	case score < 50:
		return TierModerate
	case score < 75:
		return TierHigh
	default:
		return TierCritical
	}
}

// Confidence reflects how much data backs an assessment.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Contribution weights; they sum to 1.
const (
	weightWorkload     = 0.25
	weightFatigue      = 0.20
	weightHistory      = 0.20
	weightAge          = 0.15
	weightPosition     = 0.10
	weightConditioning = 0.10
)

const (
	DefaultModelVersion   = "pitchcast-injury-1.4"
	DefaultValidityWindow = 24 * time.Hour

	// MaxRecommendations caps the recommendation list.
	MaxRecommendations = 8

	highSample   = 10
	mediumSample = 4
)

// Factor is one weighted contribution to the overall score.
type Factor struct {
	Name         string  `json:"name"`
	Score        float64 `json:"score"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Modifiable   bool    `json:"modifiable"`
	Mitigation   string  `json:"mitigation,omitempty"`
}

// BodyPartRisk is the risk for one anatomical region.
type BodyPartRisk struct {
	Part sport.BodyPart `json:"part"`
	Risk float64        `json:"risk"`
	Tier Tier           `json:"tier"`
}

// Assessment is a complete injury risk assessment. It is regenerated
// wholesale, never patched.
type Assessment struct {
	PlayerID string      `json:"player_id"`
	Sport    sport.Sport `json:"sport"`
	Position string      `json:"position"`

	Score      float64    `json:"score"`
	Tier       Tier       `json:"tier"`
	Confidence Confidence `json:"confidence"`

	Factors   []Factor       `json:"factors"`
	BodyParts []BodyPartRisk `json:"body_parts"`
	Workload  Workload       `json:"workload"`

	// LoadReduction is the suggested training load cut in percent.
	LoadReduction   int      `json:"load_reduction_pct"`
	Recommendations []string `json:"recommendations"`

	ModelVersion string    `json:"model_version"`
	GeneratedAt  time.Time `json:"generated_at"`
	ValidUntil   time.Time `json:"valid_until"`
}

// Version returns the model version that produced the assessment.
func (a Assessment) Version() string { return a.ModelVersion }

// Check verifies the invariants a stored assessment must still satisfy.
func (a Assessment) Check() error {
	if a.Score < 0 || a.Score > 100 {
		return fmt.Errorf("score %v out of range", a.Score)
	}
	if a.Tier != TierOf(a.Score) {
		return fmt.Errorf("tier %s does not match score %v", a.Tier, a.Score)
	}
	if len(a.Recommendations) == 0 || len(a.Recommendations) > MaxRecommendations {
		return errors.New("recommendation count out of range")
	}
	return nil
}

// Profiles resolves sport profiles for position lookups.
type Profiles interface {
	Profile(s sport.Sport) (sport.Profile, error)
}

// Analyzer produces assessments. It is safe for concurrent use.
type Analyzer struct {
	profiles     Profiles
	modelVersion string
	validity     time.Duration
	now          func() time.Time
}

// Option applies a configuration option to the Analyzer.
type Option func(*Analyzer)

// WithModelVersion stamps assessments with v.
func WithModelVersion(v string) Option {
	return func(a *Analyzer) {
		if v != "" {
			a.modelVersion = v
		}
	}
}

// WithValidityWindow sets how long an assessment stays valid.
func WithValidityWindow(d time.Duration) Option {
	return func(a *Analyzer) {
		if d > 0 {
			a.validity = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer creates an analyzer backed by profiles.
func NewAnalyzer(profiles Profiles, opts ...Option) *Analyzer {
	a := &Analyzer{
		profiles:     profiles,
		modelVersion: DefaultModelVersion,
		validity:     DefaultValidityWindow,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ModelVersion returns the version stamped on assessments.
func (a *Analyzer) ModelVersion() string { return a.modelVersion }

// Assess scores w. A player with no history and no load data gets a valid
// low-confidence assessment.
func (a *Analyzer) Assess(w features.Workload) (Assessment, error) {
	if err := features.Validate(w); err != nil {
		return Assessment{}, err
	}
	p, err := a.profiles.Profile(w.Sport)
	if err != nil {
		return Assessment{}, err
	}

	load := ComputeWorkload(w)
	factors := []Factor{
		{
			Name: "Workload", Score: workloadScore(load), Weight: weightWorkload, Modifiable: true,
			Mitigation: "Adjust session volume to bring ACWR into 0.8-1.3",
		},
		{
			Name: "Fatigue", Score: w.Fatigue, Weight: weightFatigue, Modifiable: true,
			Mitigation: "Add recovery days and monitor wellness scores",
		},
		{Name: "Injury History", Score: historyScore(w.Injuries), Weight: weightHistory},
		{Name: "Age Profile", Score: ageScore(w.Age, w.IsYouth), Weight: weightAge},
		{Name: "Position", Score: p.PositionRisk(w.Position), Weight: weightPosition},
		{
			Name: "Conditioning", Score: 100 - w.FitnessScore, Weight: weightConditioning, Modifiable: true,
			Mitigation: "Targeted strength and conditioning block",
		},
	}
	var total float64
	for i := range factors {
		factors[i].Contribution = round1(factors[i].Score * factors[i].Weight)
		factors[i].Score = round1(factors[i].Score)
		total += factors[i].Score * factors[i].Weight
	}
	sort.SliceStable(factors, func(i, j int) bool { return factors[i].Contribution > factors[j].Contribution })

	score := round1(clamp(total, 0, 100))
	tier := TierOf(score)
	parts := bodyPartRisks(p.VulnerableParts(w.Position), w.Injuries)
	reduction := loadReduction(tier, load.Zone)

	now := a.now().UTC()
	return Assessment{
		PlayerID:        w.PlayerID,
		Sport:           w.Sport,
		Position:        w.Position,
		Score:           score,
		Tier:            tier,
		Confidence:      confidenceOf(w.MatchesSampled),
		Factors:         factors,
		BodyParts:       parts,
		Workload:        Workload{AcuteLoad: round1(load.AcuteLoad), ChronicLoad: round1(load.ChronicLoad), Ratio: round2(load.Ratio), Zone: load.Zone},
		LoadReduction:   reduction,
		Recommendations: recommendations(w, tier, load, parts, reduction),
		ModelVersion:    a.modelVersion,
		GeneratedAt:     now,
		ValidUntil:      now.Add(a.validity),
	}, nil
}

// historyScore combines injury count, recency of the latest injury and the
// worst severity on record.
func historyScore(injuries []features.Injury) float64 {
	if len(injuries) == 0 {
		return 0
	}
	score := math.Min(float64(len(injuries))*15, 60)

	latest := injuries[0].DaysAgo
	worst := 0.0
	for _, in := range injuries {
		latest = min(latest, in.DaysAgo)
		worst = math.Max(worst, severityBonus(in.Severity))
	}
	return clamp(score+recencyBonus(latest)+worst, 0, 100)
}

func recencyBonus(daysAgo int) float64 {
	switch {
	case daysAgo < 30:
		return 30
	case daysAgo < 90:
		return 20
	case daysAgo < 180:
		return 10
	default:
		return 0
	}
}

func severityBonus(s features.Severity) float64 {
	switch s {
	case features.SeveritySevere:
		return 20
	case features.SeverityModerate:
		return 10
	default:
		return 0
	}
}

// ageScore scales a base of 50 by age bracket. Youth players carry a flat
// increment for growth-related load sensitivity.
func ageScore(age int, youth bool) float64 {
	var mult float64
	switch {
	case age < 21:
		mult = 0.6
	case age < 28:
		mult = 0.4
	case age < 32:
		mult = 0.8
	case age < 35:
		mult = 1.2
	default:
		mult = 1.6
	}
	score := 50 * mult
	if youth {
		score += 10
	}
	return math.Min(100, score)
}

const (
	partInjuryBonus = 15
	// unlistedPartBase is the base risk for an injured part outside the position's vulnerable list.
	unlistedPartBase = 20
)

func bodyPartRisks(vulnerable []sport.VulnerablePart, injuries []features.Injury) []BodyPartRisk {
	base := make(map[sport.BodyPart]float64, len(vulnerable))
	var order []sport.BodyPart
	for _, v := range vulnerable {
		if _, ok := base[v.Part]; !ok {
			order = append(order, v.Part)
		}
		base[v.Part] = v.BaseRisk
	}

	count := make(map[sport.BodyPart]int)
	latest := make(map[sport.BodyPart]int)
	for _, in := range injuries {
		if _, ok := base[in.BodyPart]; !ok {
			base[in.BodyPart] = unlistedPartBase
			order = append(order, in.BodyPart)
		}
		if prev, ok := latest[in.BodyPart]; !ok || in.DaysAgo < prev {
			latest[in.BodyPart] = in.DaysAgo
		}
		count[in.BodyPart]++
	}

	out := make([]BodyPartRisk, 0, len(order))
	for _, part := range order {
		risk := base[part] + float64(count[part])*partInjuryBonus
		if days, ok := latest[part]; ok {
			switch {
			case days < 90:
				risk += 20
			case days < 180:
				risk += 10
			}
		}
		risk = round1(clamp(risk, 0, 100))
		out = append(out, BodyPartRisk{Part: part, Risk: risk, Tier: TierOf(risk)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Risk > out[j].Risk })
	return out
}

func loadReduction(tier Tier, zone Zone) int {
	switch {
	case tier == TierCritical:
		return 50
	case tier == TierHigh:
		return 30
	case tier == TierModerate && zone == ZoneCaution:
		return 15
	default:
		return 0
	}
}

func confidenceOf(sample int) Confidence {
	switch {
	case sample >= highSample:
		return ConfidenceHigh
	case sample >= mediumSample:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
