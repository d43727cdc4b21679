// Package prediction holds the sport-parameterized scoring engine for match,
// player and team forecasts.
//
// The engine is pure arithmetic over feature snapshots and sport profiles:
// it holds no locks and performs no I/O, so one Engine may serve any number
// of goroutines.
package prediction

import (
	"math"
	"time"

	"github.com/okian/pitchcast/internal/domain/sport"
)

// Engine defaults.
const (
	DefaultModelVersion   = "pitchcast-heuristic-2.1"
	DefaultValidityWindow = 24 * time.Hour

	DefaultPlayerHighSample   = 20
	DefaultPlayerMediumSample = 10
	DefaultTeamHighSample     = 15
	DefaultTeamMediumSample   = 6

	// Match confidence is the home/away probability spread.
	matchHighConfidence   = 25
	matchMediumConfidence = 12
)

// Confidence is a coarse reliability tier.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// RiskLevel grades how much can go wrong with a forecast or a player.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Thresholds map a sample size onto a confidence tier.
type Thresholds struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
}

// Tier returns the confidence for sample.
func (t Thresholds) Tier(sample int) Confidence {
	switch {
	case sample >= t.High:
		return ConfidenceHigh
	case sample >= t.Medium:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Score scales sample onto 0-100 relative to the HIGH threshold.
func (t Thresholds) Score(sample int) float64 {
	if t.High <= 0 {
		return 100
	}
	return clamp(float64(sample)/float64(t.High)*100, 0, 100)
}

// Stamp carries provenance shared by every result.
type Stamp struct {
	ModelVersion string    `json:"model_version"`
	GeneratedAt  time.Time `json:"generated_at"`
	ValidUntil   time.Time `json:"valid_until"`
}

// Version returns the model version that produced the result.
func (s Stamp) Version() string { return s.ModelVersion }

// Profiles resolves validated sport profiles. *sport.Registry implements it.
type Profiles interface {
	Profile(s sport.Sport) (sport.Profile, error)
}

// Engine computes forecasts.
type Engine struct {
	profiles     Profiles
	modelVersion string
	validity     time.Duration
	now          func() time.Time

	player Thresholds
	team   Thresholds
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithModelVersion stamps results with v.
func WithModelVersion(v string) Option {
	return func(e *Engine) {
		if v != "" {
			e.modelVersion = v
		}
	}
}

// WithValidityWindow sets how long a result stays valid after generation.
func WithValidityWindow(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.validity = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithPlayerThresholds sets the sample sizes for player HIGH and MEDIUM confidence.
func WithPlayerThresholds(high, medium int) Option {
	return func(e *Engine) {
		if high > 0 && medium > 0 && high >= medium {
			e.player = Thresholds{High: high, Medium: medium}
		}
	}
}

// WithTeamThresholds sets the matches-played counts for team HIGH and MEDIUM confidence.
func WithTeamThresholds(high, medium int) Option {
	return func(e *Engine) {
		if high > 0 && medium > 0 && high >= medium {
			e.team = Thresholds{High: high, Medium: medium}
		}
	}
}

// NewEngine creates an engine backed by profiles.
func NewEngine(profiles Profiles, opts ...Option) *Engine {
	e := &Engine{
		profiles:     profiles,
		modelVersion: DefaultModelVersion,
		validity:     DefaultValidityWindow,
		now:          time.Now,
		player:       Thresholds{High: DefaultPlayerHighSample, Medium: DefaultPlayerMediumSample},
		team:         Thresholds{High: DefaultTeamHighSample, Medium: DefaultTeamMediumSample},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ModelVersion returns the version stamped on results.
func (e *Engine) ModelVersion() string { return e.modelVersion }

func (e *Engine) stamp() Stamp {
	now := e.now().UTC()
	return Stamp{
		ModelVersion: e.modelVersion,
		GeneratedAt:  now,
		ValidUntil:   now.Add(e.validity),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ratio returns n/d, or 0 when d is zero.
func ratio(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func riskLevel(n int) RiskLevel {
	switch {
	case n == 0:
		return RiskLow
	case n <= 2:
		return RiskMedium
	default:
		return RiskHigh
	}
}
