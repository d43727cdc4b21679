package sport

import (
	"strings"

	"github.com/okian/pitchcast/internal/domain/apperr"
)

// Defaults used when a position has no category in a profile.
const (
	DefaultPositionImportance = 10
	DefaultPositionRisk       = 50.0

	// weightTotal is the required sum of both the factor weights and the
	// position category weights.
	weightTotal = 100
)

// Weights is the 7-factor weight vector. Values are percentages.
type Weights struct {
	Form                  int `yaml:"form" json:"form"`
	HeadToHead            int `yaml:"head_to_head" json:"head_to_head"`
	SquadStrength         int `yaml:"squad_strength" json:"squad_strength"`
	HomeAdvantage         int `yaml:"home_advantage" json:"home_advantage"`
	Availability          int `yaml:"availability" json:"availability"`
	RestDays              int `yaml:"rest_days" json:"rest_days"`
	CompetitionImportance int `yaml:"competition_importance" json:"competition_importance"`
}

// Sum returns the total of all seven weights.
func (w Weights) Sum() int {
	return w.Form + w.HeadToHead + w.SquadStrength + w.HomeAdvantage +
		w.Availability + w.RestDays + w.CompetitionImportance
}

// ScoringRules describe league points and scoring scale.
type ScoringRules struct {
	PointsForWin  int `yaml:"points_for_win" json:"points_for_win"`
	PointsForDraw int `yaml:"points_for_draw" json:"points_for_draw"`
	PointsForLoss int `yaml:"points_for_loss" json:"points_for_loss"`

	// ScoreUnit is what a side accumulates: goals, points, runs.
	ScoreUnit string `yaml:"score_unit" json:"score_unit"`
	// TypicalScore is a per-side per-match average used when a side has no history.
	TypicalScore float64 `yaml:"typical_score" json:"typical_score"`
	// ScoreSensitivity scales how much relative strength moves the expected score.
	ScoreSensitivity float64 `yaml:"score_sensitivity" json:"score_sensitivity"`
	// BaseDrawProbability is the draw percentage for two evenly matched sides.
	BaseDrawProbability float64 `yaml:"base_draw_probability" json:"base_draw_probability"`
}

// AllowsDraw reports whether a draw earns league points.
func (r ScoringRules) AllowsDraw() bool { return r.PointsForDraw > 0 }

// VulnerablePart is a body part with its baseline risk for a position.
type VulnerablePart struct {
	Part     BodyPart `yaml:"part" json:"part"`
	BaseRisk float64  `yaml:"base_risk" json:"base_risk"`
}

// PositionCategory groups positions sharing an importance weight and risk profile.
type PositionCategory struct {
	Name            string           `yaml:"name" json:"name"`
	Weight          int              `yaml:"weight" json:"weight"`
	Positions       []string         `yaml:"positions" json:"positions"`
	InjuryRisk      float64          `yaml:"injury_risk" json:"injury_risk"`
	VulnerableParts []VulnerablePart `yaml:"vulnerable_parts" json:"vulnerable_parts"`
}

func (c PositionCategory) matches(position string) bool {
	if strings.EqualFold(c.Name, position) {
		return true
	}
	for _, p := range c.Positions {
		if strings.EqualFold(p, position) {
			return true
		}
	}
	return false
}

// Profile is the immutable configuration for one sport.
type Profile struct {
	Sport      Sport              `yaml:"-" json:"sport"`
	Name       string             `yaml:"name" json:"name"`
	Scoring    ScoringRules       `yaml:"scoring" json:"scoring"`
	Weights    Weights            `yaml:"weights" json:"weights"`
	Positions  []PositionCategory `yaml:"positions" json:"positions"`
	KeyMetrics []string           `yaml:"key_metrics" json:"key_metrics"`

	MatchMinutes     int `yaml:"match_minutes" json:"match_minutes"`
	SeasonMatches    int `yaml:"season_matches" json:"season_matches"`
	RestGapThreshold int `yaml:"rest_gap_threshold" json:"rest_gap_threshold"`
}

// Category returns the category containing position.
func (p Profile) Category(position string) (PositionCategory, bool) {
	position = strings.TrimSpace(position)
	if position == "" {
		return PositionCategory{}, false
	}
	for _, c := range p.Positions {
		if c.matches(position) {
			return c, true
		}
	}
	return PositionCategory{}, false
}

// PositionImportance returns the category weight for position, or
// DefaultPositionImportance for uncategorized positions.
func (p Profile) PositionImportance(position string) int {
	if c, ok := p.Category(position); ok {
		return c.Weight
	}
	return DefaultPositionImportance
}

// PositionRisk returns the baseline injury risk (0-100) for position.
func (p Profile) PositionRisk(position string) float64 {
	if c, ok := p.Category(position); ok {
		return c.InjuryRisk
	}
	return DefaultPositionRisk
}

// VulnerableParts returns the body parts most exposed for position.
func (p Profile) VulnerableParts(position string) []VulnerablePart {
	c, ok := p.Category(position)
	if !ok {
		return nil
	}
	out := make([]VulnerablePart, len(c.VulnerableParts))
	copy(out, c.VulnerableParts)
	return out
}

// Validate checks the structural invariants of a profile.
func Validate(p Profile) error {
	if !p.Sport.Valid() {
		return apperr.Validation("sport", "unknown sport %q", p.Sport)
	}
	w := p.Weights
	for name, v := range map[string]int{
		"form": w.Form, "head_to_head": w.HeadToHead, "squad_strength": w.SquadStrength,
		"home_advantage": w.HomeAdvantage, "availability": w.Availability,
		"rest_days": w.RestDays, "competition_importance": w.CompetitionImportance,
	} {
		if v < 0 {
			return apperr.Validation(string(p.Sport)+".weights."+name, "must not be negative, got %d", v)
		}
	}
	if sum := w.Sum(); sum != weightTotal {
		return apperr.Validation(string(p.Sport)+".weights", "must sum to %d, got %d", weightTotal, sum)
	}
	if len(p.Positions) == 0 {
		return apperr.Validation(string(p.Sport)+".positions", "at least one position category required")
	}
	total := 0
	for _, c := range p.Positions {
		if c.Weight < 0 {
			return apperr.Validation(string(p.Sport)+".positions."+c.Name, "weight must not be negative")
		}
		if c.InjuryRisk < 0 || c.InjuryRisk > 100 {
			return apperr.Validation(string(p.Sport)+".positions."+c.Name, "injury risk must be within [0,100]")
		}
		total += c.Weight
	}
	if total != weightTotal {
		return apperr.Validation(string(p.Sport)+".positions", "category weights must sum to %d, got %d", weightTotal, total)
	}
	r := p.Scoring
	if r.PointsForWin <= 0 {
		return apperr.Validation(string(p.Sport)+".scoring.points_for_win", "must be positive")
	}
	if r.BaseDrawProbability < 0 || r.BaseDrawProbability > 100 {
		return apperr.Validation(string(p.Sport)+".scoring.base_draw_probability", "must be within [0,100]")
	}
	if r.TypicalScore <= 0 {
		return apperr.Validation(string(p.Sport)+".scoring.typical_score", "must be positive")
	}
	if p.MatchMinutes <= 0 {
		return apperr.Validation(string(p.Sport)+".match_minutes", "must be positive")
	}
	return nil
}
