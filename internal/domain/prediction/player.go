package prediction

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/sport"
)

// Trend labels the direction of a player's recent ratings.
type Trend string

const (
	TrendImproving Trend = "IMPROVING"
	TrendStable    Trend = "STABLE"
	TrendDeclining Trend = "DECLINING"
)

// Projection is expected output over the projection window.
type Projection struct {
	Matches    int     `json:"matches"`
	Scores     float64 `json:"scores"`
	Assists    float64 `json:"assists"`
	KeyActions float64 `json:"key_actions"`
	Rating     float64 `json:"rating"`
}

// Potential describes a youth player's development headroom.
type Potential struct {
	Current         float64 `json:"current"`
	Potential       float64 `json:"potential"`
	Gap             float64 `json:"gap"`
	TimeToPotential string  `json:"time_to_potential"`
}

// PlayerResult is a player performance forecast.
type PlayerResult struct {
	PlayerID           string      `json:"player_id"`
	Sport              sport.Sport `json:"sport"`
	Position           string      `json:"position"`
	PositionImportance int         `json:"position_importance"`

	Projection Projection `json:"projection"`
	Trend      Trend      `json:"trend"`

	InjuryRiskScore float64   `json:"injury_risk_score"`
	InjuryRisk      RiskLevel `json:"injury_risk"`

	Confidence      Confidence `json:"confidence"`
	ConfidenceScore float64    `json:"confidence_score"`

	Potential       *Potential `json:"potential,omitempty"`
	Recommendations []string   `json:"recommendations"`

	Stamp
}

// Check verifies the invariants a stored result must still satisfy.
func (r PlayerResult) Check() error {
	if len(r.Recommendations) < minRecommendations {
		return errors.New("fewer than two recommendations")
	}
	if r.InjuryRiskScore < 0 || r.InjuryRiskScore > 100 {
		return fmt.Errorf("injury risk score %v out of range", r.InjuryRiskScore)
	}
	return nil
}

const (
	projectionMatches  = 5
	minRecommendations = 2

	trendSwing = 0.1
	// trendBand is the slope beyond which a trend is no longer STABLE.
	trendBand = 0.1

	highFatigue       = 70
	lowSleepHours     = 7
	highTrainingLoad  = 80
	lowConsistency    = 50
	injuryRiskMedium  = 30
	injuryRiskHigh    = 60
	shortRestDays     = 3
	moderateRestDays  = 5
	heavyMinutesShare = 0.9
	highMinutesShare  = 0.75
)

// PredictPlayer projects a player's output over the next five matches.
func (e *Engine) PredictPlayer(f features.Player) (PlayerResult, error) {
	if err := features.Validate(f); err != nil {
		return PlayerResult{}, err
	}
	p, err := e.profiles.Profile(f.Sport)
	if err != nil {
		return PlayerResult{}, err
	}

	n := float64(f.MatchesPlayed)
	mult := (1 + trendSwing*clamp(f.RatingTrend, -1, 1)) * (1 - f.Fatigue/200)
	projection := Projection{
		Matches:    projectionMatches,
		Scores:     round1(ratio(float64(f.Scores), n) * projectionMatches * mult),
		Assists:    round1(ratio(float64(f.Assists), n) * projectionMatches * mult),
		KeyActions: round1(ratio(float64(f.KeyActions), n) * projectionMatches * mult),
		Rating:     round1(clamp(f.AverageRating*mult, 0, 10)),
	}

	risk := playerInjuryRisk(p, f)
	res := PlayerResult{
		PlayerID:           f.PlayerID,
		Sport:              f.Sport,
		Position:           f.Position,
		PositionImportance: p.PositionImportance(f.Position),
		Projection:         projection,
		Trend:              trendOf(f.RatingTrend),
		InjuryRiskScore:    round1(risk),
		InjuryRisk:         injuryLevel(risk),
		Confidence:         e.player.Tier(f.MatchesPlayed),
		ConfidenceScore:    round1(e.player.Score(f.MatchesPlayed)),
		Stamp:              e.stamp(),
	}
	if f.IsYouth {
		res.Potential = potentialOf(f)
	}
	res.Recommendations = playerRecommendations(f, res)
	return res, nil
}

// playerInjuryRisk weighs fatigue 35%, history 25%, short rest 20% and
// heavy minutes 20%.
func playerInjuryRisk(p sport.Profile, f features.Player) float64 {
	history := math.Min(100, float64(f.InjuryCount)*20)
	if f.InjuryCount > 0 {
		switch {
		case f.DaysSinceLastInjury < 30:
			history = math.Min(100, history+30)
		case f.DaysSinceLastInjury < 90:
			history = math.Min(100, history+15)
		}
	}

	var rest, minutes float64
	if f.MatchesPlayed > 0 {
		switch {
		case f.DaysSinceLastMatch < shortRestDays:
			rest = 100
		case f.DaysSinceLastMatch < moderateRestDays:
			rest = 50
		}
		share := ratio(ratio(float64(f.MinutesPlayed), float64(f.MatchesPlayed)), float64(p.MatchMinutes))
		switch {
		case share > heavyMinutesShare:
			minutes = 100
		case share > highMinutesShare:
			minutes = 50
		}
	}
	return clamp(0.35*f.Fatigue+0.25*history+0.2*rest+0.2*minutes, 0, 100)
}

func injuryLevel(score float64) RiskLevel {
	switch {
	case score >= injuryRiskHigh:
		return RiskHigh
	case score >= injuryRiskMedium:
		return RiskMedium
	default:
		return RiskLow
	}
}

func trendOf(slope float64) Trend {
	switch {
	case slope > trendBand:
		return TrendImproving
	case slope < -trendBand:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func potentialOf(f features.Player) *Potential {
	gap := math.Max(0, f.PotentialAbility-f.CurrentAbility)
	var band string
	switch {
	case gap <= 5:
		band = "0-6 months"
	case gap <= 15:
		band = "6-12 months"
	case gap <= 30:
		band = "1-2 years"
	default:
		band = "2+ years"
	}
	return &Potential{
		Current:         f.CurrentAbility,
		Potential:       f.PotentialAbility,
		Gap:             round1(gap),
		TimeToPotential: band,
	}
}

func playerRecommendations(f features.Player, r PlayerResult) []string {
	var out []string
	if f.Fatigue > highFatigue {
		out = append(out, "Schedule recovery sessions and limit minutes until fatigue drops below 70")
	}
	if f.SleepHours > 0 && f.SleepHours < lowSleepHours {
		out = append(out, fmt.Sprintf("Increase sleep from %.1f to at least 7-9 hours per night", f.SleepHours))
	}
	if f.TrainingLoad > highTrainingLoad {
		out = append(out, "Reduce training load intensity; current load exceeds safe threshold")
	}
	if r.InjuryRisk == RiskHigh {
		out = append(out, "Refer to medical staff for an injury-prevention screening")
	}
	if r.Trend == TrendDeclining {
		out = append(out, "Review recent match footage to address declining ratings")
	}
	if f.MatchesPlayed > 0 && f.Consistency < lowConsistency {
		out = append(out, "Focus on consistency through role-specific drills")
	}
	if r.Potential != nil && r.Potential.Gap > 15 {
		out = append(out, "Build an individual development plan targeting the potential gap")
	}
	if r.Confidence == ConfidenceLow {
		out = append(out, "Collect more match data before acting on this projection")
	}

	for _, generic := range []string{
		"Maintain current training and recovery routine",
		"Continue monitoring workload and match ratings",
	} {
		if len(out) >= minRecommendations {
			break
		}
		out = append(out, generic)
	}
	return out
}
