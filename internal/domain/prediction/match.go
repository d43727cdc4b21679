package prediction

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/sport"
)

// Outcome is the predicted result of a fixture.
type Outcome string

const (
	HomeWin Outcome = "HOME_WIN"
	Draw    Outcome = "DRAW"
	AwayWin Outcome = "AWAY_WIN"
)

// Side names who a factor favours.
type Side string

const (
	SideHome    Side = "HOME"
	SideAway    Side = "AWAY"
	SideNeutral Side = "NEUTRAL"
)

// Factor explains one material driver of a forecast.
type Factor struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Impact      float64 `json:"impact"`
	Favours     Side    `json:"favours"`
}

// MatchResult is a match outcome forecast. Probabilities are whole
// percentages and always sum to exactly 100.
type MatchResult struct {
	MatchID    string      `json:"match_id"`
	Sport      sport.Sport `json:"sport"`
	HomeTeamID string      `json:"home_team_id"`
	AwayTeamID string      `json:"away_team_id"`

	HomeWin          float64 `json:"home_win"`
	Draw             float64 `json:"draw"`
	AwayWin          float64 `json:"away_win"`
	PredictedOutcome Outcome `json:"predicted_outcome"`

	ExpectedHomeScore float64 `json:"expected_home_score"`
	ExpectedAwayScore float64 `json:"expected_away_score"`
	ScoreUnit         string  `json:"score_unit"`

	Confidence      Confidence `json:"confidence"`
	ConfidenceScore float64    `json:"confidence_score"`

	KeyFactors []Factor  `json:"key_factors"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Risks      []string  `json:"risks"`

	Stamp
}

// Check verifies the invariants a stored result must still satisfy.
func (r MatchResult) Check() error {
	if sum := r.HomeWin + r.Draw + r.AwayWin; sum != 100 {
		return fmt.Errorf("probabilities sum to %v", sum)
	}
	if r.HomeWin < 0 || r.Draw < 0 || r.AwayWin < 0 {
		return fmt.Errorf("negative probability")
	}
	if len(r.KeyFactors) > maxKeyFactors {
		return fmt.Errorf("%d key factors", len(r.KeyFactors))
	}
	return nil
}

const (
	maxKeyFactors = 6

	// drawDecay is how many draw percentage points each point of score gap removes.
	drawDecay = 0.4
	// h2hGoalSwing caps the goal-differential adjustment of the head-to-head factor.
	h2hGoalSwing = 10.0
	fullRestDays = 7.0

	formGapMateriality         = 15
	h2hMinMeetings             = 3
	h2hSwingMateriality        = 10
	squadGapMateriality        = 5
	availabilityGapMateriality = 10
	stakesMateriality          = 70
	highStakes                 = 80
	lowAvailability            = 75
	defaultRestGap             = 2
)

// PredictMatch forecasts a fixture.
func (e *Engine) PredictMatch(m features.Match) (MatchResult, error) {
	if err := features.Validate(m); err != nil {
		return MatchResult{}, err
	}
	p, err := e.profiles.Profile(m.Sport)
	if err != nil {
		return MatchResult{}, err
	}
	w := p.Weights

	homeH2H, awayH2H := headToHeadFactor(m.HeadToHead)
	squad := squadFactor(m.HomeSquadRating, m.AwaySquadRating)
	homeRest, awayRest := restFactor(m.HomeRestDays), restFactor(m.AwayRestDays)

	home := weightedScore(w, m.HomeForm, homeH2H, squad, m.HomeAvailability, homeRest, m.CompetitionImportance)
	away := weightedScore(w, m.AwayForm, awayH2H, 100-squad, m.AwayAvailability, awayRest, m.CompetitionImportance)
	if !m.NeutralVenue {
		home += float64(w.HomeAdvantage)
	}
	multiplier := 1 + m.CompetitionImportance/200
	home *= multiplier
	away *= multiplier

	homeP, drawP, awayP := probabilities(p.Scoring, home, away)
	share := 0.5
	if home+away > 0 {
		share = home / (home + away)
	}

	confidence := math.Abs(homeP - awayP)
	risks := matchRisks(m, confidence)

	return MatchResult{
		MatchID:           m.MatchID,
		Sport:             m.Sport,
		HomeTeamID:        m.HomeTeamID,
		AwayTeamID:        m.AwayTeamID,
		HomeWin:           homeP,
		Draw:              drawP,
		AwayWin:           awayP,
		PredictedOutcome:  outcome(p.Scoring, homeP, drawP, awayP),
		ExpectedHomeScore: round1(expectedScore(p.Scoring, m.HomeScoringAvg, m.AwayConcedingAvg, share)),
		ExpectedAwayScore: round1(expectedScore(p.Scoring, m.AwayScoringAvg, m.HomeConcedingAvg, 1-share)),
		ScoreUnit:         p.Scoring.ScoreUnit,
		Confidence:        matchConfidence(confidence),
		ConfidenceScore:   confidence,
		KeyFactors:        matchFactors(p, m, homeH2H, awayH2H, squad, homeRest, awayRest),
		RiskLevel:         riskLevel(len(risks)),
		Risks:             risks,
		Stamp:             e.stamp(),
	}, nil
}

// headToHeadFactor is 50/50 without history. Otherwise the win-rate
// difference moves the home score, adjusted by goal differential per meeting.
func headToHeadFactor(h features.HeadToHead) (home, away float64) {
	if h.Matches == 0 {
		return 50, 50
	}
	n := float64(h.Matches)
	rateGap := (float64(h.HomeWins) - float64(h.AwayWins)) / n
	goalAdj := clamp(float64(h.HomeGoals-h.AwayGoals)/n*5, -h2hGoalSwing, h2hGoalSwing)
	home = clamp(50+rateGap*50+goalAdj, 0, 100)
	return home, 100 - home
}

// squadFactor maps the rating differential from [-50,50] onto [0,100].
func squadFactor(home, away float64) float64 {
	return clamp(home-away, -50, 50) + 50
}

func restFactor(days int) float64 {
	return math.Min(float64(days)/fullRestDays, 1) * 100
}

func weightedScore(w sport.Weights, form, h2h, squad, availability, rest, importance float64) float64 {
	return form*pct(w.Form) +
		h2h*pct(w.HeadToHead) +
		squad*pct(w.SquadStrength) +
		availability*pct(w.Availability) +
		rest*pct(w.RestDays) +
		importance*pct(w.CompetitionImportance)
}

func pct(weight int) float64 { return float64(weight) / 100 }

// probabilities converts side scores into whole percentages summing to 100.
// The rounding residual goes to the larger of home and away, home on a tie.
func probabilities(rules sport.ScoringRules, home, away float64) (homeP, drawP, awayP float64) {
	draw := 0.0
	if rules.AllowsDraw() {
		draw = math.Max(0, rules.BaseDrawProbability-drawDecay*math.Abs(home-away))
	}
	share := 0.5
	if total := home + away; total > 0 {
		share = home / total
	}
	open := 100 - draw

	drawP = math.Round(draw)
	homeP = math.Round(open * share)
	awayP = math.Round(open * (1 - share))

	residual := 100 - (homeP + drawP + awayP)
	if homeP >= awayP {
		homeP += residual
	} else {
		awayP += residual
	}
	return homeP, drawP, awayP
}

// outcome picks the strictly greatest probability; ties go to DRAW when the
// sport allows one, otherwise to the home side.
func outcome(rules sport.ScoringRules, homeP, drawP, awayP float64) Outcome {
	if rules.AllowsDraw() && drawP >= homeP && drawP >= awayP {
		return Draw
	}
	switch {
	case homeP > awayP:
		return HomeWin
	case awayP > homeP:
		return AwayWin
	case rules.AllowsDraw():
		return Draw
	default:
		return HomeWin
	}
}

// expectedScore blends a side's scoring average with the opponent's
// conceding average and skews it by the side's share of strength.
func expectedScore(rules sport.ScoringRules, scoring, opponentConceding, share float64) float64 {
	base := (scoring + opponentConceding) / 2
	if scoring == 0 && opponentConceding == 0 {
		base = rules.TypicalScore
	}
	return math.Max(0, base*(1+rules.ScoreSensitivity*(2*share-1)))
}

func matchConfidence(score float64) Confidence {
	switch {
	case score >= matchHighConfidence:
		return ConfidenceHigh
	case score >= matchMediumConfidence:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func favours(diff float64) Side {
	switch {
	case diff > 0:
		return SideHome
	case diff < 0:
		return SideAway
	default:
		return SideNeutral
	}
}

// matchFactors lists material drivers ranked by weighted impact.
func matchFactors(p sport.Profile, m features.Match, homeH2H, awayH2H, squad, homeRest, awayRest float64) []Factor {
	w := p.Weights
	var out []Factor

	if gap := m.HomeForm - m.AwayForm; math.Abs(gap) > formGapMateriality {
		out = append(out, Factor{
			Name:        "Recent Form",
			Description: fmt.Sprintf("Form index %.0f vs %.0f", m.HomeForm, m.AwayForm),
			Impact:      round1(math.Abs(gap) * pct(w.Form)),
			Favours:     favours(gap),
		})
	}
	if gap := homeH2H - awayH2H; m.HeadToHead.Matches >= h2hMinMeetings && math.Abs(gap) > h2hSwingMateriality {
		out = append(out, Factor{
			Name: "Head-to-Head",
			Description: fmt.Sprintf("%d-%d-%d over %d meetings",
				m.HeadToHead.HomeWins, m.HeadToHead.Draws, m.HeadToHead.AwayWins, m.HeadToHead.Matches),
			Impact:  round1(math.Abs(gap) * pct(w.HeadToHead)),
			Favours: favours(gap),
		})
	}
	if gap := m.HomeSquadRating - m.AwaySquadRating; math.Abs(gap) > squadGapMateriality {
		out = append(out, Factor{
			Name:        "Squad Strength",
			Description: fmt.Sprintf("Squad rating %.0f vs %.0f", m.HomeSquadRating, m.AwaySquadRating),
			Impact:      round1(math.Abs(2*squad-100) * pct(w.SquadStrength)),
			Favours:     favours(gap),
		})
	}
	if gap := m.HomeAvailability - m.AwayAvailability; math.Abs(gap) > availabilityGapMateriality {
		out = append(out, Factor{
			Name:        "Key Player Availability",
			Description: fmt.Sprintf("%.0f%% vs %.0f%% of key players available", m.HomeAvailability, m.AwayAvailability),
			Impact:      round1(math.Abs(gap) * pct(w.Availability)),
			Favours:     favours(gap),
		})
	}
	threshold := p.RestGapThreshold
	if threshold <= 0 {
		threshold = defaultRestGap
	}
	if gap := m.HomeRestDays - m.AwayRestDays; absInt(gap) >= threshold {
		out = append(out, Factor{
			Name:        "Rest Advantage",
			Description: fmt.Sprintf("%d vs %d days of rest", m.HomeRestDays, m.AwayRestDays),
			Impact:      round1(math.Abs(homeRest-awayRest) * pct(w.RestDays)),
			Favours:     favours(float64(gap)),
		})
	}
	if !m.NeutralVenue && w.HomeAdvantage > 0 {
		out = append(out, Factor{
			Name:        "Home Advantage",
			Description: "Playing at home venue",
			Impact:      float64(w.HomeAdvantage),
			Favours:     SideHome,
		})
	}
	if m.CompetitionImportance >= stakesMateriality {
		out = append(out, Factor{
			Name:        "Competition Stakes",
			Description: fmt.Sprintf("Competition importance %.0f", m.CompetitionImportance),
			Impact:      round1(m.CompetitionImportance * pct(w.CompetitionImportance)),
			Favours:     SideNeutral,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Impact > out[j].Impact })
	if len(out) > maxKeyFactors {
		out = out[:maxKeyFactors]
	}
	return out
}

func matchRisks(m features.Match, confidence float64) []string {
	risks := []string{}
	if m.HeadToHead.Matches < h2hMinMeetings {
		risks = append(risks, fmt.Sprintf("Limited head-to-head history (%d meetings)", m.HeadToHead.Matches))
	}
	if confidence < matchMediumConfidence {
		risks = append(risks, "Evenly matched sides; outcome uncertain")
	}
	if m.HomeAvailability < lowAvailability {
		risks = append(risks, fmt.Sprintf("Home side missing key players (%.0f%% available)", m.HomeAvailability))
	}
	if m.AwayAvailability < lowAvailability {
		risks = append(risks, fmt.Sprintf("Away side missing key players (%.0f%% available)", m.AwayAvailability))
	}
	if m.CompetitionImportance >= highStakes {
		risks = append(risks, "High-stakes fixture; cautious tactics likely")
	}
	switch m.Weather {
	case features.WeatherRain, features.WeatherSnow, features.WeatherWind, features.WeatherExtremeHeat:
		risks = append(risks, fmt.Sprintf("Adverse weather (%s)", m.Weather))
	}
	return risks
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
