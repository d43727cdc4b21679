package prediction

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/okian/pitchcast/internal/domain/apperr"
	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/sport"
)

// FormBand is a five-step team form rating.
type FormBand string

const (
	FormExcellent FormBand = "EXCELLENT"
	FormGood      FormBand = "GOOD"
	FormAverage   FormBand = "AVERAGE"
	FormPoor      FormBand = "POOR"
	FormCritical  FormBand = "CRITICAL"
)

// Priority orders team recommendations.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// RecommendationCategory tags what a recommendation acts on.
type RecommendationCategory string

const (
	CategoryTactical    RecommendationCategory = "TACTICAL"
	CategorySquad       RecommendationCategory = "SQUAD"
	CategoryMedical     RecommendationCategory = "MEDICAL"
	CategoryFitness     RecommendationCategory = "FITNESS"
	CategoryDevelopment RecommendationCategory = "DEVELOPMENT"
)

// Recommendation is an actionable suggestion for staff.
type Recommendation struct {
	Priority  Priority               `json:"priority"`
	Category  RecommendationCategory `json:"category"`
	Title     string                 `json:"title"`
	Rationale string                 `json:"rationale"`
	Impact    string                 `json:"impact"`
	Steps     []string               `json:"steps"`
}

// SeasonProjection is a best/likely/worst finishing band.
type SeasonProjection struct {
	MatchesRemaining int     `json:"matches_remaining"`
	BestPosition     int     `json:"best_position"`
	LikelyPosition   int     `json:"likely_position"`
	WorstPosition    int     `json:"worst_position"`
	BestPoints       float64 `json:"best_points"`
	LikelyPoints     float64 `json:"likely_points"`
	WorstPoints      float64 `json:"worst_points"`
}

// SWOT is a four-quadrant analysis. No quadrant is ever empty.
type SWOT struct {
	Strengths     []string `json:"strengths"`
	Weaknesses    []string `json:"weaknesses"`
	Opportunities []string `json:"opportunities"`
	Threats       []string `json:"threats"`
}

// TeamResult is a team performance forecast.
type TeamResult struct {
	TeamID string      `json:"team_id"`
	ClubID string      `json:"club_id,omitempty"`
	Sport  sport.Sport `json:"sport"`

	Played         int      `json:"played"`
	Points         int      `json:"points"`
	PointsPerMatch float64  `json:"points_per_match"`
	Form           FormBand `json:"form"`

	Season          SeasonProjection `json:"season"`
	Analysis        SWOT             `json:"analysis"`
	Recommendations []Recommendation `json:"recommendations"`

	Confidence      Confidence `json:"confidence"`
	ConfidenceScore float64    `json:"confidence_score"`
	RiskLevel       RiskLevel  `json:"risk_level"`
	Risks           []string   `json:"risks"`

	Stamp
}

// Check verifies the invariants a stored result must still satisfy.
func (r TeamResult) Check() error {
	a := r.Analysis
	if len(a.Strengths) == 0 || len(a.Weaknesses) == 0 || len(a.Opportunities) == 0 || len(a.Threats) == 0 {
		return errors.New("empty analysis quadrant")
	}
	if s := r.Season; s.LikelyPosition < s.BestPosition || s.LikelyPosition > s.WorstPosition {
		return fmt.Errorf("likely position %d outside %d-%d", s.LikelyPosition, s.BestPosition, s.WorstPosition)
	}
	return nil
}

const (
	bandExcellent = 0.75
	bandGood      = 0.6
	bandAverage   = 0.45
	bandPoor      = 0.3

	// bestCaseUplift and worstCaseDrop scale the current points rate.
	bestCaseUplift = 1.25
	worstCaseDrop  = 0.75
	// matchesPerPlace is how many remaining matches it takes to move one place.
	matchesPerPlace = 5

	relegationPlaces  = 3
	closeGap          = 3
	thinSquad         = 40
	deepSquad         = 70
	strongHomeForm    = 70
	weakAwayForm      = 40
	strongAwayForm    = 60
	cleanSheetRate    = 0.35
	unavailableMarker = 3
)

// PredictTeam rates a team's form and projects its season finish.
func (e *Engine) PredictTeam(t features.Team) (TeamResult, error) {
	if err := features.Validate(t); err != nil {
		return TeamResult{}, err
	}
	p, err := e.profiles.Profile(t.Sport)
	if err != nil {
		return TeamResult{}, err
	}
	if t.LeagueSize > 0 && t.LeaguePosition > t.LeagueSize {
		return TeamResult{}, apperr.Validation("league_position",
			"position %d beyond league size %d", t.LeaguePosition, t.LeagueSize)
	}

	r := p.Scoring
	played := t.Played()
	points := t.Won*r.PointsForWin + t.Drawn*r.PointsForDraw + t.Lost*r.PointsForLoss
	ppm := ratio(float64(points), float64(played))
	band := FormAverage
	if played > 0 {
		band = formBand(ratio(ppm, float64(r.PointsForWin)))
	}

	risks := teamRisks(t, band)
	res := TeamResult{
		TeamID:          t.TeamID,
		ClubID:          t.ClubID,
		Sport:           t.Sport,
		Played:          played,
		Points:          points,
		PointsPerMatch:  round2(ppm),
		Form:            band,
		Season:          seasonProjection(t, r, float64(points), ppm, band),
		Confidence:      e.team.Tier(played),
		ConfidenceScore: round1(e.team.Score(played)),
		RiskLevel:       riskLevel(len(risks)),
		Risks:           risks,
		Stamp:           e.stamp(),
	}
	res.Analysis = swot(t, band)
	res.Recommendations = teamRecommendations(t, band)
	return res, nil
}

func formBand(normalized float64) FormBand {
	switch {
	case normalized >= bandExcellent:
		return FormExcellent
	case normalized >= bandGood:
		return FormGood
	case normalized >= bandAverage:
		return FormAverage
	case normalized >= bandPoor:
		return FormPoor
	default:
		return FormCritical
	}
}

func seasonProjection(t features.Team, r sport.ScoringRules, points, ppm float64, band FormBand) SeasonProjection {
	remaining := float64(t.MatchesRemaining)
	best := points + remaining*math.Min(float64(r.PointsForWin), ppm*bestCaseUplift)
	likely := points + remaining*ppm
	worst := points + remaining*ppm*worstCaseDrop

	proj := SeasonProjection{
		MatchesRemaining: t.MatchesRemaining,
		BestPoints:       round1(best),
		LikelyPoints:     round1(likely),
		WorstPoints:      round1(worst),
	}
	pos := t.LeaguePosition
	if pos <= 0 {
		return proj
	}
	last := t.LeagueSize
	if last <= 0 {
		last = pos
	}
	spread := int(math.Max(1, math.Round(remaining/matchesPerPlace)))
	if t.MatchesRemaining == 0 {
		spread = 0
	}
	proj.BestPosition = max(1, pos-spread)
	proj.WorstPosition = min(last, pos+spread)

	likelyPos := pos
	switch band {
	case FormExcellent, FormGood:
		likelyPos--
	case FormPoor, FormCritical:
		likelyPos++
	}
	proj.LikelyPosition = min(proj.WorstPosition, max(proj.BestPosition, likelyPos))
	return proj
}

func swot(t features.Team, band FormBand) SWOT {
	var s SWOT
	played := float64(t.Played())
	gdPerMatch := ratio(float64(t.GoalsFor-t.GoalsAgainst), played)
	unavailable := t.InjuredPlayers + t.SuspendedPlayers

	switch band {
	case FormExcellent, FormGood:
		s.Strengths = append(s.Strengths, fmt.Sprintf("%s form across the season", titleBand(band)))
	case FormPoor, FormCritical:
		s.Weaknesses = append(s.Weaknesses, fmt.Sprintf("%s points return", titleBand(band)))
	}
	if gdPerMatch > 0.5 {
		s.Strengths = append(s.Strengths, fmt.Sprintf("Strong scoring margin (+%.1f per match)", gdPerMatch))
	} else if gdPerMatch < 0 {
		s.Weaknesses = append(s.Weaknesses, fmt.Sprintf("Conceding more than scoring (%.1f per match)", gdPerMatch))
	}
	if ratio(float64(t.CleanSheets), played) >= cleanSheetRate {
		s.Strengths = append(s.Strengths, "Reliable defence with frequent clean sheets")
	}
	if t.HomeForm >= strongHomeForm {
		s.Strengths = append(s.Strengths, "Dominant home record")
	}
	if t.AwayForm >= strongAwayForm {
		s.Strengths = append(s.Strengths, "Competitive away from home")
	} else if t.Played() > 0 && t.AwayForm < weakAwayForm {
		s.Weaknesses = append(s.Weaknesses, "Struggles in away fixtures")
	}
	if t.SquadDepth >= deepSquad {
		s.Strengths = append(s.Strengths, "Deep squad with rotation options")
	} else if t.SquadDepth < thinSquad {
		s.Weaknesses = append(s.Weaknesses, "Thin squad limits rotation")
	}
	if unavailable >= unavailableMarker {
		s.Weaknesses = append(s.Weaknesses, fmt.Sprintf("%d players injured or suspended", unavailable))
	}

	if t.LeaguePosition > 1 && t.PointsGapAbove <= closeGap {
		s.Opportunities = append(s.Opportunities,
			fmt.Sprintf("Within %d points of position %d", t.PointsGapAbove, t.LeaguePosition-1))
	}
	if t.HomeForm > t.AwayForm+15 {
		s.Opportunities = append(s.Opportunities, "Leverage upcoming home fixtures")
	}
	if t.MatchesRemaining >= 10 {
		s.Opportunities = append(s.Opportunities, fmt.Sprintf("%d matches left to change the outcome", t.MatchesRemaining))
	}

	if t.LeagueSize > 0 && t.LeaguePosition > t.LeagueSize-relegationPlaces {
		s.Threats = append(s.Threats, "In or near the relegation places")
	}
	if t.LeaguePosition > 0 && t.LeaguePosition < t.LeagueSize && t.PointsGapBelow <= closeGap {
		s.Threats = append(s.Threats, fmt.Sprintf("Chasing pack within %d points", t.PointsGapBelow))
	}
	if unavailable >= unavailableMarker {
		s.Threats = append(s.Threats, "Availability crisis could deepen with fixture congestion")
	}

	if len(s.Strengths) == 0 {
		s.Strengths = []string{"Stable baseline to build on"}
	}
	if len(s.Weaknesses) == 0 {
		s.Weaknesses = []string{"No major weakness identified; guard against complacency"}
	}
	if len(s.Opportunities) == 0 {
		s.Opportunities = []string{"Use remaining fixtures to develop squad depth"}
	}
	if len(s.Threats) == 0 {
		s.Threats = []string{"Opponents adapting to established tactics"}
	}
	return s
}

func titleBand(b FormBand) string {
	switch b {
	case FormExcellent:
		return "Excellent"
	case FormGood:
		return "Good"
	case FormAverage:
		return "Average"
	case FormPoor:
		return "Poor"
	default:
		return "Critical"
	}
}

func teamRecommendations(t features.Team, band FormBand) []Recommendation {
	var out []Recommendation
	played := float64(t.Played())

	if band == FormPoor || band == FormCritical {
		out = append(out, Recommendation{
			Priority:  PriorityHigh,
			Category:  CategoryTactical,
			Title:     "Reassess tactical setup",
			Rationale: fmt.Sprintf("Form band is %s", band),
			Impact:    "Stops the points drain before the table position slips further",
			Steps: []string{
				"Review the last five matches for recurring patterns",
				"Trial an alternative formation in training",
				"Set measurable targets for the next three fixtures",
			},
		})
	}
	if unavailable := t.InjuredPlayers + t.SuspendedPlayers; unavailable >= unavailableMarker {
		out = append(out, Recommendation{
			Priority:  PriorityHigh,
			Category:  CategoryMedical,
			Title:     "Manage squad availability",
			Rationale: fmt.Sprintf("%d players unavailable", unavailable),
			Impact:    "Protects the remaining squad from overload injuries",
			Steps: []string{
				"Review return-to-play timelines with medical staff",
				"Rotate players carrying high workloads",
			},
		})
	}
	if ratio(float64(t.GoalsAgainst), played) > ratio(float64(t.GoalsFor), played) {
		out = append(out, Recommendation{
			Priority:  PriorityMedium,
			Category:  CategoryTactical,
			Title:     "Tighten defensive structure",
			Rationale: "Conceding more than scoring per match",
			Impact:    "Reduces goals against and improves draw-to-win conversion",
			Steps:     []string{"Dedicate sessions to defensive shape", "Analyse goals conceded by phase of play"},
		})
	}
	if t.SquadDepth < thinSquad {
		out = append(out, Recommendation{
			Priority:  PriorityMedium,
			Category:  CategorySquad,
			Title:     "Strengthen squad depth",
			Rationale: fmt.Sprintf("Squad depth index %.0f", t.SquadDepth),
			Impact:    "Allows rotation without a drop in performance",
			Steps:     []string{"Identify positions lacking cover", "Promote academy players into first-team training"},
		})
	}
	if t.Played() > 0 && t.AwayForm < weakAwayForm {
		out = append(out, Recommendation{
			Priority:  PriorityMedium,
			Category:  CategoryFitness,
			Title:     "Improve away-day preparation",
			Rationale: fmt.Sprintf("Away form index %.0f", t.AwayForm),
			Impact:    "Converts away draws and losses into points",
			Steps:     []string{"Adjust travel and recovery schedules", "Simulate away conditions in training"},
		})
	}
	if len(out) == 0 {
		out = append(out, Recommendation{
			Priority:  PriorityLow,
			Category:  CategoryDevelopment,
			Title:     "Sustain current approach",
			Rationale: fmt.Sprintf("Form band is %s", band),
			Impact:    "Keeps momentum while developing fringe players",
			Steps:     []string{"Give minutes to development players in low-risk fixtures"},
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority.rank() < out[j].Priority.rank() })
	return out
}

func teamRisks(t features.Team, band FormBand) []string {
	risks := []string{}
	if t.Played() < DefaultTeamMediumSample {
		risks = append(risks, fmt.Sprintf("Small sample (%d matches played)", t.Played()))
	}
	if band == FormCritical {
		risks = append(risks, "Critical form")
	}
	if t.InjuredPlayers+t.SuspendedPlayers >= unavailableMarker {
		risks = append(risks, "Squad availability")
	}
	if t.LeagueSize > 0 && t.LeaguePosition > t.LeagueSize-relegationPlaces {
		risks = append(risks, "Relegation threat")
	}
	return risks
}
