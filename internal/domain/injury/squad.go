package injury

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/okian/pitchcast/internal/domain/sport"
)

// rotationShare is the share of high-risk players above which squad
// rotation is recommended.
const rotationShare = 0.25

// SquadFailure records a player whose assessment could not be produced.
type SquadFailure struct {
	PlayerID string `json:"player_id"`
	Error    string `json:"error"`
}

// SquadReport aggregates the assessments of one team's players.
type SquadReport struct {
	TeamID string      `json:"team_id"`
	Sport  sport.Sport `json:"sport"`

	Players  []Assessment   `json:"players"`
	Failures []SquadFailure `json:"failures"`

	TierCounts   map[Tier]int `json:"tier_counts"`
	AverageScore float64      `json:"average_score"`
	// AtRisk lists players at HIGH or CRITICAL, highest score first.
	AtRisk []string `json:"at_risk"`

	Recommendations []string `json:"recommendations"`

	ModelVersion string    `json:"model_version"`
	GeneratedAt  time.Time `json:"generated_at"`
	ValidUntil   time.Time `json:"valid_until"`
}

// Version returns the model version that produced the report.
func (r SquadReport) Version() string { return r.ModelVersion }

// Check verifies the report's tallies agree with its players.
func (r SquadReport) Check() error {
	n := 0
	for _, c := range r.TierCounts {
		n += c
	}
	if n != len(r.Players) {
		return fmt.Errorf("tier counts total %d, want %d", n, len(r.Players))
	}
	if len(r.Recommendations) == 0 {
		return errors.New("squad report has no recommendations")
	}
	return nil
}

// Summarize builds a squad report from per-player results. Failed players
// are carried through without affecting the tallies.
func (a *Analyzer) Summarize(teamID string, s sport.Sport, assessed []Assessment, failures []SquadFailure) SquadReport {
	players := append([]Assessment(nil), assessed...)
	sort.SliceStable(players, func(i, j int) bool { return players[i].Score > players[j].Score })

	counts := map[Tier]int{TierLow: 0, TierModerate: 0, TierHigh: 0, TierCritical: 0}
	var total float64
	danger := 0
	atRisk := make([]string, 0)
	for _, p := range players {
		counts[p.Tier]++
		total += p.Score
		if p.Workload.Zone == ZoneDanger {
			danger++
		}
		if p.Tier == TierHigh || p.Tier == TierCritical {
			atRisk = append(atRisk, p.PlayerID)
		}
	}
	avg := 0.0
	if len(players) > 0 {
		avg = round1(total / float64(len(players)))
	}

	now := a.now().UTC()
	return SquadReport{
		TeamID:          teamID,
		Sport:           s,
		Players:         players,
		Failures:        append([]SquadFailure{}, failures...),
		TierCounts:      counts,
		AverageScore:    avg,
		AtRisk:          atRisk,
		Recommendations: squadRecommendations(len(players), len(atRisk), counts[TierCritical], danger, len(failures)),
		ModelVersion:    a.modelVersion,
		GeneratedAt:     now,
		ValidUntil:      now.Add(a.validity),
	}
}

func squadRecommendations(players, atRisk, critical, danger, failed int) []string {
	out := make([]string, 0, 4)
	if critical > 0 {
		out = append(out, fmt.Sprintf("Medical review for %d player(s) at CRITICAL risk before selection", critical))
	}
	if players > 0 && float64(atRisk)/float64(players) > rotationShare {
		out = append(out, fmt.Sprintf("Rotate the squad: %d of %d players at HIGH or CRITICAL risk", atRisk, players))
	}
	if danger > 0 {
		out = append(out, fmt.Sprintf("Reduce team session intensity; %d player(s) above ACWR %.1f", danger, CautionHigh))
	}
	if failed > 0 {
		out = append(out, fmt.Sprintf("Complete workload data for %d player(s) missing from this report", failed))
	}
	if len(out) == 0 {
		out = append(out, "Maintain current load management and monitoring")
	}
	return out
}
