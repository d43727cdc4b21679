package loadgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/okian/pitchcast/internal/adapters/http/api"
	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/sport"
	"github.com/okian/pitchcast/pkg/logger"
)

var kinds = []Kind{KindMatch, KindPlayer, KindTeam, KindInjury}

// generator builds plausible feature snapshots. It is deterministic for a
// given seed so runs can be compared.
type generator struct {
	rnd    *rand.Rand
	sports []sport.Sport
	scope  api.Scope
}

func newGenerator(cfg *Config) *generator {
	sports := cfg.Sports
	if len(sports) == 0 {
		sports = sport.All()
	}
	return &generator{
		rnd:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		sports: sports,
		scope:  api.Scope{ClubIDs: []string{cfg.ClubID}},
	}
}

// generate creates cfg.Requests requests spread round-robin over kinds and sports.
func generate(ctx context.Context, cfg *Config) ([]Request, error) {
	logger.Get().Info(ctx, "generating prediction requests", logger.Int("requests", cfg.Requests))

	g := newGenerator(cfg)
	out := make([]Request, 0, cfg.Requests)
	for i := 0; i < cfg.Requests; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation cancelled: %w", err)
		}
		out = append(out, g.request(i))
	}
	return out, nil
}

func (g *generator) request(i int) Request {
	s := g.sports[i%len(g.sports)]
	id := strconv.Itoa(i)
	switch k := kinds[i%len(kinds)]; k {
	case KindMatch:
		return Request{Kind: k, Body: api.PredictionRequest[features.Match]{Features: g.match("m-"+id, s), Entity: g.scope}}
	case KindPlayer:
		return Request{Kind: k, Body: api.PredictionRequest[features.Player]{Features: g.player("p-"+id, s), Entity: g.scope}}
	case KindTeam:
		return Request{Kind: k, Body: api.PredictionRequest[features.Team]{Features: g.team("t-"+id, s), Entity: g.scope}}
	default:
		return Request{Kind: KindInjury, Body: api.PredictionRequest[features.Workload]{Features: g.workload("p-"+id, s), Entity: g.scope}}
	}
}

// pct returns a value in [lo, hi].
func (g *generator) pct(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}

func (g *generator) position(s sport.Sport) string {
	cats := sport.Builtin(s).Positions
	if len(cats) == 0 {
		return ""
	}
	c := cats[g.rnd.IntN(len(cats))]
	if len(c.Positions) == 0 {
		return c.Name
	}
	return c.Positions[g.rnd.IntN(len(c.Positions))]
}

func (g *generator) match(id string, s sport.Sport) features.Match {
	meetings := g.rnd.IntN(10)
	homeWins := g.rnd.IntN(meetings + 1)
	awayWins := g.rnd.IntN(meetings - homeWins + 1)
	return features.Match{
		MatchID:    id,
		Sport:      s,
		HomeTeamID: id + "-home",
		AwayTeamID: id + "-away",
		HomeForm:   g.pct(20, 90),
		AwayForm:   g.pct(20, 90),
		HeadToHead: features.HeadToHead{
			Matches:  meetings,
			HomeWins: homeWins,
			AwayWins: awayWins,
			Draws:    meetings - homeWins - awayWins,
		},
		HomeSquadRating:       g.pct(40, 90),
		AwaySquadRating:       g.pct(40, 90),
		HomeAvailability:      g.pct(60, 100),
		AwayAvailability:      g.pct(60, 100),
		HomeRestDays:          g.rnd.IntN(10),
		AwayRestDays:          g.rnd.IntN(10),
		CompetitionImportance: g.pct(0, 100),
		NeutralVenue:          g.rnd.IntN(10) == 0,
	}
}

func (g *generator) player(id string, s sport.Sport) features.Player {
	played := 5 + g.rnd.IntN(30)
	return features.Player{
		PlayerID:            id,
		Sport:               s,
		Position:            g.position(s),
		MatchesPlayed:       played,
		MinutesPlayed:       played * (30 + g.rnd.IntN(60)),
		Scores:              g.rnd.IntN(played),
		Assists:             g.rnd.IntN(played),
		KeyActions:          g.rnd.IntN(played * 3),
		AverageRating:       g.pct(5, 9),
		RatingTrend:         g.pct(-1, 1),
		Consistency:         g.pct(30, 95),
		Fatigue:             g.pct(0, 80),
		TrainingLoad:        g.pct(20, 90),
		InjuryCount:         g.rnd.IntN(4),
		DaysSinceLastInjury: g.rnd.IntN(365),
		DaysSinceLastMatch:  g.rnd.IntN(14),
		SleepHours:          g.pct(5, 9),
		Age:                 17 + g.rnd.IntN(19),
		CurrentAbility:      g.pct(40, 85),
		PotentialAbility:    g.pct(50, 95),
	}
}

func (g *generator) team(id string, s sport.Sport) features.Team {
	won, drawn, lost := g.rnd.IntN(15), g.rnd.IntN(6), g.rnd.IntN(15)
	size := 12 + g.rnd.IntN(20)
	league := 10 + g.rnd.IntN(11)
	return features.Team{
		TeamID:           id,
		Sport:            s,
		Won:              won,
		Drawn:            drawn,
		Lost:             lost,
		GoalsFor:         won*2 + g.rnd.IntN(10),
		GoalsAgainst:     lost*2 + g.rnd.IntN(10),
		CleanSheets:      g.rnd.IntN(won + 1),
		HomeForm:         g.pct(20, 90),
		AwayForm:         g.pct(20, 90),
		SquadSize:        size,
		SquadDepth:       g.pct(30, 90),
		InjuredPlayers:   g.rnd.IntN(size / 4),
		SuspendedPlayers: g.rnd.IntN(3),
		LeaguePosition:   1 + g.rnd.IntN(league),
		LeagueSize:       league,
		MatchesRemaining: g.rnd.IntN(20),
		PointsGapAbove:   g.rnd.IntN(8),
		PointsGapBelow:   g.rnd.IntN(8),
	}
}

func (g *generator) workload(id string, s sport.Sport) features.Workload {
	chronic := g.pct(200, 900)
	acute := chronic / 4 * g.pct(0.5, 2)
	return features.Workload{
		PlayerID:       id,
		Sport:          s,
		Position:       g.position(s),
		Last7dMinutes:  acute,
		Last28dMinutes: chronic,
		Fatigue:        g.pct(0, 90),
		FitnessScore:   g.pct(50, 100),
		SleepHours:     g.pct(5, 9),
		Age:            17 + g.rnd.IntN(19),
		MatchesSampled: 1 + g.rnd.IntN(12),
	}
}
