// Package features defines the input snapshots the prediction core consumes.
// They are assembled by an external supplier; nothing here computes them.
package features

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/okian/pitchcast/internal/domain/apperr"
	"github.com/okian/pitchcast/internal/domain/sport"
)

// HeadToHead tallies previous meetings from the home side's perspective.
type HeadToHead struct {
	Matches   int `json:"matches" validate:"gte=0"`
	HomeWins  int `json:"home_wins" validate:"gte=0"`
	AwayWins  int `json:"away_wins" validate:"gte=0"`
	Draws     int `json:"draws" validate:"gte=0"`
	HomeGoals int `json:"home_goals" validate:"gte=0"`
	AwayGoals int `json:"away_goals" validate:"gte=0"`
}

// Weather conditions that raise match risk.
const (
	WeatherClear       = "CLEAR"
	WeatherRain        = "RAIN"
	WeatherSnow        = "SNOW"
	WeatherWind        = "WIND"
	WeatherExtremeHeat = "EXTREME_HEAT"
)

// Match is the per-fixture comparable snapshot of both sides.
type Match struct {
	MatchID    string      `json:"match_id" validate:"required"`
	Sport      sport.Sport `json:"sport" validate:"required"`
	HomeTeamID string      `json:"home_team_id" validate:"required"`
	AwayTeamID string      `json:"away_team_id" validate:"required,nefield=HomeTeamID"`
	KickoffAt  time.Time   `json:"kickoff_at"`

	HomeForm float64 `json:"home_form" validate:"gte=0,lte=100"`
	AwayForm float64 `json:"away_form" validate:"gte=0,lte=100"`

	HeadToHead HeadToHead `json:"head_to_head"`

	HomeSquadRating float64 `json:"home_squad_rating" validate:"gte=0,lte=100"`
	AwaySquadRating float64 `json:"away_squad_rating" validate:"gte=0,lte=100"`

	// Key-player availability percentages.
	HomeAvailability float64 `json:"home_availability" validate:"gte=0,lte=100"`
	AwayAvailability float64 `json:"away_availability" validate:"gte=0,lte=100"`

	HomeRestDays int `json:"home_rest_days" validate:"gte=0"`
	AwayRestDays int `json:"away_rest_days" validate:"gte=0"`

	CompetitionImportance float64 `json:"competition_importance" validate:"gte=0,lte=100"`
	NeutralVenue          bool    `json:"neutral_venue"`

	HomeScoringAvg   float64 `json:"home_scoring_avg" validate:"gte=0"`
	HomeConcedingAvg float64 `json:"home_conceding_avg" validate:"gte=0"`
	AwayScoringAvg   float64 `json:"away_scoring_avg" validate:"gte=0"`
	AwayConcedingAvg float64 `json:"away_conceding_avg" validate:"gte=0"`

	Weather string `json:"weather,omitempty" validate:"omitempty,oneof=CLEAR RAIN SNOW WIND EXTREME_HEAT"`
}

// Player is one player's recent-performance and load snapshot.
type Player struct {
	PlayerID string      `json:"player_id" validate:"required"`
	Sport    sport.Sport `json:"sport" validate:"required"`
	Position string      `json:"position"`

	// MatchesPlayed is the sample size behind every rate below.
	MatchesPlayed int `json:"matches_played" validate:"gte=0"`
	MinutesPlayed int `json:"minutes_played" validate:"gte=0"`
	Scores        int `json:"scores" validate:"gte=0"`
	Assists       int `json:"assists" validate:"gte=0"`
	KeyActions    int `json:"key_actions" validate:"gte=0"`

	AverageRating float64 `json:"average_rating" validate:"gte=0,lte=10"`
	// RatingTrend is the recent rating slope normalized to [-1,1].
	RatingTrend float64 `json:"rating_trend" validate:"gte=-1,lte=1"`
	Consistency float64 `json:"consistency" validate:"gte=0,lte=100"`

	Fatigue             float64 `json:"fatigue" validate:"gte=0,lte=100"`
	TrainingLoad        float64 `json:"training_load" validate:"gte=0,lte=100"`
	InjuryCount         int     `json:"injury_count" validate:"gte=0"`
	DaysSinceLastInjury int     `json:"days_since_last_injury" validate:"gte=0"`
	DaysSinceLastMatch  int     `json:"days_since_last_match" validate:"gte=0"`
	SleepHours          float64 `json:"sleep_hours" validate:"gte=0,lte=24"`

	Age              int     `json:"age" validate:"gte=0,lte=60"`
	IsYouth          bool    `json:"is_youth"`
	CurrentAbility   float64 `json:"current_ability" validate:"gte=0,lte=100"`
	PotentialAbility float64 `json:"potential_ability" validate:"gte=0,lte=100"`
}

// Team is a team's season-to-date snapshot.
type Team struct {
	TeamID string      `json:"team_id" validate:"required"`
	ClubID string      `json:"club_id"`
	Sport  sport.Sport `json:"sport" validate:"required"`

	Won          int `json:"won" validate:"gte=0"`
	Drawn        int `json:"drawn" validate:"gte=0"`
	Lost         int `json:"lost" validate:"gte=0"`
	GoalsFor     int `json:"goals_for" validate:"gte=0"`
	GoalsAgainst int `json:"goals_against" validate:"gte=0"`
	CleanSheets  int `json:"clean_sheets" validate:"gte=0"`

	// HomeForm and AwayForm are 0-100 form indexes.
	HomeForm float64 `json:"home_form" validate:"gte=0,lte=100"`
	AwayForm float64 `json:"away_form" validate:"gte=0,lte=100"`

	SquadSize        int     `json:"squad_size" validate:"gte=0"`
	SquadDepth       float64 `json:"squad_depth" validate:"gte=0,lte=100"`
	InjuredPlayers   int     `json:"injured_players" validate:"gte=0"`
	SuspendedPlayers int     `json:"suspended_players" validate:"gte=0"`

	LeaguePosition   int `json:"league_position" validate:"gte=0"`
	LeagueSize       int `json:"league_size" validate:"gte=0"`
	MatchesRemaining int `json:"matches_remaining" validate:"gte=0"`
	PointsGapAbove   int `json:"points_gap_above" validate:"gte=0"`
	PointsGapBelow   int `json:"points_gap_below" validate:"gte=0"`
}

// Played returns the number of completed matches.
func (t Team) Played() int { return t.Won + t.Drawn + t.Lost }

// Severity grades a historical injury.
type Severity string

const (
	SeverityMinor    Severity = "MINOR"
	SeverityModerate Severity = "MODERATE"
	SeveritySevere   Severity = "SEVERE"
)

// Injury is one historical injury.
type Injury struct {
	BodyPart sport.BodyPart `json:"body_part" validate:"required"`
	DaysAgo  int            `json:"days_ago" validate:"gte=0"`
	Severity Severity       `json:"severity" validate:"omitempty,oneof=MINOR MODERATE SEVERE"`
}

// Workload is the load and history snapshot behind an injury risk assessment.
type Workload struct {
	PlayerID string      `json:"player_id" validate:"required"`
	Sport    sport.Sport `json:"sport" validate:"required"`
	Position string      `json:"position"`

	Last7dMinutes       float64 `json:"last_7d_minutes" validate:"gte=0"`
	Last7dTrainingLoad  float64 `json:"last_7d_training_load" validate:"gte=0"`
	Last28dMinutes      float64 `json:"last_28d_minutes" validate:"gte=0"`
	Last28dTrainingLoad float64 `json:"last_28d_training_load" validate:"gte=0"`

	Fatigue      float64 `json:"fatigue" validate:"gte=0,lte=100"`
	FitnessScore float64 `json:"fitness_score" validate:"gte=0,lte=100"`
	SleepHours   float64 `json:"sleep_hours" validate:"gte=0,lte=24"`
	Age          int     `json:"age" validate:"gte=0,lte=60"`
	IsYouth      bool    `json:"is_youth"`

	// MatchesSampled is how many matches of data back the snapshot.
	MatchesSampled int      `json:"matches_sampled" validate:"gte=0"`
	Injuries       []Injury `json:"injuries" validate:"dive"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks v's struct tags and its sport key. Tag violations are
// returned as *apperr.ValidationError naming the first offending field; an
// unknown sport is an *apperr.NotFoundError, as from sport.Parse.
func Validate(v any) error {
	if err := instance().Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.Validation(fe.Namespace(), "failed %q constraint (value %v)", fe.Tag(), fe.Value())
		}
		return apperr.Validation("", "%v", err)
	}
	if s, ok := sportOf(v); ok && !s.Valid() {
		return apperr.NotFound("sport", string(s))
	}
	return nil
}

func sportOf(v any) (sport.Sport, bool) {
	switch x := v.(type) {
	case Match:
		return x.Sport, true
	case *Match:
		return x.Sport, true
	case Player:
		return x.Sport, true
	case *Player:
		return x.Sport, true
	case Team:
		return x.Sport, true
	case *Team:
		return x.Sport, true
	case Workload:
		return x.Sport, true
	case *Workload:
		return x.Sport, true
	}
	return "", false
}

func (m Match) String() string {
	return fmt.Sprintf("%s %s v %s (%s)", m.MatchID, m.HomeTeamID, m.AwayTeamID, m.Sport)
}
