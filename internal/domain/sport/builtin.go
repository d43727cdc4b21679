package sport

func vp(part BodyPart, risk float64) VulnerablePart {
	return VulnerablePart{Part: part, BaseRisk: risk}
}

func category(name string, weight int, risk float64, positions []string, parts ...VulnerablePart) PositionCategory {
	return PositionCategory{Name: name, Weight: weight, InjuryRisk: risk, Positions: positions, VulnerableParts: parts}
}

// Builtin returns the compiled-in profile for s. Every supported sport has
// one; an invalid key yields the zero Profile.
func Builtin(s Sport) Profile {
	switch s {
	case Football:
		return football()
	case Rugby:
		return rugby()
	case Cricket:
		return cricket()
	case Basketball:
		return basketball()
	case AmericanFootball:
		return americanFootball()
	case Netball:
		return netball()
	case Hockey:
		return hockey()
	case Lacrosse:
		return lacrosse()
	case AustralianRules:
		return australianRules()
	case GaelicFootball:
		return gaelicFootball()
	case Futsal:
		return futsal()
	case BeachFootball:
		return beachFootball()
	}
	return Profile{}
}

func football() Profile {
	return Profile{
		Sport: Football,
		Name:  "Football",
		Scoring: ScoringRules{
			PointsForWin: 3, PointsForDraw: 1, PointsForLoss: 0,
			ScoreUnit: "goals", TypicalScore: 1.4, ScoreSensitivity: 0.45, BaseDrawProbability: 26,
		},
		Weights: Weights{Form: 25, HeadToHead: 15, SquadStrength: 20, HomeAdvantage: 15, Availability: 10, RestDays: 5, CompetitionImportance: 10},
		Positions: []PositionCategory{
			category("GOALKEEPER", 15, 30, []string{"GK"}, vp(Finger, 35), vp(Shoulder, 30), vp(Knee, 20)),
			category("DEFENDER", 25, 50, []string{"CENTRE_BACK", "FULL_BACK", "WING_BACK", "CB", "LB", "RB"}, vp(Hamstring, 35), vp(Ankle, 30), vp(Knee, 30), vp(Head, 15)),
			category("MIDFIELDER", 30, 55, []string{"DEFENSIVE_MIDFIELDER", "CENTRAL_MIDFIELDER", "ATTACKING_MIDFIELDER", "CDM", "CM", "CAM"}, vp(Hamstring, 40), vp(Calf, 30), vp(Groin, 30)),
			category("FORWARD", 30, 60, []string{"STRIKER", "WINGER", "CENTRE_FORWARD", "ST", "CF", "LW", "RW"}, vp(Hamstring, 45), vp(Ankle, 30), vp(Groin, 25)),
		},
		KeyMetrics:       []string{"goals", "assists", "shots_on_target", "pass_accuracy", "tackles", "clean_sheets"},
		MatchMinutes:     90,
		SeasonMatches:    38,
		RestGapThreshold: 2,
	}
}

func rugby() Profile {
	return Profile{
		Sport: Rugby,
		Name:  "Rugby Union",
		Scoring: ScoringRules{
			PointsForWin: 4, PointsForDraw: 2, PointsForLoss: 0,
			ScoreUnit: "points", TypicalScore: 22, ScoreSensitivity: 0.35, BaseDrawProbability: 4,
		},
		Weights: Weights{Form: 25, HeadToHead: 10, SquadStrength: 25, HomeAdvantage: 12, Availability: 13, RestDays: 10, CompetitionImportance: 5},
		Positions: []PositionCategory{
			category("FRONT_ROW", 20, 70, []string{"PROP", "LOOSEHEAD_PROP", "TIGHTHEAD_PROP", "HOOKER"}, vp(Shoulder, 40), vp(Neck, 35), vp(Knee, 30)),
			category("SECOND_ROW", 15, 60, []string{"LOCK"}, vp(Knee, 35), vp(Shoulder, 30), vp(Back, 25)),
			category("BACK_ROW", 20, 70, []string{"FLANKER", "NUMBER_EIGHT", "BLINDSIDE_FLANKER", "OPENSIDE_FLANKER"}, vp(Shoulder, 40), vp(Knee, 35), vp(Head, 30)),
			category("HALF_BACKS", 20, 45, []string{"SCRUM_HALF", "FLY_HALF"}, vp(Hamstring, 30), vp(Ankle, 30), vp(Shoulder, 20)),
			category("BACKS", 25, 55, []string{"CENTRE", "INSIDE_CENTRE", "OUTSIDE_CENTRE", "WING", "FULLBACK"}, vp(Hamstring, 40), vp(Shoulder, 30), vp(Head, 25)),
		},
		KeyMetrics:       []string{"tries", "carries", "metres_gained", "tackles", "turnovers_won", "lineout_success"},
		MatchMinutes:     80,
		SeasonMatches:    22,
		RestGapThreshold: 3,
	}
}

func cricket() Profile {
	return Profile{
		Sport: Cricket,
		Name:  "Cricket",
		Scoring: ScoringRules{
			PointsForWin: 2, PointsForDraw: 1, PointsForLoss: 0,
			ScoreUnit: "runs", TypicalScore: 250, ScoreSensitivity: 0.15, BaseDrawProbability: 8,
		},
		Weights: Weights{Form: 30, HeadToHead: 15, SquadStrength: 25, HomeAdvantage: 15, Availability: 10, RestDays: 3, CompetitionImportance: 2},
		Positions: []PositionCategory{
			category("BATTER", 35, 30, []string{"BATSMAN", "OPENER", "MIDDLE_ORDER"}, vp(Finger, 25), vp(Hamstring, 20), vp(Back, 20)),
			category("BOWLER", 35, 65, []string{"FAST_BOWLER", "SEAM_BOWLER", "SPIN_BOWLER"}, vp(Back, 45), vp(Shoulder, 30), vp(Ankle, 25)),
			category("ALL_ROUNDER", 20, 55, []string{"ALLROUNDER"}, vp(Back, 35), vp(Hamstring, 30), vp(Shoulder, 25)),
			category("WICKET_KEEPER", 10, 35, []string{"WICKETKEEPER", "KEEPER"}, vp(Finger, 35), vp(Knee, 25), vp(Back, 20)),
		},
		KeyMetrics:       []string{"runs", "batting_average", "strike_rate", "wickets", "economy", "catches"},
		MatchMinutes:     420,
		SeasonMatches:    14,
		RestGapThreshold: 2,
	}
}

func basketball() Profile {
	return Profile{
		Sport: Basketball,
		Name:  "Basketball",
		Scoring: ScoringRules{
			PointsForWin: 2, PointsForDraw: 0, PointsForLoss: 1,
			ScoreUnit: "points", TypicalScore: 105, ScoreSensitivity: 0.12, BaseDrawProbability: 0,
		},
		Weights: Weights{Form: 30, HeadToHead: 10, SquadStrength: 25, HomeAdvantage: 12, Availability: 15, RestDays: 6, CompetitionImportance: 2},
		Positions: []PositionCategory{
			category("GUARD", 40, 45, []string{"POINT_GUARD", "SHOOTING_GUARD", "PG", "SG"}, vp(Ankle, 40), vp(Knee, 30), vp(Hamstring, 20)),
			category("FORWARD", 35, 50, []string{"SMALL_FORWARD", "POWER_FORWARD", "SF", "PF"}, vp(Ankle, 35), vp(Knee, 35), vp(Back, 20)),
			category("CENTER", 25, 55, []string{"CENTRE", "C"}, vp(Knee, 40), vp(Back, 30), vp(Ankle, 30)),
		},
		KeyMetrics:       []string{"points", "rebounds", "assists", "steals", "blocks", "field_goal_pct"},
		MatchMinutes:     48,
		SeasonMatches:    82,
		RestGapThreshold: 2,
	}
}

func americanFootball() Profile {
	return Profile{
		Sport: AmericanFootball,
		Name:  "American Football",
		Scoring: ScoringRules{
			PointsForWin: 1, PointsForDraw: 0, PointsForLoss: 0,
			ScoreUnit: "points", TypicalScore: 22, ScoreSensitivity: 0.3, BaseDrawProbability: 0,
		},
		Weights: Weights{Form: 25, HeadToHead: 10, SquadStrength: 30, HomeAdvantage: 13, Availability: 14, RestDays: 6, CompetitionImportance: 2},
		Positions: []PositionCategory{
			category("QUARTERBACK", 25, 45, []string{"QB"}, vp(Shoulder, 35), vp(Knee, 30), vp(Head, 25)),
			category("OFFENSIVE_LINE", 15, 60, []string{"OL", "OFFENSIVE_TACKLE", "OFFENSIVE_GUARD", "CENTER"}, vp(Knee, 40), vp(Back, 35), vp(Ankle, 25)),
			category("SKILL_POSITIONS", 25, 65, []string{"RUNNING_BACK", "WIDE_RECEIVER", "TIGHT_END", "RB", "WR", "TE"}, vp(Hamstring, 40), vp(Knee, 35), vp(Ankle, 30)),
			category("DEFENSIVE_FRONT", 20, 60, []string{"DEFENSIVE_END", "DEFENSIVE_TACKLE", "LINEBACKER", "DE", "DT", "LB"}, vp(Shoulder, 35), vp(Knee, 35), vp(Head, 30)),
			category("SECONDARY", 15, 55, []string{"CORNERBACK", "SAFETY", "CB", "S"}, vp(Hamstring, 40), vp(Ankle, 25), vp(Head, 25)),
		},
		KeyMetrics:       []string{"passing_yards", "rushing_yards", "receiving_yards", "touchdowns", "tackles", "sacks"},
		MatchMinutes:     60,
		SeasonMatches:    17,
		RestGapThreshold: 3,
	}
}

func netball() Profile {
	return Profile{
		Sport: Netball,
		Name:  "Netball",
		Scoring: ScoringRules{
			PointsForWin: 2, PointsForDraw: 1, PointsForLoss: 0,
			ScoreUnit: "goals", TypicalScore: 55, ScoreSensitivity: 0.12, BaseDrawProbability: 4,
		},
		Weights: Weights{Form: 30, HeadToHead: 15, SquadStrength: 25, HomeAdvantage: 10, Availability: 12, RestDays: 5, CompetitionImportance: 3},
		Positions: []PositionCategory{
			category("SHOOTERS", 30, 45, []string{"GOAL_SHOOTER", "GOAL_ATTACK", "GS", "GA"}, vp(Ankle, 35), vp(Knee, 35)),
			category("MIDCOURT", 40, 55, []string{"WING_ATTACK", "CENTRE", "WING_DEFENCE", "WA", "C", "WD"}, vp(Ankle, 40), vp(Knee, 35), vp(Achilles, 20)),
			category("DEFENDERS", 30, 50, []string{"GOAL_DEFENCE", "GOAL_KEEPER", "GD", "GK"}, vp(Knee, 40), vp(Ankle, 35)),
		},
		KeyMetrics:       []string{"goals", "shooting_pct", "centre_pass_receives", "feeds", "intercepts", "deflections"},
		MatchMinutes:     60,
		SeasonMatches:    14,
		RestGapThreshold: 2,
	}
}

func hockey() Profile {
	return Profile{
		Sport: Hockey,
		Name:  "Hockey",
		Scoring: ScoringRules{
			PointsForWin: 3, PointsForDraw: 1, PointsForLoss: 0,
			ScoreUnit: "goals", TypicalScore: 2.5, ScoreSensitivity: 0.4, BaseDrawProbability: 20,
		},
		Weights: Weights{Form: 25, HeadToHead: 15, SquadStrength: 20, HomeAdvantage: 12, Availability: 13, RestDays: 10, CompetitionImportance: 5},
		Positions: []PositionCategory{
			category("GOALKEEPER", 15, 30, []string{"GK"}, vp(Knee, 30), vp(Groin, 25)),
			category("DEFENDER", 25, 45, []string{"FULL_BACK", "SWEEPER", "CENTRE_BACK"}, vp(Back, 30), vp(Hamstring, 25), vp(Ankle, 25)),
			category("MIDFIELDER", 30, 55, []string{"CENTRE_HALF", "LINK", "HALF_BACK"}, vp(Hamstring, 35), vp(Back, 30), vp(Groin, 25)),
			category("FORWARD", 30, 55, []string{"STRIKER", "CENTRE_FORWARD", "WINGER"}, vp(Hamstring, 40), vp(Ankle, 30), vp(Head, 15)),
		},
		KeyMetrics:       []string{"goals", "assists", "circle_entries", "penalty_corners_won", "tackles", "saves"},
		MatchMinutes:     60,
		SeasonMatches:    22,
		RestGapThreshold: 2,
	}
}

func lacrosse() Profile {
	return Profile{
		Sport: Lacrosse,
		Name:  "Lacrosse",
		Scoring: ScoringRules{
			PointsForWin: 2, PointsForDraw: 0, PointsForLoss: 0,
			ScoreUnit: "goals", TypicalScore: 11, ScoreSensitivity: 0.3, BaseDrawProbability: 0,
		},
		Weights: Weights{Form: 25, HeadToHead: 15, SquadStrength: 22, HomeAdvantage: 12, Availability: 14, RestDays: 8, CompetitionImportance: 4},
		Positions: []PositionCategory{
			category("ATTACK", 30, 50, []string{"ATTACKER"}, vp(Hamstring, 35), vp(Ankle, 30), vp(Shoulder, 20)),
			category("MIDFIELD", 30, 60, []string{"MIDFIELDER", "FACEOFF", "LONG_STICK_MIDFIELDER"}, vp(Hamstring, 40), vp(Knee, 30), vp(Shoulder, 25)),
			category("DEFENSE", 25, 50, []string{"DEFENDER", "DEFENCEMAN"}, vp(Shoulder, 35), vp(Knee, 30)),
			category("GOALIE", 15, 30, []string{"GOALKEEPER", "GK"}, vp(Wrist, 30), vp(Knee, 25)),
		},
		KeyMetrics:       []string{"goals", "assists", "ground_balls", "faceoff_pct", "caused_turnovers", "saves"},
		MatchMinutes:     60,
		SeasonMatches:    16,
		RestGapThreshold: 2,
	}
}

func australianRules() Profile {
	return Profile{
		Sport: AustralianRules,
		Name:  "Australian Rules Football",
		Scoring: ScoringRules{
			PointsForWin: 4, PointsForDraw: 2, PointsForLoss: 0,
			ScoreUnit: "points", TypicalScore: 85, ScoreSensitivity: 0.2, BaseDrawProbability: 2,
		},
		Weights: Weights{Form: 25, HeadToHead: 12, SquadStrength: 23, HomeAdvantage: 15, Availability: 13, RestDays: 10, CompetitionImportance: 2},
		Positions: []PositionCategory{
			category("KEY_FORWARD", 20, 55, []string{"FULL_FORWARD", "CENTRE_HALF_FORWARD"}, vp(Hamstring, 40), vp(Knee, 30), vp(Shoulder, 20)),
			category("SMALL_FORWARD", 15, 55, []string{"FORWARD_POCKET", "HALF_FORWARD_FLANK"}, vp(Hamstring, 45), vp(Ankle, 25)),
			category("MIDFIELDER", 30, 60, []string{"ROVER", "RUCK_ROVER", "WING", "CENTRE"}, vp(Hamstring, 40), vp(Groin, 30), vp(Calf, 25)),
			category("RUCK", 10, 60, []string{"RUCKMAN"}, vp(Knee, 40), vp(Ankle, 30), vp(Shoulder, 25)),
			category("DEFENDER", 25, 50, []string{"FULL_BACK", "CENTRE_HALF_BACK", "BACK_POCKET", "HALF_BACK_FLANK"}, vp(Hamstring, 35), vp(Shoulder, 25), vp(Head, 20)),
		},
		KeyMetrics:       []string{"disposals", "marks", "tackles", "goals", "clearances", "inside_50s"},
		MatchMinutes:     80,
		SeasonMatches:    23,
		RestGapThreshold: 3,
	}
}

func gaelicFootball() Profile {
	return Profile{
		Sport: GaelicFootball,
		Name:  "Gaelic Football",
		Scoring: ScoringRules{
			PointsForWin: 2, PointsForDraw: 1, PointsForLoss: 0,
			ScoreUnit: "points", TypicalScore: 16, ScoreSensitivity: 0.3, BaseDrawProbability: 10,
		},
		Weights: Weights{Form: 25, HeadToHead: 15, SquadStrength: 20, HomeAdvantage: 15, Availability: 12, RestDays: 8, CompetitionImportance: 5},
		Positions: []PositionCategory{
			category("GOALKEEPER", 10, 25, []string{"GK"}, vp(Finger, 25), vp(Knee, 20)),
			category("FULL_BACK_LINE", 20, 50, []string{"CORNER_BACK", "FULL_BACK"}, vp(Hamstring, 35), vp(Ankle, 25)),
			category("HALF_BACK_LINE", 20, 55, []string{"WING_BACK", "CENTRE_BACK"}, vp(Hamstring, 40), vp(Groin, 25)),
			category("MIDFIELD", 20, 60, []string{"MIDFIELDER"}, vp(Hamstring, 40), vp(Groin, 30), vp(Knee, 25)),
			category("FORWARDS", 30, 55, []string{"CORNER_FORWARD", "FULL_FORWARD", "HALF_FORWARD", "CENTRE_FORWARD", "WING_FORWARD"}, vp(Hamstring, 45), vp(Ankle, 25)),
		},
		KeyMetrics:       []string{"points", "goals", "kickout_wins", "turnovers_won", "frees_won", "tackles"},
		MatchMinutes:     70,
		SeasonMatches:    7,
		RestGapThreshold: 3,
	}
}

func futsal() Profile {
	return Profile{
		Sport: Futsal,
		Name:  "Futsal",
		Scoring: ScoringRules{
			PointsForWin: 3, PointsForDraw: 1, PointsForLoss: 0,
			ScoreUnit: "goals", TypicalScore: 3.5, ScoreSensitivity: 0.35, BaseDrawProbability: 18,
		},
		Weights: Weights{Form: 28, HeadToHead: 12, SquadStrength: 22, HomeAdvantage: 12, Availability: 14, RestDays: 8, CompetitionImportance: 4},
		Positions: []PositionCategory{
			category("GOALKEEPER", 20, 30, []string{"GK", "GOLEIRO"}, vp(Hip, 25), vp(Shoulder, 25), vp(Finger, 25)),
			category("DEFENDER", 25, 45, []string{"FIXO"}, vp(Groin, 35), vp(Ankle, 30)),
			category("WINGER", 30, 55, []string{"ALA"}, vp(Groin, 40), vp(Hamstring, 30), vp(Ankle, 30)),
			category("PIVOT", 25, 55, []string{"PIVO"}, vp(Knee, 35), vp(Back, 30), vp(Ankle, 25)),
		},
		KeyMetrics:       []string{"goals", "assists", "shots", "pass_accuracy", "recoveries", "saves"},
		MatchMinutes:     40,
		SeasonMatches:    22,
		RestGapThreshold: 2,
	}
}

func beachFootball() Profile {
	return Profile{
		Sport: BeachFootball,
		Name:  "Beach Football",
		Scoring: ScoringRules{
			PointsForWin: 3, PointsForDraw: 0, PointsForLoss: 0,
			ScoreUnit: "goals", TypicalScore: 4.5, ScoreSensitivity: 0.35, BaseDrawProbability: 0,
		},
		Weights: Weights{Form: 28, HeadToHead: 10, SquadStrength: 22, HomeAdvantage: 8, Availability: 14, RestDays: 13, CompetitionImportance: 5},
		Positions: []PositionCategory{
			category("GOALKEEPER", 20, 30, []string{"GK"}, vp(Shoulder, 30), vp(Finger, 25)),
			category("DEFENDER", 25, 45, []string{"FIXO"}, vp(Ankle, 35), vp(Knee, 30)),
			category("WINGER", 30, 50, []string{"ALA"}, vp(Ankle, 35), vp(Calf, 30)),
			category("PIVOT", 25, 50, []string{"PIVO"}, vp(Knee, 35), vp(Back, 30), vp(Ankle, 30)),
		},
		KeyMetrics:       []string{"goals", "bicycle_kicks", "assists", "shots", "saves", "blocks"},
		MatchMinutes:     36,
		SeasonMatches:    10,
		RestGapThreshold: 2,
	}
}
