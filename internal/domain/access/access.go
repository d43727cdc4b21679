// Package access decides who may view, create or export a prediction
// category and which entities a caller may see.
//
// Decisions are pure rule evaluations over a per-request Context. The Gate
// wraps them and emits an audit record for every decision.
package access

import "slices"

// Role is a caller's platform role.
type Role string

const (
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleAdmin        Role = "ADMIN"
	RoleClubAdmin    Role = "CLUB_ADMIN"
	RoleManager      Role = "MANAGER"
	RoleHeadCoach    Role = "HEAD_COACH"
	RoleCoach        Role = "COACH"
	RoleAnalyst      Role = "ANALYST"
	RoleMedicalStaff Role = "MEDICAL_STAFF"
	RoleScout        Role = "SCOUT"
	RolePlayer       Role = "PLAYER"
	RoleGuardian     Role = "GUARDIAN"
	RoleViewer       Role = "VIEWER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleClubAdmin, RoleManager, RoleHeadCoach, RoleCoach,
		RoleAnalyst, RoleMedicalStaff, RoleScout, RolePlayer, RoleGuardian, RoleViewer:
		return true
	}
	return false
}

// adminEquivalent roles bypass every check.
func (r Role) adminEquivalent() bool {
	return r == RoleSuperAdmin || r == RoleAdmin
}

// staff roles see minors' data without anonymization and are held to
// club/team membership rather than self/dependent scoping.
func (r Role) staff() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleClubAdmin, RoleManager, RoleHeadCoach, RoleCoach, RoleMedicalStaff:
		return true
	}
	return false
}

func (r Role) membershipExempt() bool {
	return r.adminEquivalent() || r == RoleScout
}

// Tier is a subscription tier.
type Tier string

const (
	TierFree       Tier = "FREE"
	TierStarter    Tier = "STARTER"
	TierPro        Tier = "PRO"
	TierPremium    Tier = "PREMIUM"
	TierEnterprise Tier = "ENTERPRISE"
)

// Tiers lists the tiers from lowest to highest.
var Tiers = []Tier{TierFree, TierStarter, TierPro, TierPremium, TierEnterprise}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool { return slices.Contains(Tiers, t) }

// Category is a prediction category.
type Category string

const (
	CategoryMatchOutcome         Category = "MATCH_OUTCOME"
	CategoryPlayerPerformance    Category = "PLAYER_PERFORMANCE"
	CategoryTeamPerformance      Category = "TEAM_PERFORMANCE"
	CategoryInjuryRisk           Category = "INJURY_RISK"
	CategorySeasonProjection     Category = "SEASON_PROJECTION"
	CategoryDevelopmentPotential Category = "DEVELOPMENT_POTENTIAL"
)

// Categories lists every prediction category.
var Categories = []Category{
	CategoryMatchOutcome, CategoryPlayerPerformance, CategoryTeamPerformance,
	CategoryInjuryRisk, CategorySeasonProjection, CategoryDevelopmentPotential,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryMatchOutcome, CategoryPlayerPerformance, CategoryTeamPerformance,
		CategoryInjuryRisk, CategorySeasonProjection, CategoryDevelopmentPotential:
		return true
	}
	return false
}

// Features is what a subscription tier unlocks.
type Features struct {
	Categories []Category
	Create     bool
	Export     bool
}

// TierFeatures is the cumulative tier feature table.
var TierFeatures = map[Tier]Features{
	TierFree: {
		Categories: []Category{CategoryMatchOutcome},
	},
	TierStarter: {
		Categories: []Category{CategoryMatchOutcome, CategoryTeamPerformance, CategoryPlayerPerformance},
		Create:     true,
	},
	TierPro: {
		Categories: []Category{
			CategoryMatchOutcome, CategoryTeamPerformance, CategoryPlayerPerformance,
			CategoryInjuryRisk, CategorySeasonProjection,
		},
		Create: true,
		Export: true,
	},
	TierPremium: {
		Categories: Categories,
		Create:     true,
		Export:     true,
	},
	TierEnterprise: {
		Categories: Categories,
		Create:     true,
		Export:     true,
	},
}

// roleViews is the static set of categories each role may view regardless of tier.
var roleViews = map[Role][]Category{
	RoleClubAdmin:    Categories,
	RoleManager:      Categories,
	RoleHeadCoach:    Categories,
	RoleCoach:        {CategoryMatchOutcome, CategoryPlayerPerformance, CategoryTeamPerformance, CategoryDevelopmentPotential},
	RoleAnalyst:      {CategoryMatchOutcome, CategoryPlayerPerformance, CategoryTeamPerformance, CategorySeasonProjection},
	RoleMedicalStaff: {CategoryInjuryRisk, CategoryPlayerPerformance},
	RoleScout:        {CategoryPlayerPerformance, CategoryDevelopmentPotential},
	RolePlayer:       {CategoryPlayerPerformance},
	RoleGuardian:     {CategoryPlayerPerformance, CategoryDevelopmentPotential},
}

var (
	roleCreate = []Role{RoleClubAdmin, RoleManager, RoleHeadCoach, RoleAnalyst}
	roleExport = []Role{RoleClubAdmin, RoleAnalyst}
)

// MinimumTier returns the lowest tier unlocking cat.
func MinimumTier(cat Category) (Tier, bool) {
	for _, t := range Tiers {
		if slices.Contains(TierFeatures[t].Categories, cat) {
			return t, true
		}
	}
	return "", false
}

func minimumTierFor(pred func(Features) bool) Tier {
	for _, t := range Tiers {
		if pred(TierFeatures[t]) {
			return t
		}
	}
	return ""
}
