package access

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/pitchcast/internal/domain/apperr"
)

// Permission grant strings.
const (
	PermissionViewPrefix = "predictions:view:"
	PermissionViewAll    = "predictions:view:*"
	PermissionCreate     = "predictions:create"
	PermissionExport     = "predictions:export"
)

// Context is the caller identity for one request.
type Context struct {
	UserID          string
	Roles           []Role
	Tier            Tier
	Permissions     []string
	OrgID           string
	ClubIDs         []string
	TeamIDs         []string
	PlayerID        string
	LinkedPlayerIDs []string
}

// HasRole reports whether the caller holds r.
func (c Context) HasRole(r Role) bool { return slices.Contains(c.Roles, r) }

func (c Context) hasAny(pred func(Role) bool) bool {
	return slices.ContainsFunc(c.Roles, pred)
}

func (c Context) granted(p string) bool { return slices.Contains(c.Permissions, p) }

// Entity is the subject of a prediction request.
type Entity struct {
	ID      string
	OrgID   string
	ClubIDs []string
	TeamIDs []string
	// PlayerID is set when the entity is a single player.
	PlayerID string
	IsMinor  bool
}

// Action names what a decision authorized.
type Action string

const (
	ActionView   Action = "VIEW"
	ActionCreate Action = "CREATE"
	ActionExport Action = "EXPORT"
	ActionEntity Action = "ACCESS_ENTITY"
)

// Decision is the outcome of one rule evaluation.
type Decision struct {
	Action       Action
	Category     Category
	Allowed      bool
	Reason       string
	RequiredTier Tier
}

// Err returns nil when allowed, otherwise an *apperr.AccessDeniedError.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &apperr.AccessDeniedError{
		Action:       string(d.Action),
		Category:     string(d.Category),
		Reason:       d.Reason,
		RequiredTier: string(d.RequiredTier),
	}
}

func allow(a Action, cat Category, reason string) Decision {
	return Decision{Action: a, Category: cat, Allowed: true, Reason: reason}
}

// CanView checks, in order, admin bypass, tier unlock, explicit grant and the
// role's static set. A denial names the lowest tier that would unlock cat.
func CanView(c Context, cat Category) Decision {
	if !cat.Valid() {
		return Decision{Action: ActionView, Category: cat, Reason: fmt.Sprintf("unknown category %q", cat)}
	}
	if c.hasAny(Role.adminEquivalent) {
		return allow(ActionView, cat, "admin role")
	}
	if slices.Contains(TierFeatures[c.Tier].Categories, cat) {
		return allow(ActionView, cat, fmt.Sprintf("unlocked by %s tier", c.Tier))
	}
	if c.granted(PermissionViewAll) || c.granted(PermissionViewPrefix+string(cat)) {
		return allow(ActionView, cat, "explicit permission")
	}
	for _, r := range c.Roles {
		if slices.Contains(roleViews[r], cat) {
			return allow(ActionView, cat, fmt.Sprintf("granted to %s role", r))
		}
	}
	required, _ := MinimumTier(cat)
	return Decision{
		Action:       ActionView,
		Category:     cat,
		Reason:       fmt.Sprintf("%s predictions are not included in the %s tier", strings.ToLower(string(cat)), tierName(c.Tier)),
		RequiredTier: required,
	}
}

// CanCreate reports whether the caller may request fresh computation.
func CanCreate(c Context) Decision {
	return capability(c, ActionCreate, PermissionCreate, roleCreate, func(f Features) bool { return f.Create })
}

// CanExport reports whether the caller may export predictions.
func CanExport(c Context) Decision {
	return capability(c, ActionExport, PermissionExport, roleExport, func(f Features) bool { return f.Export })
}

func capability(c Context, a Action, grant string, roles []Role, unlocked func(Features) bool) Decision {
	if c.hasAny(Role.adminEquivalent) {
		return allow(a, "", "admin role")
	}
	if unlocked(TierFeatures[c.Tier]) {
		return allow(a, "", fmt.Sprintf("unlocked by %s tier", c.Tier))
	}
	if c.granted(grant) {
		return allow(a, "", "explicit permission")
	}
	for _, r := range c.Roles {
		if slices.Contains(roles, r) {
			return allow(a, "", fmt.Sprintf("granted to %s role", r))
		}
	}
	return Decision{
		Action:       a,
		Reason:       fmt.Sprintf("%s is not included in the %s tier", strings.ToLower(string(a)), tierName(c.Tier)),
		RequiredTier: minimumTierFor(unlocked),
	}
}

// RequiresEntityMembership is false for admin-equivalent and
// membership-exempt roles.
func RequiresEntityMembership(c Context) bool {
	return !c.hasAny(Role.membershipExempt)
}

// CanAccessEntity scopes callers to entities. Player-only callers see only
// themselves and guardian-only callers only their linked dependents; every
// other caller must share an org, club or team with the entity. Non-player
// entities skip the self/dependent rules.
func CanAccessEntity(c Context, e Entity) Decision {
	if !RequiresEntityMembership(c) {
		return allow(ActionEntity, "", "membership exempt")
	}
	if e.PlayerID != "" && !c.hasAny(Role.staff) && !c.HasRole(RoleAnalyst) {
		switch {
		case c.HasRole(RolePlayer) && c.PlayerID != "" && c.PlayerID == e.PlayerID:
			return allow(ActionEntity, "", "own player record")
		case c.HasRole(RoleGuardian) && slices.Contains(c.LinkedPlayerIDs, e.PlayerID):
			return allow(ActionEntity, "", "linked dependent")
		case c.HasRole(RolePlayer) || c.HasRole(RoleGuardian):
			return Decision{Action: ActionEntity, Reason: "players and guardians may only view their own or linked records"}
		}
	}
	if c.OrgID != "" && c.OrgID == e.OrgID {
		return allow(ActionEntity, "", "same organization")
	}
	if intersects(c.ClubIDs, e.ClubIDs) {
		return allow(ActionEntity, "", "club member")
	}
	if intersects(c.TeamIDs, e.TeamIDs) {
		return allow(ActionEntity, "", "team member")
	}
	return Decision{Action: ActionEntity, Reason: "caller is not a member of the entity's club or team"}
}

// ShouldAnonymize reports whether a minor's data must be anonymized for c:
// the viewer is not the player, not a linked guardian and holds no staff role.
func ShouldAnonymize(c Context, e Entity) bool {
	if !e.IsMinor {
		return false
	}
	if e.PlayerID != "" && c.PlayerID == e.PlayerID {
		return false
	}
	if c.HasRole(RoleGuardian) && slices.Contains(c.LinkedPlayerIDs, e.PlayerID) {
		return false
	}
	return !c.hasAny(Role.staff)
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if v != "" && slices.Contains(b, v) {
			return true
		}
	}
	return false
}

func tierName(t Tier) string {
	if t == "" {
		return "current"
	}
	return string(t)
}
