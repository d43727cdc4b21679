package access_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/okian/pitchcast/internal/domain/access"
	"github.com/okian/pitchcast/internal/domain/apperr"
	. "github.com/smartystreets/goconvey/convey"
)

type recorder struct {
	mu      sync.Mutex
	records []access.AuditRecord
}

func (r *recorder) Record(_ context.Context, rec access.AuditRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func TestCanView(t *testing.T) {
	Convey("Given a FREE tier viewer", t, func() {
		c := access.Context{UserID: "u-1", Roles: []access.Role{access.RoleViewer}, Tier: access.TierFree}

		Convey("When viewing match outcomes", func() {
			So(access.CanView(c, access.CategoryMatchOutcome).Allowed, ShouldBeTrue)
		})

		Convey("When viewing a PRO gated category", func() {
			d := access.CanView(c, access.CategoryInjuryRisk)

			Convey("Then access is denied naming the minimal tier", func() {
				So(d.Allowed, ShouldBeFalse)
				So(d.RequiredTier, ShouldEqual, access.TierPro)

				var denied *apperr.AccessDeniedError
				So(errors.As(d.Err(), &denied), ShouldBeTrue)
				So(denied.RequiredTier, ShouldEqual, "PRO")
				So(errors.Is(d.Err(), apperr.ErrAccessDenied), ShouldBeTrue)
			})
		})

		Convey("When development potential is requested", func() {
			So(access.CanView(c, access.CategoryDevelopmentPotential).RequiredTier, ShouldEqual, access.TierPremium)
		})

		Convey("When the caller holds an explicit grant", func() {
			c.Permissions = []string{"predictions:view:INJURY_RISK"}
			So(access.CanView(c, access.CategoryInjuryRisk).Allowed, ShouldBeTrue)
			So(access.CanView(c, access.CategorySeasonProjection).Allowed, ShouldBeFalse)

			c.Permissions = []string{access.PermissionViewAll}
			So(access.CanView(c, access.CategorySeasonProjection).Allowed, ShouldBeTrue)
		})

		Convey("When the caller's role covers the category", func() {
			c.Roles = append(c.Roles, access.RoleMedicalStaff)
			d := access.CanView(c, access.CategoryInjuryRisk)
			So(d.Allowed, ShouldBeTrue)
			So(d.Reason, ShouldEqual, "granted to MEDICAL_STAFF role")
		})
	})

	Convey("Given an admin-equivalent caller on the FREE tier", t, func() {
		for _, role := range []access.Role{access.RoleAdmin, access.RoleSuperAdmin} {
			c := access.Context{UserID: "root", Roles: []access.Role{role}, Tier: access.TierFree}
			for _, cat := range access.Categories {
				So(access.CanView(c, cat).Allowed, ShouldBeTrue)
			}
			So(access.CanCreate(c).Allowed, ShouldBeTrue)
			So(access.CanExport(c).Allowed, ShouldBeTrue)
			So(access.RequiresEntityMembership(c), ShouldBeFalse)
			So(access.CanAccessEntity(c, access.Entity{ID: "anything", PlayerID: "x"}).Allowed, ShouldBeTrue)
		}
	})

	Convey("Given the tier table", t, func() {
		Convey("Then tiers are cumulative", func() {
			for i := 1; i < len(access.Tiers); i++ {
				lower := access.TierFeatures[access.Tiers[i-1]].Categories
				higher := access.TierFeatures[access.Tiers[i]].Categories
				for _, cat := range lower {
					So(higher, ShouldContain, cat)
				}
			}
		})

		Convey("Then every category has a minimum tier", func() {
			for _, cat := range access.Categories {
				_, ok := access.MinimumTier(cat)
				So(ok, ShouldBeTrue)
			}
		})
	})
}

func TestCapabilities(t *testing.T) {
	Convey("Given a FREE tier coach", t, func() {
		c := access.Context{UserID: "u-2", Roles: []access.Role{access.RoleCoach}, Tier: access.TierFree}

		Convey("Then create needs STARTER and export needs PRO", func() {
			create := access.CanCreate(c)
			So(create.Allowed, ShouldBeFalse)
			So(create.RequiredTier, ShouldEqual, access.TierStarter)

			export := access.CanExport(c)
			So(export.Allowed, ShouldBeFalse)
			So(export.RequiredTier, ShouldEqual, access.TierPro)
		})

		Convey("Then an explicit grant unlocks create", func() {
			c.Permissions = []string{access.PermissionCreate}
			So(access.CanCreate(c).Allowed, ShouldBeTrue)
		})

		Convey("Then an analyst role unlocks export", func() {
			c.Roles = []access.Role{access.RoleAnalyst}
			So(access.CanExport(c).Allowed, ShouldBeTrue)
		})
	})
}

func TestEntityScoping(t *testing.T) {
	Convey("Given a player entity at club c-1", t, func() {
		e := access.Entity{ID: "p-1", PlayerID: "p-1", ClubIDs: []string{"c-1"}, TeamIDs: []string{"t-1"}, IsMinor: true}

		Convey("When the player views their own record", func() {
			c := access.Context{UserID: "u-p1", Roles: []access.Role{access.RolePlayer}, PlayerID: "p-1", ClubIDs: []string{"c-1"}}
			So(access.CanAccessEntity(c, e).Allowed, ShouldBeTrue)
			So(access.ShouldAnonymize(c, e), ShouldBeFalse)
		})

		Convey("When a teammate player views it", func() {
			c := access.Context{UserID: "u-p2", Roles: []access.Role{access.RolePlayer}, PlayerID: "p-2", ClubIDs: []string{"c-1"}}
			So(access.CanAccessEntity(c, e).Allowed, ShouldBeFalse)
			So(access.ShouldAnonymize(c, e), ShouldBeTrue)
		})

		Convey("When a linked guardian views it", func() {
			c := access.Context{UserID: "u-g", Roles: []access.Role{access.RoleGuardian}, LinkedPlayerIDs: []string{"p-1"}}
			So(access.CanAccessEntity(c, e).Allowed, ShouldBeTrue)
			So(access.ShouldAnonymize(c, e), ShouldBeFalse)
		})

		Convey("When an unlinked guardian views it", func() {
			c := access.Context{UserID: "u-g2", Roles: []access.Role{access.RoleGuardian}, LinkedPlayerIDs: []string{"p-7"}}
			So(access.CanAccessEntity(c, e).Allowed, ShouldBeFalse)
		})

		Convey("When a coach from the same team views it", func() {
			c := access.Context{UserID: "u-c", Roles: []access.Role{access.RoleCoach}, TeamIDs: []string{"t-1"}}
			So(access.CanAccessEntity(c, e).Allowed, ShouldBeTrue)
			So(access.ShouldAnonymize(c, e), ShouldBeFalse)
		})

		Convey("When a coach from another club views it", func() {
			c := access.Context{UserID: "u-c2", Roles: []access.Role{access.RoleCoach}, ClubIDs: []string{"c-9"}}
			So(access.CanAccessEntity(c, e).Allowed, ShouldBeFalse)
		})

		Convey("When a scout views it", func() {
			c := access.Context{UserID: "u-s", Roles: []access.Role{access.RoleScout}}
			So(access.RequiresEntityMembership(c), ShouldBeFalse)
			So(access.CanAccessEntity(c, e).Allowed, ShouldBeTrue)
			So(access.ShouldAnonymize(c, e), ShouldBeTrue)
		})

		Convey("When the entity is an adult", func() {
			e.IsMinor = false
			c := access.Context{UserID: "u-s", Roles: []access.Role{access.RoleScout}}
			So(access.ShouldAnonymize(c, e), ShouldBeFalse)
		})
	})
}

func TestGate(t *testing.T) {
	Convey("Given a gate with a recording auditor", t, func() {
		rec := &recorder{}
		gate := access.NewGate(access.WithAuditor(rec))
		ctx := context.Background()
		e := access.Entity{ID: "team-1", TeamIDs: []string{"team-1"}}

		Convey("When a STARTER member views team performance", func() {
			c := access.Context{UserID: "u-1", Roles: []access.Role{access.RoleViewer}, Tier: access.TierStarter, TeamIDs: []string{"team-1"}}
			grant, err := gate.Authorize(ctx, c, access.Request{Category: access.CategoryTeamPerformance, Entity: e})

			So(err, ShouldBeNil)
			So(grant.Anonymize, ShouldBeFalse)
			So(len(rec.records), ShouldEqual, 2)
			for _, r := range rec.records {
				So(r.Outcome, ShouldEqual, access.OutcomeAllowed)
				So(r.ID, ShouldNotBeEmpty)
				So(r.CallerID, ShouldEqual, "u-1")
				So(r.EntityID, ShouldEqual, "team-1")
			}
		})

		Convey("When the same member asks to export", func() {
			c := access.Context{UserID: "u-1", Roles: []access.Role{access.RoleViewer}, Tier: access.TierStarter, TeamIDs: []string{"team-1"}}
			_, err := gate.Authorize(ctx, c, access.Request{Category: access.CategoryTeamPerformance, Entity: e, Export: true})

			So(errors.Is(err, apperr.ErrAccessDenied), ShouldBeTrue)
			last := rec.records[len(rec.records)-1]
			So(last.Outcome, ShouldEqual, access.OutcomeDenied)
			So(last.Action, ShouldEqual, access.ActionExport)
		})

		Convey("When the first check denies, later checks do not run", func() {
			c := access.Context{UserID: "u-2", Tier: access.TierFree}
			_, err := gate.Authorize(ctx, c, access.Request{Category: access.CategoryInjuryRisk, Entity: e, Refresh: true})
			So(err, ShouldNotBeNil)
			So(len(rec.records), ShouldEqual, 1)
			So(rec.records[0].Tier, ShouldEqual, access.TierFree)
		})
	})
}
