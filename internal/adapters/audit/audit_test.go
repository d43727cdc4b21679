package audit_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/okian/pitchcast/internal/adapters/audit"
	"github.com/okian/pitchcast/internal/domain/access"
	. "github.com/smartystreets/goconvey/convey"
)

func record(id string, outcome access.Outcome) access.AuditRecord {
	return access.AuditRecord{
		ID:        id,
		CallerID:  "u-1",
		Action:    access.ActionView,
		Category:  access.CategoryInjuryRisk,
		EntityID:  "p-7",
		Outcome:   outcome,
		Reason:    "tier FREE lacks INJURY_RISK",
		Tier:      access.TierFree,
		Timestamp: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}
}

type failingSink struct{}

func (failingSink) Write(context.Context, access.AuditRecord) error { return errors.New("disk full") }

func TestZapSink(t *testing.T) {
	Convey("Given a zap sink over an observer", t, func() {
		core, logs := observer.New(zapcore.InfoLevel)
		sink := audit.NewZapSink(zap.New(core))

		Convey("When a denial and an allowance are written", func() {
			So(sink.Write(context.Background(), record("a-1", access.OutcomeDenied)), ShouldBeNil)
			So(sink.Write(context.Background(), record("a-2", access.OutcomeAllowed)), ShouldBeNil)

			Convey("Then both are logged with typed fields under access_audit", func() {
				entries := logs.All()
				So(len(entries), ShouldEqual, 2)
				So(entries[0].Level, ShouldEqual, zapcore.WarnLevel)
				So(entries[0].LoggerName, ShouldEqual, "access_audit")
				fields := entries[0].ContextMap()
				So(fields["audit_id"], ShouldEqual, "a-1")
				So(fields["outcome"], ShouldEqual, "DENIED")
				So(fields["record_json"], ShouldContainSubstring, `"category":"INJURY_RISK"`)
				So(entries[1].Level, ShouldEqual, zapcore.InfoLevel)
			})
		})
	})
}

func TestRecorder(t *testing.T) {
	Convey("Given a recorder with a one-record buffer", t, func() {
		core, logs := observer.New(zapcore.InfoLevel)
		rec := audit.NewRecorder(audit.NewZapSink(zap.New(core)), audit.WithBuffer(1))

		Convey("When two records arrive before writers start", func() {
			rec.Record(context.Background(), record("a-1", access.OutcomeAllowed))
			rec.Record(context.Background(), record("a-2", access.OutcomeAllowed))

			rec.Start(context.Background())
			So(rec.Shutdown(context.Background()), ShouldBeNil)

			Convey("Then the overflow is dropped and the buffered one is written", func() {
				So(logs.Len(), ShouldEqual, 1)
				So(logs.All()[0].ContextMap()["audit_id"], ShouldEqual, "a-1")
				So(rec.Stats().Processed, ShouldEqual, 1)
			})
		})

		Convey("When the caller's context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			rec.Record(ctx, record("a-3", access.OutcomeDenied))

			rec.Start(context.Background())
			So(rec.Shutdown(context.Background()), ShouldBeNil)

			Convey("Then the record is still written", func() {
				So(logs.Len(), ShouldEqual, 1)
			})
		})
	})

	Convey("Given a recorder whose sink fails", t, func() {
		rec := audit.NewRecorder(failingSink{}, audit.WithWorkers(2))
		rec.Start(context.Background())
		rec.Record(context.Background(), record("a-9", access.OutcomeAllowed))
		So(rec.Shutdown(context.Background()), ShouldBeNil)
		So(rec.Stats().Failed, ShouldEqual, 1)
	})

	Convey("Given a gate wired to a recorder", t, func() {
		core, logs := observer.New(zapcore.InfoLevel)
		rec := audit.NewRecorder(audit.NewZapSink(zap.New(core)))
		rec.Start(context.Background())
		gate := access.NewGate(access.WithAuditor(rec))

		_, err := gate.Authorize(context.Background(),
			access.Context{UserID: "u-1", Roles: []access.Role{access.RoleCoach}, Tier: access.TierFree},
			access.Request{Category: access.CategoryInjuryRisk})
		So(err, ShouldNotBeNil)
		So(rec.Shutdown(context.Background()), ShouldBeNil)

		Convey("Then the denial reaches the log", func() {
			So(logs.FilterMessage("access denied").Len(), ShouldEqual, 1)
		})
	})
}
