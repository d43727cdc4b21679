package features_test

import (
	"errors"
	"testing"

	"github.com/okian/pitchcast/internal/domain/apperr"
	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/sport"
	. "github.com/smartystreets/goconvey/convey"
)

func validMatch() features.Match {
	return features.Match{
		MatchID:          "m-1",
		Sport:            sport.Football,
		HomeTeamID:       "home",
		AwayTeamID:       "away",
		HomeForm:         70,
		AwayForm:         40,
		HomeSquadRating:  60,
		AwaySquadRating:  60,
		HomeAvailability: 90,
		AwayAvailability: 90,
	}
}

func TestValidate(t *testing.T) {
	Convey("Given a well-formed match snapshot", t, func() {
		m := validMatch()
		So(features.Validate(m), ShouldBeNil)
		So(features.Validate(&m), ShouldBeNil)
		So(m.String(), ShouldEqual, "m-1 home v away (FOOTBALL)")
	})

	Convey("Given a match with an out-of-range form index", t, func() {
		m := validMatch()
		m.HomeForm = 120
		err := features.Validate(m)

		Convey("Then a validation error names the json field", func() {
			So(errors.Is(err, apperr.ErrValidation), ShouldBeTrue)
			var ve *apperr.ValidationError
			So(errors.As(err, &ve), ShouldBeTrue)
			So(ve.Field, ShouldEqual, "Match.home_form")
		})
	})

	Convey("Given a match where a side plays itself", t, func() {
		m := validMatch()
		m.AwayTeamID = m.HomeTeamID
		So(errors.Is(features.Validate(m), apperr.ErrValidation), ShouldBeTrue)
	})

	Convey("Given an unknown weather condition", t, func() {
		m := validMatch()
		m.Weather = "FOG"
		So(errors.Is(features.Validate(m), apperr.ErrValidation), ShouldBeTrue)

		m.Weather = features.WeatherRain
		So(features.Validate(m), ShouldBeNil)
	})

	Convey("Given an unknown sport key", t, func() {
		p := features.Player{PlayerID: "p-1", Sport: sport.Sport("CURLING")}
		err := features.Validate(p)
		So(errors.Is(err, apperr.ErrNotFound), ShouldBeTrue)
		So(errors.Is(err, apperr.ErrValidation), ShouldBeFalse)
	})

	Convey("Given a workload with a malformed injury", t, func() {
		w := features.Workload{
			PlayerID: "p-2",
			Sport:    sport.Rugby,
			Injuries: []features.Injury{{BodyPart: sport.Knee, DaysAgo: 20, Severity: "CATASTROPHIC"}},
		}
		So(errors.Is(features.Validate(w), apperr.ErrValidation), ShouldBeTrue)

		w.Injuries[0].Severity = features.SeveritySevere
		So(features.Validate(w), ShouldBeNil)
	})

	Convey("Given a team snapshot", t, func() {
		tm := features.Team{TeamID: "t-1", Sport: sport.Hockey, Won: 5, Drawn: 2, Lost: 3}
		So(features.Validate(tm), ShouldBeNil)
		So(tm.Played(), ShouldEqual, 10)
	})
}
