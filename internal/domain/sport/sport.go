// Package sport is the per-sport configuration registry. It isolates what
// varies between sports (scoring rules, factor weights, positions) from the
// prediction math so one engine serves every supported sport.
package sport

import (
	"strings"

	"github.com/okian/pitchcast/internal/domain/apperr"
)

// Sport is the closed set of supported sport keys.
type Sport string

const (
	Football         Sport = "FOOTBALL"
	Rugby            Sport = "RUGBY"
	Cricket          Sport = "CRICKET"
	Basketball       Sport = "BASKETBALL"
	AmericanFootball Sport = "AMERICAN_FOOTBALL"
	Netball          Sport = "NETBALL"
	Hockey           Sport = "HOCKEY"
	Lacrosse         Sport = "LACROSSE"
	AustralianRules  Sport = "AUSTRALIAN_RULES"
	GaelicFootball   Sport = "GAELIC_FOOTBALL"
	Futsal           Sport = "FUTSAL"
	BeachFootball    Sport = "BEACH_FOOTBALL"
)

var all = []Sport{
	Football, Rugby, Cricket, Basketball, AmericanFootball, Netball,
	Hockey, Lacrosse, AustralianRules, GaelicFootball, Futsal, BeachFootball,
}

// All returns every supported sport in declaration order.
func All() []Sport {
	out := make([]Sport, len(all))
	copy(out, all)
	return out
}

// Valid reports whether s is one of the supported keys.
func (s Sport) Valid() bool {
	switch s {
	case Football, Rugby, Cricket, Basketball, AmericanFootball, Netball,
		Hockey, Lacrosse, AustralianRules, GaelicFootball, Futsal, BeachFootball:
		return true
	}
	return false
}

func (s Sport) String() string { return string(s) }

// Parse normalizes a user-supplied key ("gaelic-football", "Futsal") into a Sport.
func Parse(raw string) (Sport, error) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	s := Sport(key)
	if !s.Valid() {
		return "", apperr.NotFound("sport", raw)
	}
	return s, nil
}

// BodyPart names an anatomical region used by injury risk assessments.
type BodyPart string

const (
	Hamstring  BodyPart = "HAMSTRING"
	Quadriceps BodyPart = "QUADRICEPS"
	Groin      BodyPart = "GROIN"
	Calf       BodyPart = "CALF"
	Achilles   BodyPart = "ACHILLES"
	Knee       BodyPart = "KNEE"
	Ankle      BodyPart = "ANKLE"
	Hip        BodyPart = "HIP"
	Back       BodyPart = "BACK"
	Shoulder   BodyPart = "SHOULDER"
	Neck       BodyPart = "NECK"
	Head       BodyPart = "HEAD"
	Wrist      BodyPart = "WRIST"
	Finger     BodyPart = "FINGER"
)
