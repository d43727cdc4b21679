package cache

import (
	"sort"
	"strings"
	"time"

	"github.com/okian/pitchcast/internal/domain/injury"
	"github.com/okian/pitchcast/internal/domain/prediction"
	"github.com/okian/pitchcast/internal/domain/sport"
)

// Kind names a result type and the store that holds it.
type Kind string

const (
	KindMatch          Kind = "match"
	KindPlayer         Kind = "player"
	KindTeam           Kind = "team"
	KindInjury         Kind = "injury"
	KindRecommendation Kind = "recommendation"
)

var kinds = []Kind{KindMatch, KindPlayer, KindTeam, KindInjury, KindRecommendation}

// Kinds lists every result kind.
func Kinds() []Kind { return append([]Kind(nil), kinds...) }

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindMatch, KindPlayer, KindTeam, KindInjury, KindRecommendation:
		return true
	}
	return false
}

// Key builds the deterministic cache key entity:SPORT[:discriminator].
func Key(entityID string, s sport.Sport, discriminator ...string) string {
	parts := make([]string, 0, 2+len(discriminator))
	parts = append(parts, entityID, string(s))
	for _, d := range discriminator {
		if d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, ":")
}

// TTLs configures how long each result kind stays cached. Sport entries
// override the kind default for that sport.
type TTLs struct {
	Match          time.Duration
	Player         time.Duration
	Team           time.Duration
	Injury         time.Duration
	Recommendation time.Duration

	Sport map[sport.Sport]map[Kind]time.Duration
}

// DefaultTTLs returns the stock lifetimes.
func DefaultTTLs() TTLs {
	return TTLs{
		Match:          4 * time.Hour,
		Player:         6 * time.Hour,
		Team:           12 * time.Hour,
		Injury:         6 * time.Hour,
		Recommendation: 24 * time.Hour,
	}
}

// For resolves the TTL of kind k for sport s.
func (t TTLs) For(k Kind, s sport.Sport) time.Duration {
	if bySport, ok := t.Sport[s]; ok {
		if d, ok := bySport[k]; ok && d > 0 {
			return d
		}
	}
	switch k {
	case KindMatch:
		return t.Match
	case KindPlayer:
		return t.Player
	case KindTeam:
		return t.Team
	case KindInjury:
		return t.Injury
	case KindRecommendation:
		return t.Recommendation
	}
	return 0
}

// sweeper is the untyped surface shared by every store.
type sweeper interface {
	Name() string
	Delete(key string) bool
	DeleteMatching(substr string) int
	Sweep() int
	ExpiringSoon(window time.Duration) []Expiring
	Clear()
	Stats() Stats
}

// Cache groups one store per result kind.
type Cache struct {
	ttls TTLs

	Match          *Store[prediction.MatchResult]
	Player         *Store[prediction.PlayerResult]
	Team           *Store[prediction.TeamResult]
	Injury         *Store[injury.Assessment]
	Recommendation *Store[injury.SquadReport]

	stores []sweeper
}

// New builds a cache whose stores share opts. Zero TTL fields fall back to
// DefaultTTLs.
func New(ttls TTLs, opts ...Option) *Cache {
	def := DefaultTTLs()
	if ttls.Match <= 0 {
		ttls.Match = def.Match
	}
	if ttls.Player <= 0 {
		ttls.Player = def.Player
	}
	if ttls.Team <= 0 {
		ttls.Team = def.Team
	}
	if ttls.Injury <= 0 {
		ttls.Injury = def.Injury
	}
	if ttls.Recommendation <= 0 {
		ttls.Recommendation = def.Recommendation
	}

	c := &Cache{
		ttls:           ttls,
		Match:          NewStore[prediction.MatchResult](string(KindMatch), opts...),
		Player:         NewStore[prediction.PlayerResult](string(KindPlayer), opts...),
		Team:           NewStore[prediction.TeamResult](string(KindTeam), opts...),
		Injury:         NewStore[injury.Assessment](string(KindInjury), opts...),
		Recommendation: NewStore[injury.SquadReport](string(KindRecommendation), opts...),
	}
	c.stores = []sweeper{c.Match, c.Player, c.Team, c.Injury, c.Recommendation}
	return c
}

// TTL resolves the lifetime for kind k in sport s.
func (c *Cache) TTL(k Kind, s sport.Sport) time.Duration { return c.ttls.For(k, s) }

func (c *Cache) store(k Kind) sweeper {
	for _, s := range c.stores {
		if s.Name() == string(k) {
			return s
		}
	}
	return nil
}

// Delete removes key from the store of kind k.
func (c *Cache) Delete(k Kind, key string) bool {
	s := c.store(k)
	if s == nil {
		return false
	}
	return s.Delete(key)
}

// InvalidateEntity removes every key containing entityID from all stores.
func (c *Cache) InvalidateEntity(entityID string) int {
	n := 0
	for _, s := range c.stores {
		n += s.DeleteMatching(entityID)
	}
	return n
}

// Sweep removes expired entries from all stores.
func (c *Cache) Sweep() int {
	n := 0
	for _, s := range c.stores {
		n += s.Sweep()
	}
	return n
}

// ExpiringSoon lists entries of all stores due within window, soonest first.
func (c *Cache) ExpiringSoon(window time.Duration) []Expiring {
	var out []Expiring
	for _, s := range c.stores {
		out = append(out, s.ExpiringSoon(window)...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return out
}

// Clear empties every store and resets its counters.
func (c *Cache) Clear() {
	for _, s := range c.stores {
		s.Clear()
	}
}

// Stats returns per-store statistics in kind order.
func (c *Cache) Stats() []Stats {
	out := make([]Stats, 0, len(c.stores))
	for _, s := range c.stores {
		out = append(out, s.Stats())
	}
	return out
}
