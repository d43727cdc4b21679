package sport

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/okian/pitchcast/internal/domain/apperr"
)

// Registry serves validated sport profiles. A profile that fails validation
// disables its sport; every other sport keeps serving.
type Registry struct {
	profiles map[Sport]Profile
	disabled map[Sport]error

	overrides     map[Sport]Profile
	overridesFile string
}

// Option applies a configuration option to the Registry.
type Option func(*Registry)

// WithProfile replaces the builtin profile for p.Sport.
func WithProfile(p Profile) Option {
	return func(r *Registry) {
		if p.Sport.Valid() {
			r.overrides[p.Sport] = p
		}
	}
}

// WithOverridesFile merges YAML overrides keyed by sport into the builtin
// profiles. An empty path is ignored.
func WithOverridesFile(path string) Option {
	return func(r *Registry) {
		r.overridesFile = path
	}
}

// NewRegistry builds a registry from the builtin profiles plus overrides.
// A non-nil registry is returned together with a joined ValidationError when
// some sports were disabled; the error is fatal only for those sports.
// Unreadable override files fail the whole construction.
func NewRegistry(opts ...Option) (*Registry, error) {
	r := &Registry{
		profiles:  make(map[Sport]Profile, len(all)),
		disabled:  make(map[Sport]error),
		overrides: make(map[Sport]Profile),
	}
	for _, opt := range opts {
		opt(r)
	}

	candidates := make(map[Sport]Profile, len(all))
	for _, s := range all {
		candidates[s] = Builtin(s)
	}
	if r.overridesFile != "" {
		fromFile, err := loadOverrides(r.overridesFile, candidates)
		if err != nil {
			return nil, err
		}
		for s, p := range fromFile {
			candidates[s] = p
		}
	}
	for s, p := range r.overrides {
		candidates[s] = p
	}

	var errs []error
	for _, s := range all {
		p := candidates[s]
		p.Sport = s
		if err := Validate(p); err != nil {
			r.disabled[s] = err
			errs = append(errs, err)
			continue
		}
		r.profiles[s] = p
	}
	return r, errors.Join(errs...)
}

// loadOverrides decodes the override file on top of the given base profiles.
func loadOverrides(path string, base map[Sport]Profile) (map[Sport]Profile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sport overrides: %w", err)
	}
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse sport overrides: %w", err)
	}
	out := make(map[Sport]Profile, len(doc))
	for key, node := range doc {
		s, err := Parse(key)
		if err != nil {
			return nil, fmt.Errorf("sport overrides: %w", err)
		}
		p := base[s]
		// Decoding into the populated profile keeps every field the file omits.
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode overrides for %s: %w", s, err)
		}
		p.Sport = s
		out[s] = p
	}
	return out, nil
}

// Profile returns the validated profile for s.
func (r *Registry) Profile(s Sport) (Profile, error) {
	if p, ok := r.profiles[s]; ok {
		return p, nil
	}
	if err, ok := r.disabled[s]; ok {
		return Profile{}, fmt.Errorf("sport %s disabled: %w", s, err)
	}
	return Profile{}, apperr.NotFound("sport", string(s))
}

// Weights returns the factor weights for s.
func (r *Registry) Weights(s Sport) (Weights, error) {
	p, err := r.Profile(s)
	if err != nil {
		return Weights{}, err
	}
	return p.Weights, nil
}

// PositionCategories returns the position taxonomy for s.
func (r *Registry) PositionCategories(s Sport) ([]PositionCategory, error) {
	p, err := r.Profile(s)
	if err != nil {
		return nil, err
	}
	out := make([]PositionCategory, len(p.Positions))
	copy(out, p.Positions)
	return out, nil
}

// KeyMetrics returns the headline metric names for s.
func (r *Registry) KeyMetrics(s Sport) ([]string, error) {
	p, err := r.Profile(s)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), p.KeyMetrics...), nil
}

// PositionImportance never fails: unknown sports and uncategorized
// positions get DefaultPositionImportance.
func (r *Registry) PositionImportance(s Sport, position string) int {
	p, ok := r.profiles[s]
	if !ok {
		return DefaultPositionImportance
	}
	return p.PositionImportance(position)
}

// PositionRisk never fails: unknown sports and positions get DefaultPositionRisk.
func (r *Registry) PositionRisk(s Sport, position string) float64 {
	p, ok := r.profiles[s]
	if !ok {
		return DefaultPositionRisk
	}
	return p.PositionRisk(position)
}

// VulnerableParts returns the body parts a position is prone to injure. Unknown
// sports yield nil.
func (r *Registry) VulnerableParts(s Sport, position string) []VulnerablePart {
	p, ok := r.profiles[s]
	if !ok {
		return nil
	}
	return p.VulnerableParts(position)
}

// Sports lists the enabled sports in declaration order.
func (r *Registry) Sports() []Sport {
	out := make([]Sport, 0, len(r.profiles))
	for _, s := range all {
		if _, ok := r.profiles[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Disabled lists sports that failed validation, sorted by key.
func (r *Registry) Disabled() []Sport {
	out := make([]Sport, 0, len(r.disabled))
	for s := range r.disabled {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
