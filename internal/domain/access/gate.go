package access

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcome of an audited decision.
type Outcome string

const (
	OutcomeAllowed Outcome = "ALLOWED"
	OutcomeDenied  Outcome = "DENIED"
)

// AuditRecord is the immutable trace of one access decision.
type AuditRecord struct {
	ID        string    `json:"id"`
	CallerID  string    `json:"caller_id"`
	Action    Action    `json:"action"`
	Category  Category  `json:"category,omitempty"`
	EntityID  string    `json:"entity_id,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Reason    string    `json:"reason"`
	Tier      Tier      `json:"tier"`
	Timestamp time.Time `json:"timestamp"`
}

// Auditor receives audit records. Implementations must not block the caller.
type Auditor interface {
	Record(ctx context.Context, rec AuditRecord)
}

type nopAuditor struct{}

func (nopAuditor) Record(context.Context, AuditRecord) {}

// Request is what a caller asks the Gate to authorize.
type Request struct {
	Category Category
	Entity   Entity
	// Refresh asks for recomputation and needs create rights.
	Refresh bool
	// Export asks for an exportable result and needs export rights.
	Export bool
}

// Grant is the Gate's answer to an allowed Request.
type Grant struct {
	// Anonymize is set when a minor's identifying data must be masked.
	Anonymize bool
}

// Gate evaluates access rules and audits every decision.
type Gate struct {
	auditor Auditor
	now     func() time.Time
}

// GateOption applies a configuration option to the Gate.
type GateOption func(*Gate)

// WithAuditor routes audit records to a.
func WithAuditor(a Auditor) GateOption {
	return func(g *Gate) {
		if a != nil {
			g.auditor = a
		}
	}
}

// WithClock overrides the audit timestamp source.
func WithClock(now func() time.Time) GateOption {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGate creates a gate. Without an auditor, records are discarded.
func NewGate(opts ...GateOption) *Gate {
	g := &Gate{auditor: nopAuditor{}, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Authorize runs the checks req needs, stopping at the first denial, and
// returns an *apperr.AccessDeniedError when denied.
func (g *Gate) Authorize(ctx context.Context, c Context, req Request) (Grant, error) {
	checks := []func() Decision{
		func() Decision { return CanView(c, req.Category) },
		func() Decision {
			d := CanAccessEntity(c, req.Entity)
			d.Category = req.Category
			return d
		},
	}
	if req.Refresh {
		checks = append(checks, func() Decision { return CanCreate(c) })
	}
	if req.Export {
		checks = append(checks, func() Decision { return CanExport(c) })
	}
	for _, check := range checks {
		d := check()
		g.audit(ctx, c, req.Entity.ID, d)
		if !d.Allowed {
			return Grant{}, d.Err()
		}
	}
	return Grant{Anonymize: ShouldAnonymize(c, req.Entity)}, nil
}

// Check evaluates a single capability decision and audits it.
func (g *Gate) Check(ctx context.Context, c Context, entityID string, d Decision) error {
	g.audit(ctx, c, entityID, d)
	return d.Err()
}

func (g *Gate) audit(ctx context.Context, c Context, entityID string, d Decision) {
	outcome := OutcomeAllowed
	if !d.Allowed {
		outcome = OutcomeDenied
	}
	g.auditor.Record(ctx, AuditRecord{
		ID:        uuid.NewString(),
		CallerID:  c.UserID,
		Action:    d.Action,
		Category:  d.Category,
		EntityID:  entityID,
		Outcome:   outcome,
		Reason:    d.Reason,
		Tier:      c.Tier,
		Timestamp: g.now().UTC(),
	})
}
