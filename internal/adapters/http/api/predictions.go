package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	service "github.com/okian/pitchcast/internal/app"
	"github.com/okian/pitchcast/internal/domain/access"
	"github.com/okian/pitchcast/internal/domain/features"
	"github.com/okian/pitchcast/internal/domain/injury"
	"github.com/okian/pitchcast/internal/domain/prediction"
	"github.com/okian/pitchcast/internal/domain/sport"
)

const maxBodyBytes = 1 << 20

// Scope carries the ownership of the entity being predicted so the gate can
// check membership.
type Scope struct {
	OrgID   string   `json:"org_id"`
	ClubIDs []string `json:"club_ids"`
	TeamIDs []string `json:"team_ids"`
	IsMinor bool     `json:"is_minor"`
}

// PredictionRequest is the body of every prediction endpoint.
type PredictionRequest[F any] struct {
	Features F     `json:"features"`
	Entity   Scope `json:"entity"`
}

// SquadRequest is the body of the team injury sweep.
type SquadRequest struct {
	Sport   sport.Sport         `json:"sport"`
	Players []features.Workload `json:"players"`
	Entity  Scope               `json:"entity"`
}

func (sc Scope) entity(id, playerID string) access.Entity {
	return access.Entity{
		ID:       id,
		OrgID:    sc.OrgID,
		ClubIDs:  sc.ClubIDs,
		TeamIDs:  sc.TeamIDs,
		PlayerID: playerID,
		IsMinor:  sc.IsMinor,
	}
}

// endpoint describes one prediction route.
type endpoint[F any, R service.Result] struct {
	category  access.Category
	entity    func(F, Scope) access.Entity
	run       func(context.Context, F, service.PredictOptions) (service.Outcome[R], error)
	anonymize func(*R, string)
}

// serve decodes, authorizes and answers a prediction request.
func serve[F any, R service.Result](s *Server, e endpoint[F, R], w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, err := flag(r, "refresh")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	export, err := flag(r, "export")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req PredictionRequest[F]
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	ent := e.entity(req.Features, req.Entity)
	grant, err := s.deps.Gate().Authorize(r.Context(), caller, access.Request{
		Category: e.category,
		Entity:   ent,
		Refresh:  refresh,
		Export:   export,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := e.run(r.Context(), req.Features, service.PredictOptions{ForceRefresh: refresh})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result := out.Result
	if grant.Anonymize && e.anonymize != nil {
		e.anonymize(&result, alias(ent.PlayerID))
	}
	if export {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(out.Key)))
	}
	writeData(w, result, &Meta{
		GeneratedAt:  time.Now().UTC(),
		ProcessingMS: float64(time.Since(start).Microseconds()) / 1000,
		ModelVersion: result.Version(),
		Cached:       out.Cached,
		Anonymized:   grant.Anonymize,
	}, nil)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("malformed body: %v", err)
	}
	return nil
}

// alias is a stable pseudonym for an identifier.
func alias(id string) string {
	return "anon-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(id)).String()[:8]
}

func exportName(key string) string {
	return strings.ReplaceAll(key, ":", "_") + ".json"
}

func (s *Server) handlePredictMatch(w http.ResponseWriter, r *http.Request) {
	serve(s, endpoint[features.Match, prediction.MatchResult]{
		category: access.CategoryMatchOutcome,
		entity: func(m features.Match, sc Scope) access.Entity {
			return sc.entity(m.MatchID, "")
		},
		run: s.deps.PredictMatch,
	}, w, r)
}

func (s *Server) handlePredictPlayer(w http.ResponseWriter, r *http.Request) {
	serve(s, endpoint[features.Player, prediction.PlayerResult]{
		category: access.CategoryPlayerPerformance,
		entity: func(p features.Player, sc Scope) access.Entity {
			return sc.entity(p.PlayerID, p.PlayerID)
		},
		run:       s.deps.PredictPlayer,
		anonymize: func(res *prediction.PlayerResult, a string) { res.PlayerID = a },
	}, w, r)
}

func (s *Server) handlePredictTeam(w http.ResponseWriter, r *http.Request) {
	serve(s, endpoint[features.Team, prediction.TeamResult]{
		category: access.CategoryTeamPerformance,
		entity: func(t features.Team, sc Scope) access.Entity {
			return sc.entity(t.TeamID, "")
		},
		run: s.deps.PredictTeam,
	}, w, r)
}

func (s *Server) handleAssessInjury(w http.ResponseWriter, r *http.Request) {
	serve(s, endpoint[features.Workload, injury.Assessment]{
		category: access.CategoryInjuryRisk,
		entity: func(wl features.Workload, sc Scope) access.Entity {
			return sc.entity(wl.PlayerID, wl.PlayerID)
		},
		run:       s.deps.AssessInjury,
		anonymize: func(res *injury.Assessment, a string) { res.PlayerID = a },
	}, w, r)
}

// handleSquadInjuryRisk handles POST /v1/teams/{teamID}/injury-risk.
// The players of the report are paginated; the summary is always whole.
func (s *Server) handleSquadInjuryRisk(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	refresh, err := flag(r, "refresh")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, offset, err := page(r, s.maxPage)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req SquadRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	teamID := chi.URLParam(r, "teamID")

	grant, err := s.deps.Gate().Authorize(r.Context(), caller, access.Request{
		Category: access.CategoryInjuryRisk,
		Entity:   req.Entity.entity(teamID, ""),
		Refresh:  refresh,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.deps.SquadInjuryRisk(r.Context(), service.Squad{
		TeamID:  teamID,
		Sport:   req.Sport,
		Players: req.Players,
	}, service.PredictOptions{ForceRefresh: refresh})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	report := out.Result
	total := len(report.Players)
	lo := min(offset, total)
	hi := lo + min(limit, total-lo)
	report.Players = report.Players[lo:hi]
	if grant.Anonymize {
		anonymizeSquad(&report, func(id string) bool {
			return access.ShouldAnonymize(caller, req.Entity.entity(teamID, id))
		})
	}

	writeData(w, report, &Meta{
		GeneratedAt:  time.Now().UTC(),
		ProcessingMS: float64(time.Since(start).Microseconds()) / 1000,
		ModelVersion: report.Version(),
		Cached:       out.Cached,
		Anonymized:   grant.Anonymize,
	}, &Pagination{Total: total, Limit: limit, Offset: offset, HasMore: hi < total})
}

// anonymizeSquad aliases every player id in r for which hide reports true.
// Slices are copied so the cached report keeps its real ids.
func anonymizeSquad(r *injury.SquadReport, hide func(string) bool) {
	mask := func(id string) string {
		if hide(id) {
			return alias(id)
		}
		return id
	}
	r.Players = slices.Clone(r.Players)
	for i := range r.Players {
		r.Players[i].PlayerID = mask(r.Players[i].PlayerID)
	}
	r.AtRisk = slices.Clone(r.AtRisk)
	for i := range r.AtRisk {
		r.AtRisk[i] = mask(r.AtRisk[i])
	}
	r.Failures = slices.Clone(r.Failures)
	for i := range r.Failures {
		r.Failures[i].PlayerID = mask(r.Failures[i].PlayerID)
	}
}

// handleInvalidate handles DELETE /v1/predictions/{entityID}?sport=&scope=.
// Invalidation needs create rights.
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entityID := chi.URLParam(r, "entityID")
	if err := s.deps.Gate().Check(r.Context(), caller, entityID, access.CanCreate(caller)); err != nil {
		s.writeError(w, r, err)
		return
	}

	var sp sport.Sport
	if raw := r.URL.Query().Get("sport"); raw != "" {
		if sp, err = sport.Parse(raw); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	n, err := s.deps.Invalidate(r.Context(), entityID, sp, r.URL.Query()["scope"]...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, map[string]int{"invalidated": n}, &Meta{GeneratedAt: time.Now().UTC()}, nil)
}
