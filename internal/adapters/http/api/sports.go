package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/pitchcast/internal/domain/sport"
)

type sportSummary struct {
	Sport     sport.Sport `json:"sport"`
	Name      string      `json:"name"`
	ScoreUnit string      `json:"score_unit"`
	AllowDraw bool        `json:"allows_draw"`
}

// handleListSports handles GET /v1/sports. Disabled sports are not listed.
func (s *Server) handleListSports(w http.ResponseWriter, r *http.Request) {
	reg := s.deps.Registry()
	sports := reg.Sports()
	out := make([]sportSummary, 0, len(sports))
	for _, sp := range sports {
		p, err := reg.Profile(sp)
		if err != nil {
			continue
		}
		out = append(out, sportSummary{
			Sport:     sp,
			Name:      p.Name,
			ScoreUnit: p.Scoring.ScoreUnit,
			AllowDraw: p.Scoring.AllowsDraw(),
		})
	}
	writeData(w, out, &Meta{GeneratedAt: time.Now().UTC()},
		&Pagination{Total: len(out), Limit: len(out)})
}

// handleGetSport handles GET /v1/sports/{sport}.
func (s *Server) handleGetSport(w http.ResponseWriter, r *http.Request) {
	sp, err := sport.Parse(chi.URLParam(r, "sport"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.deps.Registry().Profile(sp)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, p, &Meta{GeneratedAt: time.Now().UTC()}, nil)
}
