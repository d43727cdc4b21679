package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	service "github.com/okian/pitchcast/internal/app"
	"github.com/okian/pitchcast/internal/adapters/http/api"
)

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Error      *api.ErrorBody  `json:"error"`
	Meta       *api.Meta       `json:"meta"`
	Pagination *api.Pagination `json:"pagination"`
}

type caller struct {
	user, roles, tier, clubs, player string
}

var coach = caller{user: "u-1", roles: "COACH", tier: "FREE", clubs: "club-1"}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	svc, err := service.New()
	require.NoError(t, err)
	return api.NewServer(svc, api.WithVersion("1.2.3"), api.WithMaxPageSize(2)).Routes()
}

func do(t *testing.T, h http.Handler, method, path string, c caller, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.Header.Set("X-User-ID", c.user)
	}
	req.Header.Set("X-User-Roles", c.roles)
	req.Header.Set("X-Subscription-Tier", c.tier)
	req.Header.Set("X-Club-IDs", c.clubs)
	req.Header.Set("X-Player-ID", c.player)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func matchBody() map[string]any {
	return map[string]any{
		"features": map[string]any{
			"match_id":          "m-1",
			"sport":             "FOOTBALL",
			"home_team_id":      "home",
			"away_team_id":      "away",
			"home_form":         70,
			"away_form":         40,
			"home_squad_rating": 65,
			"away_squad_rating": 55,
			"home_availability": 90,
			"away_availability": 85,
		},
		"entity": map[string]any{"club_ids": []string{"club-1"}},
	}
}

func workload(id string, minor bool) map[string]any {
	return map[string]any{
		"features": map[string]any{
			"player_id":        id,
			"sport":            "RUGBY",
			"position":         "PROP",
			"last_7d_minutes":  160,
			"last_28d_minutes": 640,
			"fatigue":          30,
			"fitness_score":    85,
			"sleep_hours":      8,
			"age":              17,
			"matches_sampled":  8,
		},
		"entity": map[string]any{"club_ids": []string{"club-1"}, "is_minor": minor},
	}
}

func squadBody(minor bool, ids ...string) map[string]any {
	players := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		players = append(players, workload(id, false)["features"].(map[string]any))
	}
	return map[string]any{
		"sport":   "RUGBY",
		"players": players,
		"entity":  map[string]any{"club_ids": []string{"club-1"}, "is_minor": minor},
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newRouter(t)

	w, _ := do(t, h, http.MethodGet, "/healthz", caller{}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"pitchcast","version":"1.2.3"}`, w.Body.String())

	w, _ = do(t, h, http.MethodGet, "/metrics", caller{}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pitchcast_")
}

func TestSports(t *testing.T) {
	h := newRouter(t)

	w, env := do(t, h, http.MethodGet, "/v1/sports", caller{}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 12, env.Pagination.Total)

	w, env = do(t, h, http.MethodGet, "/v1/sports/gaelic-football", caller{}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"sport":"GAELIC_FOOTBALL"`)

	w, env = do(t, h, http.MethodGet, "/v1/sports/curling", caller{}, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestPredictMatch(t *testing.T) {
	h := newRouter(t)

	t.Run("serves then caches", func(t *testing.T) {
		w, env := do(t, h, http.MethodPost, "/v1/predictions/match", coach, matchBody())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, env.Success)
		assert.False(t, env.Meta.Cached)
		assert.Equal(t, "pitchcast-heuristic-2.1", env.Meta.ModelVersion)

		_, env = do(t, h, http.MethodPost, "/v1/predictions/match", coach, matchBody())
		assert.True(t, env.Meta.Cached)
	})

	t.Run("requires an identity", func(t *testing.T) {
		w, env := do(t, h, http.MethodPost, "/v1/predictions/match", caller{}, matchBody())
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "unauthenticated", env.Error.Code)
	})

	t.Run("refresh needs create rights", func(t *testing.T) {
		w, env := do(t, h, http.MethodPost, "/v1/predictions/match?refresh=true", coach, matchBody())
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "STARTER", env.Error.RequiredTier)
	})

	t.Run("rejects callers outside the club", func(t *testing.T) {
		outsider := coach
		outsider.clubs = "club-2"
		w, _ := do(t, h, http.MethodPost, "/v1/predictions/match", outsider, matchBody())
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("maps invalid features to 400", func(t *testing.T) {
		body := matchBody()
		body["features"].(map[string]any)["home_form"] = 500
		w, env := do(t, h, http.MethodPost, "/v1/predictions/match", coach, body)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "validation_error", env.Error.Code)
		assert.Equal(t, "Match.home_form", env.Error.Field)
	})

	t.Run("unknown sport in the body is not found", func(t *testing.T) {
		body := matchBody()
		body["features"].(map[string]any)["sport"] = "CURLING"
		w, env := do(t, h, http.MethodPost, "/v1/predictions/match", coach, body)
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", env.Error.Code)
	})

	t.Run("rejects malformed bodies and flags", func(t *testing.T) {
		w, _ := do(t, h, http.MethodPost, "/v1/predictions/match", coach, map[string]any{"bogus": 1})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w, _ = do(t, h, http.MethodPost, "/v1/predictions/match?refresh=maybe", coach, matchBody())
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAssessInjury(t *testing.T) {
	h := newRouter(t)
	pro := caller{user: "u-2", roles: "COACH", tier: "PRO", clubs: "club-1"}

	t.Run("free tier is told which tier unlocks it", func(t *testing.T) {
		w, env := do(t, h, http.MethodPost, "/v1/predictions/injury", coach, workload("p-1", false))
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, "PRO", env.Error.RequiredTier)
	})

	t.Run("minors are anonymized for non-staff viewers", func(t *testing.T) {
		viewer := caller{user: "u-3", roles: "VIEWER", tier: "PRO", clubs: "club-1"}
		w, env := do(t, h, http.MethodPost, "/v1/predictions/injury", viewer, workload("p-7", true))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, env.Meta.Anonymized)
		assert.NotContains(t, string(env.Data), `"player_id":"p-7"`)
		assert.Contains(t, string(env.Data), `"player_id":"anon-`)
	})

	t.Run("export sets an attachment name", func(t *testing.T) {
		w, env := do(t, h, http.MethodPost, "/v1/predictions/injury?export=true", pro, workload("p-8", false))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.False(t, env.Meta.Anonymized)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "p-8_RUGBY.json")
	})
}

func TestSquadInjuryRisk(t *testing.T) {
	h := newRouter(t)
	pro := caller{user: "u-2", roles: "HEAD_COACH", tier: "PRO", clubs: "club-1"}

	body := squadBody(false, "p-1", "p-2", "p-3")

	w, env := do(t, h, http.MethodPost, "/v1/teams/team-1/injury-risk?limit=2", pro, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 3, env.Pagination.Total)
	assert.True(t, env.Pagination.HasMore)

	var report struct {
		TeamID  string            `json:"team_id"`
		Players []json.RawMessage `json:"players"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Len(t, report.Players, 2)

	w, env = do(t, h, http.MethodPost, "/v1/teams/team-1/injury-risk?limit=2&offset=2", pro, body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Meta.Cached)
	assert.False(t, env.Pagination.HasMore)

	w, _ = do(t, h, http.MethodPost, "/v1/teams/team-1/injury-risk?limit=50", pro, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	t.Run("offsets past the end return an empty page", func(t *testing.T) {
		for _, q := range []string{"offset=5&limit=2", "offset=9223372036854775807&limit=1"} {
			w, env := do(t, h, http.MethodPost, "/v1/teams/team-1/injury-risk?"+q, pro, body)
			require.Equal(t, http.StatusOK, w.Code, q)
			require.NotNil(t, env.Pagination)
			assert.Equal(t, 3, env.Pagination.Total)
			assert.False(t, env.Pagination.HasMore)
			require.NoError(t, json.Unmarshal(env.Data, &report))
			assert.Empty(t, report.Players)
		}
	})
}

func TestSquadInjuryRiskAnonymizesMinors(t *testing.T) {
	h := newRouter(t)
	viewer := caller{user: "u-5", roles: "VIEWER", tier: "PRO", clubs: "club-1"}
	staff := caller{user: "u-6", roles: "HEAD_COACH", tier: "PRO", clubs: "club-1"}
	body := squadBody(true, "kid-7", "kid-8")

	w, env := do(t, h, http.MethodPost, "/v1/teams/team-9/injury-risk", viewer, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Meta.Anonymized)
	assert.NotContains(t, string(env.Data), "kid-7")
	assert.NotContains(t, string(env.Data), "kid-8")
	assert.Contains(t, string(env.Data), `"player_id":"anon-`)

	w, env = do(t, h, http.MethodPost, "/v1/teams/team-9/injury-risk", staff, body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Meta.Cached)
	assert.False(t, env.Meta.Anonymized)
	assert.Contains(t, string(env.Data), `"player_id":"kid-7"`)
}

func TestInvalidateAndCacheStats(t *testing.T) {
	h := newRouter(t)
	analyst := caller{user: "u-4", roles: "ANALYST", tier: "FREE", clubs: "club-1"}

	w, _ := do(t, h, http.MethodPost, "/v1/predictions/match", analyst, matchBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = do(t, h, http.MethodDelete, "/v1/predictions/m-1?sport=football", coach, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := do(t, h, http.MethodDelete, "/v1/predictions/m-1?sport=football", analyst, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"invalidated":1}`, string(env.Data))

	w, env = do(t, h, http.MethodGet, "/v1/cache/stats", caller{}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"name":"match"`)
}
