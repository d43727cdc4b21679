package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/pitchcast/internal/domain/access"
)

// Identity headers set by the upstream gateway.
const (
	headerUserID          = "X-User-ID"
	headerRoles           = "X-User-Roles"
	headerTier            = "X-Subscription-Tier"
	headerPermissions     = "X-Permissions"
	headerOrgID           = "X-Org-ID"
	headerClubIDs         = "X-Club-IDs"
	headerTeamIDs         = "X-Team-IDs"
	headerPlayerID        = "X-Player-ID"
	headerLinkedPlayerIDs = "X-Linked-Player-IDs"
)

// callerFrom builds the access context from gateway headers. A missing user
// is unauthenticated; a missing tier means FREE. Unknown roles are dropped.
func callerFrom(r *http.Request) (access.Context, error) {
	h := r.Header
	c := access.Context{
		UserID:          strings.TrimSpace(h.Get(headerUserID)),
		Tier:            access.TierFree,
		Permissions:     list(h.Get(headerPermissions)),
		OrgID:           strings.TrimSpace(h.Get(headerOrgID)),
		ClubIDs:         list(h.Get(headerClubIDs)),
		TeamIDs:         list(h.Get(headerTeamIDs)),
		PlayerID:        strings.TrimSpace(h.Get(headerPlayerID)),
		LinkedPlayerIDs: list(h.Get(headerLinkedPlayerIDs)),
	}
	if c.UserID == "" {
		return access.Context{}, ErrUnauthenticated
	}
	for _, raw := range list(h.Get(headerRoles)) {
		if role := access.Role(strings.ToUpper(raw)); role.Valid() {
			c.Roles = append(c.Roles, role)
		}
	}
	if raw := strings.TrimSpace(h.Get(headerTier)); raw != "" {
		tier := access.Tier(strings.ToUpper(raw))
		if !tier.Valid() {
			return access.Context{}, badRequest("unknown subscription tier %q", raw)
		}
		c.Tier = tier
	}
	return c, nil
}

func list(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// flag parses an optional boolean query parameter.
func flag(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest("%s must be a boolean", name)
	}
	return v, nil
}

// page parses limit and offset, defaulting limit to max.
func page(r *http.Request, max int) (limit, offset int, err error) {
	q := r.URL.Query()
	limit = max
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, badRequest("limit must be a positive integer")
		}
		if limit > max {
			return 0, 0, badRequest("limit must not exceed %d", max)
		}
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err = strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return 0, 0, badRequest("offset must be a non-negative integer")
		}
	}
	return limit, offset, nil
}
