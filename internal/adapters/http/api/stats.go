package api

import (
	"net/http"
	"time"
)

// handleStats handles GET /stats with raw service statistics.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.GetStats())
}

// handleCacheStats handles GET /v1/cache/stats.
func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeData(w, s.deps.CacheStats(), &Meta{GeneratedAt: time.Now().UTC()}, nil)
}
