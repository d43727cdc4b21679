// Package loadgen drives synthetic prediction traffic against a running
// pitchcast API and reports throughput and cache effectiveness.
package loadgen

import (
	"time"

	"github.com/okian/pitchcast/internal/domain/sport"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Requests int           // Number of distinct prediction requests
	Passes   int           // Times every request is replayed; passes after the first should hit the cache
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Sports   []sport.Sport // Sports to spread requests over; empty means all
	Seed     uint64        // Seed for the feature generator
	UserID   string
	Tier     string
	Roles    string
	ClubID   string
	Output   string // Optional JSON report path
	Verbose  bool
}

// Kind is the prediction endpoint a request targets.
type Kind string

const (
	KindMatch  Kind = "match"
	KindPlayer Kind = "player"
	KindTeam   Kind = "team"
	KindInjury Kind = "injury"
)

// Request is one generated prediction call.
type Request struct {
	Kind Kind `json:"kind"`
	Body any  `json:"body"`
}

// Stats holds run statistics.
type Stats struct {
	Generated int            `json:"generated"`
	Submitted int            `json:"submitted"`
	Succeeded int            `json:"succeeded"`
	Cached    int            `json:"cached"`
	Denied    int            `json:"denied"`
	Invalid   int            `json:"invalid"`
	Failed    int            `json:"failed"`
	ByKind    map[Kind]int   `json:"by_kind"`
	Latency   LatencySummary `json:"latency"`
	StartTime time.Time      `json:"start_time"`
	EndTime   time.Time      `json:"end_time"`
	Duration  time.Duration  `json:"duration"`
}

// LatencySummary holds request latency percentiles in milliseconds.
type LatencySummary struct {
	P50 float64 `json:"p50_ms"`
	P95 float64 `json:"p95_ms"`
	P99 float64 `json:"p99_ms"`
	Max float64 `json:"max_ms"`
}

// HitRatio is the share of successful responses served from cache.
func (s Stats) HitRatio() float64 {
	if s.Succeeded == 0 {
		return 0
	}
	return float64(s.Cached) / float64(s.Succeeded)
}

// RequestsPerSecond is the submitted rate over the run.
func (s Stats) RequestsPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Submitted) / s.Duration.Seconds()
}
