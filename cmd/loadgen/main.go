package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/okian/pitchcast/internal/domain/sport"
	"github.com/okian/pitchcast/internal/loadgen"
	"github.com/okian/pitchcast/pkg/logger"
)

// Default configuration constants.
const (
	defaultRequests   = 2000
	defaultPasses     = 2
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:9080", "Base URL of the service")
		requests = flag.Int("requests", defaultRequests, "Number of distinct prediction requests")
		passes   = flag.Int("passes", defaultPasses, "Times every request is replayed")
		workers  = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout  = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		sports   = flag.String("sports", "", "Comma separated sports (default: all)")
		seed     = flag.Uint64("seed", 1, "Seed for generated features")
		user     = flag.String("user", "loadgen", "X-User-ID header")
		tier     = flag.String("tier", "PRO", "X-Subscription-Tier header")
		roles    = flag.String("roles", "ANALYST", "X-User-Roles header")
		club     = flag.String("club", "club-load", "Club the generated entities belong to")
		output   = flag.String("output", "", "Write the JSON report to this file")
		verbose  = flag.Bool("verbose", false, "Log progress while submitting")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	selected, err := parseSports(*sports)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	_, err = loadgen.Run(ctx, &loadgen.Config{
		BaseURL:  strings.TrimRight(*baseURL, "/"),
		Requests: *requests,
		Passes:   *passes,
		Workers:  *workers,
		Timeout:  *timeout,
		Sports:   selected,
		Seed:     *seed,
		UserID:   *user,
		Tier:     *tier,
		Roles:    *roles,
		ClubID:   *club,
		Output:   *output,
		Verbose:  *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "load run failed", logger.Error(err))
		os.Exit(1)
	}
}

func parseSports(raw string) ([]sport.Sport, error) {
	if raw == "" {
		return nil, nil
	}
	var out []sport.Sport
	for _, part := range strings.Split(raw, ",") {
		s, err := sport.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
