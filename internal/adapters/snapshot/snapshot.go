// Package snapshot hands computed predictions to durable storage without
// holding up the caller.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/okian/pitchcast/internal/adapters/mq/queue"
	"github.com/okian/pitchcast/internal/adapters/mq/worker"
	"github.com/okian/pitchcast/internal/domain/sport"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

// Default publisher configuration constants.
const (
	defaultBuffer  = 1_024
	defaultWorkers = 2
	defaultPrefix  = "pitchcast:snapshot:"
	queueName      = "snapshot"
)

// Snapshot is one computed result ready for storage.
type Snapshot struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Key          string          `json:"key"`
	Sport        sport.Sport     `json:"sport"`
	ModelVersion string          `json:"model_version"`
	CreatedAt    time.Time       `json:"created_at"`
	TTL          time.Duration   `json:"-"`
	Payload      json.RawMessage `json:"payload"`
}

// New serializes value into a snapshot.
func New(kind, key string, s sport.Sport, modelVersion string, ttl time.Duration, value any) (Snapshot, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal %s snapshot %s: %w", kind, key, err)
	}
	return Snapshot{
		ID:           uuid.NewString(),
		Kind:         kind,
		Key:          key,
		Sport:        s,
		ModelVersion: modelVersion,
		CreatedAt:    time.Now().UTC(),
		TTL:          ttl,
		Payload:      payload,
	}, nil
}

// Publisher accepts snapshots. Publish must not block.
type Publisher interface {
	Publish(ctx context.Context, snap Snapshot)
}

// Nop discards snapshots.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Snapshot) {}

// Store writes a snapshot durably.
type Store interface {
	Write(ctx context.Context, snap Snapshot) error
}

// RedisClient is the slice of the go-redis client the store needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore writes snapshots as JSON strings that expire with the result.
type RedisStore struct {
	client RedisClient
	prefix string
}

// NewRedisStore creates a store. An empty prefix uses the default.
func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// KeyFor returns the redis key for snap.
func (s *RedisStore) KeyFor(snap Snapshot) string {
	return s.prefix + snap.Kind + ":" + snap.Key
}

// Write implements Store.
func (s *RedisStore) Write(ctx context.Context, snap Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.KeyFor(snap), body, snap.TTL).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.KeyFor(snap), err)
	}
	return nil
}

// AsyncPublisher buffers snapshots and writes them to a Store from a worker
// pool. Publish drops when the buffer is full.
type AsyncPublisher struct {
	queue *queue.InMemoryQueue[Snapshot]
	pool  *worker.Pool[Snapshot]
	store Store

	logger logger.Logger
}

// NewAsyncPublisher creates a publisher over store.
func NewAsyncPublisher(store Store, opts ...Option) *AsyncPublisher {
	cfg := config{buffer: defaultBuffer, workers: defaultWorkers, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &AsyncPublisher{
		queue:  queue.NewInMemoryQueue[Snapshot](queue.WithCapacity(cfg.buffer), queue.WithName(queueName)),
		store:  store,
		logger: cfg.logger.Named("snapshot"),
	}
	p.pool = worker.NewPool[Snapshot](cfg.workers, p.queue, worker.HandlerFunc[Snapshot](p.write),
		worker.WithName("snapshot"), worker.WithLogger(cfg.logger))
	return p
}

// Start launches the writers.
func (p *AsyncPublisher) Start(ctx context.Context) { p.pool.Start(ctx) }

// Publish implements Publisher.
func (p *AsyncPublisher) Publish(ctx context.Context, snap Snapshot) {
	if !p.queue.Enqueue(context.WithoutCancel(ctx), snap) {
		metrics.RecordSnapshot("dropped")
		p.logger.Warn(ctx, "snapshot dropped", logger.String("kind", snap.Kind), logger.String("key", snap.Key))
		return
	}
	metrics.RecordSnapshot("queued")
}

func (p *AsyncPublisher) write(ctx context.Context, snap Snapshot) error {
	if err := p.store.Write(ctx, snap); err != nil {
		metrics.RecordSnapshot("failed")
		return err
	}
	metrics.RecordSnapshot("published")
	return nil
}

// Stats returns writer throughput.
func (p *AsyncPublisher) Stats() worker.Stats { return p.pool.Stats() }

// Shutdown stops accepting snapshots and drains what is buffered.
func (p *AsyncPublisher) Shutdown(ctx context.Context) error { return p.pool.Shutdown(ctx) }
