// Package audit moves access decisions off the request path and into a
// structured log stream.
package audit

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/okian/pitchcast/internal/adapters/mq/queue"
	"github.com/okian/pitchcast/internal/adapters/mq/worker"
	"github.com/okian/pitchcast/internal/domain/access"
	"github.com/okian/pitchcast/pkg/logger"
	"github.com/okian/pitchcast/pkg/metrics"
)

// Default recorder configuration constants.
const (
	defaultBuffer  = 4_096
	defaultWorkers = 1
	queueName      = "audit"
)

// Sink persists audit records.
type Sink interface {
	Write(ctx context.Context, rec access.AuditRecord) error
}

// ZapSink writes each record as one structured log line under the
// "access_audit" logger so it can be filtered downstream.
type ZapSink struct {
	logger *zap.Logger
}

// NewZapSink creates a sink on a child of z.
func NewZapSink(z *zap.Logger) *ZapSink {
	return &ZapSink{logger: z.Named("access_audit")}
}

// Write logs rec. Denials are logged at warn level.
func (s *ZapSink) Write(_ context.Context, rec access.AuditRecord) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	fields := []zap.Field{
		zap.String("audit_id", rec.ID),
		zap.String("caller_id", rec.CallerID),
		zap.String("action", string(rec.Action)),
		zap.String("category", string(rec.Category)),
		zap.String("entity_id", rec.EntityID),
		zap.String("outcome", string(rec.Outcome)),
		zap.String("tier", string(rec.Tier)),
		zap.String("reason", rec.Reason),
		zap.Time("decided_at", rec.Timestamp),
		zap.String("record_json", string(recJSON)),
	}
	if rec.Outcome == access.OutcomeDenied {
		s.logger.Warn("access denied", fields...)
		return nil
	}
	s.logger.Info("access allowed", fields...)
	return nil
}

// Recorder is an access.Auditor that buffers records and writes them to a
// Sink from a worker pool. Record never blocks; a full buffer drops.
type Recorder struct {
	queue *queue.InMemoryQueue[access.AuditRecord]
	pool  *worker.Pool[access.AuditRecord]
	sink  Sink

	logger logger.Logger
}

// NewRecorder creates a recorder writing to sink.
func NewRecorder(sink Sink, opts ...Option) *Recorder {
	cfg := config{buffer: defaultBuffer, workers: defaultWorkers, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Recorder{
		queue:  queue.NewInMemoryQueue[access.AuditRecord](queue.WithCapacity(cfg.buffer), queue.WithName(queueName)),
		sink:   sink,
		logger: cfg.logger.Named("audit"),
	}
	r.pool = worker.NewPool[access.AuditRecord](cfg.workers, r.queue, worker.HandlerFunc[access.AuditRecord](r.write),
		worker.WithName("audit"), worker.WithLogger(cfg.logger))
	return r
}

// Start launches the writers.
func (r *Recorder) Start(ctx context.Context) {
	r.pool.Start(ctx)
}

// Record implements access.Auditor.
func (r *Recorder) Record(ctx context.Context, rec access.AuditRecord) {
	metrics.RecordAccessDecision(string(rec.Action), rec.Outcome == access.OutcomeAllowed)
	if !r.queue.Enqueue(context.WithoutCancel(ctx), rec) {
		metrics.RecordAuditRecord("dropped")
		r.logger.Warn(ctx, "audit record dropped",
			logger.String("audit_id", rec.ID),
			logger.String("outcome", string(rec.Outcome)),
		)
		return
	}
	metrics.RecordAuditRecord("queued")
}

func (r *Recorder) write(ctx context.Context, rec access.AuditRecord) error {
	if err := r.sink.Write(ctx, rec); err != nil {
		metrics.RecordAuditRecord("failed")
		return err
	}
	metrics.RecordAuditRecord("written")
	return nil
}

// Stats returns writer throughput.
func (r *Recorder) Stats() worker.Stats { return r.pool.Stats() }

// Shutdown stops accepting records and drains what is buffered.
func (r *Recorder) Shutdown(ctx context.Context) error {
	return r.pool.Shutdown(ctx)
}
