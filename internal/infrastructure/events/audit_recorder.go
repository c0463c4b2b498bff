package events

import (
	"context"
	"time"

	"github.com/openmentor/relay/internal/domain"
	"github.com/openmentor/relay/internal/infrastructure/logging"
)

// AuditRecorder persists relay audit events through the repository,
// detached from the caller so a slow database never backs up into the
// relay.
type AuditRecorder struct {
	repo   domain.RelayAuditRepository
	logger logging.Logger
}

func NewAuditRecorder(repo domain.RelayAuditRepository, logger logging.Logger) *AuditRecorder {
	return &AuditRecorder{
		repo:   repo,
		logger: logger,
	}
}

func (r *AuditRecorder) Record(_ context.Context, ev *domain.RelayAuditEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := r.repo.Record(ctx, ev); err != nil {
			r.logger.Error(logging.Mongo, logging.ExternalService, "failed to record audit event", map[logging.ExtraKey]any{
				logging.RoomCode:     ev.RoomCode,
				logging.ErrorMessage: err.Error(),
			})
		}
	}()
}

// CompositeSink fans one audit event out to several sinks.
type CompositeSink struct {
	sinks []domain.EventSink
}

func NewCompositeSink(sinks ...domain.EventSink) *CompositeSink {
	return &CompositeSink{sinks: sinks}
}

func (c *CompositeSink) Record(ctx context.Context, ev *domain.RelayAuditEvent) {
	for _, sink := range c.sinks {
		sink.Record(ctx, ev)
	}
}

// NoopSink discards everything; used when no broker or database is
// configured.
type NoopSink struct{}

func (NoopSink) Record(context.Context, *domain.RelayAuditEvent) {}
