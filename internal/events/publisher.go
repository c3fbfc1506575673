package events

import (
	"context"
	"time"

	"metrocare-be/internal/entity"
	"metrocare-be/internal/pkg/logger"
	pkgEvents "metrocare-be/pkg/events"
	pktNats "metrocare-be/pkg/nats"

	"github.com/google/uuid"
)

// Publisher abstracts event publishing for report operations.
// Publishing is best effort: failures are logged, never returned.
type Publisher interface {
	PublishReportCreated(ctx context.Context, report *entity.Report)
	PublishStatusChanged(ctx context.Context, report *entity.Report, previous entity.ReportStatus, update *entity.StatusUpdate)
	PublishReportVoted(ctx context.Context, report *entity.Report, voterId uuid.UUID, voted bool, upvotes int)
}

// NatsPublisher implements Publisher using NATS
type NatsPublisher struct {
	publisher *pktNats.Publisher
	logger    logger.ILogger
}

func NewNatsPublisher(publisher *pktNats.Publisher, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *NatsPublisher) PublishReportCreated(ctx context.Context, report *entity.Report) {
	p.publish(ctx, pkgEvents.ReportCreated, map[string]interface{}{
		"report_id":       report.Id.String(),
		"reporter_id":     report.ReporterId.String(),
		"actor_id":        report.ReporterId.String(),
		"title":           report.Title,
		"category":        string(report.Category),
		"priority":        string(report.Priority),
		"similar_reports": len(report.SimilarReports),
	})
}

func (p *NatsPublisher) PublishStatusChanged(ctx context.Context, report *entity.Report, previous entity.ReportStatus, update *entity.StatusUpdate) {
	p.publish(ctx, pkgEvents.ReportStatusChanged, map[string]interface{}{
		"report_id":   report.Id.String(),
		"reporter_id": report.ReporterId.String(),
		"actor_id":    update.UpdatedBy.String(),
		"title":       report.Title,
		"old_status":  string(previous),
		"new_status":  string(update.Status),
		"message":     update.Message,
	})
}

func (p *NatsPublisher) PublishReportVoted(ctx context.Context, report *entity.Report, voterId uuid.UUID, voted bool, upvotes int) {
	p.publish(ctx, pkgEvents.ReportVoted, map[string]interface{}{
		"report_id":   report.Id.String(),
		"reporter_id": report.ReporterId.String(),
		"actor_id":    voterId.String(),
		"title":       report.Title,
		"voted":       voted,
		"upvotes":     upvotes,
	})
}

func (p *NatsPublisher) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if p.publisher == nil {
		return
	}

	evt := pkgEvents.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("REPORT_EVENTS", "Failed to publish "+eventType+" event", map[string]interface{}{"error": err.Error()})
	}
}

// NoopPublisher is used when the event bus is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishReportCreated(context.Context, *entity.Report) {}
func (NoopPublisher) PublishStatusChanged(context.Context, *entity.Report, entity.ReportStatus, *entity.StatusUpdate) {
}
func (NoopPublisher) PublishReportVoted(context.Context, *entity.Report, uuid.UUID, bool, int) {}
