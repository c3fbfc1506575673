package service

import (
	"context"
	"encoding/json"

	"metrocare-be/internal/dto"
	"metrocare-be/internal/pkg/logger"
	"metrocare-be/internal/repository/specification"
	"metrocare-be/internal/repository/unitofwork"
	"metrocare-be/pkg/embedding"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "EmbeddingBackfill"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService backfills the embedding of reports stored without one.
// SimilarReports is left untouched: it records what the submitter was shown.
type consumerService struct {
	subscriber        message.Subscriber
	topicName         string
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.EmbeddingProvider
	logger            logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.EmbeddingProvider,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:        subscriber,
		topicName:         topicName,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		logger:            logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishEmbedReportMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error(consumerModule, "Invalid backfill payload", map[string]interface{}{"error": err.Error()})
		msg.Ack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	report, err := uow.ReportRepository().FindOne(ctx, specification.ByID{ID: payload.ReportId})
	if err != nil {
		cs.logger.Error(consumerModule, "Failed to load report", map[string]interface{}{
			"report_id": payload.ReportId.String(),
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}
	if report == nil || report.HasEmbedding() || len(report.Images) == 0 {
		msg.Ack()
		return
	}

	// One retry only; a second failure leaves the report outside the population.
	vector, err := cs.embeddingProvider.Generate(ctx, report.Images[0])
	if err != nil || len(vector) == 0 {
		details := map[string]interface{}{"report_id": report.Id.String()}
		if err != nil {
			details["error"] = err.Error()
		}
		cs.logger.Warn(consumerModule, "Backfill embedding failed", details)
		msg.Ack()
		return
	}

	if err := uow.ReportRepository().SetEmbedding(ctx, report.Id, vector); err != nil {
		cs.logger.Error(consumerModule, "Failed to store embedding", map[string]interface{}{
			"report_id": report.Id.String(),
			"error":     err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Info(consumerModule, "Embedding backfilled", map[string]interface{}{
		"report_id":  report.Id.String(),
		"dimensions": len(vector),
	})
	msg.Ack()
}
