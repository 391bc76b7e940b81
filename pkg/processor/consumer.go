package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zykor/platform/pkg/common/kafka"
	"github.com/zykor/platform/pkg/common/logger"
	"github.com/zykor/platform/pkg/common/models"
)

const EventRawCaptured = "contahub.raw.captured"
const EventRawProcessed = "contahub.raw.processed"

// ConsumerLoop drains capture events from Kafka and feeds them through the
// processor, publishing a processed event for each successful run.
type ConsumerLoop struct {
	service  *Service
	consumer *kafka.Consumer
	producer *kafka.Producer
}

func NewConsumerLoop(service *Service, consumer *kafka.Consumer, producer *kafka.Producer) *ConsumerLoop {
	return &ConsumerLoop{service: service, consumer: consumer, producer: producer}
}

// Run blocks until the context is cancelled. A failed event stays
// uncommitted and is retried by the consumer on the next fetch.
func (l *ConsumerLoop) Run(ctx context.Context) error {
	return l.consumer.Consume(ctx, func(ctx context.Context, event models.Event) error {
		if event.Type != EventRawCaptured {
			return nil
		}

		data, err := json.Marshal(event.Data)
		if err != nil {
			return nil
		}
		var capture models.CaptureEvent
		if err := json.Unmarshal(data, &capture); err != nil {
			logger.Log.WithError(err).Warn("Malformed capture event, dropping")
			return nil
		}
		if capture.RawDataID == 0 {
			return nil
		}

		result := l.service.Process(ctx, capture.RawDataID, capture.DataType)
		if !result.Success {
			return fmt.Errorf("process raw payload %d: %s", capture.RawDataID, result.Error)
		}

		if l.producer != nil {
			l.producer.PublishEvent(ctx, EventRawProcessed, "processor-service", map[string]interface{}{
				"raw_data_id":      result.RawDataID,
				"data_type":        result.DataType,
				"total_records":    result.TotalRecords,
				"inserted_records": result.InsertedRecords,
			})
		}

		return nil
	})
}
