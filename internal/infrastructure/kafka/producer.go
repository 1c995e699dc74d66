package kafka

import (
	"context"
	"encoding/json"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/config"
	"github.com/prodpix/prodpix/internal/dto"
	"github.com/prodpix/prodpix/internal/retry"
)

type Producer struct {
	client *wbfkafka.Producer
	topic  string
}

func NewProducer(cfg *config.KafkaConfig) *Producer {
	client := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)
	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Msg("Kafka producer initialized (wbf)")
	return &Producer{
		client: client,
		topic:  cfg.Topic,
	}
}

// PublishBatchTask enqueues a created batch for the worker, keyed by task
// id so dispatches of one task stay ordered.
func (p *Producer) PublishBatchTask(ctx context.Context, taskID string) error {
	data, err := json.Marshal(dto.BatchDispatch{TaskID: taskID})
	if err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", taskID).Msg("Failed to marshal dispatch")
		return err
	}

	if err := p.client.SendWithRetry(ctx, retry.DefaultStrategy, []byte(taskID), data); err != nil {
		zlog.Logger.Error().Err(err).Str("task_id", taskID).Msg("Failed to send Kafka message with retry")
		return err
	}

	zlog.Logger.Info().Str("task_id", taskID).Msg("Batch dispatch sent to Kafka")
	return nil
}

func (p *Producer) Close() error {
	if err := p.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka producer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka producer closed successfully")
	return nil
}
