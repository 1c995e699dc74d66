package kafka

import (
	"context"
	"encoding/json"
	"time"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/config"
	"github.com/prodpix/prodpix/internal/dto"
	"github.com/prodpix/prodpix/internal/retry"
)

type MessageHandler func(ctx context.Context, dispatch *dto.BatchDispatch) error

type Consumer struct {
	client  *wbfkafka.Consumer
	handler MessageHandler
	topic   string
}

func NewConsumer(cfg *config.KafkaConfig, handler MessageHandler) (*Consumer, error) {
	client := wbfkafka.NewConsumer(cfg.Brokers, cfg.Topic, cfg.GroupID)

	zlog.Logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topic", cfg.Topic).
		Str("group_id", cfg.GroupID).
		Msg("Kafka consumer initialized (wbf)")

	return &Consumer{
		client:  client,
		handler: handler,
		topic:   cfg.Topic,
	}, nil
}

func (c *Consumer) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			zlog.Logger.Info().Msg("Kafka consumer stopped")
			return nil
		default:
			msg, err := c.client.FetchWithRetry(ctx, retry.DefaultStrategy)
			if err != nil {
				zlog.Logger.Error().Err(err).Msg("Failed to fetch Kafka message")
				time.Sleep(time.Second)
				continue
			}

			var dispatch dto.BatchDispatch
			if err := json.Unmarshal(msg.Value, &dispatch); err != nil {
				zlog.Logger.Error().
					Err(err).
					Bytes("msg", msg.Value).
					Msg("Failed to unmarshal message")
				continue
			}

			if dispatch.TaskID == "" {
				zlog.Logger.Error().Msg("Invalid dispatch: empty task id")
				continue
			}

			zlog.Logger.Info().Str("task_id", dispatch.TaskID).Msg("Received batch dispatch")

			if err := c.handler(ctx, &dispatch); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("task_id", dispatch.TaskID).
					Msg("Batch processing failed")
				continue
			}

			if err := c.client.Commit(ctx, msg); err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("task_id", dispatch.TaskID).
					Msg("Failed to commit message")
				continue
			}

			zlog.Logger.Info().Str("task_id", dispatch.TaskID).Msg("Batch processed and committed")
		}
	}
}

func (c *Consumer) Close() error {
	if err := c.client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka consumer")
		return err
	}
	zlog.Logger.Info().Msg("Kafka consumer closed successfully")
	return nil
}
