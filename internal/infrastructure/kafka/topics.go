package kafka

import (
	"context"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"

	"github.com/prodpix/prodpix/internal/config"
)

// EnsureTopic waits for a broker to answer and creates the dispatch topic
// if it does not exist yet. Safe to call from both the API and the worker.
func EnsureTopic(ctx context.Context, cfg *config.KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	partitions := cfg.Partitions
	if partitions <= 0 {
		partitions = 1
	}
	replication := cfg.ReplicationFactor
	if replication <= 0 {
		replication = 1
	}

	broker := cfg.Brokers[0]
	if err := waitForBroker(ctx, broker); err != nil {
		return err
	}

	client := &kafkago.Client{Addr: kafkago.TCP(cfg.Brokers...)}
	resp, err := client.CreateTopics(ctx, &kafkago.CreateTopicsRequest{
		Topics: []kafkago.TopicConfig{
			{
				Topic:             cfg.Topic,
				NumPartitions:     partitions,
				ReplicationFactor: replication,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create topic %s: %w", cfg.Topic, err)
	}

	for topic, topicErr := range resp.Errors {
		if topicErr != nil && topicErr != kafkago.TopicAlreadyExists {
			return fmt.Errorf("create topic %s: %w", topic, topicErr)
		}
	}

	zlog.Logger.Info().
		Str("topic", cfg.Topic).
		Int("partitions", partitions).
		Msg("Kafka topic ready")
	return nil
}

func waitForBroker(ctx context.Context, broker string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		conn, err := kafkago.Dial("tcp", broker)
		if err == nil {
			conn.Close()
			return nil
		}

		zlog.Logger.Warn().
			Err(err).
			Str("broker", broker).
			Msg("Kafka broker not reachable yet")

		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for kafka broker %s: %w", broker, ctx.Err())
		case <-ticker.C:
		}
	}
}
