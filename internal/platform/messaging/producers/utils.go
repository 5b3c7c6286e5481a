package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type topicRetry struct {
	attempts int
	backoff  time.Duration
}

var defaultTopicRetry = topicRetry{attempts: 5, backoff: 2 * time.Second}

// ensureTopic creates topic unless its partitions can be read. Reads are
// retried because a broker that just started may not answer metadata yet.
func ensureTopic(admin topicAdmin, topic string, numPartitions, replicationFactor int, log *slog.Logger, retry topicRetry) error {
	var (
		partitions []kafka.Partition
		err        error
	)
	for i := 0; i < retry.attempts; i++ {
		partitions, err = admin.ReadPartitions(topic)
		if err == nil && len(partitions) > 0 {
			log.Info("Kafka topic already exists", "topic", topic, "partitions", len(partitions))
			return nil
		}
		log.Warn("Failed to read partitions, retrying", "topic", topic, "attempt", i+1, "error", err)
		if i < retry.attempts-1 {
			time.Sleep(retry.backoff)
		}
	}

	cfg := kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     max(numPartitions, 1),
		ReplicationFactor: max(replicationFactor, 1),
	}
	if err := admin.CreateTopics(cfg); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	log.Info("Created Kafka topic", "topic", topic, "partitions", cfg.NumPartitions)
	return nil
}
