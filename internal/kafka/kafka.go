// Package kafka provides methods for initiating the result-events topic and a kafka readiness-probing
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"
)

// EnsureTopics creates topics in kafka; topics that already exist count as created.
func EnsureTopics(ctx context.Context, brokerAddr string, delay time.Duration, topics ...string) error {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(brokerAddr),
		Timeout: 10 * time.Second,
	}

	req := kafkago.CreateTopicsRequest{
		Topics: make([]kafkago.TopicConfig, 0, len(topics)),
	}

	for _, t := range topics {
		req.Topics = append(req.Topics, kafkago.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}

	for {
		resp, err := client.CreateTopics(ctx, &req)
		if err == nil {
			failed := failedTopics(resp.Errors)
			if len(failed) == 0 {
				zlog.Logger.Info().Strs("topics", topics).Msg("All topics are ready")
				return nil
			}
			err = fmt.Errorf("topics not created: %v", failed)
		}
		zlog.Logger.Warn().Err(err).Dur("wait", delay).Msg("Failed to run topics creation request")

		select {
		case <-ctx.Done():
			return fmt.Errorf("ensure topics: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}

func failedTopics(errs map[string]error) map[string]error {
	failed := make(map[string]error)
	for topic, err := range errs {
		if err == nil || errors.Is(err, kafkago.TopicAlreadyExists) {
			continue
		}
		failed[topic] = err
	}
	return failed
}

// WaitKafkaReady blocks until the broker accepts connections or ctx is done
func WaitKafkaReady(ctx context.Context, brokerAddr string, interval time.Duration) error {
	var dialer kafkago.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "tcp", brokerAddr)
		if err == nil {
			if errConn := conn.Close(); errConn != nil {
				zlog.Logger.Warn().Err(errConn).Msg("Failed to close connection after testing Kafka readiness")
			}
			zlog.Logger.Info().Str("broker", brokerAddr).Msg("Kafka is ready!")
			return nil
		}
		zlog.Logger.Warn().Err(err).Dur("wait", interval).Msg("Kafka not ready")

		select {
		case <-ctx.Done():
			return fmt.Errorf("wait kafka: %w", ctx.Err())
		case <-time.After(interval):
		}
	}
}
