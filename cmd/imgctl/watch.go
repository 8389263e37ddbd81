package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/appconfig"
	"github.com/UnendingLoop/ImageOrchestrator/internal/kafka"
	"github.com/UnendingLoop/ImageOrchestrator/internal/model"
	"github.com/UnendingLoop/ImageOrchestrator/internal/worker"
	kafkago "github.com/segmentio/kafka-go"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// eventPrinter writes every result event as one JSON line
type eventPrinter struct {
	enc *json.Encoder
}

func (p eventPrinter) HandleEvent(ctx context.Context, ev *model.ResultEvent) error {
	return p.enc.Encode(ev)
}

func runWatch(ctx context.Context, cfg *appconfig.Config, args []string, out io.Writer) error {
	if !cfg.EventsEnabled() {
		return errors.New("KAFKA_BROKER is not set")
	}

	// ждем пока кафка раздуплится
	if err := kafka.WaitKafkaReady(ctx, cfg.KafkaBroker, 2*time.Second); err != nil {
		return err
	}

	queue := make(chan kafkago.Message)
	retryStrategy := retry.Strategy{
		Attempts: 5,
		Delay:    2 * time.Second,
		Backoff:  1.5,
	}
	cons := wbfkafka.NewConsumer([]string{cfg.KafkaBroker}, cfg.KafkaTopic, cfg.KafkaGroupID)
	cons.StartConsuming(ctx, queue, retryStrategy)

	commit := worker.CommitFunc(func(ctx context.Context, msg kafkago.Message) error {
		return cons.Commit(ctx, msg)
	})
	w := worker.NewWorkerInstance(eventPrinter{enc: json.NewEncoder(out)}, queue, commit)

	zlog.Logger.Info().Str("topic", cfg.KafkaTopic).Msg("Watching result events...")
	w.StartWorker(ctx)

	// Closing Kafka connection:
	if err := cons.Close(); err != nil {
		zlog.Logger.Warn().Err(err).Msg("Failed to close Kafka-reader")
	}
	return nil
}
