package main

import (
	"context"
	"fmt"
	"time"

	"github.com/UnendingLoop/ImageOrchestrator/internal/appconfig"
	"github.com/UnendingLoop/ImageOrchestrator/internal/client"
	"github.com/UnendingLoop/ImageOrchestrator/internal/kafka"
	"github.com/UnendingLoop/ImageOrchestrator/internal/repository"
	"github.com/UnendingLoop/ImageOrchestrator/internal/retrieval"
	"github.com/UnendingLoop/ImageOrchestrator/internal/service"
	"github.com/UnendingLoop/ImageOrchestrator/internal/storage"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

// app holds the wired service and everything that has to be closed on exit
type app struct {
	svc     *service.ImageService
	closers []func()
}

// newApp connects every integration that is configured. A configured integration
// that cannot be reached is an error, not a silent downgrade.
func newApp(ctx context.Context, cfg *appconfig.Config) (*app, error) {
	a := &app{}
	cl := client.New(cfg.ClientOptions())

	var repo repository.HistoryRepo
	if cfg.HistoryEnabled() {
		// подключитсья к базе
		dbConn, err := repository.ConnectWithRetries(cfg.PostgresDSN, 3, 2*time.Second)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := dbConn.Master.Close(); err != nil {
				zlog.Logger.Warn().Err(err).Msg("Failed to close DB-conn correctly")
			}
		})
		// накатываем миграцию
		if err := repository.MigrateWithRetries(dbConn.Master, cfg.MigrationsPath, 3, 2*time.Second); err != nil {
			a.Close()
			return nil, err
		}
		repo = repository.NewPostgresHistoryRepo(dbConn)
	}

	var pub service.EventPublisher
	if cfg.EventsEnabled() {
		waitCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		// ждем пока кафка раздуплится
		if err := kafka.WaitKafkaReady(waitCtx, cfg.KafkaBroker, time.Second); err != nil {
			a.Close()
			return nil, err
		}
		if err := kafka.EnsureTopics(waitCtx, cfg.KafkaBroker, 2*time.Second, cfg.KafkaTopic); err != nil {
			a.Close()
			return nil, err
		}
		producer := wbfkafka.NewProducer([]string{cfg.KafkaBroker}, cfg.KafkaTopic)
		a.closers = append(a.closers, func() {
			if err := producer.Close(); err != nil {
				zlog.Logger.Warn().Err(err).Msg("Failed to close Kafka-producer")
			}
		})
		pub = producer
	}

	var arch service.ResultArchive
	if cfg.ArchiveEnabled() {
		// подключиться к хранилищу
		strg, err := storage.NewResultArchive(ctx, cfg.Minio, 3, 2*time.Second)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("result archive: %w", err)
		}
		arch = strg
	}

	a.svc = service.NewImageService(cl, repo, pub, arch, retrieval.New(cl, cfg.DownloadDir), cfg.Limits())
	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
