package app

import (
	"context"
	"net"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/book-service/book/config"
	"github.com/Astemirdum/book-service/book/internal/handler"
	"github.com/Astemirdum/book-service/book/internal/publisher"
	"github.com/Astemirdum/book-service/book/internal/repository"
	"github.com/Astemirdum/book-service/book/internal/server"
	"github.com/Astemirdum/book-service/book/internal/service"
	"github.com/Astemirdum/book-service/book/internal/service/category"
	"github.com/Astemirdum/book-service/book/migrations"
	cb "github.com/Astemirdum/book-service/pkg/circuit_breaker"
	"github.com/Astemirdum/book-service/pkg/kafka"
	"github.com/Astemirdum/book-service/pkg/logger"
	"github.com/Astemirdum/book-service/pkg/postgres"
)

// Run serves the book API until ctx is cancelled or a termination signal arrives.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "book")
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := newRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	var producer sarama.SyncProducer
	if cfg.Kafka.Enabled() {
		if producer, err = kafka.NewProducer(cfg.Kafka); err != nil {
			return errors.Wrap(err, "kafka.NewProducer")
		}
	} else {
		log.Warn("kafka is disabled, book events are not published")
	}
	events := publisher.New(producer, kafka.BookEventsTopic, log)
	defer func() { _ = events.Close() }()

	categories := category.NewService(log, cfg.Category, cb.New(cfg.CircuitBreaker))
	svc := service.NewService(repo, categories, events, log)

	h := handler.New(svc, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Info("http server start ON: ",
			zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
		return srv.Run()
	})

	if cfg.Kafka.Enabled() {
		group, err := kafka.NewConsumer(cfg.Kafka, kafka.BookConsumerGroup)
		if err != nil {
			return errors.Wrap(err, "kafka.NewConsumer")
		}
		consumer := handler.NewConsumer(svc.AvailableCount, log)
		eg.Go(func() error {
			return kafka.Consume(egCtx, group, consumer, kafka.InventoryTopic)
		})
		go func() {
			select {
			case <-consumer.Ready():
				log.Info("kafka consumer up and running", zap.String("topic", kafka.InventoryTopic))
			case <-egCtx.Done():
			}
		}()
		eg.Go(func() error {
			<-egCtx.Done()
			return group.Close()
		})
	}

	eg.Go(func() error {
		<-egCtx.Done()
		log.Debug("Graceful shutdown")

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := eg.Wait(); err != nil {
		log.Error("book service stopped", zap.Error(err))
		return err
	}
	log.Info("Graceful shutdown finished")
	return nil
}

func newRepository(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Repository, func(), error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage")
		return repository.NewMemoryRepository(log), func() {}, nil
	case config.StoragePostgres, "":
		db, err := postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
		if err != nil {
			return nil, nil, errors.Wrap(err, "db init")
		}
		repo, err := repository.NewRepository(db, log)
		if err != nil {
			_ = db.Close()
			return nil, nil, errors.Wrap(err, "repo")
		}
		return repo, func() { closeDB(db, log) }, nil
	}
	return nil, nil, errors.Errorf("unknown storage %q", cfg.Storage)
}

func closeDB(db *sqlx.DB, log *zap.Logger) {
	if err := db.Close(); err != nil {
		log.Error("db.Close", zap.Error(err))
	}
}
