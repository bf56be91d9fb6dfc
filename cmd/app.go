package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Koyo-os/questionnaire-service/internal/console"
	"github.com/Koyo-os/questionnaire-service/internal/editor"
	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/internal/repository"
	"github.com/Koyo-os/questionnaire-service/internal/service"
	"github.com/Koyo-os/questionnaire-service/internal/session"
	"github.com/Koyo-os/questionnaire-service/pkg/closer"
	"github.com/Koyo-os/questionnaire-service/pkg/config"
	"github.com/Koyo-os/questionnaire-service/pkg/health"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"github.com/Koyo-os/questionnaire-service/pkg/metrics"
	"github.com/Koyo-os/questionnaire-service/pkg/retrier"
	"github.com/Koyo-os/questionnaire-service/pkg/transport/casher"
	"github.com/Koyo-os/questionnaire-service/pkg/transport/consumer"
	"github.com/Koyo-os/questionnaire-service/pkg/transport/listener"
	"github.com/Koyo-os/questionnaire-service/pkg/transport/publisher"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const eventBuffer = 64

func run(ctx context.Context, cfg *config.Config) error {
	logCfg := logger.Config{
		LogFile:   cfg.Log.File,
		LogLevel:  cfg.Log.Level,
		AppName:   cfg.App.Name,
		AddCaller: cfg.Log.AddCaller,
	}
	if err := logger.Init(logCfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	log := logger.Get()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	closers := closer.NewCloserGroup()
	defer func() {
		if err := closers.Close(); err != nil {
			log.Error("error close resources", zap.Error(err))
		}
	}()

	checker := health.NewHealthChecker(log.Named("health"))
	reg := prometheus.NewRegistry()
	m := metrics.InitMetrics(reg)
	checker.Handle("/metrics", m.Handler())

	retry := retrier.Opts{Count: cfg.Retry.Count, Interval: cfg.Retry.Interval}

	repo, err := openRepository(ctx, cfg, log, retry, checker, closers)
	if err != nil {
		return err
	}

	var cache service.Casher
	if cfg.Urls.Redis != "" {
		client, err := retrier.Connect(ctx, retry, func() (*redis.Client, error) {
			return casher.Dial(ctx, cfg.Urls.Redis)
		})
		if err != nil {
			log.Error("error connect to redis", zap.Error(err))
			return err
		}
		c := casher.Init(client, log.Named("casher"), cfg.Cache.TTL)
		closers.Add(c)
		checker.Add("cache", c)
		cache = c
	}

	var (
		pub      service.Publisher
		consumed *consumer.Consumer
	)
	if cfg.Urls.Rabbitmq != "" {
		pubConn, err := dialBroker(ctx, cfg, retry)
		if err != nil {
			log.Error("error connect to rabbitmq", zap.Error(err))
			return err
		}
		p, err := publisher.Init(cfg, log.Named("publisher"), pubConn)
		if err != nil {
			return err
		}
		closers.Add(p)
		checker.Add("publisher", p)
		pub = p

		consConn, err := dialBroker(ctx, cfg, retry)
		if err != nil {
			log.Error("error connect to rabbitmq", zap.Error(err))
			return err
		}
		if consumed, err = consumer.Init(cfg, log.Named("consumer"), consConn); err != nil {
			return err
		}
		closers.Add(consumed)
		checker.Add("consumer", consumed)
	}

	svc := service.Init(cache, repo, pub, log.Named("service"), cfg.Cache.Timeout)
	svc.SetMetrics(m)

	ctrl := session.Init(svc, editor.New(), log.Named("session"), cfg.App.BaseURL)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Health.Port != "" {
		g.Go(func() error {
			return checker.Serve(gctx, cfg.Health.Port)
		})
	}

	if consumed != nil {
		events := make(chan entity.Event, eventBuffer)
		l := listener.Init(events, log.Named("listener"), svc)
		l.SetMetrics(m)

		g.Go(func() error {
			return consumed.ConsumeMessages(gctx, events)
		})
		g.Go(func() error {
			return l.Listen(gctx)
		})
	}

	g.Go(func() error {
		// the process ends with the session
		defer stop()
		return console.Init(ctrl, log.Named("console")).Run(gctx, os.Stdin, os.Stdout)
	})

	log.Info("questionnaire service started",
		zap.String("store", cfg.Store.Driver),
		zap.Bool("cache", cache != nil),
		zap.Bool("events", pub != nil))

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("service stopped with error", zap.Error(err))
		return err
	}

	log.Info("questionnaire service stopped")
	return nil
}

// openRepository builds the configured persistence backend. SQL stores are
// seeded with the demo form when it is missing.
func openRepository(ctx context.Context, cfg *config.Config, log *logger.Logger, retry retrier.Opts, checker *health.HealthChecker, closers *closer.CloserGroup) (service.Repository, error) {
	demo := repository.DemoForm(cfg.App.DemoOwner)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		return repository.NewMemory(demo), nil

	case config.DriverFile:
		repo, err := repository.OpenFile(cfg.Store.SnapshotPath, log.Named("repository"), demo)
		if err != nil {
			log.Error("error open snapshot",
				zap.String("path", cfg.Store.SnapshotPath),
				zap.Error(err))
			return nil, err
		}
		return repo, nil
	}

	repo, err := retrier.Connect(ctx, retry, func() (*repository.Repository, error) {
		db, err := repository.OpenDB(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		return repository.Init(db, log.Named("repository"))
	})
	if err != nil {
		log.Error("error connect to database",
			zap.String("driver", cfg.Store.Driver),
			zap.Error(err))
		return nil, err
	}
	closers.Add(repo)
	checker.Add("database", repo)

	if _, err := repo.GetForm(ctx, demo.ID); errors.Is(err, entity.ErrNotFound) {
		if err := repo.SaveForm(ctx, demo); err != nil {
			log.Warn("error seed demo form", zap.Error(err))
		}
	}

	return repo, nil
}

// dialBroker opens one RabbitMQ connection, retrying while the broker starts
func dialBroker(ctx context.Context, cfg *config.Config, retry retrier.Opts) (*amqp.Connection, error) {
	return retrier.Connect(ctx, retry, func() (*amqp.Connection, error) {
		return amqp.Dial(cfg.Urls.Rabbitmq)
	})
}
