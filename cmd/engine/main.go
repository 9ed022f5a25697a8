package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/smukkama/symptom-intel/internal/api"
	"github.com/smukkama/symptom-intel/internal/database"
	"github.com/smukkama/symptom-intel/internal/engine"
	"github.com/smukkama/symptom-intel/internal/escalation"
	"github.com/smukkama/symptom-intel/internal/logger"
	"github.com/smukkama/symptom-intel/internal/notification"
	"github.com/smukkama/symptom-intel/internal/outbreak"
	"github.com/smukkama/symptom-intel/internal/queue"
	"github.com/smukkama/symptom-intel/internal/redisstore"
	"github.com/smukkama/symptom-intel/internal/retention"
	"github.com/smukkama/symptom-intel/internal/store/memory"
	"github.com/smukkama/symptom-intel/internal/taxonomy"
	"github.com/smukkama/symptom-intel/internal/timer"
	"github.com/smukkama/symptom-intel/internal/triage"
	"github.com/smukkama/symptom-intel/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.HashSalt)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting symptom intelligence engine",
		"store", cfg.Store.Backend,
		"outbreakStore", cfg.Store.OutbreakBackend,
		"transport", cfg.Notification.Transport)

	catalog, err := taxonomy.Load(cfg.Taxonomy.CatalogPath)
	if err != nil {
		log.Fatal("failed to load taxonomy", "error", err)
	}
	directory, err := escalation.LoadDirectory(cfg.Taxonomy.WorkersPath)
	if err != nil {
		log.Fatal("failed to load health worker directory", "error", err)
	}
	renderer, err := notification.NewRenderer()
	if err != nil {
		log.Fatal("failed to parse message templates", "error", err)
	}

	stores, closeStores, err := buildStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to initialize stores", "error", err)
	}
	defer closeStores()

	gateway, closeGateway := buildGateway(cfg, log)
	defer closeGateway()

	dispatcher := notification.NewDispatcher(gateway,
		cfg.Notification.Workers,
		cfg.Notification.QueueSize,
		cfg.Notification.SendTimeout,
		log)
	dispatcher.Start()
	defer dispatcher.Stop()

	workflow := escalation.NewWorkflow(stores.Escalations, directory, renderer, dispatcher, cfg.Notification.WorkerCap, log)
	detector := outbreak.NewDetector(catalog, stores.Reports, stores.Outbreaks, stores.Subscribers,
		renderer, dispatcher, cfg.Notification.SubscriberCap, log)
	eng := engine.New(triage.NewClassifier(catalog), workflow, detector, renderer, stores, log)

	scheduler := timer.NewScheduler(2, log)
	scheduler.Start()
	defer scheduler.Stop()

	sweeper := retention.NewSweeper(stores.Reports, detector, catalog.MaxWindow(), cfg.Retention.ReevaluateParallel, log)
	if err := sweeper.Register(scheduler, cfg.Retention.SweepInterval, cfg.Retention.ReevaluateInterval); err != nil {
		log.Fatal("failed to schedule retention", "error", err)
	}

	if cfg.Kafka.IngestEnabled {
		if err := queue.EnsureTopic(cfg.Kafka.Brokers, cfg.Kafka.TopicReports, cfg.Kafka.NumPartitions, 1, log); err != nil {
			log.Warn("topic creation failed (may already exist)", "topic", cfg.Kafka.TopicReports, "error", err)
		}
		consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReports, cfg.Kafka.ConsumerGroup)
		defer consumer.Close()

		ingester := queue.NewReportIngester(consumer, eng, log)
		go func() {
			if err := ingester.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("report ingest stopped", "error", err)
			}
		}()
	}

	gin.SetMode(cfg.Server.GinMode)
	router := api.NewRouter(api.RouterConfig{
		Handler:      api.NewHandler(eng, log),
		Logger:       log,
		AllowOrigins: cfg.Server.AllowOrigins,
	})
	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: router,
	}

	go func() {
		log.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
}

// buildStores wires the configured backends. The outbreak registry may live
// in Redis while the other stores stay in memory or PostgreSQL.
func buildStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (engine.Stores, func(), error) {
	stores := engine.Stores{
		Reports:     memory.NewReportStore(),
		Outbreaks:   memory.NewOutbreakRegistry(),
		Escalations: memory.NewEscalationStore(),
		Subscribers: memory.NewSubscriberRegistry(),
	}
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Store.Backend == config.BackendPostgres || cfg.Store.OutbreakBackend == config.BackendPostgres {
		db, err := database.Connect(ctx, cfg.Database.ConnectionString())
		if err != nil {
			return stores, closeAll, err
		}
		closers = append(closers, func() { db.Close() })
		log.Info("connected to database", "host", cfg.Database.Host, "db", cfg.Database.DBName)

		if err := db.RunMigrations(ctx, cfg.Database.MigrationsDir, log); err != nil {
			closeAll()
			return stores, func() {}, err
		}
		if cfg.Store.Backend == config.BackendPostgres {
			stores.Reports = database.NewReportStore(db)
			stores.Escalations = database.NewEscalationStore(db)
			stores.Subscribers = database.NewSubscriberRegistry(db)
		}
		if cfg.Store.OutbreakBackend == config.BackendPostgres {
			stores.Outbreaks = database.NewOutbreakRegistry(db)
		}
	}

	if cfg.Store.OutbreakBackend == config.BackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		registry := redisstore.NewOutbreakRegistry(client)
		if err := registry.Ping(ctx); err != nil {
			client.Close()
			closeAll()
			return stores, func() {}, err
		}
		closers = append(closers, func() { client.Close() })
		stores.Outbreaks = registry
		log.Info("connected to redis", "addr", cfg.Redis.Addr)
	}

	return stores, closeAll, nil
}

func buildGateway(cfg *config.Config, log *logger.Logger) (notification.Gateway, func()) {
	switch cfg.Notification.Transport {
	case config.TransportKafka:
		if err := queue.EnsureTopic(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications, cfg.Kafka.NumPartitions, 1, log); err != nil {
			log.Warn("topic creation failed (may already exist)", "topic", cfg.Kafka.TopicNotifications, "error", err)
		}
		producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotifications)
		return notification.NewKafkaGateway(producer), func() { producer.Close() }
	case config.TransportSMS:
		return notification.NewSMSGateway(&cfg.SMS, cfg.Notification.SendTimeout), func() {}
	default:
		return notification.NewLogGateway(log), func() {}
	}
}
