package main

import (
	"io"

	listingshandler "staybook/internal/listings/handler"
	listingsrepository "staybook/internal/listings/repository"
	listingsservice "staybook/internal/listings/service"
	"staybook/internal/reservations/events"
	"staybook/internal/reservations/handler"
	"staybook/internal/reservations/locker"
	"staybook/internal/reservations/repository"
	"staybook/internal/reservations/service"
	"staybook/internal/reservations/validator"
	"staybook/internal/reservations/worker"
	"staybook/pkg/app"
	"staybook/pkg/config"
	"staybook/pkg/contracts"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
	kafka_middleware "staybook/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	defer cfg.GracefulShutdown()

	if cfg.NeedsMongo() {
		cfg.SetMongo()
	}
	if cfg.LockBackend == config.LockRedis {
		cfg.SetRedis()
	}

	publisher, closer := initPublisher(cfg)
	if closer != nil {
		defer func() {
			if err := closer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		}()
	}

	cfg.Log.Info("Starting Reservations service")
	listingService := initListings(cfg)
	// The memory backend starts with an empty catalog, so admission there
	// skips the resource lookup.
	var resources service.ResourceLookup
	if cfg.StoreBackend != config.StoreMemory {
		resources = listingService
	}
	reservationService := initServices(cfg, resources, publisher)

	sweeper := worker.NewCompletionSweeper(reservationService, cfg.CompletionSweepInterval, cfg.WriteTimeout, cfg.Log)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, cfg.Client, []contracts.Worker{sweeper},
		handler.NewReservationHandler(reservationService, cfg.Log),
		listingshandler.NewListingHandler(listingService, cfg.Log),
	)
	serverApp.Run()
}

func initListings(cfg *config.Config) listingsservice.ListingService {
	var repo listingsrepository.ListingRepository
	if cfg.StoreBackend == config.StoreMemory {
		repo = listingsrepository.NewMemoryRepository()
	} else {
		repo = listingsrepository.NewMongoListingRepository(cfg)
	}
	return listingsservice.NewListingService(repo, cfg.Log)
}

func initServices(cfg *config.Config, resources service.ResourceLookup, publisher events.Publisher) service.ReservationService {
	var repo repository.ReservationRepository
	if cfg.StoreBackend == config.StoreMemory {
		repo = repository.NewMemoryRepository(cfg.OverlapPolicy)
	} else {
		repo = repository.NewMongoReservationRepository(cfg)
	}

	reservationValidator := validator.NewReservationValidator(repo, cfg.Log)
	reservationService := service.NewReservationService(
		repo,
		initLocker(cfg),
		reservationValidator,
		resources,
		publisher,
		cfg,
	)

	cfg.Log.Info("Reservation service initialized",
		"store_backend", cfg.StoreBackend,
		"lock_backend", cfg.LockBackend,
		"overlap_mode", cfg.OverlapPolicy.String(),
	)
	return reservationService
}

func initLocker(cfg *config.Config) locker.Locker {
	switch cfg.LockBackend {
	case config.LockRedis:
		return locker.NewRedisLocker(cfg.Client.Redis, cfg.LockWaitTimeout, cfg.LockTTL, cfg.Log)
	case config.LockMongo:
		return locker.NewMongoLocker(repository.NewReservationLockRepository(cfg), cfg.LockWaitTimeout, cfg.LockTTL, cfg.Log)
	default:
		return locker.NewKeyedMutex(cfg.LockWaitTimeout)
	}
}

func initPublisher(cfg *config.Config) (events.Publisher, io.Closer) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled, reservation events are not published")
		return events.NopPublisher{}, nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaReservationTopic, cfg.KafkaReservationDLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	return events.NewKafkaPublisher(producer, ServiceName), producer
}
