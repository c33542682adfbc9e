package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stayloop/internal/app/commands"
	bookingapp "stayloop/internal/app/handlers/booking"
	listingapp "stayloop/internal/app/handlers/listings"
	meapp "stayloop/internal/app/handlers/me"
	reviewsapp "stayloop/internal/app/handlers/reviews"
	"stayloop/internal/app/middleware"
	appoutbox "stayloop/internal/app/outbox"
	"stayloop/internal/app/policies"
	"stayloop/internal/app/queries"
	authsvc "stayloop/internal/app/services/auth"
	"stayloop/internal/app/sweep"
	"stayloop/internal/app/uow"
	domainauth "stayloop/internal/domain/auth"
	domainbooking "stayloop/internal/domain/booking"
	domainpricing "stayloop/internal/domain/pricing"
	domainuser "stayloop/internal/domain/user"
	"stayloop/internal/infra/broker/kafka"
	chatlog "stayloop/internal/infra/chat/log"
	"stayloop/internal/infra/config"
	"stayloop/internal/infra/db/mongo"
	ginserver "stayloop/internal/infra/http/gin"
	notifyfcm "stayloop/internal/infra/notify/fcm"
	notifylog "stayloop/internal/infra/notify/log"
	"stayloop/internal/infra/obs"
	outboxinfra "stayloop/internal/infra/outbox"
	"stayloop/internal/infra/security"
	"stayloop/internal/infra/storage/memory"
	"stayloop/internal/infra/storage/redis"
	"stayloop/internal/infra/storage/s3"
	"stayloop/internal/infra/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	defer app.close(logger)

	app.startBackground(ctx, cfg, logger)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	sweeper  *sweep.Sweeper

	mongoClient *mongo.Client
	idemStore   *redis.IdempotencyStore
	sessions    *redis.SessionStore
	producer    *kafka.Producer
	consumer    *kafka.Consumer
	worker      *outboxinfra.Worker
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{}

	var (
		factory  uow.UoWFactory
		box      appoutbox.Outbox
		idem     middleware.IdempotencyStore
		sessions domainauth.SessionStore
		users    domainuser.Repository
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongo.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("mongo connect: %w", err)
		}
		app.mongoClient = client

		usersRepo := mongo.NewUserRepository(client.DB)
		users = usersRepo
		factory = mongo.Factory{
			DB:           client.DB,
			ListingsRepo: mongo.NewListingRepository(client.DB),
			BookingRepo:  mongo.NewBookingRepository(client.DB),
			ReviewsRepo:  mongo.NewReviewRepository(client.DB),
			UsersRepo:    usersRepo,
		}

		store := outboxinfra.NewStore(client.DB)
		box = store

		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR is required when STORAGE_MODE=mongo")
		}
		app.idemStore = redis.NewIdempotencyStore(cfg.RedisAddr, cfg.RedisPassword, cfg.IdempotencyTTL)
		idem = app.idemStore
		app.sessions = redis.NewSessionStore(cfg.RedisAddr, cfg.RedisPassword)
		sessions = app.sessions

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return nil, fmt.Errorf("kafka producer: %w", err)
			}
			app.producer = producer
			app.worker = &outboxinfra.Worker{
				Store:       store,
				Producer:    producer,
				Logger:      logger,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
			}
		} else {
			logger.Warn("no kafka brokers configured, outbox events stay queued")
		}
	default:
		usersRepo := memory.NewUserRepository()
		users = usersRepo
		factory = memory.Factory{
			ListingsRepo: memory.NewListingRepository(),
			BookingRepo:  memory.NewBookingRepository(),
			ReviewsRepo:  memory.NewReviewsRepository(),
			UsersRepo:    usersRepo,
		}
		box = memory.NewOutbox(func(ctx context.Context, record appoutbox.EventRecord) error {
			logger.Info("event published", "event", record.Name, "aggregate", record.Aggregate)
			return nil
		})
		idem = memory.NewIdempotencyStore()
		sessions = memory.NewSessionStore()
	}

	var notifier policies.Notifier
	if cfg.FCMCredentialsFile != "" {
		fcmNotifier, err := notifyfcm.NewNotifier(ctx, cfg.FCMCredentialsFile, users, logger)
		if err != nil {
			return nil, fmt.Errorf("fcm notifier: %w", err)
		}
		notifier = fcmNotifier
	} else {
		notifier = notifylog.NewNotifier(logger)
	}

	var uploader policies.Uploader = s3.NoopUploader{}
	if cfg.StorageMode == "mongo" {
		s3Client, err := s3.NewClient(cfg.S3Endpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicEndpoint, logger)
		if err != nil {
			logger.Warn("object storage unavailable, photo uploads disabled", "error", err)
		} else {
			uploader = s3Client
		}
	}

	chat := chatlog.NewRelay(logger)
	calculator := domainpricing.Calculator{Policy: domainpricing.FeePolicy{
		ServiceFeeRate: cfg.ServiceFeeRate,
		TaxRate:        cfg.TaxRate,
	}}
	refundPolicy := domainbooking.RefundPolicy{
		FullRefundDays: cfg.FullRefundDays,
		HalfRefundDays: cfg.HalfRefundDays,
	}
	encoder := appoutbox.JSONEventEncoder{}

	app.sweeper = sweep.New(factory, box, logger)
	if app.worker != nil {
		if consumer, err := buildSweepConsumer(cfg, app.sweeper, logger); err != nil {
			logger.Warn("sweep consumer unavailable", "error", err)
		} else {
			app.consumer = consumer
		}
	}

	authService := &authsvc.Service{
		Users:      users,
		Sessions:   sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	commandBus := commands.NewInMemoryBus()
	queryBus := queries.NewInMemoryBus()

	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory: factory,
		Calculator: calculator,
		Notifier:   notifier,
		Chat:       chat,
		Outbox:     box,
		Encoder:    encoder,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.ConfirmBookingCommand{}.Key(), &bookingapp.ConfirmBookingHandler{
		Notifier: notifier,
		Outbox:   box,
		Encoder:  encoder,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.RejectBookingCommand{}.Key(), &bookingapp.RejectBookingHandler{
		Notifier: notifier,
		Outbox:   box,
		Encoder:  encoder,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		Policy:   refundPolicy,
		Notifier: notifier,
		Outbox:   box,
		Encoder:  encoder,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.CompleteBookingCommand{}.Key(), &bookingapp.CompleteBookingHandler{
		Notifier: notifier,
		Outbox:   box,
		Encoder:  encoder,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, listingapp.CreateHostListingCommand{}.Key(), &listingapp.CreateHostListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.UpdateHostListingCommand{}.Key(), &listingapp.UpdateHostListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.ActivateHostListingCommand{}.Key(), &listingapp.ActivateHostListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.DeactivateHostListingCommand{}.Key(), &listingapp.DeactivateHostListingHandler{Logger: logger})
	commands.RegisterHandler(commandBus, listingapp.UploadHostListingPhotoCommand{}.Key(), &listingapp.UploadHostListingPhotoHandler{
		Uploader: uploader,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, listingapp.RemoveHostListingPhotoCommand{}.Key(), &listingapp.RemoveHostListingPhotoHandler{
		Uploader: uploader,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, reviewsapp.SubmitReviewCommand{}.Key(), &reviewsapp.SubmitReviewHandler{
		UoWFactory: factory,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, reviewsapp.RespondToReviewCommand{}.Key(), &reviewsapp.RespondToReviewHandler{Logger: logger})
	commands.RegisterHandler(commandBus, reviewsapp.DeleteReviewCommand{}.Key(), &reviewsapp.DeleteReviewHandler{Logger: logger})
	commands.RegisterHandler(commandBus, meapp.UpdateProfileCommand{}.Key(), &meapp.UpdateProfileHandler{Logger: logger})
	commands.RegisterHandler(commandBus, meapp.ToggleFavoriteCommand{}.Key(), &meapp.ToggleFavoriteHandler{Logger: logger})
	commands.RegisterHandler(commandBus, meapp.SetFCMTokenCommand{}.Key(), &meapp.SetFCMTokenHandler{Logger: logger})

	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.CheckAvailabilityQuery{}.Key(), &bookingapp.CheckAvailabilityHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.OccupiedDatesQuery{}.Key(), &bookingapp.OccupiedDatesHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, bookingapp.ListHostBookingsQuery{}.Key(), &bookingapp.ListHostBookingsHandler{
		UoWFactory: factory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, bookingapp.HostBookingStatsQuery{}.Key(), &bookingapp.HostBookingStatsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingapp.SearchCatalogQuery{}.Key(), &listingapp.SearchCatalogHandler{
		UoWFactory: factory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, listingapp.GetListingOverviewQuery{}.Key(), &listingapp.GetListingOverviewHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, listingapp.ListHostListingsQuery{}.Key(), &listingapp.ListHostListingsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, reviewsapp.ListListingReviewsQuery{}.Key(), &reviewsapp.ListListingReviewsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, reviewsapp.ListUserReviewsQuery{}.Key(), &reviewsapp.ListUserReviewsHandler{UoWFactory: factory})
	queries.RegisterHandler(queryBus, meapp.ListGuestBookingsQuery{}.Key(), &meapp.ListGuestBookingsHandler{
		UoWFactory: factory,
		Sweeper:    app.sweeper,
		Logger:     logger,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(validation.New()),
		middleware.Idempotency(idem, nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	authMW := ginserver.AuthMiddleware{Service: authService, Logger: logger}
	app.handlers = ginserver.Handlers{
		Booking: ginserver.BookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Logger:   logger,
		},
		Availability: ginserver.AvailabilityHandler{
			Queries: queryBusWithMiddleware,
			Logger:  logger,
		},
		Listing: ginserver.ListingHandler{
			Queries: queryBusWithMiddleware,
			Logger:  logger,
		},
		HostListing: ginserver.HostListingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Logger:   logger,
		},
		HostBooking: ginserver.HostBookingHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Logger:   logger,
		},
		Reviews: ginserver.ReviewsHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Logger:   logger,
		},
		Auth: ginserver.AuthHandler{
			Service: authService,
			Logger:  logger,
		},
		Me: ginserver.MeHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Logger:   logger,
		},
		AuthMiddleware: authMW.Handle,
	}
	return app, nil
}

func buildSweepConsumer(cfg config.Config, sweeper *sweep.Sweeper, logger *slog.Logger) (*kafka.Consumer, error) {
	trigger := &kafka.SweepTrigger{Sweeper: sweeper, Logger: logger}
	return kafka.NewConsumer(cfg.KafkaBrokers, "stayloop-sweeper", nil, trigger)
}

func (a *application) startBackground(ctx context.Context, cfg config.Config, logger *slog.Logger) {
	go a.sweeper.Run(ctx, cfg.SweepInterval)

	if a.worker != nil {
		go func() {
			if err := a.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}
	if a.consumer != nil {
		topic := cfg.KafkaTopicPrefix + "booking.events.v1"
		go func() {
			if err := a.consumer.Run(ctx, []string{topic}); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("sweep consumer stopped", "error", err)
			}
		}()
	}
}

func (a *application) ready() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if a.mongoClient != nil {
		if err := a.mongoClient.Ping(ctx); err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
	}
	if a.idemStore != nil {
		if err := a.idemStore.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

func (a *application) close(logger *slog.Logger) {
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			logger.Warn("consumer close failed", "error", err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Warn("producer close failed", "error", err)
		}
	}
	if a.idemStore != nil {
		_ = a.idemStore.Close()
	}
	if a.sessions != nil {
		_ = a.sessions.Close()
	}
	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongoClient.Close(ctx); err != nil {
			logger.Warn("mongo close failed", "error", err)
		}
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
