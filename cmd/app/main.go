package main

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/in/http"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/in/rabbitmq"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/cache"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/clock"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/events"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/logger"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/postgres"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/reservation"
	"github.com/suchimauz/appointment-availability-engine/internal/adapters/out/rest"
	"github.com/suchimauz/appointment-availability-engine/internal/config"
	"github.com/suchimauz/appointment-availability-engine/internal/core/ports/out"
	"github.com/suchimauz/appointment-availability-engine/internal/core/services/availability_service"
	"github.com/suchimauz/appointment-availability-engine/internal/core/services/reservation_service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Загрузка конфигурации
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	mainLogger := logger.NewLogger(cfg)
	log := mainLogger.WithModule("Main")

	log.Info("app.starting", out.LogFields{
		"version":          cfg.App.Version,
		"env":              cfg.App.Env,
		"timezone":         cfg.App.Timezone,
		"scheduleSource":   cfg.ScheduleSource.Kind,
		"reservationStore": cfg.Reservation.Store,
		"rabbitmqEnabled":  cfg.RabbitMQ.Enabled,
		"cacheEnabled":     cfg.Cache.Enabled,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres нужен только если он источник расписаний или хранилище резервов
	var pool *pgxpool.Pool
	if cfg.ScheduleSource.Kind == config.ScheduleSourcePostgres || cfg.Reservation.Store == config.ReservationStorePostgres {
		pool, err = postgres.NewPool(ctx, cfg)
		if err != nil {
			fail(log, "app.postgres.init_failed", err)
		}
		defer pool.Close()

		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			fail(log, "app.postgres.schema_failed", err)
		}
	}

	var schedulePort out.SchedulePort
	switch cfg.ScheduleSource.Kind {
	case config.ScheduleSourceRest:
		schedulePort = rest.NewScheduleAdapter(cfg, mainLogger)
	default:
		schedulePort = postgres.NewScheduleRepository(pool)
	}

	var cachePort out.CachePort
	if cfg.Cache.Enabled {
		cacheAdapter, err := cache.NewCacheAdapter(cfg, mainLogger.WithModule("CacheAdapter"))
		if err != nil {
			fail(log, "app.cache.init_failed", err)
		}
		cachePort = cacheAdapter
	}

	store, closeStore, err := newReservationStore(ctx, cfg, pool)
	if err != nil {
		fail(log, "app.reservation_store.init_failed", err)
	}
	defer closeStore()

	publisher, closePublisher, err := newEventPublisher(cfg, mainLogger)
	if err != nil {
		fail(log, "app.events.init_failed", err)
	}
	defer closePublisher()

	systemClock := clock.NewSystem()

	availabilityService := availability_service.NewAvailabilityService(
		schedulePort,
		cachePort,
		store,
		systemClock,
		mainLogger,
		cfg,
	)
	reservationService := reservation_service.NewReservationService(
		store,
		availabilityService,
		publisher,
		systemClock,
		mainLogger,
		cfg,
	)

	// Слушатель инвалидации кэша запускается только если RabbitMQ включен
	listener, err := rabbitmq.NewInvalidationListener(availabilityService, cfg, mainLogger)
	if err != nil {
		fail(log, "app.rabbitmq.init_failed", err)
	}
	if listener != nil {
		if err := listener.Start(ctx); err != nil {
			fail(log, "app.rabbitmq.start_failed", err)
		}
		defer func() {
			if err := listener.Stop(); err != nil {
				log.Error("app.rabbitmq.stop_failed", out.LogFields{
					"error": err.Error(),
				})
			}
		}()
	}

	server := &nethttp.Server{
		Addr:    cfg.HTTP.Host + ":" + cfg.HTTP.Port,
		Handler: http.NewRouter(cfg, mainLogger, systemClock, availabilityService, reservationService),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info("app.http.starting", out.LogFields{
			"addr": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			log.Error("app.http.failed", out.LogFields{
				"error": err.Error(),
			})
			sigChan <- syscall.SIGTERM
		}
	}()

	sig := <-sigChan
	log.Info("app.shutdown.initiated", out.LogFields{
		"signal": sig.String(),
	})

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("app.http.shutdown_failed", out.LogFields{
			"error": err.Error(),
		})
	}
	cancel()

	log.Info("app.shutdown.done", nil)
}

func newReservationStore(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (out.ReservationStorePort, func(), error) {
	switch cfg.Reservation.Store {
	case config.ReservationStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		closeFn := func() { client.Close() }
		return reservation.NewRedisStore(client, cfg.Redis.Prefix, cfg.Reservation.Retention), closeFn, nil
	case config.ReservationStorePostgres:
		return reservation.NewPostgresStore(pool), func() {}, nil
	default:
		// Резервы в памяти не переживают рестарт и не делятся между инстансами
		return reservation.NewMemoryStore(), func() {}, nil
	}
}

func newEventPublisher(cfg *config.Config, logger out.LoggerPort) (out.EventPublisherPort, func(), error) {
	if !cfg.RabbitMQ.Enabled {
		return events.NewNoopPublisher(), func() {}, nil
	}

	publisher, err := events.NewRabbitMQPublisher(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return publisher, func() { publisher.Close() }, nil
}

func fail(log out.LoggerPort, event string, err error) {
	log.Error(event, out.LogFields{
		"error": err.Error(),
	})
	os.Exit(1)
}
