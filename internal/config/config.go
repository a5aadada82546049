package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

type Environment string

const (
	EnvLocal      Environment = "local"
	EnvDev        Environment = "dev"
	EnvStage      Environment = "stage"
	EnvProduction Environment = "production"
)

type ReservationStoreKind string

const (
	ReservationStoreMemory   ReservationStoreKind = "memory"
	ReservationStoreRedis    ReservationStoreKind = "redis"
	ReservationStorePostgres ReservationStoreKind = "postgres"
)

type ScheduleSourceKind string

const (
	ScheduleSourcePostgres ScheduleSourceKind = "postgres"
	ScheduleSourceRest     ScheduleSourceKind = "rest"
)

// TimeZone is the canonical frame for dates that carry no offset.
// NewConfig replaces it with APP_TIMEZONE.
var TimeZone = time.UTC

type ConfigBasicClient struct {
	Username string
	Password string
}

type Config struct {
	App struct {
		Version  string      `env:"APP_VERSION" envDefault:"local"`
		Env      Environment `env:"APP_ENV" envDefault:"local"`
		Timezone string      `env:"APP_TIMEZONE" envDefault:"America/Sao_Paulo"`
		LogLevel string      `env:"APP_LOG_LEVEL"`
	}

	HTTP struct {
		Port           string  `env:"HTTP_SERVER_PORT" envDefault:"8080"`
		Host           string  `env:"HTTP_SERVER_HOST" envDefault:"localhost"`
		RateLimitRPS   float64 `env:"HTTP_RATE_LIMIT_RPS" envDefault:"20"`
		RateLimitBurst int     `env:"HTTP_RATE_LIMIT_BURST" envDefault:"40"`
	}

	Auth struct {
		BasicClientsString string `env:"AUTH_BASIC_CLIENTS" envDefault:"booking:booking"`
		BasicClients       []ConfigBasicClient
	}

	ScheduleSource struct {
		Kind     ScheduleSourceKind `env:"SCHEDULE_SOURCE" envDefault:"postgres"`
		URL      string             `env:"SCHEDULE_SOURCE_URL"`
		Username string             `env:"SCHEDULE_SOURCE_USERNAME"`
		Password string             `env:"SCHEDULE_SOURCE_PASSWORD"`
	}

	Postgres struct {
		URL      string `env:"POSTGRES_URL"`
		MaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
		MinConns int32  `env:"POSTGRES_MIN_CONNS" envDefault:"2"`
	}

	Redis struct {
		Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password string `env:"REDIS_PASSWORD"`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
		Prefix   string `env:"REDIS_PREFIX" envDefault:"booking"`
	}

	RabbitMQ struct {
		Enabled          bool   `env:"RABBITMQ_ENABLED"`
		URL              string `env:"RABBITMQ_URL"`
		Exchange         string `env:"RABBITMQ_EXCHANGE" envDefault:"booking"`
		EventsExchange   string `env:"RABBITMQ_EVENTS_EXCHANGE" envDefault:"booking.reservations"`
		AppointmentQueue string `env:"RABBITMQ_APPOINTMENT_QUEUE" envDefault:"availability-engine.appointment"`
		AppointmentBind  string `env:"RABBITMQ_APPOINTMENT_BIND" envDefault:"*.*.appointment.*"`
		ScheduleQueue    string `env:"RABBITMQ_SCHEDULE_QUEUE" envDefault:"availability-engine.schedule"`
		ScheduleBind     string `env:"RABBITMQ_SCHEDULE_BIND" envDefault:"*.*.schedule.*"`
		AllQueue         string `env:"RABBITMQ_ALL_QUEUE" envDefault:"availability-engine.all"`
		AllBind          string `env:"RABBITMQ_ALL_BIND" envDefault:"*.*._all_.*"`
	}

	Cache struct {
		Enabled          bool          `env:"CACHE_ENABLED" envDefault:"true"`
		AvailabilitySize int           `env:"CACHE_AVAILABILITY_SIZE" envDefault:"5000"`
		AvailabilityTTL  time.Duration `env:"CACHE_AVAILABILITY_TTL" envDefault:"5m"`
		ScheduleSize     int           `env:"CACHE_SCHEDULE_SIZE" envDefault:"1000"`
		ScheduleTTL      time.Duration `env:"CACHE_SCHEDULE_TTL" envDefault:"30m"`
	}

	Reservation struct {
		Store        ReservationStoreKind `env:"RESERVATION_STORE" envDefault:"memory"`
		HoldDuration time.Duration        `env:"RESERVATION_HOLD_DURATION" envDefault:"15m"`
		Retention    time.Duration        `env:"RESERVATION_RETENTION" envDefault:"24h"`
	}

	Availability struct {
		NextAvailableHorizonDays int `env:"AVAILABILITY_NEXT_HORIZON_DAYS" envDefault:"30"`
	}
}

func NewConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Окружение и типы хранилищ приводим к нижнему регистру
	cfg.App.Env = Environment(strings.ToLower(string(cfg.App.Env)))
	cfg.Reservation.Store = ReservationStoreKind(strings.ToLower(string(cfg.Reservation.Store)))
	cfg.ScheduleSource.Kind = ScheduleSourceKind(strings.ToLower(string(cfg.ScheduleSource.Kind)))

	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config.timezone: %w", err)
	}
	TimeZone = loc

	cfg.Auth.BasicClients = parseBasicClients(cfg.Auth.BasicClientsString)

	if cfg.Reservation.HoldDuration <= 0 {
		return nil, fmt.Errorf("config.reservation: hold duration must be positive, got %s", cfg.Reservation.HoldDuration)
	}

	// Запись резерва в Redis не должна пропасть раньше, чем истечет сам резерв
	if cfg.Reservation.Retention < cfg.Reservation.HoldDuration {
		return nil, fmt.Errorf("config.reservation: retention %s is shorter than hold duration %s", cfg.Reservation.Retention, cfg.Reservation.HoldDuration)
	}

	switch cfg.Reservation.Store {
	case ReservationStoreMemory, ReservationStoreRedis, ReservationStorePostgres:
	default:
		return nil, fmt.Errorf("config.reservation: unknown store %q", cfg.Reservation.Store)
	}

	switch cfg.ScheduleSource.Kind {
	case ScheduleSourcePostgres, ScheduleSourceRest:
	default:
		return nil, fmt.Errorf("config.schedule_source: unknown kind %q", cfg.ScheduleSource.Kind)
	}

	// Без RabbitMQ кэш некому инвалидировать, поэтому не включаем его
	if !cfg.RabbitMQ.Enabled {
		cfg.Cache.Enabled = false
	}

	if cfg.App.LogLevel == "" {
		if cfg.IsLocal() {
			cfg.App.LogLevel = "debug"
		} else {
			cfg.App.LogLevel = "info"
		}
	}

	return cfg, nil
}

func parseBasicClients(raw string) []ConfigBasicClient {
	clients := []ConfigBasicClient{}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) == 2 && parts[0] != "" {
			clients = append(clients, ConfigBasicClient{
				Username: parts[0],
				Password: parts[1],
			})
		}
	}
	return clients
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsLocal() bool {
	return c.App.Env == EnvLocal
}

func (c *Config) IsNotLocal() bool {
	return c.App.Env == EnvDev || c.App.Env == EnvStage || c.App.Env == EnvProduction
}
