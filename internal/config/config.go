package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/kelvin888/qt-fashion-backend-sub000/internal/usecase"
	"github.com/kelvin888/qt-fashion-backend-sub000/internal/worker"
)

// Config holds application level configuration loaded from environment and flags.
type Config struct {
	RunAddress       string        `envconfig:"RUN_ADDRESS" default:":8080"`
	DatabaseURI      string        `envconfig:"DATABASE_URI"`
	JWTSecret        string        `envconfig:"JWT_SECRET"`
	ShutdownTimeout  time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	CORSAllowOrigins []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	Env              string        `envconfig:"ENV" default:"development"`

	PaymentGatewayURL string `envconfig:"PAYMENT_GATEWAY_URL"`
	PaymentSecretKey  string `envconfig:"PAYMENT_SECRET_KEY"`
	TrackingAPIURL    string `envconfig:"TRACKING_API_URL"`

	RedisAddr    string   `envconfig:"REDIS_ADDR"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" default:"qtfashion.events"`

	PlatformFeePercentage   decimal.Decimal `envconfig:"PLATFORM_FEE_PERCENTAGE" default:"10"`
	OfferDefaultTTL         time.Duration   `envconfig:"OFFER_DEFAULT_TTL" default:"168h"`
	OfferMinProductionDays  int             `envconfig:"OFFER_MIN_PRODUCTION_DAYS" default:"7"`
	OfferShippingBufferDays int             `envconfig:"OFFER_SHIPPING_BUFFER_DAYS" default:"3"`
	BuyerProtectionWindow   time.Duration   `envconfig:"BUYER_PROTECTION_WINDOW" default:"1440h"`
	ConfirmationWindow      time.Duration   `envconfig:"CONFIRMATION_WINDOW" default:"72h"`
	ManualDeliveryGrace     time.Duration   `envconfig:"MANUAL_DELIVERY_GRACE" default:"168h"`
	MinTrackingLength       int             `envconfig:"MIN_TRACKING_LENGTH" default:"6"`
	NotifyTimeout           time.Duration   `envconfig:"NOTIFY_TIMEOUT" default:"5s"`

	ShipmentPollInterval time.Duration `envconfig:"SHIPMENT_POLL_INTERVAL" default:"6h"`
	AutoConfirmInterval  time.Duration `envconfig:"AUTO_CONFIRM_INTERVAL" default:"24h"`
	ReminderInterval     time.Duration `envconfig:"REMINDER_INTERVAL" default:"24h"`
	OfferExpiryInterval  time.Duration `envconfig:"OFFER_EXPIRY_INTERVAL" default:"1h"`
	SchedulerBatchSize   int           `envconfig:"SCHEDULER_BATCH_SIZE" default:"100"`
	SchedulerWorkers     int           `envconfig:"SCHEDULER_WORKERS" default:"4"`
	SchedulerLeaseTTL    time.Duration `envconfig:"SCHEDULER_LEASE_TTL" default:"10m"`
}

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultBatchSize       = 100
	defaultWorkers         = 4
)

// Load parses configuration from environment variables and flags.
func Load() (*Config, error) {
	return load(os.Args[1:])
}

func load(args []string) (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}

	fs := flag.NewFlagSet("qtfashion", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	shutdownTimeoutStr := cfg.ShutdownTimeout.String()

	fs.StringVar(&cfg.RunAddress, "a", cfg.RunAddress, "HTTP server listen address")
	fs.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "PostgreSQL DSN")
	fs.StringVar(&cfg.PaymentGatewayURL, "p", cfg.PaymentGatewayURL, "Payment gateway base URL")
	fs.StringVar(&cfg.TrackingAPIURL, "t", cfg.TrackingAPIURL, "Carrier tracking API base URL")
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", cfg.JWTSecret, "Secret for verifying auth tokens")
	fs.StringVar(&shutdownTimeoutStr, "shutdown-timeout", shutdownTimeoutStr, "Graceful shutdown timeout")
	fs.IntVar(&cfg.SchedulerWorkers, "workers", cfg.SchedulerWorkers, "Concurrent shipment lookups")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	var err error
	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownTimeoutStr); err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}

	if secretFile, ok := os.LookupEnv("JWT_SECRET_FILE"); ok && secretFile != "" {
		content, err := os.ReadFile(secretFile)
		if err != nil {
			return nil, fmt.Errorf("read jwt secret file: %w", err)
		}
		cfg.JWTSecret = strings.TrimSpace(string(content))
	}

	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.SchedulerBatchSize <= 0 {
		cfg.SchedulerBatchSize = defaultBatchSize
	}
	if cfg.SchedulerWorkers <= 0 {
		cfg.SchedulerWorkers = defaultWorkers
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURI == "":
		return fmt.Errorf("database URI must be provided")
	case c.JWTSecret == "":
		return fmt.Errorf("jwt secret must be provided")
	case c.PaymentGatewayURL == "":
		return fmt.Errorf("payment gateway URL must be provided")
	case c.PaymentSecretKey == "":
		return fmt.Errorf("payment secret key must be provided")
	case c.TrackingAPIURL == "":
		return fmt.Errorf("tracking API URL must be provided")
	case c.PlatformFeePercentage.IsNegative() || c.PlatformFeePercentage.GreaterThan(decimal.NewFromInt(100)):
		return fmt.Errorf("platform fee percentage must be within 0..100, got %s", c.PlatformFeePercentage)
	case c.MinTrackingLength <= 0:
		return fmt.Errorf("minimum tracking length must be positive")
	}
	return nil
}

// Policy maps business settings onto the use case policy.
func (c *Config) Policy() usecase.Policy {
	return usecase.Policy{
		OfferTTL:             c.OfferDefaultTTL,
		MinProductionDays:    c.OfferMinProductionDays,
		ShippingBufferDays:   c.OfferShippingBufferDays,
		BuyerProtection:      c.BuyerProtectionWindow,
		ConfirmationWindow:   c.ConfirmationWindow,
		ManualDeliveryGrace:  c.ManualDeliveryGrace,
		MinTrackingLength:    c.MinTrackingLength,
		DefaultFeePercentage: c.PlatformFeePercentage,
		BatchSize:            c.SchedulerBatchSize,
		Workers:              c.SchedulerWorkers,
		NotifyTimeout:        c.NotifyTimeout,
	}
}

// Schedule maps job intervals onto the scheduler.
func (c *Config) Schedule() worker.Schedule {
	return worker.Schedule{
		ShipmentPoll: c.ShipmentPollInterval,
		AutoConfirm:  c.AutoConfirmInterval,
		Reminders:    c.ReminderInterval,
		OfferExpiry:  c.OfferExpiryInterval,
		LeaseTTL:     c.SchedulerLeaseTTL,
	}
}
