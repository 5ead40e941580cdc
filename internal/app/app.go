package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"hotelbooking/internal/cache"
	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/kafka"
	"hotelbooking/internal/modules/booking"
	"hotelbooking/internal/modules/catalog"
	"hotelbooking/internal/modules/payment"
	"hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/tosspay"
	"hotelbooking/internal/repository"
)

// App holds the wired services shared by the api and worker binaries.
type App struct {
	Config   *config.Config
	Log      *logrus.Logger
	DB       *gorm.DB
	JWT      *jwt.Service
	Users    *repository.UserRepository
	Hotels   *repository.HotelRepository
	Rooms    *repository.RoomRepository
	Bookings *booking.Service
	Payments *payment.Service

	PaymentRecords *repository.PaymentRepository

	redis    *cache.RedisCache
	producer *kafka.Producer
}

func NewLogger(cfg *config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.IsProdLike() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

// New connects the store and the optional redis and kafka backends and builds the
// services. Redis and kafka are skipped when not configured.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &App{Config: cfg, Log: log, DB: db}

	a.Hotels = repository.NewHotelRepository(db)
	a.Rooms = repository.NewRoomRepository(db)
	payments := repository.NewPaymentRepository(db)
	a.PaymentRecords = payments
	a.Users = repository.NewUserRepository(db)
	a.JWT = jwt.New(cfg.JWTSecret, cfg.JWTTTL)

	opts := []booking.Option{booking.WithLogger(log)}

	if cfg.RedisAddr != "" {
		rc := cache.NewRedisCache(cache.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rc.Ping(pingCtx)
		cancel()
		if err != nil {
			log.WithError(err).Warn("redis unavailable, room locks disabled")
			_ = rc.Close()
		} else {
			a.redis = rc
			opts = append(opts, booking.WithRoomLock(rc, cfg.RoomLockTTL))
			log.WithField("addr", cfg.RedisAddr).Info("redis room locks enabled")
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		a.producer = kafka.NewProducer(cfg.KafkaBrokers)
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := a.producer.CheckConnection(checkCtx); err != nil {
			log.WithError(err).Warn("kafka not reachable yet, events will be retried by the writer")
		}
		cancel()
		opts = append(opts, booking.WithEvents(a.producer, cfg.KafkaBookingTopic))
	}

	toss := tosspay.NewClient(tosspay.Config{
		SecretKey: cfg.TossSecretKey,
		BaseURL:   cfg.TossBaseURL,
		Timeout:   cfg.TossTimeout,
	})

	refunder := payment.NewRefunder(payments, toss, log)
	a.Bookings = booking.NewService(
		repository.NewBookingRepository(db),
		catalog.NewService(a.Hotels, a.Rooms),
		refunder,
		opts...,
	)
	a.Payments = payment.NewService(payments, a.Bookings, toss, log)

	return a, nil
}

func (a *App) Close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.Log.WithError(err).Warn("close kafka producer")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.WithError(err).Warn("close redis")
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
