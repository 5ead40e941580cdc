package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"hotelbooking/internal/app"
	"hotelbooking/internal/config"
	"hotelbooking/internal/kafka"
	"hotelbooking/internal/notification"
	"hotelbooking/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := app.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	var wg sync.WaitGroup

	if len(cfg.KafkaBrokers) > 0 {
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaBookingTopic)
		defer consumer.Close()

		sender := notification.NewSender(a.Users, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.RunNotifier(ctx, consumer, sender, 5*time.Second, log)
		}()
		log.WithField("topic", cfg.KafkaBookingTopic).Info("notification consumer started")
	} else {
		log.Warn("KAFKA_BROKERS not set, notifications disabled")
	}

	maintenance := worker.NewMaintenanceWorker(a.Bookings, cfg.WorkerInterval, cfg.BookingHoldTTL, log)
	maintenance.RunOnce(ctx)
	maintenance.Start(ctx)

	wg.Wait()
}
