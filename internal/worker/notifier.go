package worker

import (
	"context"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"hotelbooking/internal/kafka"
)

type eventConsumer interface {
	Consume(ctx context.Context, handler func(context.Context, kafkago.Message) error) error
}

type eventSender interface {
	Send(ctx context.Context, event kafka.BookingEvent) error
}

// RunNotifier feeds booking events to sender until ctx is done. The consumer is
// restarted after retryDelay whenever it stops with an error.
func RunNotifier(ctx context.Context, consumer eventConsumer, sender eventSender, retryDelay time.Duration, log logrus.FieldLogger) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	handler := kafka.BookingEventHandler(sender.Send)

	for {
		err := consumer.Consume(ctx, handler)
		if ctx.Err() != nil {
			log.Info("notification consumer stopped")
			return
		}
		if err != nil {
			log.WithError(err).Warn("notification consumer failed, restarting")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}
