package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/kafka"
	"hotelbooking/internal/repository"
)

type userLookup interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender turns booking events into guest mails. Delivery is a log line until a mail
// provider is configured.
type Sender struct {
	users   userLookup
	log     logrus.FieldLogger
	deliver func(context.Context, Message) error
}

func NewSender(users userLookup, log logrus.FieldLogger) *Sender {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Sender{users: users, log: log}
	s.deliver = s.logDelivery
	return s
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	subject, body, ok := compose(event)
	if !ok {
		return nil
	}

	u, err := s.users.GetByID(ctx, event.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.WithFields(logrus.Fields{"user_id": event.UserID, "event": event.Type}).Warn("notification recipient not found")
			return nil
		}
		return fmt.Errorf("load recipient %d: %w", event.UserID, err)
	}

	return s.deliver(ctx, Message{To: u.Email, Subject: subject, Body: body})
}

func (s *Sender) logDelivery(_ context.Context, m Message) error {
	s.log.WithFields(logrus.Fields{"to": m.To, "subject": m.Subject}).Info(m.Body)
	return nil
}

func compose(e kafka.BookingEvent) (subject, body string, ok bool) {
	stay := fmt.Sprintf("%s to %s", e.CheckIn.Format("2006-01-02"), e.CheckOut.Format("2006-01-02"))

	switch e.Type {
	case kafka.EventBookingCreated:
		return "Booking received",
			fmt.Sprintf("Booking #%d for %s is waiting for payment of %d.", e.BookingID, stay, e.TotalPrice), true
	case kafka.EventBookingConfirmed:
		return "Booking confirmed",
			fmt.Sprintf("Booking #%d for %s is confirmed.", e.BookingID, stay), true
	case kafka.EventBookingCancelled:
		if e.Refunded {
			return "Booking cancelled",
				fmt.Sprintf("Booking #%d for %s was cancelled and %d refunded.", e.BookingID, stay, e.TotalPrice), true
		}
		return "Booking cancelled", fmt.Sprintf("Booking #%d for %s was cancelled.", e.BookingID, stay), true
	case kafka.EventBookingExpired:
		return "Booking expired",
			fmt.Sprintf("Booking #%d for %s expired before payment.", e.BookingID, stay), true
	case kafka.EventRefundFailed:
		return "Refund delayed",
			fmt.Sprintf("The refund for booking #%d is delayed. We will retry automatically.", e.BookingID), true
	}
	return "", "", false
}
