package payment

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"hotelbooking/internal/modules/booking"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/repository"
)

// Refunder returns the money of a booking through the provider. It satisfies
// booking.Refunder.
type Refunder struct {
	payments paymentRepo
	gateway  Gateway
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewRefunder(payments paymentRepo, gateway Gateway, log logrus.FieldLogger) *Refunder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Refunder{
		payments: payments,
		gateway:  gateway,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *Refunder) Refund(ctx context.Context, req booking.RefundRequest) error {
	const op = "payment.Refund"

	if req.Provider != "" && req.Provider != ProviderToss {
		return apperror.Wrap(apperror.KindRefundFailed, op, "unsupported payment provider "+req.Provider, nil)
	}

	paymentKey := req.PaymentRef
	p, err := r.payments.FindActiveByBooking(ctx, req.BookingID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return apperror.Wrap(apperror.KindRefundFailed, op, "load payment", err)
	}
	if p != nil && p.PaymentKey != "" {
		paymentKey = p.PaymentKey
	}
	if paymentKey == "" {
		return apperror.Wrap(apperror.KindRefundFailed, op, "no payment to refund", nil)
	}

	res, err := r.gateway.Cancel(ctx, paymentKey, req.Reason, req.IdempotencyKey)
	if err != nil {
		return apperror.Wrap(apperror.KindRefundFailed, op, "refund request failed", err)
	}

	if p != nil {
		// the provider already refunded; a stale local record is only logged
		if err := r.payments.MarkCancelled(ctx, p.ID, string(res.Raw), r.now()); err != nil {
			r.log.WithError(err).WithField("payment_id", p.ID).Error("mark payment cancelled")
		}
	}

	r.log.WithFields(logrus.Fields{"booking_id": req.BookingID, "amount": req.Amount}).Info("booking refunded")
	return nil
}
