package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/booking"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/pkg/tosspay"
	"hotelbooking/internal/repository"
)

const ProviderToss = "toss"

type Service struct {
	payments paymentRepo
	bookings bookingLifecycle
	gateway  Gateway
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewService(payments paymentRepo, bookings bookingLifecycle, gateway Gateway, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		payments: payments,
		bookings: bookings,
		gateway:  gateway,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// OrderRef builds the provider order id for a booking.
func OrderRef(bookingID int64, at time.Time) string {
	return fmt.Sprintf("ORDER_%d_%d", bookingID, at.UnixMilli())
}

// Prepare opens a payment for a pendingPayment booking owned by userID. An open payment
// for the same booking is returned instead of creating a second one.
func (s *Service) Prepare(ctx context.Context, userID, bookingID int64) (*domain.Payment, error) {
	const op = "payment.Prepare"

	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, apperror.New(apperror.KindForbidden, op, nil)
	}
	if b.Status != domain.BookingPendingPayment {
		return nil, apperror.Wrap(apperror.KindInvalidStateTransition, op, "booking is not awaiting payment", nil)
	}

	existing, err := s.payments.FindActiveByBooking(ctx, b.ID)
	switch {
	case err == nil && existing.Status == domain.PaymentPending:
		return existing, nil
	case err == nil:
		return nil, apperror.Wrap(apperror.KindInvalidStateTransition, op, "booking is already paid", nil)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	p := &domain.Payment{
		BookingID: b.ID,
		UserID:    userID,
		Provider:  ProviderToss,
		OrderRef:  OrderRef(b.ID, s.now()),
		Amount:    b.TotalPrice,
		Status:    domain.PaymentPending,
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "order_ref": p.OrderRef, "amount": p.Amount}).Info("payment prepared")
	return p, nil
}

// Confirm approves the payment with the provider and confirms its booking. A payment
// that is already paid is returned without calling the provider again.
func (s *Service) Confirm(ctx context.Context, in ConfirmPaymentInput) (*domain.Payment, error) {
	const op = "payment.Confirm"

	p, err := s.payments.GetByOrderRef(ctx, in.OrderRef)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.New(apperror.KindPaymentNotFound, op, err)
		}
		return nil, err
	}
	if in.UserID > 0 && p.UserID != in.UserID {
		return nil, apperror.New(apperror.KindForbidden, op, nil)
	}
	if p.Amount != in.Amount {
		s.log.WithFields(logrus.Fields{"order_ref": p.OrderRef, "expected": p.Amount, "got": in.Amount}).Warn("payment amount mismatch")
		return nil, apperror.New(apperror.KindAmountMismatch, op, nil)
	}

	switch p.Status {
	case domain.PaymentPaid:
		if err := s.confirmBooking(ctx, op, p, p.PaymentKey); err != nil {
			return nil, err
		}
		return p, nil
	case domain.PaymentPending:
	default:
		return nil, apperror.Wrap(apperror.KindInvalidStateTransition, op, fmt.Sprintf("payment is %s", p.Status), nil)
	}

	res, err := s.gateway.Confirm(ctx, p.OrderRef, in.PaymentKey, p.Amount)
	if err != nil {
		s.log.WithError(err).WithField("order_ref", p.OrderRef).Warn("provider confirm failed")
		var apiErr *tosspay.APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			// rejected for good; the next Prepare opens a fresh order
			if ferr := s.payments.MarkFailed(ctx, p.OrderRef, apiErr.Error()); ferr != nil {
				s.log.WithError(ferr).WithField("order_ref", p.OrderRef).Error("mark payment failed")
			}
		}
		return nil, apperror.Wrap(apperror.KindPaymentProviderFailure, op, "payment confirmation failed", err)
	}

	changed, err := s.payments.MarkPaidIdempotent(ctx, p.OrderRef, in.PaymentKey, string(res.Raw), s.now())
	if err != nil {
		return nil, fmt.Errorf("mark payment paid: %w", err)
	}
	if !changed {
		s.log.WithField("order_ref", p.OrderRef).Info("payment already marked paid")
	}

	if err := s.confirmBooking(ctx, op, p, in.PaymentKey); err != nil {
		return nil, err
	}

	return s.payments.GetByOrderRef(ctx, p.OrderRef)
}

// confirmBooking moves the booking of a paid payment to confirmed. When the booking was
// cancelled while the customer was paying, the money is returned.
func (s *Service) confirmBooking(ctx context.Context, op string, p *domain.Payment, paymentKey string) error {
	_, err := s.bookings.Confirm(ctx, p.BookingID, booking.ConfirmInput{Provider: p.Provider, PaymentRef: paymentKey})
	if err == nil || apperror.KindOf(err) != apperror.KindInvalidStateTransition {
		return err
	}

	b, gerr := s.bookings.Get(ctx, p.BookingID)
	if gerr != nil {
		return gerr
	}
	switch b.Status {
	case domain.BookingConfirmed, domain.BookingCompleted:
		return nil
	case domain.BookingCancelled:
		res, cerr := s.gateway.Cancel(ctx, paymentKey, "booking cancelled before payment completed", booking.RefundIdempotencyKey(b.ID))
		if cerr != nil {
			s.log.WithError(cerr).WithField("booking_id", b.ID).Error("refund of payment for cancelled booking failed")
			return apperror.Wrap(apperror.KindRefundFailed, op, "booking was cancelled and the refund failed", cerr)
		}
		if merr := s.payments.MarkCancelled(ctx, p.ID, string(res.Raw), s.now()); merr != nil {
			s.log.WithError(merr).WithField("payment_id", p.ID).Error("mark payment cancelled")
		}
		return apperror.Wrap(apperror.KindInvalidStateTransition, op, "booking was cancelled, payment refunded", nil)
	}
	return err
}

// CancelByBooking cancels a booking on behalf of its owner, refunding it when paid.
func (s *Service) CancelByBooking(ctx context.Context, userID, bookingID int64) (*domain.Booking, error) {
	const op = "payment.CancelByBooking"

	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, apperror.New(apperror.KindForbidden, op, nil)
	}
	return s.bookings.Cancel(ctx, bookingID)
}
