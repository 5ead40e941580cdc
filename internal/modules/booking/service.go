package booking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/kafka"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/repository"
)

const (
	batchSize         = 100
	maxCancelAttempts = 3
	lockRetryInterval = 25 * time.Millisecond
)

type Service struct {
	store    BookingStore
	catalog  CatalogLookup
	refunder Refunder
	avail    *AvailabilityIndex

	locker  RoomLocker
	lockTTL time.Duration

	producer EventProducer
	topic    string

	log logrus.FieldLogger
	now func() time.Time
}

type Option func(*Service)

// WithRoomLock serializes creates per room through locker before they reach the store.
func WithRoomLock(locker RoomLocker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithEvents(producer EventProducer, topic string) Option {
	return func(s *Service) {
		s.producer = producer
		s.topic = topic
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store BookingStore, catalog CatalogLookup, refunder Refunder, opts ...Option) *Service {
	s := &Service{
		store:    store,
		catalog:  catalog,
		refunder: refunder,
		avail:    NewAvailabilityIndex(store),
		lockTTL:  5 * time.Second,
		log:      logrus.StandardLogger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefundIdempotencyKey is sent with every refund attempt for a booking.
func RefundIdempotencyKey(bookingID int64) string {
	return "refund-" + strconv.FormatInt(bookingID, 10)
}

// Create books a room for [CheckIn, CheckOut) in pendingPayment. The price is the room's
// nightly rate at this moment times the number of started nights.
func (s *Service) Create(ctx context.Context, in CreateBookingInput) (*domain.Booking, error) {
	const op = "booking.Create"

	if in.UserID <= 0 {
		return nil, apperror.Wrap(apperror.KindValidation, op, "user is required", nil)
	}
	checkIn, checkOut := in.CheckIn.UTC(), in.CheckOut.UTC()
	if !checkIn.Before(checkOut) {
		return nil, apperror.New(apperror.KindInvalidDateRange, op, nil)
	}

	room, err := s.catalog.GetRoom(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.GetHotel(ctx, in.HotelID); err != nil {
		return nil, err
	}
	if room.HotelID != in.HotelID {
		return nil, apperror.Wrap(apperror.KindRoomNotFound, op, "room does not belong to hotel", nil)
	}

	if s.locker != nil {
		release, err := s.lockRoom(ctx, op, room.ID)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	taken, err := s.avail.IsOverlapping(ctx, room.ID, checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperror.New(apperror.KindBookingConflict, op, nil)
	}

	now := s.now()
	nights := domain.Nights(checkIn, checkOut)
	b := &domain.Booking{
		UserID:       in.UserID,
		HotelID:      in.HotelID,
		RoomID:       room.ID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		NightlyPrice: room.Price,
		Nights:       nights,
		TotalPrice:   room.Price * int64(nights),
		Status:       domain.BookingPendingPayment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Insert(ctx, b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.New(apperror.KindRoomNotFound, op, err)
		}
		return nil, storeError(op, err)
	}

	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"room_id":    b.RoomID,
		"user_id":    b.UserID,
		"nights":     b.Nights,
		"total":      b.TotalPrice,
	}).Info("booking created")
	s.publish(ctx, kafka.EventBookingCreated, b)

	return b, nil
}

// Confirm records a successful payment. Only one of several concurrent confirms can win.
func (s *Service) Confirm(ctx context.Context, bookingID int64, in ConfirmInput) (*domain.Booking, error) {
	const op = "booking.Confirm"

	b, err := s.store.FindByID(ctx, bookingID)
	if err != nil {
		return nil, storeError(op, err)
	}

	provider, ref := strings.TrimSpace(in.Provider), strings.TrimSpace(in.PaymentRef)
	if provider == "" || ref == "" {
		return nil, apperror.Wrap(apperror.KindValidation, op, "payment provider and reference are required", nil)
	}
	if !b.Status.CanTransitionTo(domain.BookingConfirmed) {
		return nil, invalidTransition(op, "confirm", b.Status)
	}

	updated, err := s.store.UpdateStatus(ctx, b.ID, domain.BookingPendingPayment, domain.BookingConfirmed, map[string]any{
		"payment_provider": provider,
		"payment_ref":      ref,
		"confirmed_at":     s.now(),
	})
	if err != nil {
		return nil, storeError(op, err)
	}

	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "provider": provider}).Info("booking confirmed")
	s.publish(ctx, kafka.EventBookingConfirmed, updated)

	return updated, nil
}

// Cancel cancels a pendingPayment booking directly. A confirmed booking is refunded first;
// if the refund fails it stays confirmed with a refund-pending marker and RefundFailed
// is returned.
func (s *Service) Cancel(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	const op = "booking.Cancel"

	for attempt := 0; attempt < maxCancelAttempts; attempt++ {
		b, err := s.store.FindByID(ctx, bookingID)
		if err != nil {
			return nil, storeError(op, err)
		}

		var out *domain.Booking
		switch b.Status {
		case domain.BookingPendingPayment:
			out, err = s.store.UpdateStatus(ctx, b.ID, domain.BookingPendingPayment, domain.BookingCancelled, map[string]any{
				"cancelled_at": s.now(),
			})
		case domain.BookingConfirmed:
			out, err = s.cancelWithRefund(ctx, op, b)
		default:
			return nil, invalidTransition(op, "cancel", b.Status)
		}

		// status moved between the read and the conditional write: decide again
		if errors.Is(err, repository.ErrStaleStatus) {
			continue
		}
		if err != nil {
			return nil, storeError(op, err)
		}

		s.log.WithFields(logrus.Fields{"booking_id": out.ID, "refunded": out.Refunded}).Info("booking cancelled")
		s.publish(ctx, kafka.EventBookingCancelled, out)
		return out, nil
	}

	return nil, apperror.Wrap(apperror.KindInvalidStateTransition, op, "booking status changed concurrently", nil)
}

func (s *Service) cancelWithRefund(ctx context.Context, op string, b *domain.Booking) (*domain.Booking, error) {
	if err := s.store.MarkRefundRequested(ctx, b.ID, s.now()); err != nil {
		return nil, err
	}

	err := s.refunder.Refund(ctx, RefundRequest{
		BookingID:      b.ID,
		Provider:       b.PaymentProvider,
		PaymentRef:     b.PaymentRef,
		Amount:         b.TotalPrice,
		Reason:         "booking cancelled",
		IdempotencyKey: RefundIdempotencyKey(b.ID),
	})
	if err != nil {
		s.log.WithError(err).WithField("booking_id", b.ID).Warn("refund failed, booking stays confirmed")
		s.publish(ctx, kafka.EventRefundFailed, b)
		return nil, apperror.Wrap(apperror.KindRefundFailed, op, "refund failed, booking remains confirmed", err)
	}

	return s.store.UpdateStatus(ctx, b.ID, domain.BookingConfirmed, domain.BookingCancelled, map[string]any{
		"refunded":            true,
		"refund_requested_at": nil,
		"cancelled_at":        s.now(),
	})
}

// Complete closes a confirmed booking after its check-out.
func (s *Service) Complete(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	const op = "booking.Complete"

	b, err := s.store.FindByID(ctx, bookingID)
	if err != nil {
		return nil, storeError(op, err)
	}
	if !b.Status.CanTransitionTo(domain.BookingCompleted) {
		return nil, invalidTransition(op, "complete", b.Status)
	}
	if b.RefundPending() {
		return nil, apperror.Wrap(apperror.KindInvalidStateTransition, op, "refund in progress", nil)
	}
	if s.now().Before(b.CheckOut) {
		return nil, apperror.Wrap(apperror.KindInvalidStateTransition, op, "stay has not ended", nil)
	}

	updated, err := s.store.UpdateStatus(ctx, b.ID, domain.BookingConfirmed, domain.BookingCompleted, nil)
	if err != nil {
		return nil, storeError(op, err)
	}
	s.publish(ctx, kafka.EventBookingCompleted, updated)
	return updated, nil
}

func (s *Service) CheckAvailability(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	const op = "booking.CheckAvailability"

	if !checkIn.Before(checkOut) {
		return false, apperror.New(apperror.KindInvalidDateRange, op, nil)
	}
	taken, err := s.avail.IsOverlapping(ctx, roomID, checkIn, checkOut)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

func (s *Service) Get(ctx context.Context, bookingID int64) (*domain.Booking, error) {
	b, err := s.store.FindByID(ctx, bookingID)
	if err != nil {
		return nil, storeError("booking.Get", err)
	}
	return b, nil
}

// ListByUser returns the user's bookings, newest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	return s.store.ListByUser(ctx, userID)
}

// ExpireAbandoned cancels pendingPayment bookings created more than olderThan ago.
func (s *Service) ExpireAbandoned(ctx context.Context, olderThan time.Duration) (int, error) {
	now := s.now()
	abandoned, err := s.store.ListAbandoned(ctx, now.Add(-olderThan), batchSize)
	if err != nil {
		return 0, err
	}

	var expired int
	var errs []error
	for _, b := range abandoned {
		out, err := s.store.UpdateStatus(ctx, b.ID, domain.BookingPendingPayment, domain.BookingCancelled, map[string]any{
			"cancelled_at": now,
		})
		if errors.Is(err, repository.ErrStaleStatus) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("expire booking %d: %w", b.ID, err))
			continue
		}
		expired++
		s.publish(ctx, kafka.EventBookingExpired, out)
	}
	return expired, errors.Join(errs...)
}

// ReconcileRefunds re-drives the cancellation of confirmed bookings left with a
// refund-pending marker.
func (s *Service) ReconcileRefunds(ctx context.Context) (int, error) {
	pending, err := s.store.ListRefundPending(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	var done int
	var errs []error
	for _, b := range pending {
		if _, err := s.Cancel(ctx, b.ID); err != nil {
			errs = append(errs, fmt.Errorf("reconcile booking %d: %w", b.ID, err))
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

// CompleteCheckedOut completes every confirmed booking whose check-out has passed.
func (s *Service) CompleteCheckedOut(ctx context.Context) (int, error) {
	ended, err := s.store.ListCheckedOut(ctx, s.now(), batchSize)
	if err != nil {
		return 0, err
	}

	var done int
	var errs []error
	for _, b := range ended {
		if _, err := s.Complete(ctx, b.ID); err != nil {
			if apperror.KindOf(err) == apperror.KindInvalidStateTransition {
				continue
			}
			errs = append(errs, err)
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

// lockRoom waits up to the lock TTL for the per-room lock. A lock backend failure is
// logged and ignored: the store constraint still rejects overlaps.
func (s *Service) lockRoom(ctx context.Context, op string, roomID int64) (func(), error) {
	deadline := time.Now().Add(s.lockTTL)
	for {
		token, err := s.locker.AcquireRoomLock(ctx, roomID, s.lockTTL)
		if err != nil {
			s.log.WithError(err).WithField("room_id", roomID).Warn("room lock unavailable")
			return func() {}, nil
		}
		if token != "" {
			return func() {
				if err := s.locker.ReleaseRoomLock(context.WithoutCancel(ctx), roomID, token); err != nil {
					s.log.WithError(err).WithField("room_id", roomID).Warn("release room lock")
				}
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, apperror.Wrap(apperror.KindBookingConflict, op, "room is being booked by another request", nil)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}

func (s *Service) publish(ctx context.Context, eventType string, b *domain.Booking) {
	if s.producer == nil {
		return
	}
	event := kafka.NewBookingEvent(eventType, b, s.now())
	if err := s.producer.Publish(ctx, s.topic, strconv.FormatInt(b.ID, 10), event); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"booking_id": b.ID,
			"event":      eventType,
		}).Warn("publish booking event")
	}
}

func invalidTransition(op, action string, from domain.BookingStatus) error {
	return apperror.Wrap(apperror.KindInvalidStateTransition, op, fmt.Sprintf("cannot %s a %s booking", action, from), nil)
}
