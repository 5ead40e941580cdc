package payment

import (
	"context"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/booking"
	"hotelbooking/internal/pkg/tosspay"
)

type paymentRepo interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByOrderRef(ctx context.Context, orderRef string) (*domain.Payment, error)
	FindActiveByBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
	MarkPaidIdempotent(ctx context.Context, orderRef, paymentKey, raw string, paidAt time.Time) (bool, error)
	MarkCancelled(ctx context.Context, id int64, raw string, at time.Time) error
	MarkFailed(ctx context.Context, orderRef, raw string) error
}

type bookingLifecycle interface {
	Get(ctx context.Context, bookingID int64) (*domain.Booking, error)
	Confirm(ctx context.Context, bookingID int64, in booking.ConfirmInput) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID int64) (*domain.Booking, error)
}

// Gateway is the payment provider API.
type Gateway interface {
	Confirm(ctx context.Context, orderID, paymentKey string, amount int64) (*tosspay.Payment, error)
	Cancel(ctx context.Context, paymentKey, reason, idempotencyKey string) (*tosspay.Payment, error)
}
