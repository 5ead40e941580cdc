package booking

import (
	"context"
	"time"

	"hotelbooking/internal/domain"
)

// CatalogLookup resolves rooms and hotels. Missing entities come back as
// apperror RoomNotFound / HotelNotFound.
type CatalogLookup interface {
	GetRoom(ctx context.Context, roomID int64) (*domain.Room, error)
	GetHotel(ctx context.Context, hotelID int64) (*domain.Hotel, error)
}

// BookingStore persists bookings. Insert must reject an overlapping stay atomically.
type BookingStore interface {
	Insert(ctx context.Context, b *domain.Booking) error
	FindByID(ctx context.Context, id int64) (*domain.Booking, error)
	FindOverlapping(ctx context.Context, roomID int64, checkIn, checkOut time.Time) ([]domain.Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error)
	UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, fields map[string]any) (*domain.Booking, error)
	MarkRefundRequested(ctx context.Context, id int64, at time.Time) error
	ListRefundPending(ctx context.Context, limit int) ([]domain.Booking, error)
	ListAbandoned(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Booking, error)
	ListCheckedOut(ctx context.Context, checkOutBefore time.Time, limit int) ([]domain.Booking, error)
}

type RefundRequest struct {
	BookingID      int64
	Provider       string
	PaymentRef     string
	Amount         int64
	Reason         string
	IdempotencyKey string
}

// Refunder returns money collected for a booking. Calls with the same IdempotencyKey
// must refund at most once.
type Refunder interface {
	Refund(ctx context.Context, req RefundRequest) error
}

// PaymentLookup finds the open or paid payment of a booking.
type PaymentLookup interface {
	FindActiveByBooking(ctx context.Context, bookingID int64) (*domain.Payment, error)
}

// RoomLocker hands out per-room locks. An empty token means the room is locked.
type RoomLocker interface {
	AcquireRoomLock(ctx context.Context, roomID int64, ttl time.Duration) (string, error)
	ReleaseRoomLock(ctx context.Context, roomID int64, token string) error
}

type EventProducer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}
