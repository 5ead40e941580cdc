package domain

import (
	"fmt"
	"math"
	"time"
)

type BookingStatus string

const (
	BookingPendingPayment BookingStatus = "pendingPayment"
	BookingConfirmed      BookingStatus = "confirmed"
	BookingCancelled      BookingStatus = "cancelled"
	BookingCompleted      BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPendingPayment: {BookingConfirmed, BookingCancelled},
	BookingConfirmed:      {BookingCancelled, BookingCompleted},
	BookingCancelled:      {},
	BookingCompleted:      {},
}

func (s BookingStatus) IsValid() bool {
	_, ok := bookingTransitions[s]
	return ok
}

func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range bookingTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

func (s BookingStatus) IsTerminal() bool {
	return len(bookingTransitions[s]) == 0
}

func (s BookingStatus) String() string { return string(s) }

// ParseBookingStatus accepts the canonical names plus the legacy "pending" and "booked",
// which older records used for pendingPayment and confirmed.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch s {
	case "pending":
		return BookingPendingPayment, nil
	case "booked":
		return BookingConfirmed, nil
	}
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

type Booking struct {
	ID      int64 `json:"id" gorm:"primaryKey"`
	UserID  int64 `json:"user_id" gorm:"index;not null"`
	HotelID int64 `json:"hotel_id" gorm:"index;not null"`
	RoomID  int64 `json:"room_id" gorm:"index:idx_bookings_room_dates;not null"`

	CheckIn  time.Time `json:"check_in" gorm:"index:idx_bookings_room_dates;not null"`
	CheckOut time.Time `json:"check_out" gorm:"index:idx_bookings_room_dates;not null"`

	NightlyPrice int64 `json:"nightly_price" gorm:"not null"`
	Nights       int   `json:"nights" gorm:"not null"`
	TotalPrice   int64 `json:"total_price" gorm:"not null"`

	Status BookingStatus `json:"status" gorm:"type:varchar(20);index;not null"`

	PaymentProvider string `json:"payment_provider,omitempty" gorm:"type:varchar(32)"`
	PaymentRef      string `json:"payment_ref,omitempty" gorm:"type:varchar(200)"`
	Refunded        bool   `json:"refunded" gorm:"not null;default:false"`

	ConfirmedAt       *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	RefundRequestedAt *time.Time `json:"refund_requested_at,omitempty" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Booking) TableName() string { return "bookings" }

// Nights counts started days between check-in and check-out.
func Nights(checkIn, checkOut time.Time) int {
	return int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))
}

// RefundPending reports whether a cancel saga stopped between requesting and completing a refund.
func (b *Booking) RefundPending() bool {
	return b.RefundRequestedAt != nil && b.Status == BookingConfirmed
}
