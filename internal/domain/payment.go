package domain

import "time"

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is the provider-side record of money collected for a booking.
type Payment struct {
	ID          int64         `json:"id" gorm:"primaryKey"`
	BookingID   int64         `json:"booking_id" gorm:"index;not null"`
	UserID      int64         `json:"user_id" gorm:"index;not null"`
	Provider    string        `json:"provider" gorm:"type:varchar(32);not null"`
	OrderRef    string        `json:"order_ref" gorm:"type:varchar(64);uniqueIndex;not null"`
	PaymentKey  string        `json:"payment_key,omitempty" gorm:"type:varchar(200)"`
	Amount      int64         `json:"amount" gorm:"not null"`
	Status      PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	Raw         string        `json:"-" gorm:"type:text"`
	PaidAt      *time.Time    `json:"paid_at,omitempty"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }
