package booking

import "time"

type CreateBookingInput struct {
	UserID   int64
	HotelID  int64
	RoomID   int64
	CheckIn  time.Time
	CheckOut time.Time
}

type ConfirmInput struct {
	Provider   string
	PaymentRef string
}

type CreateBookingRequest struct {
	HotelID  int64  `json:"hotelId" binding:"required"`
	RoomID   int64  `json:"roomId" binding:"required"`
	CheckIn  string `json:"checkIn" binding:"required"`
	CheckOut string `json:"checkOut" binding:"required"`
}

type ConfirmBookingRequest struct {
	PaymentProvider string `json:"paymentProvider" binding:"required"`
	PaymentID       string `json:"paymentId" binding:"required"`
}

type AvailabilityResponse struct {
	RoomID    int64     `json:"roomId"`
	CheckIn   time.Time `json:"checkIn"`
	CheckOut  time.Time `json:"checkOut"`
	Available bool      `json:"available"`
}
