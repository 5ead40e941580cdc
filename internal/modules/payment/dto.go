package payment

type PreparePaymentRequest struct {
	BookingID int64 `json:"bookingId" binding:"required"`
}

type PreparePaymentResponse struct {
	PaymentID int64  `json:"paymentId"`
	OrderID   string `json:"orderId"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

type ConfirmPaymentRequest struct {
	OrderID    string `json:"orderId" binding:"required"`
	PaymentKey string `json:"paymentKey" binding:"required"`
	Amount     int64  `json:"amount" binding:"required"`
}

type ConfirmPaymentInput struct {
	UserID     int64
	OrderRef   string
	PaymentKey string
	Amount     int64
}
