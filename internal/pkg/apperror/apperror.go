package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies a failure of a booking or payment operation.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindInvalidDateRange
	KindRoomNotFound
	KindHotelNotFound
	KindBookingConflict
	KindBookingNotFound
	KindInvalidStateTransition
	KindForbidden
	KindPaymentNotFound
	KindAmountMismatch
	KindPaymentProviderFailure
	KindRefundFailed
)

var kindNames = map[Kind]string{
	KindUnknown:                "UNKNOWN",
	KindValidation:             "VALIDATION_ERROR",
	KindInvalidDateRange:       "INVALID_DATE_RANGE",
	KindRoomNotFound:           "ROOM_NOT_FOUND",
	KindHotelNotFound:          "HOTEL_NOT_FOUND",
	KindBookingConflict:        "BOOKING_CONFLICT",
	KindBookingNotFound:        "BOOKING_NOT_FOUND",
	KindInvalidStateTransition: "INVALID_STATE_TRANSITION",
	KindForbidden:              "FORBIDDEN",
	KindPaymentNotFound:        "PAYMENT_NOT_FOUND",
	KindAmountMismatch:         "AMOUNT_MISMATCH",
	KindPaymentProviderFailure: "PAYMENT_PROVIDER_FAILURE",
	KindRefundFailed:           "REFUND_FAILED",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// Retryable reports whether the caller may repeat the same request later.
func (k Kind) Retryable() bool {
	return k == KindPaymentProviderFailure || k == KindRefundFailed
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidDateRange, KindAmountMismatch:
		return http.StatusBadRequest
	case KindRoomNotFound, KindHotelNotFound, KindBookingNotFound, KindPaymentNotFound:
		return http.StatusNotFound
	case KindBookingConflict, KindInvalidStateTransition:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	case KindPaymentProviderFailure:
		return http.StatusBadGateway
	case KindRefundFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the tagged error returned by the booking and payment services.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) Retryable() bool { return e.Kind.Retryable() }

func (e *Error) HTTPStatus() int { return e.Kind.HTTPStatus() }

var (
	ErrValidation             = &Error{Kind: KindValidation, Message: "invalid request"}
	ErrInvalidDateRange       = &Error{Kind: KindInvalidDateRange, Message: "check-in must be before check-out"}
	ErrRoomNotFound           = &Error{Kind: KindRoomNotFound, Message: "room not found"}
	ErrHotelNotFound          = &Error{Kind: KindHotelNotFound, Message: "hotel not found"}
	ErrBookingConflict        = &Error{Kind: KindBookingConflict, Message: "room is already booked for the requested dates"}
	ErrBookingNotFound        = &Error{Kind: KindBookingNotFound, Message: "booking not found"}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition, Message: "booking status does not allow this operation"}
	ErrForbidden              = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrPaymentNotFound        = &Error{Kind: KindPaymentNotFound, Message: "payment not found"}
	ErrAmountMismatch         = &Error{Kind: KindAmountMismatch, Message: "amount mismatch"}
	ErrPaymentProviderFailure = &Error{Kind: KindPaymentProviderFailure, Message: "payment provider request failed"}
	ErrRefundFailed           = &Error{Kind: KindRefundFailed, Message: "refund failed"}
)

// New builds an error of the given kind, keeping the kind's default message.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: defaultMessage(kind), Err: err}
}

// Wrap builds an error of the given kind with a custom message.
func Wrap(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}

func defaultMessage(kind Kind) string {
	for _, s := range []*Error{
		ErrValidation, ErrInvalidDateRange, ErrRoomNotFound, ErrHotelNotFound, ErrBookingConflict,
		ErrBookingNotFound, ErrInvalidStateTransition, ErrForbidden, ErrPaymentNotFound,
		ErrAmountMismatch, ErrPaymentProviderFailure, ErrRefundFailed,
	} {
		if s.Kind == kind {
			return s.Message
		}
	}
	return ""
}
