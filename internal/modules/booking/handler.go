package booking

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/pkg/response"
	"hotelbooking/internal/pkg/validator"
	"hotelbooking/internal/repository"
)

type Handler struct {
	service  *Service
	payments PaymentLookup
}

func NewHandler(service *Service, payments PaymentLookup) *Handler {
	return &Handler{service: service, payments: payments}
}

// RegisterPublicRoutes mounts endpoints that need no token.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/availability/:roomId", h.CheckAvailability)
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/bookings")
	g.POST("", h.CreateBooking)
	g.GET("", h.ListMyBookings)
	g.GET("/:id", h.GetBooking)
	g.POST("/:id/confirm", h.ConfirmBooking)
	g.DELETE("/:id", h.CancelBooking)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", gin.H{
			"code":   apperror.KindValidation.String(),
			"fields": validator.Fields(err),
		})
		return
	}

	checkIn, err1 := parseDate(req.CheckIn)
	checkOut, err2 := parseDate(req.CheckOut)
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "checkIn and checkOut must be dates", gin.H{"code": apperror.KindValidation.String()})
		return
	}

	b, err := h.service.Create(c.Request.Context(), CreateBookingInput{
		UserID:   middleware.UserID(c),
		HotelID:  req.HotelID,
		RoomID:   req.RoomID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, b, "booking created")
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	list, err := h.service.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if list == nil {
		list = []domain.Booking{}
	}
	response.Success(c, http.StatusOK, list, "bookings loaded")
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, ok := h.loadOwned(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, b, "booking loaded")
}

func (h *Handler) ConfirmBooking(c *gin.Context) {
	var req ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", gin.H{
			"code":   apperror.KindValidation.String(),
			"fields": validator.Fields(err),
		})
		return
	}

	b, ok := h.loadOwned(c)
	if !ok {
		return
	}
	if !h.paymentCollected(c, b.ID, req) {
		return
	}

	confirmed, err := h.service.Confirm(c.Request.Context(), b.ID, ConfirmInput{
		Provider:   req.PaymentProvider,
		PaymentRef: req.PaymentID,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, confirmed, "booking confirmed")
}

func (h *Handler) CancelBooking(c *gin.Context) {
	b, ok := h.loadOwned(c)
	if !ok {
		return
	}

	cancelled, err := h.service.Cancel(c.Request.Context(), b.ID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, cancelled, "booking cancelled")
}

// CheckAvailability handles GET /bookings/availability/:roomId?checkIn=&checkOut=.
// Dates are RFC 3339 timestamps or plain YYYY-MM-DD days (UTC midnight).
func (h *Handler) CheckAvailability(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("roomId"), 10, 64)
	if err != nil || roomID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid room id", gin.H{"code": apperror.KindValidation.String()})
		return
	}

	checkIn, err1 := parseDate(c.Query("checkIn"))
	checkOut, err2 := parseDate(c.Query("checkOut"))
	if err1 != nil || err2 != nil {
		response.Error(c, http.StatusBadRequest, "checkIn and checkOut are required dates", gin.H{"code": apperror.KindValidation.String()})
		return
	}

	available, err := h.service.CheckAvailability(c.Request.Context(), roomID, checkIn, checkOut)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, AvailabilityResponse{
		RoomID:    roomID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Available: available,
	}, "availability checked")
}

// loadOwned fetches the booking in :id and writes the error response itself when the
// caller may not see it.
func (h *Handler) loadOwned(c *gin.Context) (*domain.Booking, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid booking id", gin.H{"code": apperror.KindValidation.String()})
		return nil, false
	}

	b, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return nil, false
	}
	if b.UserID != middleware.UserID(c) && !middleware.IsAdmin(c) {
		response.FromError(c, apperror.New(apperror.KindForbidden, "booking.access", nil))
		return nil, false
	}
	return b, true
}

// paymentCollected accepts a confirm only when the booking has a paid payment with the
// given provider and key.
func (h *Handler) paymentCollected(c *gin.Context, bookingID int64, req ConfirmBookingRequest) bool {
	p, err := h.payments.FindActiveByBooking(c.Request.Context(), bookingID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		response.FromError(c, err)
		return false
	}
	if p == nil || p.Status != domain.PaymentPaid ||
		p.PaymentKey != strings.TrimSpace(req.PaymentID) ||
		!strings.EqualFold(p.Provider, strings.TrimSpace(req.PaymentProvider)) {
		response.FromError(c, apperror.Wrap(apperror.KindPaymentNotFound, "booking.confirm", "no paid payment matches paymentId", nil))
		return false
	}
	return true
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, s)
}
