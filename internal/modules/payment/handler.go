package payment

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/pkg/response"
	"hotelbooking/internal/pkg/validator"
)

type Handler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHandler(service *Service, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/payments")
	g.POST("/prepare", h.Prepare)
	g.POST("/confirm", h.Confirm)
	g.POST("/cancel/:bookingId", h.CancelBooking)
}

func (h *Handler) Prepare(c *gin.Context) {
	var req PreparePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := h.service.Prepare(c.Request.Context(), middleware.UserID(c), req.BookingID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, PreparePaymentResponse{
		PaymentID: p.ID,
		OrderID:   p.OrderRef,
		Amount:    p.Amount,
		Status:    string(p.Status),
	}, "payment prepared")
}

// Confirm is called by the client after the provider's checkout redirect.
func (h *Handler) Confirm(c *gin.Context) {
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	h.log.WithFields(logrus.Fields{"order_ref": req.OrderID, "amount": req.Amount}).Info("payment confirm request")

	p, err := h.service.Confirm(c.Request.Context(), ConfirmPaymentInput{
		UserID:     middleware.UserID(c),
		OrderRef:   req.OrderID,
		PaymentKey: req.PaymentKey,
		Amount:     req.Amount,
	})
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "payment confirmed")
}

func (h *Handler) CancelBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("bookingId"), 10, 64)
	if err != nil || bookingID <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid booking id", gin.H{"code": apperror.KindValidation.String()})
		return
	}

	b, err := h.service.CancelByBooking(c.Request.Context(), middleware.UserID(c), bookingID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, b, "booking cancelled")
}

func badRequest(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, "invalid request body", gin.H{
		"code":   apperror.KindValidation.String(),
		"fields": validator.Fields(err),
	})
}
