package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/pkg/response"
	"hotelbooking/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	g := protected.Group("/admin")
	g.Use(middleware.RequireRole(domain.RoleAdmin))
	{
		g.GET("/hotels/pending", h.ListPendingHotels)
		g.POST("/hotels/:id/approve", h.ApproveHotel)
		g.POST("/hotels/:id/reject", h.RejectHotel)
		g.PATCH("/rooms/:id/price", h.UpdateRoomPrice)
	}
}

func (h *Handler) ListPendingHotels(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	hotels, total, err := h.service.ListPendingHotels(c.Request.Context(), page, limit)
	if err != nil {
		response.FromError(c, err)
		return
	}
	if hotels == nil {
		hotels = []domain.Hotel{}
	}
	response.Success(c, http.StatusOK, HotelListResponse{Hotels: hotels, Total: total, Page: page, Limit: limit}, "pending hotels loaded")
}

func (h *Handler) ApproveHotel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	hotel, err := h.service.ApproveHotel(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hotel, "hotel approved")
}

func (h *Handler) RejectHotel(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req RejectHotelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	hotel, err := h.service.RejectHotel(c.Request.Context(), id, middleware.UserID(c), req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hotel, "hotel rejected")
}

func (h *Handler) UpdateRoomPrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdateRoomPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	room, err := h.service.UpdateRoomPrice(c.Request.Context(), id, req.Price)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, room, "room price updated")
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "invalid id", gin.H{"code": apperror.KindValidation.String()})
		return 0, false
	}
	return id, true
}

func invalidBody(c *gin.Context, err error) {
	response.Error(c, http.StatusBadRequest, "invalid request body", gin.H{
		"code":   apperror.KindValidation.String(),
		"fields": validator.Fields(err),
	})
}
