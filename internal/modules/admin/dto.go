package admin

import "hotelbooking/internal/domain"

type RejectHotelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type UpdateRoomPriceRequest struct {
	Price int64 `json:"price" binding:"required,gt=0"`
}

type HotelListResponse struct {
	Hotels []domain.Hotel `json:"hotels"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Limit  int            `json:"limit"`
}
