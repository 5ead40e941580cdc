package admin

import (
	"context"

	"hotelbooking/internal/domain"
)

type HotelRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Hotel, error)
	ListByStatus(ctx context.Context, status domain.HotelStatus, offset, limit int) ([]domain.Hotel, int64, error)
	UpdateStatus(ctx context.Context, id int64, status domain.HotelStatus) error
}

type RoomRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	UpdatePrice(ctx context.Context, id int64, price int64) error
}
