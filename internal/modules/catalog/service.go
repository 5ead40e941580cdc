package catalog

import (
	"context"
	"errors"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/repository"
)

type HotelRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Hotel, error)
}

type RoomRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
}

// Service is the read-only view of hotels and rooms used by the booking core.
type Service struct {
	hotels HotelRepository
	rooms  RoomRepository
}

func NewService(hotels HotelRepository, rooms RoomRepository) *Service {
	return &Service{hotels: hotels, rooms: rooms}
}

func (s *Service) GetRoom(ctx context.Context, roomID int64) (*domain.Room, error) {
	const op = "catalog.GetRoom"
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.New(apperror.KindRoomNotFound, op, err)
		}
		return nil, err
	}
	return room, nil
}

func (s *Service) GetHotel(ctx context.Context, hotelID int64) (*domain.Hotel, error) {
	const op = "catalog.GetHotel"
	hotel, err := s.hotels.GetByID(ctx, hotelID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.New(apperror.KindHotelNotFound, op, err)
		}
		return nil, err
	}
	return hotel, nil
}
