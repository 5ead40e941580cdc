package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/repository"
)

type Service struct {
	hotels HotelRepository
	rooms  RoomRepository
	log    logrus.FieldLogger
}

func NewService(hotels HotelRepository, rooms RoomRepository, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{hotels: hotels, rooms: rooms, log: log}
}

// -------------------- Hotels --------------------

// ListPendingHotels returns hotels waiting for moderation, newest first.
func (s *Service) ListPendingHotels(ctx context.Context, page, limit int) ([]domain.Hotel, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.hotels.ListByStatus(ctx, domain.HotelPending, (page-1)*limit, limit)
}

// ApproveHotel makes a hotel bookable.
func (s *Service) ApproveHotel(ctx context.Context, hotelID, adminID int64) (*domain.Hotel, error) {
	return s.setHotelStatus(ctx, "admin.ApproveHotel", hotelID, adminID, domain.HotelApproved, "")
}

func (s *Service) RejectHotel(ctx context.Context, hotelID, adminID int64, reason string) (*domain.Hotel, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperror.Wrap(apperror.KindValidation, "admin.RejectHotel", "reason is required", nil)
	}
	return s.setHotelStatus(ctx, "admin.RejectHotel", hotelID, adminID, domain.HotelRejected, reason)
}

func (s *Service) setHotelStatus(ctx context.Context, op string, hotelID, adminID int64, status domain.HotelStatus, reason string) (*domain.Hotel, error) {
	if err := s.hotels.UpdateStatus(ctx, hotelID, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.New(apperror.KindHotelNotFound, op, err)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"hotel_id": hotelID,
		"admin_id": adminID,
		"status":   status,
		"reason":   reason,
	}).Info("hotel moderated")

	return s.hotels.GetByID(ctx, hotelID)
}

// -------------------- Rooms --------------------

// UpdateRoomPrice changes the nightly rate. Bookings already made keep their total.
func (s *Service) UpdateRoomPrice(ctx context.Context, roomID, price int64) (*domain.Room, error) {
	const op = "admin.UpdateRoomPrice"

	if price <= 0 {
		return nil, apperror.Wrap(apperror.KindValidation, op, "price must be positive", nil)
	}
	if err := s.rooms.UpdatePrice(ctx, roomID, price); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.New(apperror.KindRoomNotFound, op, err)
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"room_id": roomID, "price": price}).Info("room price updated")
	return s.rooms.GetByID(ctx, roomID)
}
