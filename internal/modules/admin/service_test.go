package admin

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/repository"
)

type mockHotelRepo struct {
	hotels    map[int64]*domain.Hotel
	updateErr error
	offset    int
	limit     int
}

func (m *mockHotelRepo) GetByID(ctx context.Context, id int64) (*domain.Hotel, error) {
	h, ok := m.hotels[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return h, nil
}

func (m *mockHotelRepo) ListByStatus(ctx context.Context, status domain.HotelStatus, offset, limit int) ([]domain.Hotel, int64, error) {
	m.offset, m.limit = offset, limit
	var out []domain.Hotel
	for _, h := range m.hotels {
		if h.Status == status {
			out = append(out, *h)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockHotelRepo) UpdateStatus(ctx context.Context, id int64, status domain.HotelStatus) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	h, ok := m.hotels[id]
	if !ok {
		return repository.ErrNotFound
	}
	h.Status = status
	return nil
}

type mockRoomRepo struct {
	room        *domain.Room
	updateCalls int
}

func (m *mockRoomRepo) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	if m.room == nil || m.room.ID != id {
		return nil, repository.ErrNotFound
	}
	return m.room, nil
}

func (m *mockRoomRepo) UpdatePrice(ctx context.Context, id int64, price int64) error {
	m.updateCalls++
	if m.room == nil || m.room.ID != id {
		return repository.ErrNotFound
	}
	m.room.Price = price
	return nil
}

func newTestService(hotels *mockHotelRepo, rooms *mockRoomRepo) *Service {
	quiet := logrus.New()
	quiet.SetLevel(logrus.PanicLevel)
	return NewService(hotels, rooms, quiet)
}

func TestApproveHotel_Success(t *testing.T) {
	hotels := &mockHotelRepo{hotels: map[int64]*domain.Hotel{5: {ID: 5, Status: domain.HotelPending}}}
	svc := newTestService(hotels, &mockRoomRepo{})

	h, err := svc.ApproveHotel(context.Background(), 5, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status != domain.HotelApproved {
		t.Fatalf("expected approved, got %s", h.Status)
	}
}

func TestApproveHotel_NotFound(t *testing.T) {
	svc := newTestService(&mockHotelRepo{hotels: map[int64]*domain.Hotel{}}, &mockRoomRepo{})

	_, err := svc.ApproveHotel(context.Background(), 99, 1)
	if apperror.KindOf(err) != apperror.KindHotelNotFound {
		t.Fatalf("expected HOTEL_NOT_FOUND, got %v", err)
	}
}

func TestRejectHotel_RequiresReason(t *testing.T) {
	hotels := &mockHotelRepo{hotels: map[int64]*domain.Hotel{5: {ID: 5, Status: domain.HotelPending}}}
	svc := newTestService(hotels, &mockRoomRepo{})

	_, err := svc.RejectHotel(context.Background(), 5, 1, "  ")
	if apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if hotels.hotels[5].Status != domain.HotelPending {
		t.Fatalf("status must not change without a reason")
	}

	h, err := svc.RejectHotel(context.Background(), 5, 1, "fake photos")
	if err != nil || h.Status != domain.HotelRejected {
		t.Fatalf("expected rejected, got %v / %v", h, err)
	}
}

func TestRejectHotel_StoreError(t *testing.T) {
	boom := errors.New("db down")
	hotels := &mockHotelRepo{hotels: map[int64]*domain.Hotel{5: {ID: 5}}, updateErr: boom}
	svc := newTestService(hotels, &mockRoomRepo{})

	if _, err := svc.RejectHotel(context.Background(), 5, 1, "spam"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestListPendingHotels_Paging(t *testing.T) {
	hotels := &mockHotelRepo{hotels: map[int64]*domain.Hotel{
		1: {ID: 1, Status: domain.HotelPending},
		2: {ID: 2, Status: domain.HotelApproved},
	}}
	svc := newTestService(hotels, &mockRoomRepo{})

	list, total, err := svc.ListPendingHotels(context.Background(), 3, 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(list) != 1 {
		t.Fatalf("expected one pending hotel, got %d", total)
	}
	if hotels.limit != 20 || hotels.offset != 40 {
		t.Fatalf("expected offset 40 limit 20, got %d %d", hotels.offset, hotels.limit)
	}
}

func TestUpdateRoomPrice(t *testing.T) {
	rooms := &mockRoomRepo{room: &domain.Room{ID: 3, Price: 100000}}
	svc := newTestService(&mockHotelRepo{}, rooms)

	if _, err := svc.UpdateRoomPrice(context.Background(), 3, 0); apperror.KindOf(err) != apperror.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if rooms.updateCalls != 0 {
		t.Fatalf("expected UpdatePrice not called for invalid price")
	}

	room, err := svc.UpdateRoomPrice(context.Background(), 3, 120000)
	if err != nil || room.Price != 120000 {
		t.Fatalf("expected new price, got %v / %v", room, err)
	}

	if _, err := svc.UpdateRoomPrice(context.Background(), 4, 120000); apperror.KindOf(err) != apperror.KindRoomNotFound {
		t.Fatalf("expected ROOM_NOT_FOUND, got %v", err)
	}
}
