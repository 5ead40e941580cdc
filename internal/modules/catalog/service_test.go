package catalog

import (
	"context"
	"errors"
	"testing"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHotelRepo struct{ mock.Mock }

func (m *mockHotelRepo) GetByID(ctx context.Context, id int64) (*domain.Hotel, error) {
	args := m.Called(ctx, id)
	if h := args.Get(0); h != nil {
		return h.(*domain.Hotel), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRoomRepo struct{ mock.Mock }

func (m *mockRoomRepo) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*domain.Room), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestService_GetRoom(t *testing.T) {
	ctx := context.Background()
	hotels := new(mockHotelRepo)
	rooms := new(mockRoomRepo)
	svc := NewService(hotels, rooms)

	rooms.On("GetByID", ctx, int64(1)).Return(&domain.Room{ID: 1, HotelID: 2, Price: 90000}, nil)
	rooms.On("GetByID", ctx, int64(2)).Return(nil, repository.ErrNotFound)
	rooms.On("GetByID", ctx, int64(3)).Return(nil, errors.New("db down"))

	room, err := svc.GetRoom(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(90000), room.Price)

	_, err = svc.GetRoom(ctx, 2)
	assert.ErrorIs(t, err, apperror.ErrRoomNotFound)

	_, err = svc.GetRoom(ctx, 3)
	require.Error(t, err)
	assert.Equal(t, apperror.KindUnknown, apperror.KindOf(err))

	rooms.AssertExpectations(t)
}

func TestService_GetHotel(t *testing.T) {
	ctx := context.Background()
	hotels := new(mockHotelRepo)
	svc := NewService(hotels, new(mockRoomRepo))

	hotels.On("GetByID", ctx, int64(7)).Return(&domain.Hotel{ID: 7, Name: "Seaside"}, nil)
	hotels.On("GetByID", ctx, int64(8)).Return(nil, repository.ErrNotFound)

	h, err := svc.GetHotel(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Seaside", h.Name)

	_, err = svc.GetHotel(ctx, 8)
	assert.ErrorIs(t, err, apperror.ErrHotelNotFound)
}
