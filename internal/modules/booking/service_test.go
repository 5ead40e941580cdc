package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/kafka"
	"hotelbooking/internal/modules/catalog"
	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/repository"
)

type mockRefunder struct {
	mock.Mock
}

func (m *mockRefunder) Refund(ctx context.Context, req RefundRequest) error {
	return m.Called(ctx, req).Error(0)
}

type mockLocker struct {
	mock.Mock
}

func (m *mockLocker) AcquireRoomLock(ctx context.Context, roomID int64, ttl time.Duration) (string, error) {
	args := m.Called(ctx, roomID, ttl)
	return args.String(0), args.Error(1)
}

func (m *mockLocker) ReleaseRoomLock(ctx context.Context, roomID int64, token string) error {
	return m.Called(ctx, roomID, token).Error(0)
}

type recordingProducer struct {
	mu     sync.Mutex
	events []kafka.BookingEvent
}

func (p *recordingProducer) Publish(_ context.Context, _, _ string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, value.(kafka.BookingEvent))
	return nil
}

func (p *recordingProducer) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	store    *repository.BookingRepository
	rooms    *repository.RoomRepository
	refunder *mockRefunder
	hotel    *domain.Hotel
	room     *domain.Room
}

func setupTestService(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	ctx := context.Background()
	hotels := repository.NewHotelRepository(db)
	rooms := repository.NewRoomRepository(db)

	hotel := &domain.Hotel{Name: "Harbor Inn", City: "Busan", Country: "KR", OwnerID: 1, Status: domain.HotelApproved}
	require.NoError(t, hotels.Create(ctx, hotel))
	room := &domain.Room{HotelID: hotel.ID, Name: "301", Type: "double", Price: 100000, Capacity: 2, Status: domain.RoomAvailable}
	require.NoError(t, rooms.Create(ctx, room))

	quiet := logrus.New()
	quiet.SetLevel(logrus.PanicLevel)

	store := repository.NewBookingRepository(db)
	refunder := new(mockRefunder)
	svc := NewService(store, catalog.NewService(hotels, rooms), refunder, append([]Option{WithLogger(quiet)}, opts...)...)

	return &fixture{db: db, svc: svc, store: store, rooms: rooms, refunder: refunder, hotel: hotel, room: room}
}

func day(d int) time.Time {
	return time.Date(2030, 6, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) input(userID int64, in, out time.Time) CreateBookingInput {
	return CreateBookingInput{UserID: userID, HotelID: f.hotel.ID, RoomID: f.room.ID, CheckIn: in, CheckOut: out}
}

func (f *fixture) confirmed(t *testing.T, in, out time.Time) *domain.Booking {
	t.Helper()
	ctx := context.Background()
	b, err := f.svc.Create(ctx, f.input(7, in, out))
	require.NoError(t, err)
	b, err = f.svc.Confirm(ctx, b.ID, ConfirmInput{Provider: "toss", PaymentRef: "pk_test"})
	require.NoError(t, err)
	return b
}

func TestCreate_Success(t *testing.T) {
	f := setupTestService(t)

	b, err := f.svc.Create(context.Background(), f.input(7, day(10), day(13)))
	require.NoError(t, err)

	assert.NotZero(t, b.ID)
	assert.Equal(t, domain.BookingPendingPayment, b.Status)
	assert.Equal(t, 3, b.Nights)
	assert.Equal(t, int64(100000), b.NightlyPrice)
	assert.Equal(t, int64(300000), b.TotalPrice)
	assert.False(t, b.Refunded)
}

func TestCreate_PartialDayCountsAsNight(t *testing.T) {
	f := setupTestService(t)

	b, err := f.svc.Create(context.Background(), f.input(7, day(10), day(11).Add(3*time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, 2, b.Nights)
	assert.Equal(t, int64(200000), b.TotalPrice)
}

func TestCreate_Validation(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.input(7, day(10), day(10)))
	assert.ErrorIs(t, err, apperror.ErrInvalidDateRange)

	var rows int64
	require.NoError(t, f.db.Model(&domain.Booking{}).Count(&rows).Error)
	assert.Zero(t, rows, "empty stay must not be stored")

	_, err = f.svc.Create(ctx, f.input(7, day(12), day(10)))
	assert.ErrorIs(t, err, apperror.ErrInvalidDateRange)

	// date range is checked before the room lookup
	in := f.input(7, day(12), day(10))
	in.RoomID = 999
	_, err = f.svc.Create(ctx, in)
	assert.ErrorIs(t, err, apperror.ErrInvalidDateRange)

	in = f.input(7, day(1), day(2))
	in.RoomID = 999
	_, err = f.svc.Create(ctx, in)
	assert.ErrorIs(t, err, apperror.ErrRoomNotFound)

	in = f.input(7, day(1), day(2))
	in.HotelID = f.hotel.ID + 100
	_, err = f.svc.Create(ctx, in)
	assert.ErrorIs(t, err, apperror.ErrHotelNotFound, "unknown hotel")

	other := &domain.Hotel{Name: "Hill Lodge", City: "Seoul", Country: "KR", OwnerID: 1, Status: domain.HotelApproved}
	require.NoError(t, f.db.Create(other).Error)
	in = f.input(7, day(1), day(2))
	in.HotelID = other.ID
	_, err = f.svc.Create(ctx, in)
	assert.ErrorIs(t, err, apperror.ErrRoomNotFound, "room of another hotel")

	_, err = f.svc.Create(ctx, f.input(0, day(1), day(2)))
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestCreate_HotelNotFound(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	orphan := &domain.Room{HotelID: 555, Name: "ghost", Type: "single", Price: 1000, Capacity: 1}
	require.NoError(t, f.rooms.Create(ctx, orphan))

	_, err := f.svc.Create(ctx, CreateBookingInput{UserID: 7, HotelID: 555, RoomID: orphan.ID, CheckIn: day(1), CheckOut: day(2)})
	assert.ErrorIs(t, err, apperror.ErrHotelNotFound)
}

func TestCreate_ConflictAndTouchingStays(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.input(7, day(10), day(12)))
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, f.input(8, day(11), day(13)))
	assert.ErrorIs(t, err, apperror.ErrBookingConflict)
	assert.False(t, apperror.IsRetryable(err))

	_, err = f.svc.Create(ctx, f.input(8, day(9), day(15)))
	assert.ErrorIs(t, err, apperror.ErrBookingConflict)

	// [12,14) starts the day [10,12) ends
	_, err = f.svc.Create(ctx, f.input(8, day(12), day(14)))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.input(8, day(8), day(10)))
	require.NoError(t, err)
}

func TestCreate_ConcurrentSameRoom(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	const workers = 12
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(user int64) {
			defer wg.Done()
			_, err := f.svc.Create(ctx, f.input(user, day(20), day(23)))
			errs <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperror.ErrBookingConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)

	stored, err := f.store.FindOverlapping(ctx, f.room.ID, day(20), day(23))
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCreate_ConcurrentMixedRanges(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	ranges := [][2]time.Time{
		{day(1), day(3)}, {day(2), day(4)}, {day(3), day(5)},
		{day(1), day(3)}, {day(2), day(4)}, {day(3), day(5)},
	}

	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		go func(user int64, in, out time.Time) {
			defer wg.Done()
			_, _ = f.svc.Create(ctx, f.input(user, in, out))
		}(int64(i+1), r[0], r[1])
	}
	wg.Wait()

	stored, err := f.store.FindOverlapping(ctx, f.room.ID, day(1), day(5))
	require.NoError(t, err)
	require.NotEmpty(t, stored)
	for i := range stored {
		for j := i + 1; j < len(stored); j++ {
			assert.False(t, Overlaps(stored[i].CheckIn, stored[i].CheckOut, stored[j].CheckIn, stored[j].CheckOut),
				"bookings %d and %d overlap", stored[i].ID, stored[j].ID)
		}
	}
}

func TestCreate_PriceFixedAtCreation(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.input(7, day(1), day(3)))
	require.NoError(t, err)

	require.NoError(t, f.rooms.UpdatePrice(ctx, f.room.ID, 150000))

	stored, err := f.svc.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200000), stored.TotalPrice)
	assert.Equal(t, int64(100000), stored.NightlyPrice)

	second, err := f.svc.Create(ctx, f.input(7, day(5), day(7)))
	require.NoError(t, err)
	assert.Equal(t, int64(300000), second.TotalPrice)
}

func TestConfirm(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, f.input(7, day(1), day(3)))
	require.NoError(t, err)

	_, err = f.svc.Confirm(ctx, b.ID, ConfirmInput{Provider: "toss"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	confirmed, err := f.svc.Confirm(ctx, b.ID, ConfirmInput{Provider: "toss", PaymentRef: "pk_1"})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, confirmed.Status)
	assert.Equal(t, "toss", confirmed.PaymentProvider)
	assert.Equal(t, "pk_1", confirmed.PaymentRef)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, b.TotalPrice, confirmed.TotalPrice)

	_, err = f.svc.Confirm(ctx, b.ID, ConfirmInput{Provider: "toss", PaymentRef: "pk_2"})
	assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition)

	_, err = f.svc.Confirm(ctx, 9999, ConfirmInput{Provider: "toss", PaymentRef: "pk_1"})
	assert.ErrorIs(t, err, apperror.ErrBookingNotFound)

	// an unknown booking is reported before the payment fields are checked
	_, err = f.svc.Confirm(ctx, 9999, ConfirmInput{})
	assert.ErrorIs(t, err, apperror.ErrBookingNotFound)
}

func TestConfirm_ConcurrentOnlyOneWins(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, f.input(7, day(1), day(3)))
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Confirm(ctx, b.ID, ConfirmInput{Provider: "toss", PaymentRef: "pk"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition)
	}
	assert.Equal(t, 1, wins)
}

func TestCancel_PendingSkipsRefund(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, f.input(7, day(1), day(3)))
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.False(t, cancelled.Refunded)
	assert.NotNil(t, cancelled.CancelledAt)

	f.refunder.AssertNotCalled(t, "Refund", mock.Anything, mock.Anything)

	// the dates are free again
	available, err := f.svc.CheckAvailability(ctx, f.room.ID, day(1), day(3))
	require.NoError(t, err)
	assert.True(t, available)
}

func TestCancel_ConfirmedRefunds(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	b := f.confirmed(t, day(1), day(3))

	f.refunder.On("Refund", mock.Anything, mock.MatchedBy(func(req RefundRequest) bool {
		return req.BookingID == b.ID &&
			req.PaymentRef == "pk_test" &&
			req.Amount == b.TotalPrice &&
			req.IdempotencyKey == RefundIdempotencyKey(b.ID)
	})).Return(nil).Once()

	cancelled, err := f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, cancelled.Status)
	assert.True(t, cancelled.Refunded)
	assert.Nil(t, cancelled.RefundRequestedAt)

	f.refunder.AssertExpectations(t)
}

func TestCancel_RefundFailureKeepsBookingConfirmed(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()
	b := f.confirmed(t, day(1), day(3))

	f.refunder.On("Refund", mock.Anything, mock.Anything).Return(errors.New("gateway timeout")).Once()

	_, err := f.svc.Cancel(ctx, b.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrRefundFailed)
	assert.True(t, apperror.IsRetryable(err))

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, stored.Status)
	assert.False(t, stored.Refunded)
	assert.True(t, stored.RefundPending())

	// the room is still held
	available, err := f.svc.CheckAvailability(ctx, f.room.ID, day(1), day(3))
	require.NoError(t, err)
	assert.False(t, available)

	// the next reconcile pass finishes the cancellation with the same idempotency key
	f.refunder.On("Refund", mock.Anything, mock.MatchedBy(func(req RefundRequest) bool {
		return req.IdempotencyKey == RefundIdempotencyKey(b.ID)
	})).Return(nil).Once()

	done, err := f.svc.ReconcileRefunds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, done)

	stored, err = f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, stored.Status)
	assert.True(t, stored.Refunded)
	assert.Nil(t, stored.RefundRequestedAt)

	f.refunder.AssertExpectations(t)
}

func TestCancel_TerminalStates(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	b, err := f.svc.Create(ctx, f.input(7, day(1), day(3)))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition)

	_, err = f.svc.Confirm(ctx, b.ID, ConfirmInput{Provider: "toss", PaymentRef: "pk"})
	assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition)

	stored, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, stored.Status)

	_, err = f.svc.Cancel(ctx, 4242)
	assert.ErrorIs(t, err, apperror.ErrBookingNotFound)
}

func TestCheckAvailability(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.input(7, day(10), day(12)))
	require.NoError(t, err)

	cases := []struct {
		name     string
		in, out  time.Time
		expected bool
	}{
		{"same range", day(10), day(12), false},
		{"inside", day(10), day(11), false},
		{"ends on check-in", day(8), day(10), true},
		{"starts on check-out", day(12), day(15), true},
		{"covers", day(9), day(13), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.svc.CheckAvailability(ctx, f.room.ID, tc.in, tc.out)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}

	_, err = f.svc.CheckAvailability(ctx, f.room.ID, day(12), day(12))
	assert.ErrorIs(t, err, apperror.ErrInvalidDateRange)
}

func TestListByUser(t *testing.T) {
	f := setupTestService(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.input(7, day(1), day(2)))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.input(7, day(3), day(4)))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.input(8, day(5), day(6)))
	require.NoError(t, err)

	list, err := f.svc.ListByUser(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestExpireAbandoned(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	f := setupTestService(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	stale, err := f.svc.Create(ctx, f.input(7, day(1), day(3)))
	require.NoError(t, err)
	paid := f.confirmed(t, day(5), day(6))

	now = now.Add(20 * time.Minute)
	fresh, err := f.svc.Create(ctx, f.input(7, day(8), day(9)))
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	expired, err := f.svc.ExpireAbandoned(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	got, err := f.svc.Get(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)

	got, err = f.svc.Get(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPendingPayment, got.Status)

	got, err = f.svc.Get(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
}

func TestComplete(t *testing.T) {
	now := time.Date(2030, 6, 2, 0, 0, 0, 0, time.UTC)
	f := setupTestService(t, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	b := f.confirmed(t, day(3), day(5))

	_, err := f.svc.Complete(ctx, b.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition, "stay not over")

	now = day(5).Add(time.Hour)
	done, err := f.svc.CompleteCheckedOut(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, done)

	got, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCompleted, got.Status)

	_, err = f.svc.Cancel(ctx, b.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition)
}

func TestCreate_RoomLock(t *testing.T) {
	locker := new(mockLocker)
	f := setupTestService(t, WithRoomLock(locker, 50*time.Millisecond))
	ctx := context.Background()

	locker.On("AcquireRoomLock", mock.Anything, f.room.ID, 50*time.Millisecond).Return("tok-1", nil).Once()
	locker.On("ReleaseRoomLock", mock.Anything, f.room.ID, "tok-1").Return(nil).Once()

	_, err := f.svc.Create(ctx, f.input(7, day(1), day(2)))
	require.NoError(t, err)

	// held by someone else for longer than we wait
	locker.On("AcquireRoomLock", mock.Anything, f.room.ID, 50*time.Millisecond).Return("", nil)
	_, err = f.svc.Create(ctx, f.input(7, day(3), day(4)))
	assert.ErrorIs(t, err, apperror.ErrBookingConflict)

	locker.AssertNumberOfCalls(t, "ReleaseRoomLock", 1)
}

func TestCreate_RoomLockBackendDown(t *testing.T) {
	locker := new(mockLocker)
	f := setupTestService(t, WithRoomLock(locker, time.Second))

	locker.On("AcquireRoomLock", mock.Anything, f.room.ID, time.Second).Return("", errors.New("connection refused"))

	b, err := f.svc.Create(context.Background(), f.input(7, day(1), day(2)))
	require.NoError(t, err)
	assert.NotZero(t, b.ID)
	locker.AssertNotCalled(t, "ReleaseRoomLock", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventsPublished(t *testing.T) {
	producer := &recordingProducer{}
	f := setupTestService(t, WithEvents(producer, "booking-events"))
	ctx := context.Background()

	b := f.confirmed(t, day(1), day(3))
	f.refunder.On("Refund", mock.Anything, mock.Anything).Return(nil).Once()
	_, err := f.svc.Cancel(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		kafka.EventBookingCreated,
		kafka.EventBookingConfirmed,
		kafka.EventBookingCancelled,
	}, producer.types())
	assert.True(t, producer.events[2].Refunded)
}

func TestRefundIdempotencyKey(t *testing.T) {
	assert.Equal(t, "refund-17", RefundIdempotencyKey(17))
}
