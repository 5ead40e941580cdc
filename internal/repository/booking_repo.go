package repository

import (
	"context"
	"fmt"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Insert stores b only if no non-cancelled booking overlaps its stay. The room row is
// locked for the duration of the transaction so concurrent inserts for the same room
// serialize; on PostgreSQL the bookings_no_overlap exclusion constraint backs this up.
func (r *BookingRepository) Insert(ctx context.Context, b *domain.Booking) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room domain.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", b.RoomID).
			First(&room).Error; err != nil {
			return translate(err)
		}

		n, err := countOverlapping(tx, b.RoomID, b.CheckIn, b.CheckOut)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrOverlap
		}

		return tx.Create(b).Error
	})
	if err != nil {
		if isOverlapViolation(err) {
			return ErrOverlap
		}
		return err
	}
	return nil
}

func (r *BookingRepository) FindByID(ctx context.Context, id int64) (*domain.Booking, error) {
	var b domain.Booking
	if err := r.db.WithContext(ctx).First(&b, id).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

// FindOverlapping returns the non-cancelled bookings of roomID whose [check_in, check_out)
// intersects [checkIn, checkOut).
func (r *BookingRepository) FindOverlapping(ctx context.Context, roomID int64, checkIn, checkOut time.Time) ([]domain.Booking, error) {
	var out []domain.Booking
	err := overlapping(r.db.WithContext(ctx), roomID, checkIn, checkOut).
		Order("check_in").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves a booking from `from` to `to` and applies fields in the same
// statement. ErrStaleStatus is returned when the booking is no longer in `from`.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BookingStatus, fields map[string]any) (*domain.Booking, error) {
	updates := map[string]any{"status": to}
	for k, v := range fields {
		updates[k] = v
	}

	var out *domain.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Booking{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&domain.Booking{}).Where("id = ?", id).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return ErrNotFound
			}
			return ErrStaleStatus
		}

		var b domain.Booking
		if err := tx.First(&b, id).Error; err != nil {
			return translate(err)
		}
		out = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkRefundRequested records the start of a refund for a confirmed booking. Calling it
// again keeps the original timestamp.
func (r *BookingRepository) MarkRefundRequested(ctx context.Context, id int64, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Booking{}).
		Where("id = ? AND status = ? AND refund_requested_at IS NULL", id, domain.BookingConfirmed).
		Update("refund_requested_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	b, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if b.Status != domain.BookingConfirmed {
		return ErrStaleStatus
	}
	return nil
}

// ListRefundPending returns confirmed bookings whose cancellation stopped after the refund was requested.
func (r *BookingRepository) ListRefundPending(ctx context.Context, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND refund_requested_at IS NOT NULL", domain.BookingConfirmed).
		Order("refund_requested_at").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAbandoned returns pendingPayment bookings created before the deadline.
func (r *BookingRepository) ListAbandoned(ctx context.Context, createdBefore time.Time, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", domain.BookingPendingPayment, createdBefore).
		Order("created_at").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListCheckedOut returns confirmed bookings whose stay ended before the given time and
// that have no refund in flight.
func (r *BookingRepository) ListCheckedOut(ctx context.Context, checkOutBefore time.Time, limit int) ([]domain.Booking, error) {
	var out []domain.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND refund_requested_at IS NULL AND check_out <= ?", domain.BookingConfirmed, checkOutBefore).
		Order("check_out").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func overlapping(db *gorm.DB, roomID int64, checkIn, checkOut time.Time) *gorm.DB {
	return db.Model(&domain.Booking{}).
		Where("room_id = ?", roomID).
		Where("status <> ?", domain.BookingCancelled).
		Where("check_in < ? AND check_out > ?", checkOut, checkIn)
}

func countOverlapping(tx *gorm.DB, roomID int64, checkIn, checkOut time.Time) (int64, error) {
	var n int64
	if err := overlapping(tx, roomID, checkIn, checkOut).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count overlapping bookings: %w", err)
	}
	return n, nil
}
