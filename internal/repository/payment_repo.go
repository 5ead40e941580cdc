package repository

import (
	"context"
	"errors"
	"time"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByOrderRef(ctx context.Context, orderRef string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).Where("order_ref = ?", orderRef).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindActiveByBooking returns the latest pending or paid payment of a booking.
func (r *PaymentRepository) FindActiveByBooking(ctx context.Context, bookingID int64) (*domain.Payment, error) {
	var p domain.Payment
	err := r.db.WithContext(ctx).
		Where("booking_id = ? AND status IN ?", bookingID, []domain.PaymentStatus{domain.PaymentPending, domain.PaymentPaid}).
		Order("id DESC").
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// MarkPaidIdempotent flips a payment to paid once. changed is false when it was already paid.
func (r *PaymentRepository) MarkPaidIdempotent(ctx context.Context, orderRef, paymentKey, raw string, paidAt time.Time) (bool, error) {
	var changed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p domain.Payment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("order_ref = ?", orderRef).First(&p).Error; err != nil {
			return translate(err)
		}
		if p.Status == domain.PaymentPaid {
			return nil
		}
		res := tx.Model(&domain.Payment{}).Where("order_ref = ?", orderRef).Updates(map[string]any{
			"status":      domain.PaymentPaid,
			"payment_key": paymentKey,
			"raw":         raw,
			"paid_at":     paidAt,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.New("payment row not updated")
		}
		changed = true
		return nil
	})
	return changed, err
}

func (r *PaymentRepository) MarkCancelled(ctx context.Context, id int64, raw string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Payment{}).Where("id = ?", id).Updates(map[string]any{
		"status":       domain.PaymentCancelled,
		"raw":          raw,
		"cancelled_at": at,
	}).Error
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, orderRef, raw string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("order_ref = ? AND status = ?", orderRef, domain.PaymentPending).
		Updates(map[string]any{"status": domain.PaymentFailed, "raw": raw}).Error
}
