package repository

import (
	"context"

	"hotelbooking/internal/domain"

	"gorm.io/gorm"
)

type HotelRepository struct {
	db *gorm.DB
}

func NewHotelRepository(db *gorm.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

func (r *HotelRepository) Create(ctx context.Context, h *domain.Hotel) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *HotelRepository) GetByID(ctx context.Context, id int64) (*domain.Hotel, error) {
	var h domain.Hotel
	if err := r.db.WithContext(ctx).First(&h, id).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

func (r *HotelRepository) List(ctx context.Context, city string) ([]domain.Hotel, error) {
	q := r.db.WithContext(ctx).Where("status = ?", domain.HotelApproved)
	if city != "" {
		q = q.Where("LOWER(city) = LOWER(?)", city)
	}
	var out []domain.Hotel
	if err := q.Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *HotelRepository) ListByStatus(ctx context.Context, status domain.HotelStatus, offset, limit int) ([]domain.Hotel, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Hotel{}).Where("status = ?", status).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []domain.Hotel
	if err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *HotelRepository) UpdateStatus(ctx context.Context, id int64, status domain.HotelStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Hotel{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
