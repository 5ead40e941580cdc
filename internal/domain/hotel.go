package domain

import "time"

type HotelStatus string

const (
	HotelPending  HotelStatus = "pending"
	HotelApproved HotelStatus = "approved"
	HotelRejected HotelStatus = "rejected"
)

type Hotel struct {
	ID        int64       `json:"id" gorm:"primaryKey"`
	Name      string      `json:"name" gorm:"not null"`
	Type      string      `json:"type" gorm:"type:varchar(20);default:'hotel'"`
	City      string      `json:"city" gorm:"index;not null"`
	Country   string      `json:"country" gorm:"not null"`
	Address   string      `json:"address,omitempty"`
	OwnerID   int64       `json:"owner_id" gorm:"index;not null"`
	Status    HotelStatus `json:"status" gorm:"type:varchar(20);default:'pending'"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (Hotel) TableName() string { return "hotels" }
