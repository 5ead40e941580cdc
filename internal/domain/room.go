package domain

import "time"

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomUnavailable RoomStatus = "unavailable"
	RoomMaintenance RoomStatus = "maintenance"
)

type Room struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	HotelID   int64      `json:"hotel_id" gorm:"index;not null"`
	Name      string     `json:"name" gorm:"not null"`
	Type      string     `json:"type" gorm:"type:varchar(32);not null"`
	Price     int64      `json:"price" gorm:"not null"`
	Capacity  int        `json:"capacity" gorm:"not null"`
	Status    RoomStatus `json:"status" gorm:"type:varchar(20);default:'available'"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Room) TableName() string { return "rooms" }
