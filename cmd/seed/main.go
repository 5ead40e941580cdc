package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"hotelbooking/internal/app"
	"hotelbooking/internal/config"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/booking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := app.NewLogger(cfg)
	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalf("init: %v", err)
	}
	defer a.Close()

	db := a.DB
	log.Info("cleaning old data...")
	for _, table := range []string{"payments", "bookings", "rooms", "hotels", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("clean %s: %v", table, err)
		}
	}

	// ================== USERS ==================
	log.Info("creating users...")
	mustUser := func(email, password, name string, role domain.UserRole) *domain.User {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash password: %v", err)
		}
		u := &domain.User{Email: email, PasswordHash: string(hash), Name: name, Role: role}
		if err := a.Users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", email, err)
		}
		return u
	}

	mustUser("admin@hotelbooking.dev", "admin123", "Admin", domain.RoleAdmin)
	manager := mustUser("manager@hotelbooking.dev", "manager123", "Hotel Manager", domain.RoleManager)
	guests := []*domain.User{
		mustUser("minji@example.com", "guest123", "Minji Kim", domain.RoleUser),
		mustUser("joon@example.com", "guest123", "Joon Park", domain.RoleUser),
		mustUser("sora@example.com", "guest123", "Sora Lee", domain.RoleUser),
	}

	// ================== HOTELS & ROOMS ==================
	log.Info("creating hotels and rooms...")
	hotels := a.Hotels
	rooms := a.Rooms

	seedHotels := []domain.Hotel{
		{Name: "Namsan Grand", City: "Seoul", Country: "KR", Address: "Sowol-ro 105", Status: domain.HotelApproved},
		{Name: "Haeundae Beach Hotel", City: "Busan", Country: "KR", Address: "Haeundaehaebyeon-ro 296", Status: domain.HotelApproved},
		{Name: "Hallasan Stay", Type: "guesthouse", City: "Jeju", Country: "KR", Status: domain.HotelApproved},
		{Name: "Gangnam Capsule", Type: "hostel", City: "Seoul", Country: "KR", Status: domain.HotelPending},
	}
	roomTypes := []struct {
		typ      string
		price    int64
		capacity int
	}{
		{"single", 89000, 1},
		{"double", 129000, 2},
		{"suite", 259000, 4},
	}

	for i := range seedHotels {
		h := &seedHotels[i]
		h.OwnerID = manager.ID
		if err := hotels.Create(ctx, h); err != nil {
			log.Fatalf("create hotel %s: %v", h.Name, err)
		}
		for j, rt := range roomTypes {
			room := &domain.Room{
				HotelID:  h.ID,
				Name:     fmt.Sprintf("%d0%d", j+1, i+1),
				Type:     rt.typ,
				Price:    rt.price,
				Capacity: rt.capacity,
				Status:   domain.RoomAvailable,
			}
			if err := rooms.Create(ctx, room); err != nil {
				log.Fatalf("create room: %v", err)
			}
		}
	}

	// ================== BOOKINGS ==================
	log.Info("creating demo bookings...")
	approved, err := hotels.List(ctx, "")
	if err != nil {
		log.Fatalf("list hotels: %v", err)
	}

	start := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 14)
	var created int
	for i, h := range approved {
		hotelRooms, err := rooms.ListByHotel(ctx, h.ID)
		if err != nil || len(hotelRooms) == 0 {
			log.WithError(err).WithField("hotel_id", h.ID).Warn("no rooms to book")
			continue
		}
		in := start.AddDate(0, 0, i*3)
		_, err = a.Bookings.Create(ctx, booking.CreateBookingInput{
			UserID:   guests[i%len(guests)].ID,
			HotelID:  h.ID,
			RoomID:   hotelRooms[0].ID,
			CheckIn:  in,
			CheckOut: in.AddDate(0, 0, 2),
		})
		if err != nil {
			log.WithError(err).WithField("hotel_id", h.ID).Warn("demo booking failed")
			continue
		}
		created++
	}

	log.WithFields(logrus.Fields{
		"hotels":   len(seedHotels),
		"rooms":    len(seedHotels) * len(roomTypes),
		"bookings": created,
	}).Info("seed completed")
	log.Info("login: admin@hotelbooking.dev / admin123, guests use guest123")
}
