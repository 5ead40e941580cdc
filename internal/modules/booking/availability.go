package booking

import (
	"context"
	"time"

	"hotelbooking/internal/domain"
)

type overlapFinder interface {
	FindOverlapping(ctx context.Context, roomID int64, checkIn, checkOut time.Time) ([]domain.Booking, error)
}

// AvailabilityIndex answers whether a room is free for a half-open stay [checkIn, checkOut).
// A stay ending on the day another begins does not overlap it.
type AvailabilityIndex struct {
	store overlapFinder
}

func NewAvailabilityIndex(store overlapFinder) *AvailabilityIndex {
	return &AvailabilityIndex{store: store}
}

func (a *AvailabilityIndex) IsOverlapping(ctx context.Context, roomID int64, checkIn, checkOut time.Time) (bool, error) {
	found, err := a.store.FindOverlapping(ctx, roomID, checkIn.UTC(), checkOut.UTC())
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

// Overlaps is the in-memory form of the store predicate.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}
