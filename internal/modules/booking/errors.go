package booking

import (
	"errors"

	"hotelbooking/internal/pkg/apperror"
	"hotelbooking/internal/repository"
)

// storeError tags booking store failures with the matching error kind. Errors that
// already carry a kind pass through.
func storeError(op string, err error) error {
	var appErr *apperror.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperror.New(apperror.KindBookingNotFound, op, err)
	case errors.Is(err, repository.ErrOverlap):
		return apperror.New(apperror.KindBookingConflict, op, err)
	case errors.Is(err, repository.ErrStaleStatus):
		return apperror.New(apperror.KindInvalidStateTransition, op, err)
	}
	return err
}
