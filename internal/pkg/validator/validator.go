package validator

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// Fields turns binding validation errors into a field -> failed rule map for the error
// detail. It returns nil when err is not a validation error.
func Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
