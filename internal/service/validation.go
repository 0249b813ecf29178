package service

import (
	"fmt"
	"time"

	"CaseSync/internal/model"

	"github.com/go-playground/validator/v10"
)

// newValidator registers the custom tags used by record and bid validation.
// notpast compares calendar days against now.
func newValidator(now func() time.Time) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !model.DayBefore(t, now())
	})
	return v
}

// invalid wraps a validator error as ErrInvalidInput.
func invalid(err error) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
}
