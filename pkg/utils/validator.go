package utils

import (
	"fmt"
	"sync"

	"parcel-courier/internal/models"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground's validator with the domain rules registered.
type Validator struct {
	validate *validator.Validate
}

var (
	defaultValidator *Validator
	validatorOnce    sync.Once
)

// GetValidator returns the process-wide validator.
func GetValidator() *Validator {
	validatorOnce.Do(func() {
		v := validator.New()
		_ = v.RegisterValidation("shipment_status", func(fl validator.FieldLevel) bool {
			return models.ShipmentStatus(fl.Field().String()).Valid()
		})
		defaultValidator = &Validator{validate: v}
	})
	return defaultValidator
}

// Validate checks s against its struct tags. Failures wrap models.ErrValidation.
func (v *Validator) Validate(s any) error {
	if err := v.validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", models.ErrValidation, err.Error())
	}
	return nil
}
