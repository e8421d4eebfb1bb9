// Package validator plugs go-playground/validator into echo's Validate step.
package validator

import (
	domainerrors "accounts/internal/domain/errors"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validate *validator.Validate
}

func New() *CustomValidator {
	return &CustomValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks struct tags and reports failures as a validation AppError.
func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validate.Struct(i); err != nil {
		return domainerrors.ErrValidationFailed.WithDetails(err.Error())
	}

	return nil
}
