package app

import (
	"github.com/go-playground/validator/v10"

	"video-training-service/internal/domain"
)

var validate = validator.New()

// validateInput runs struct-tag validation and maps failures to domain.ErrInvalidInput.
func validateInput(v any) error {
	if err := validate.Struct(v); err != nil {
		return domain.InvalidInput(err)
	}
	return nil
}
