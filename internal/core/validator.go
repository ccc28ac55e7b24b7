package core

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"climagrid/internal/types"
)

// Validator wraps go-playground/validator for request body validation.
// Handlers call ValidateStruct on decoded request DTOs; failures surface as
// 400-class AppErrors with per-field detail.
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator creates a new Validator.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// ValidateStruct validates a struct against its `validate` tags. It returns
// a *types.AppError carrying a field->rule map in Details when validation
// fails, or nil on success.
func (v *Validator) ValidateStruct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]any, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return types.NewAppErrorWithDetails(
			types.ErrCodeValidationInvalidBody,
			"request failed validation",
			err,
			details,
		)
	}

	// InvalidValidationError means the caller passed a non-struct; that is a
	// programming error, not client input.
	return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
}
