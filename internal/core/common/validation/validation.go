package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	apperrors "github.com/Kauel-Chile/MERN-Boilerplate/internal"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates v against its `validate` tags and converts failures into a
// validation AppError listing every offending field. It returns nil when v is
// valid.
func Struct(v interface{}) *apperrors.AppError {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewInternalError(apperrors.PhraseInternalServerError, err)
	}

	details := make([]apperrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, apperrors.ValidationError{
			Field:   fe.Field(),
			Message: message(fe),
			Code:    fe.Tag(),
		})
	}

	return apperrors.NewValidationError(apperrors.PhraseValidationFailed, apperrors.ErrCodeValidationFailed).
		WithDetails(apperrors.ValidationErrors{Errors: details})
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
	case "uuid":
		return fmt.Sprintf("%s must be a valid id", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
