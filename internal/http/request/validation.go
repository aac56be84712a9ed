package request

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/n1rocket/go-profile-validity/internal/errors"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// ErrValidation is the base error for request bodies that fail validation
var ErrValidation = apperrors.NewError(apperrors.ErrorTypeValidation, "request validation failed").WithCode("VALIDATION_FAILED")

// FieldError describes one failed rule
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

// Message returns a human readable description of the failure
func (f FieldError) Message() string {
	switch f.Tag {
	case "required":
		return f.Field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", f.Field, f.Param)
	case "max":
		return fmt.Sprintf("%s must not exceed %s characters", f.Field, f.Param)
	case "eqfield":
		return f.Field + " must match " + strings.ToLower(f.Param)
	default:
		return f.Field + " failed on " + f.Tag
	}
}

// ValidateStruct validates s against its validate tags. Failures are returned
// as an AppError whose details map JSON field names to messages; a failed
// password confirmation is reported as ErrPasswordMismatch.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}

	details := make(map[string]string, len(ve))
	mismatch := false
	for _, fe := range ve {
		f := FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
		details[f.Field] = f.Message()
		if f.Tag == "eqfield" {
			mismatch = true
		}
	}

	if mismatch {
		return apperrors.ErrPasswordMismatch.WithDetails(details)
	}
	return ErrValidation.WithDetails(details)
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if comma := strings.Index(name, ","); comma != -1 {
				name = name[:comma]
			}
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}
