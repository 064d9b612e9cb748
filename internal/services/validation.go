package services

import (
	"errors"
	"reflect"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/tbourn/go-movies-backend/internal/apperrors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// indexSuffix matches the "[n]" validator appends for slice elements.
var indexSuffix = regexp.MustCompile(`\[\d+\]$`)

// entityValidator returns the shared validator. Field names are replaced by
// the struct's `vmsg` tag so a failed field reports its user-facing message.
func entityValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			if msg := f.Tag.Get("vmsg"); msg != "" {
				return msg
			}
			return f.Name
		})
		validate = v
	})
	return validate
}

// validateEntity checks v's `validate` tags. Violations come back as an
// *apperrors.ValidationError with one message per failed field or element.
func validateEntity(v any) error {
	err := entityValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, indexSuffix.ReplaceAllString(fe.Field(), ""))
	}
	return apperrors.NewValidation(msgs...)
}
