package core

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"bullhorn/internal/types"
)

// Validator wraps go-playground/validator and translates its field errors
// into the structured AppError format returned to clients.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator configured to report struct fields by
// their json tag names, so error details match the wire format clients sent.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return &Validator{validate: v}
}

// ValidateStruct validates s against its `validate` struct tags. On failure
// it returns a *types.AppError whose details map field names to the failed
// rule. Required-field failures use validation_missing_field, everything
// else validation_invalid_field.
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "validation failed", err)
	}

	details := make(map[string]any, len(fieldErrs))
	missing := false
	for _, fe := range fieldErrs {
		field := jsonFieldName(fe.Namespace())
		if fe.Tag() == "required" {
			missing = true
			details[field] = "required"
			continue
		}
		details[field] = "failed rule: " + fe.Tag()
	}

	code := types.ErrCodeValidationInvalidField
	message := "one or more fields are invalid"
	if missing {
		code = types.ErrCodeValidationMissingField
		message = "one or more required fields are missing"
	}

	return types.NewAppErrorWithDetails(code, message, err, details)
}

// jsonFieldName converts a validator namespace like "createDraftRequest.Title"
// into a lower-camel field path ("title") for client-facing error details.
func jsonFieldName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}
