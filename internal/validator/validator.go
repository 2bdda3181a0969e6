package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/curricula-hub/access-service/internal/models"
)

// ValidationError represents a single field-level validation failure.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// Validator wraps go-playground/validator with the account domain rules.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	validate := validator.New()
	registerAccountRules(validate)
	return &Validator{validate: validate}
}

// Validate validates a struct and converts failures into ValidationErrors.
// Returns nil when the struct is valid.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	return ToValidationErrors(err)
}

// ToValidationErrors converts a validator error into the API error shape.
func ToValidationErrors(err error) ValidationErrors {
	var errs ValidationErrors
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "", Message: err.Error()}}
	}
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errs
}

func registerAccountRules(validate *validator.Validate) {
	// account_role: one of the five defined tiers
	_ = validate.RegisterValidation("account_role", func(fl validator.FieldLevel) bool {
		return models.ValidRole(fl.Field().String())
	})

	// account_status: active, invited or suspended
	_ = validate.RegisterValidation("account_status", func(fl validator.FieldLevel) bool {
		return models.ValidStatus(fl.Field().String())
	})
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "email":
		return "must be a valid email address"
	case "account_role":
		return "must be one of: viewer, student, teacher, admin, superuser"
	case "account_status":
		return "must be one of: active, invited, suspended"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
