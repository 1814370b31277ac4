package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// emailRe is the address pattern the booking form has always accepted: /^[^\s@]+@[^\s@]+\.[^\s@]+$/
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// bookingMonthRe matches a calendar month key such as 2025-08.
var bookingMonthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("email_address", func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	_ = v.RegisterValidation("booking_month", func(fl validator.FieldLevel) bool {
		return IsValidBookingMonth(fl.Field().String())
	})
	// Report JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// FieldError is the first failed rule of a struct validation.
type FieldError struct {
	Field string
	Rule  string
	Param string
}

func (e *FieldError) Error() string {
	switch e.Rule {
	case "required":
		return "Missing required field: " + e.Field
	case "email_address":
		return "Invalid email format"
	case "booking_month":
		return e.Field + " must be formatted as YYYY-MM"
	case "oneof":
		return e.Field + " must be one of: " + e.Param
	case "max":
		return e.Field + " is too long"
	case "hexcolor":
		return e.Field + " must be a hex color"
	default:
		return "Invalid value for " + e.Field
	}
}

// Struct validates s against its `validate` tags and returns a *FieldError for the first
// failing field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		return &FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()}
	}
	return err
}

func IsValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

func IsValidBookingMonth(month string) bool {
	return bookingMonthRe.MatchString(month)
}
