package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names so callers can map errors back to request fields
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("booking_status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	}); err != nil {
		panic(fmt.Sprintf("register booking_status: %v", err))
	}
	return v
}

func ValidateHotel(h Hotel) error {
	return structErrors(validate.Struct(h))
}

func ValidateRoom(r Room) error {
	return structErrors(validate.Struct(r))
}

// ValidateBooking checks field constraints and that checkOut is strictly after checkIn
// when both are set.
func ValidateBooking(b Booking) error {
	var errs ValidationErrors
	if err := structErrors(validate.Struct(b)); err != nil {
		var ve ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		errs = append(errs, ve...)
	}
	if b.CheckIn != nil && b.CheckOut != nil && !b.CheckOut.After(*b.CheckIn) {
		errs = append(errs, ValidationError{Field: "checkOut", Reason: "checkOut must be after checkIn"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func structErrors(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{Field: fe.Field(), Reason: reason(fe)})
	}
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", fe.Field(), fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email", fe.Field())
	case "alpha":
		return fmt.Sprintf("%s must contain letters only", fe.Field())
	case "booking_status":
		return fmt.Sprintf("%s must be one of %s", fe.Field(), joinStatuses())
	}
	return fe.Error()
}

func joinStatuses() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
