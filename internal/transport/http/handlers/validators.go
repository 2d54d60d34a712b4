package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/UsmanFarooq46/e-commerce-backend/internal/core/domain"
)

var (
	countryCodePattern = regexp.MustCompile(`^[A-Za-z]{2}$`)
	registerOnce       sync.Once
	registerErr        error
)

// dateLayouts lists the accepted date-of-birth formats.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// RegisterValidators installs the custom binding rules on gin's validator and
// reports field names by their JSON tag. Safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		for tag, fn := range map[string]validator.Func{
			"pastdate":    validatePastDate,
			"phone":       validatePhone,
			"countrycode": validateCountryCode,
		} {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = fmt.Errorf("register %s validator: %w", tag, err)
				return
			}
		}
	})
	return registerErr
}

func validatePastDate(fl validator.FieldLevel) bool {
	switch v := fl.Field().Interface().(type) {
	case string:
		t, err := parseDate(v)
		return err == nil && t.Before(time.Now())
	case time.Time:
		return v.Before(time.Now())
	}
	return false
}

func validatePhone(fl validator.FieldLevel) bool {
	return domain.PhonePattern.MatchString(fl.Field().String())
}

func validateCountryCode(fl validator.FieldLevel) bool {
	return countryCodePattern.MatchString(fl.Field().String())
}

func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", value)
}

func optionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	t, err := parseDate(*value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// bindingFailure converts a binding error into the 400 validation envelope.
func bindingFailure(c *gin.Context, err error) ErrorResponse {
	resp := NewErrorResponse(c, "Validation failed")

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		resp.Message = "Invalid request payload"
		return resp
	}

	for _, fe := range verrs {
		field := fe.Field()
		fieldErr := domain.FieldError{Field: field, Message: fieldMessage(field, fe)}
		if !strings.Contains(strings.ToLower(field), "pass") {
			fieldErr.Value = fe.Value()
		}
		resp.Errors = append(resp.Errors, fieldErr)
	}
	if len(resp.Errors) > 0 {
		resp.Message = resp.Errors[0].Message
	}
	return resp
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s cannot exceed %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s cannot be negative", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "phone":
		return "Please enter a valid phone number"
	case "pastdate":
		return "Date of birth must be in the past"
	case "countrycode":
		return "Country code must be 2 characters"
	case "timezone":
		return fmt.Sprintf("%s must be a valid IANA timezone", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
