package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse is an error that knows its HTTP status and serializes as the
// response body.
type ErrorResponse interface {
	error
	Code() int
}

type SimpleError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *SimpleError) Error() string { return e.Message }

func (e *SimpleError) Code() int { return e.Status }

func NewSimple(code int, message string) ErrorResponse {
	return &SimpleError{Status: code, Message: message}
}

func NewMissingParamError(name string) ErrorResponse {
	return NewSimple(http.StatusBadRequest, fmt.Sprintf("Missing required parameter '%s'", name))
}

var (
	InternalServerError    = NewSimple(http.StatusInternalServerError, "Something went wrong")
	MalformedBodyError     = NewSimple(http.StatusBadRequest, "Malformed request body")
	NotFoundError          = NewSimple(http.StatusNotFound, "Appointment not found")
	InvalidAuthTokenError  = NewSimple(http.StatusUnauthorized, "Invalid or missing authentication token")
	InvalidRangeError      = NewSimple(http.StatusBadRequest, "End time must be after start time")
	InvalidRecurrenceError = NewSimple(http.StatusBadRequest, "Repeat-until date must not be before the start date")
	RecurrenceTooLongError = NewSimple(http.StatusBadRequest, "Recurrence produces too many appointments")
	OverlapConflictError   = NewSimple(http.StatusConflict, "Appointment overlaps with existing one")
)

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Code() int { return http.StatusBadRequest }

// FromValidationError converts the errors returned by validator.Struct into
// a 400 response listing every failing field. Field names are the ones the
// validator reports; validators.Register makes those the json names.
func FromValidationError(err error) ErrorResponse {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return MalformedBodyError
	}

	fields := make([]FieldError, len(verrs))
	for i, fe := range verrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Rule:    fe.Tag(),
			Message: describe(fe),
		}
	}
	return &ValidationError{Message: "Validation failed", Fields: fields}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "iso8601":
		return "must be an RFC 3339 timestamp"
	case "isodate":
		return "must be a date (YYYY-MM-DD) or an RFC 3339 timestamp"
	default:
		return fmt.Sprintf("failed on '%s'", fe.Tag())
	}
}
