package errs

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ValidationError is a rejected form field with its user readable message.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the ordered list of field errors of one form.
type ValidationErrors []ValidationError

var ValidationErrorsKey = goerr.NewTypedKey[ValidationErrors]("validation_errors")

func (x *ValidationErrors) Add(field, message string) {
	*x = append(*x, ValidationError{Field: field, Message: message})
}

// Get returns the message of the first error on field, or "".
func (x ValidationErrors) Get(field string) string {
	for _, v := range x {
		if v.Field == field {
			return v.Message
		}
	}
	return ""
}

func (x ValidationErrors) Error() string {
	msgs := make([]string, 0, len(x))
	for _, v := range x {
		msgs = append(msgs, v.Field+": "+v.Message)
	}
	return strings.Join(msgs, ", ")
}

// Err converts the list into a tagged validation error, nil when empty.
func (x ValidationErrors) Err() error {
	if len(x) == 0 {
		return nil
	}
	return goerr.New(x[0].Message,
		goerr.T(TagValidation),
		goerr.TV(ValidationErrorsKey, x),
	)
}

// ValidationErrorsOf extracts field errors carried by err.
func ValidationErrorsOf(err error) ValidationErrors {
	if err == nil {
		return nil
	}
	v, _ := goerr.GetTypedValue(err, ValidationErrorsKey)
	return v
}
