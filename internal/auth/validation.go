package auth

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// ValidationError carries field-level messages and renders as a 422.
type ValidationError struct {
	Errors map[string][]string
}

func (e *ValidationError) Add(field, message string) {
	if e.Errors == nil {
		e.Errors = make(map[string][]string)
	}
	e.Errors[field] = append(e.Errors[field], message)
}

func (e *ValidationError) Has(field string) bool {
	return len(e.Errors[field]) > 0
}

func (e *ValidationError) Empty() bool {
	return len(e.Errors) == 0
}

// Message summarises the errors as "<first message> (and N more errors)".
func (e *ValidationError) Message() string {
	fields := make([]string, 0, len(e.Errors))
	total := 0
	for field, msgs := range e.Errors {
		fields = append(fields, field)
		total += len(msgs)
	}
	if total == 0 {
		return "The given data was invalid."
	}
	sort.Strings(fields)
	first := e.Errors[fields[0]][0]

	switch rest := total - 1; rest {
	case 0:
		return first
	case 1:
		return first + " (and 1 more error)"
	default:
		return fmt.Sprintf("%s (and %d more errors)", first, rest)
	}
}

func (e *ValidationError) Error() string {
	return e.Message()
}

// Body is the JSON response for a failed validation.
func (e *ValidationError) Body() gin.H {
	return gin.H{"message": e.Message(), "errors": e.Errors}
}

var registerTagNames sync.Once

// useJSONFieldNames makes validator report json tag names, so errors are
// keyed by "password_confirmation" rather than "PasswordConfirmation".
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
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
	})
}

// bindJSON decodes and validates the request body. An empty body is
// validated as an empty object so required fields are reported.
func bindJSON(c *gin.Context, obj any) (*ValidationError, error) {
	err := c.ShouldBindJSON(obj)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(obj)
	}
	if err == nil {
		return &ValidationError{}, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		out.Add(fe.Field(), fieldMessage(fe.Field(), fe.Tag(), fe.Param()))
	}
	return out, nil
}

func fieldMessage(field, tag, param string) string {
	label := strings.ReplaceAll(field, "_", " ")
	switch tag {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", label, param)
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", label, param)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}
