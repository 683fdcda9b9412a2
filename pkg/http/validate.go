package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report wire names ("sessionId"), not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "form", "param"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// ReadAndValidateRequest binds req, applies `default` tags and validates it.
// It returns nil or a []ValidationError suitable for BadRequestResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, len(fieldErrs))
		for i, fe := range fieldErrs {
			out[i] = ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Params:  fieldParams(fe),
			}
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

// tagMessages holds message templates with {field} and {param} slots.
var tagMessages = map[string]string{
	"required": "{field} is required",
	"uuid":     "{field} must be a valid session id",
	"datetime": "{field} must be a date formatted as {param}",
	"oneof":    "{field} must be one of: {param}",
	"gt":       "{field} must be greater than {param}",
	"gte":      "{field} must be greater than or equal to {param}",
	"lt":       "{field} must be less than {param}",
	"lte":      "{field} must be less than or equal to {param}",
	"min":      "{field} must be at least {param}",
	"max":      "{field} must be at most {param}",
}

func fieldMessage(fe validator.FieldError) string {
	tmpl, ok := tagMessages[fe.Tag()]
	if !ok {
		tmpl = "{field} failed validation: " + fe.Tag()
	}

	param := fe.Param()
	switch fe.Tag() {
	case "oneof":
		param = strings.ReplaceAll(param, " ", ", ")
	case "min", "max":
		switch fe.Kind() {
		case reflect.String:
			tmpl += " characters"
		case reflect.Slice, reflect.Map:
			tmpl += " items"
		}
	}
	return strings.NewReplacer("{field}", fe.Field(), "{param}", param).Replace(tmpl)
}

func fieldParams(fe validator.FieldError) map[string]interface{} {
	p := fe.Param()
	switch fe.Tag() {
	case "min", "gte":
		return map[string]interface{}{"min": p}
	case "max", "lte":
		return map[string]interface{}{"max": p}
	case "gt", "lt":
		return map[string]interface{}{"value": p}
	case "oneof":
		return map[string]interface{}{"options": strings.Fields(p)}
	case "datetime":
		return map[string]interface{}{"layout": p}
	}
	return nil
}
