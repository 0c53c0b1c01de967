package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// usernamePattern: letters, numbers, dots or underscores, starting with a letter.
var usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)

// Init installs the request rules on the validator behind Gin's binding.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs tag names and custom rules on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	v.RegisterAlias("pwd", "min=1,max=128")
	v.RegisterAlias("nonzero", "required")
}

// ToDetails flattens a binding error into field -> message, keyed by the
// JSON field name. Malformed bodies are reported under "payload".
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "invalid json"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "invalid payload"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	numeric := isNumberKind(fe.Kind())

	switch fe.Tag() {
	case "required", "nonzero":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "username":
		return "Usernames must have only letters, numbers, dots or underscores."
	case "pwd":
		return "Field must be between 1 and 128 characters long."
	case "eqfield":
		if strings.HasPrefix(strings.ToLower(param), "password") {
			return "Passwords must match."
		}
		return "Field must be equal to " + param + "."
	case "min", "gte":
		if numeric {
			return "Number must be at least " + param + "."
		}
		return "Field must be at least " + param + " characters long."
	case "max", "lte":
		if numeric {
			return "Number must be at most " + param + "."
		}
		return "Field cannot be longer than " + param + " characters."
	case "oneof":
		return "Not a valid choice."
	case "url":
		return "Invalid URL."
	}
	return fmt.Sprintf("Invalid value (%s).", fe.Tag())
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
