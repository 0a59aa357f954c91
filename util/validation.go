package util

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
	dniPattern   = regexp.MustCompile(`^[A-Za-z0-9]{1,20}$`)

	registerOnce sync.Once
	registerErr  error
)

// RegisterValidators installs the custom binding tags on gin's validator:
//
//	clock    HH:mm, 24 hour
//	isodate  YYYY-MM-DD
//	dni      alphanumeric, 1 to 20 characters
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		registerErr = errors.Join(
			v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
				return clockPattern.MatchString(fl.Field().String())
			}),
			v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
				_, err := time.Parse(ISODate, fl.Field().String())
				return err == nil
			}),
			v.RegisterValidation("dni", func(fl validator.FieldLevel) bool {
				return dniPattern.MatchString(fl.Field().String())
			}),
		)
	})
	return registerErr
}

// IsClock reports whether s is a valid HH:mm time.
func IsClock(s string) bool { return clockPattern.MatchString(s) }

// ValidationMessage flattens binding errors into one readable sentence.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return strings.Join(msgs, "; ")
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "clock":
		return fmt.Sprintf("%s must be in HH:mm format", field)
	case "isodate":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "dni":
		return fmt.Sprintf("%s must be alphanumeric (1-20 characters)", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min", "max", "gte", "lte":
		return fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param())
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
