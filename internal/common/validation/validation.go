// Package validation holds the shared struct validator and the custom tags used by
// sandbox requests and configuration files.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	v    *validator.Validate
	once sync.Once
)

// V returns the shared validator with the custom tags registered.
func V() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(fieldName)
		v.RegisterValidation("currency", currencyValidator)
		v.RegisterValidation("noSpaces", noSpacesValidator)
		v.RegisterValidation("clientKey", clientKeyValidator)
	})
	return v
}

var (
	currencyRegex  = regexp.MustCompile(`^[A-Z]{3}$`)
	noSpacesRegex  = regexp.MustCompile(`^[^\s]+$`)
	clientKeyRegex = regexp.MustCompile(`^(test|live)_[A-Za-z0-9]+$`)
)

// fieldName reports fields by their json or toml name when one is set.
func fieldName(fld reflect.StructField) string {
	for _, key := range []string{"json", "toml"} {
		name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
		if name != "" && name != "-" {
			return name
		}
	}
	return ""
}

// currencyValidator accepts ISO 4217 style codes.
func currencyValidator(fl validator.FieldLevel) bool {
	return currencyRegex.MatchString(fl.Field().String())
}

func noSpacesValidator(fl validator.FieldLevel) bool {
	return noSpacesRegex.MatchString(fl.Field().String())
}

// clientKeyValidator accepts an empty key or one of the form test_XXX / live_XXX.
func clientKeyValidator(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "" || clientKeyRegex.MatchString(s)
}

// Struct validates s and flattens validation failures into a readable error.
func Struct(s any) error {
	err := V().Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "currency":
		return fmt.Sprintf("%s must be a three letter currency code", field)
	case "clientKey":
		return fmt.Sprintf("%s must look like test_XXX or live_XXX", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
