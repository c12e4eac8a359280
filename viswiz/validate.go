package viswiz

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator"
)

// validate reports field errors using JSON names so messages match the API
// vocabulary ("projectID", not "ProjectID").
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateParams checks the validate tags on params. A failed "required"
// rule becomes a *MissingParamError.
func validateParams(params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return missingParam(fe.Field())
		}
		return fmt.Errorf("invalid parameter %s: must satisfy %q", fe.Field(), fe.Tag())
	}
	return fmt.Errorf("validate parameters: %w", err)
}

func requireString(name, value string) error {
	if value == "" {
		return missingParam(name)
	}
	return nil
}
