package handlers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/worknest/worknest/internal/auth"
)

// RegisterValidators installs the custom rules on gin's validator and makes
// field errors report JSON names.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin validator engine is not go-playground/validator")
	}
	v.RegisterTagNameFunc(jsonFieldName)
	return v.RegisterValidation("password", validatePassword)
}

func validatePassword(fl validator.FieldLevel) bool {
	return auth.CheckPasswordPolicy(fl.Field().String()) == nil
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
