package util

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks config and inbound payload structs. InitValidator replaces
// it with one that reports json field names.
var Validate = validator.New()

func InitValidator() {
	v := validator.New()

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	Validate = v
}
