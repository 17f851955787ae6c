package validators

import (
	"agenda/cmd/internal/utils"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Register installs the custom tags used by request structs and makes
// validation errors name fields by their json tag.
func Register(validate *validator.Validate) {
	validate.RegisterTagNameFunc(jsonName)
	_ = validate.RegisterValidation("iso8601", IsIso8601)
	_ = validate.RegisterValidation("isodate", IsIsoDate)
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}

func IsIso8601(fl validator.FieldLevel) bool {
	_, err := utils.ParseTime(fl.Field().String())
	return err == nil
}

// IsIsoDate accepts a bare date or a full RFC 3339 timestamp.
func IsIsoDate(fl validator.FieldLevel) bool {
	_, err := utils.ParseDate(fl.Field().String())
	return err == nil
}
