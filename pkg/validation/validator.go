package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/oksasatya/cosmebag/internal/domain/entity"
)

const (
	MinPasswordLen = 6
	MinUsernameLen = 3
)

// Init configures the global validator used by Gin's binding.
// - Uses JSON tag names in errors.
// - Registers alias tags and the domain enum validators.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs tag naming, aliases and custom tags on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterAlias("pwd", fmt.Sprintf("min=%d", MinPasswordLen))
	v.RegisterAlias("username", fmt.Sprintf("min=%d,max=32", MinUsernameLen))
	v.RegisterAlias("nonzero", "required")
	_ = v.RegisterValidation("skintype", func(fl validator.FieldLevel) bool {
		return entity.SkinType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("itemstatus", func(fl validator.FieldLevel) bool {
		return entity.ItemStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("attachmentkind", func(fl validator.FieldLevel) bool {
		return entity.AttachmentKind(fl.Field().String()).Valid()
	})
}

// ToDetails converts validation/binding errors into a map[field]message suitable for API error.details.
func ToDetails(err error) map[string]string {
	if err == nil {
		return nil
	}

	// Invalid JSON payloads
	var se *json.SyntaxError
	var ute *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &ute) {
		return map[string]string{"payload": "некорректный JSON"}
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			out[fe.Field()] = formatFieldError(fe)
		}
		return out
	}

	return map[string]string{"payload": "некорректный запрос"}
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required", "nonzero":
		return "обязательное поле"
	case "email":
		return "некорректный email"
	case "url":
		return "некорректный URL"
	case "datauri":
		return "ожидается data URL"
	case "pwd":
		return fmt.Sprintf("пароль должен быть не короче %d символов", MinPasswordLen)
	case "username":
		return fmt.Sprintf("имя пользователя должно быть не короче %d символов", MinUsernameLen)
	case "eqfield":
		return "пароли не совпадают"
	case "min":
		if isNumberKind(fe.Kind()) {
			return "не меньше " + param
		}
		return "не короче " + param + " символов"
	case "max":
		if isNumberKind(fe.Kind()) {
			return "не больше " + param
		}
		return "не длиннее " + param + " символов"
	case "oneof":
		return "одно из: " + strings.Join(strings.Fields(param), ", ")
	case "skintype":
		return "неизвестный тип кожи"
	case "itemstatus":
		return "статус должен быть owned или wishlist"
	case "attachmentkind":
		return "тип фото должен быть before или after"
	case "uuid":
		return "некорректный идентификатор"
	default:
		if param != "" {
			return fmt.Sprintf("не прошло проверку '%s=%s'", fe.Tag(), param)
		}
		return fmt.Sprintf("не прошло проверку '%s'", fe.Tag())
	}
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
