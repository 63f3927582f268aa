package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/somosconsumidores/assistente-inteligente-pro-sub000/internal/domain"
)

var validate = newValidator()

// newValidator reports fields by their json name so messages match the
// request payload the client sent.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct converts the first validator failure into ErrValidation.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &domain.ErrValidation{Field: "body", Message: err.Error()}
	}
	fe := verrs[0]
	return &domain.ErrValidation{Field: fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "campo obrigatório"
	case "gt":
		return fmt.Sprintf("deve ser maior que %s", fe.Param())
	case "gte", "min":
		return fmt.Sprintf("deve ser no mínimo %s", fe.Param())
	case "max":
		return fmt.Sprintf("deve ser no máximo %s", fe.Param())
	case "len":
		return fmt.Sprintf("deve ter %s caracteres", fe.Param())
	case "datetime":
		return fmt.Sprintf("data inválida, use o formato %s", fe.Param())
	default:
		return fmt.Sprintf("falhou na regra '%s'", fe.Tag())
	}
}
