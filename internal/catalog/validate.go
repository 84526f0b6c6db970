package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/apm/pkg/sanitizer"
)

var productCode = regexp.MustCompile(`^[A-Za-z]{3}-\d{4}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("product_code", func(fl validator.FieldLevel) bool {
		return productCode.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("catalog: register product_code rule: %v", err))
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Normalize cleans user input: the name loses any markup and extra
// whitespace, the code is trimmed. The description stays markdown.
func Normalize(p Product) Product {
	p.Name = sanitizer.PlainText(p.Name)
	p.Code = strings.TrimSpace(p.Code)
	return p
}

// Validate checks a product before it is sent to the API. The returned error
// wraps ErrInvalidProduct and lists every offending field.
func Validate(p Product) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errors.Join(ErrInvalidProduct, err)
	}

	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidProduct, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "product_code":
		return fe.Field() + " must look like ABC-0123"
	default:
		return fe.Field() + " is invalid"
	}
}
