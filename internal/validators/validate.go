package validators

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/stellar/go-stellar-sdk/strkey"
)

func NewValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("stellar_public_key", publicKeyValidation)
	_ = validate.RegisterValidation("stellar_secret_key", secretKeyValidation)
	validate.RegisterAlias("not_empty", "required")
	return validate
}

func publicKeyValidation(fl validator.FieldLevel) bool {
	return strkey.IsValidEd25519PublicKey(fl.Field().String())
}

func secretKeyValidation(fl validator.FieldLevel) bool {
	return strkey.IsValidEd25519SecretSeed(fl.Field().String())
}

// ParseValidationError maps each failing field, named the way its command line flag is, to a readable problem.
func ParseValidationError(errors validator.ValidationErrors) map[string]string {
	fieldErrors := make(map[string]string, len(errors))
	for _, err := range errors {
		fieldErrors[getFieldName(err)] = msgForFieldError(err)
	}
	return fieldErrors
}

// msgForFieldError gets the message for the given validation error (tag).
func msgForFieldError(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "not_empty":
		return "cannot be empty"
	case "stellar_public_key":
		return "is not a valid Stellar public key"
	case "stellar_secret_key":
		return "is not a valid Stellar secret key"
	case "url":
		return "is not a valid URL"
	case "numeric":
		return "is not a number"
	case "alphanum":
		return "should only contain letters and digits"
	case "oneof":
		params := strings.Join(strings.Split(fieldError.Param(), " "), ", ")
		return fmt.Sprintf("unexpected value %q, expected one of: %s", fieldError.Value(), params)
	case "max":
		return fmt.Sprintf("should be at most %s long", fieldError.Param())
	case "gt":
		return fmt.Sprintf("should be greater than %s", fieldError.Param())
	case "gte":
		return fmt.Sprintf("should be greater than or equal %s", fieldError.Param())
	case "lte":
		return fmt.Sprintf("should be less than or equal %s", fieldError.Param())
	case "gtefield":
		return "must not be shorter than " + kebabCase(fieldError.Param())
	default:
		return "invalid value"
	}
}

func getFieldName(fieldError validator.FieldError) string {
	// Ex.: Configs.HomeDomain, Configs.Nested.FieldName
	namespace := strings.Split(fieldError.StructNamespace(), ".")
	length := len(namespace)
	if length == 2 {
		return kebabCase(namespace[1])
	}

	if length > 2 {
		return fmt.Sprintf("%s.%s", kebabCase(namespace[length-2]), kebabCase(namespace[length-1]))
	}

	return kebabCase(namespace[0])
}

// kebabCase turns a Go field name into its flag spelling.
//
//	Example: HorizonURL -> horizon-url
func kebabCase(str string) string {
	runes := []rune(str)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && unicode.IsLower(runes[i-1])
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1])
			if prevLower || nextLower {
				b.WriteByte('-')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
