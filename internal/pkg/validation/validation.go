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
	fullNameRe      = regexp.MustCompile(`^[a-zA-Z\s]{2,50}$`)
	idNumberRe      = regexp.MustCompile(`^\d{13}$`)
	accountNumberRe = regexp.MustCompile(`^\d{8,12}$`)
	swiftRe         = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
	currencyRe      = regexp.MustCompile(`^[A-Z]{3}$`)
	recipientNameRe = regexp.MustCompile(`^[a-zA-Z\s'.\-]{2,100}$`)
)

// FullName reports whether s is 2-50 letters and spaces
func FullName(s string) bool { return fullNameRe.MatchString(s) }

// IDNumber reports whether s is a 13 digit national id
func IDNumber(s string) bool { return idNumberRe.MatchString(s) }

// AccountNumber reports whether s is 8-12 digits
func AccountNumber(s string) bool { return accountNumberRe.MatchString(s) }

// SwiftCode reports whether s is an 8 or 11 character BIC
func SwiftCode(s string) bool { return swiftRe.MatchString(s) }

// Currency reports whether s is a three letter uppercase code
func Currency(s string) bool { return currencyRe.MatchString(s) }

// RecipientName reports whether s is a plausible beneficiary name
func RecipientName(s string) bool { return recipientNameRe.MatchString(s) }

var messages = map[string]string{
	"fullname":      "must be 2-50 letters and spaces",
	"idnumber":      "must be exactly 13 digits",
	"accountnumber": "must be 8-12 digits",
	"swift":         "must be a valid SWIFT/BIC code",
	"currency":      "must be a 3-letter uppercase currency code",
	"recipientname": "must be 2-100 letters",
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the portal's custom tags
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		mustRegister(v, "fullname", FullName)
		mustRegister(v, "idnumber", IDNumber)
		mustRegister(v, "accountnumber", AccountNumber)
		mustRegister(v, "swift", SwiftCode)
		mustRegister(v, "currency", Currency)
		mustRegister(v, "recipientname", RecipientName)
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn func(string) bool) {
	if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// Struct validates s and returns a list of readable problems, or nil
func Struct(s any) []string {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describe(fe))
	}
	return problems
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	if msg, ok := messages[fe.Tag()]; ok {
		return fmt.Sprintf("%s %s", field, msg)
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must contain valid ids", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
	}
}
