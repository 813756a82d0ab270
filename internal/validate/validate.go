package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	reEmail   = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reContact = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	reQ       = regexp.MustCompile(`^[\p{L}\p{N} _'&.\-]{1,50}$`)
	reCat     = regexp.MustCompile(`^[a-z0-9_]{1,40}$`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report json field names.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = val.RegisterValidation("contact", func(fl validator.FieldLevel) bool {
		return reContact.MatchString(fl.Field().String())
	})
	return val
}

// Struct runs the struct tag rules and returns a message naming the first failing field.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), strings.SplitN(fe.Namespace(), ".", 2)[0]+".")
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "email":
		return fmt.Errorf("%s must be a valid email", field)
	case "contact":
		return fmt.Errorf("%s must be a valid contact number", field)
	case "min", "gte", "gt":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "max", "lte":
		return fmt.Errorf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Errorf("%s is invalid", field)
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

func Contact(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reContact.MatchString(s)
}

// Q validates a search query: trims, truncates, and enforces allowed characters.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 50 {
		s = string(r[:50])
	}
	return s, reQ.MatchString(s)
}

// ID parses a positive numeric resource identifier.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Category validates a catalog category slug such as "cold_drink".
func Category(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, reCat.MatchString(s)
}

// Password enforces a length window; bcrypt ignores bytes past 72.
func Password(s string) bool {
	l := len(s)
	return l >= 6 && l <= 72
}
