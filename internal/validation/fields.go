// Package validation checks user input and the integrity of stored reading data.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	apperrors "github.com/julianstephens/chapterly/internal/errors"
	"github.com/julianstephens/chapterly/internal/utils"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag = "notblank"
	isoDateTag  = "isodate"
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Report JSON names so API clients see the fields they sent.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlank)
	_ = validate.RegisterValidation(isoDateTag, isoDate)
	registerCustomTranslations(notBlankTag, isoDateTag)
}

// The default translations are already registered, so a noop register func
// is enough to attach messages for the custom tags.
func registerCustomTranslations(tags ...string) {
	registerFn := func(ut.Translator) error { return nil }
	for _, tag := range tags {
		_ = validate.RegisterTranslation(tag, translator, registerFn, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	switch fe.Tag() {
	case notBlankTag:
		return strings.TrimSpace(fe.Field() + " cannot be blank")
	case isoDateTag:
		return strings.TrimSpace(fe.Field() + " must be a date in YYYY-MM-DD form")
	default:
		return ""
	}
}

func notBlank(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return false
}

func isoDate(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if s == "" {
		return true
	}
	_, err := utils.ParseDate(s)
	return err == nil
}

// FieldErrors maps JSON field names to readable messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fe[k])
	}
	return strings.Join(parts, "; ")
}

// Struct validates v against its `validate` tags. A failure is returned as
// FieldErrors.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Translate(translator)
	}
	return out
}

// Var validates a single value against tag and reports a failure as an
// apperrors.ValidationError for field.
func Var(field string, value any, tag string) error {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return apperrors.Invalid(field, strings.TrimSpace(verrs[0].Translate(translator)))
	}
	return fmt.Errorf("validating %s: %w", field, err)
}

// Email validates an optional email address.
func Email(s string) error {
	if s == "" {
		return nil
	}
	return Var("email", s, "email")
}

// AsFieldErrors extracts FieldErrors from err, also accepting a single
// apperrors.ValidationError.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		field := ve.Field
		if field == "" {
			field = "error"
		}
		return FieldErrors{field: ve.Error()}, true
	}
	return nil, false
}
