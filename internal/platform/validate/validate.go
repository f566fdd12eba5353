// Package validate wraps go-playground/validator with english translations and
// json tag names, and maps failures to project errors
package validate

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	perr "vqamerge/internal/platform/errors"
	"vqamerge/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldLevel aliases validator.FieldLevel
type FieldLevel = validator.FieldLevel

// FieldError aliases validator.FieldError
type FieldError = validator.FieldError

// Svc holds a singleton validator and translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *Svc
)

// Init initializes the singleton validator with english translations and json tag names
func Init() *Svc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)

		registerShort(v, trans, "required", "{0} is required")
		registerShort(v, trans, "min", "{0} must be at least {1}")
		registerShort(v, trans, "max", "{0} must be at most {1}")
		registerShort(v, trans, "oneof", "{0} must be one of [{1}]")

		vSvc = &Svc{Validator: v, Translator: trans}
	})
	return vSvc
}

// Get returns the validator singleton, initializing on first use
func Get() *Svc {
	if vSvc == nil {
		return Init()
	}
	return vSvc
}

// RegisterValidation registers a custom tag
func RegisterValidation(tag string, fn validator.Func) error {
	return Get().Validator.RegisterValidation(tag, fn)
}

// RegisterRule registers a custom tag together with its english message, e.g. "{0} must be a sql identifier"
func RegisterRule(tag, text string, fn validator.Func) error {
	s := Get()
	if err := s.Validator.RegisterValidation(tag, fn); err != nil {
		return err
	}
	registerShort(s.Validator, s.Translator, tag, text)
	return nil
}

// Struct validates v and returns a perr Validation error carrying the first offending field.
// code lets callers pick the project code (records use Validation, options use InvalidArgument)
func Struct(v any, code perr.ErrorCode) error {
	err := Get().Validator.Struct(v)
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Named("validate").Error().Err(inv).Msg("validator internal error")
		return perr.Wrap(inv, perr.ErrorCodeUnknown, "validation error")
	}
	field, msg := ValidationFieldAndMessage(err)
	return perr.WithField(perr.Newf(code, "%s", msg), field)
}

// ValidationFieldAndMessage returns the first field and translated message
func ValidationFieldAndMessage(err error) (field, message string) {
	if err == nil {
		return "", ""
	}
	if inv, ok := err.(*validator.InvalidValidationError); ok {
		return "", inv.Error()
	}
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			return fe.Field(), fe.Translate(Get().Translator)
		}
	}
	return "", err.Error()
}

func registerShort(v *validator.Validate, trans ut.Translator, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T(tag, fe.Field(), fe.Param())
			return msg
		},
	)
}
