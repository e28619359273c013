package binding

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"

	"github.com/toyz/fnbridge/internal/reflectx"
)

// Validator validates bound values and reports field-keyed messages in the
// caller's locale
type Validator interface {
	// ValidateStruct validates struct tags; keys are field paths
	ValidateStruct(v any, locale string) map[string][]string
	// ValidateVar validates one value against rules such as "required,min=1"
	ValidateVar(field string, v any, rules, locale string) []string
}

// Localizer formats the binder's own messages
type Localizer interface {
	Message(locale, key string, params ...string) string
}

// NopValidator accepts everything. The binder refuses to run with it.
type NopValidator struct{}

func (NopValidator) ValidateStruct(any, string) map[string][]string    { return nil }
func (NopValidator) ValidateVar(string, any, string, string) []string { return nil }

// Message keys
const (
	MsgInvalidValue = "invalid_value"
	MsgInvalidBody  = "invalid_body"
	MsgTitle        = "validation_title"
)

var messages = map[string]map[string]string{
	"en": {
		MsgInvalidValue: "The value '{0}' is not valid for {1}.",
		MsgInvalidBody:  "The request body is not valid JSON.",
		MsgTitle:        "One or more validation errors occurred.",
	},
	"fr": {
		MsgInvalidValue: "La valeur '{0}' n'est pas valide pour {1}.",
		MsgInvalidBody:  "Le corps de la requête n'est pas un JSON valide.",
		MsgTitle:        "Une ou plusieurs erreurs de validation se sont produites.",
	},
	"es": {
		MsgInvalidValue: "El valor '{0}' no es válido para {1}.",
		MsgInvalidBody:  "El cuerpo de la solicitud no es un JSON válido.",
		MsgTitle:        "Se produjeron uno o más errores de validación.",
	},
}

// PlaygroundValidator validates with go-playground/validator and translates
// its messages with universal-translator
type PlaygroundValidator struct {
	validate *validator.Validate
	uni      *ut.UniversalTranslator
}

// NewValidator creates a validator with en, fr and es translations
func NewValidator() (*PlaygroundValidator, error) {
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale, fr.New(), es.New())

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return reflectx.JSONName(f)
	})

	register := map[string]func(*validator.Validate, ut.Translator) error{
		"en": en_translations.RegisterDefaultTranslations,
		"fr": fr_translations.RegisterDefaultTranslations,
		"es": es_translations.RegisterDefaultTranslations,
	}
	for locale, fn := range register {
		trans, _ := uni.GetTranslator(locale)
		if err := fn(v, trans); err != nil {
			return nil, fmt.Errorf("register %s translations: %w", locale, err)
		}
		for key, text := range messages[locale] {
			if err := trans.Add(key, text, true); err != nil {
				return nil, fmt.Errorf("register %s message %s: %w", locale, key, err)
			}
		}
	}

	return &PlaygroundValidator{validate: v, uni: uni}, nil
}

// Engine exposes the underlying validator for custom rules
func (p *PlaygroundValidator) Engine() *validator.Validate {
	return p.validate
}

func (p *PlaygroundValidator) translator(locale string) ut.Translator {
	trans, _ := p.uni.FindTranslator(locale, "en")
	return trans
}

func (p *PlaygroundValidator) ValidateStruct(v any, locale string) map[string][]string {
	err := p.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{"": {err.Error()}}
	}

	trans := p.translator(locale)
	result := make(map[string][]string)
	for _, fe := range verrs {
		key := fe.Namespace()
		if _, rest, ok := strings.Cut(key, "."); ok {
			key = rest
		}
		result[key] = append(result[key], fe.Translate(trans))
	}
	return result
}

func (p *PlaygroundValidator) ValidateVar(field string, v any, rules, locale string) []string {
	err := p.validate.Var(v, rules)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	trans := p.translator(locale)
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Var errors carry no field name; the translations start with it
		msgs = append(msgs, strings.TrimSpace(field+fe.Translate(trans)))
	}
	return msgs
}

// Message formats a binder message in locale, falling back to English
func (p *PlaygroundValidator) Message(locale, key string, params ...string) string {
	if msg, err := p.translator(locale).T(key, params...); err == nil {
		return msg
	}
	return englishMessage(key, params...)
}

func englishMessage(key string, params ...string) string {
	msg := messages["en"][key]
	for i, p := range params {
		msg = strings.ReplaceAll(msg, fmt.Sprintf("{%d}", i), p)
	}
	return msg
}

type fallbackLocalizer struct{}

func (fallbackLocalizer) Message(_, key string, params ...string) string {
	return englishMessage(key, params...)
}
