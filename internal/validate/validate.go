package validate

import (
	"errors"
	"regexp"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	v     *govalidator.Validate
	trans ut.Translator
	once  sync.Once
)

// simpleEmailRe is the permissive local@domain.tld check the original signup
// form used. Deliberately looser than validator's "email" tag; the server
// remains the authority on address validity.
var simpleEmailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Setup initializes the validator engine with English translations and the
// custom "simpleemail" tag. Safe to call more than once.
func Setup() {
	once.Do(func() {
		v = govalidator.New()

		_ = v.RegisterValidation("simpleemail", func(fl govalidator.FieldLevel) bool {
			return simpleEmailRe.MatchString(fl.Field().String())
		})

		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)
	})
}

// Rule pairs a value with a validator tag and the message to surface when the
// check fails.
type Rule struct {
	Value   interface{}
	Tag     string
	Message string
}

// First evaluates rules in declaration order and returns the message of the
// first failing rule, or "" when every rule passes. Ordering matters: the
// signup and reset forms promise first-failure-wins, so later rules are never
// evaluated once one fails.
func First(rules ...Rule) string {
	Setup()

	for _, r := range rules {
		err := v.Var(r.Value, r.Tag)
		if err == nil {
			continue
		}
		if r.Message != "" {
			return r.Message
		}
		var ve govalidator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return ve[0].Translate(trans)
		}
		return err.Error()
	}
	return ""
}
