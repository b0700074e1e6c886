package quiz

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/somaedu/soma/core"
)

var (
	optionMarkerTag  = "optionmarker"
	optionMarkerText = "must be one of: A, B, C, D"
)

// RegisterValidators registers this package's custom validators on the app validator.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(optionMarkerTag, optionMarkerValidation)
	core.RegisterCustomTranslation(validate, translator, optionMarkerTag, optionMarkerText)
}

func optionMarkerValidation(fl validator.FieldLevel) bool {
	marker := NormalizeChoice(fl.Field().String())
	for _, opt := range AllOptions {
		if marker == opt {
			return true
		}
	}
	return false
}
