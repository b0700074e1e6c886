package material

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/somaedu/soma/core"
)

var (
	fileTypeTag  = "filetype"
	fileTypeText = "file type must be one of: pdf, ppt, video"
)

// RegisterValidators registers this package's custom validators on the app validator.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(fileTypeTag, fileTypeValidation)
	core.RegisterCustomTranslation(validate, translator, fileTypeTag, fileTypeText)
}

func fileTypeValidation(fl validator.FieldLevel) bool {
	ft := fl.Field().String()
	for _, t := range AllFileTypes {
		if ft == t {
			return true
		}
	}
	return false
}
